// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package admin

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/vechain/stakebank/api/utils"
	"github.com/vechain/stakebank/health"
)

type healthAPI struct {
	health *health.Health
}

func newHealthAPI(h *health.Health) *healthAPI {
	return &healthAPI{health: h}
}

func (h *healthAPI) handleGetHealth(w http.ResponseWriter, _ *http.Request) error {
	status := h.health.Status()
	if !status.Healthy {
		w.Header().Set("Content-Type", utils.JSONContentType)
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	return utils.WriteJSON(w, status)
}

func (h *healthAPI) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()
	sub.Path("").
		Methods(http.MethodGet).
		Name("health").
		HandlerFunc(utils.WrapHandlerFunc(h.handleGetHealth))
}
