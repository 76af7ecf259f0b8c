// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package admin

import (
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/gorilla/mux"
	"github.com/vechain/stakebank/api/utils"
	"github.com/vechain/stakebank/log"
)

type logStatus struct {
	Enabled bool `json:"enabled"`
}

type apiLogs struct {
	enabled *atomic.Bool
	mu      sync.Mutex
}

func newAPILogs(enabled *atomic.Bool) *apiLogs {
	return &apiLogs{enabled: enabled}
}

func (a *apiLogs) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()
	sub.Path("").
		Methods(http.MethodGet).
		Name("get-api-logs-enabled").
		HandlerFunc(utils.WrapHandlerFunc(a.areAPILogsEnabled))
	sub.Path("").
		Methods(http.MethodPost).
		Name("post-api-logs-enabled").
		HandlerFunc(utils.WrapHandlerFunc(a.setAPILogsEnabled))
}

func (a *apiLogs) areAPILogsEnabled(w http.ResponseWriter, _ *http.Request) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	return utils.WriteJSON(w, logStatus{Enabled: a.enabled.Load()})
}

func (a *apiLogs) setAPILogsEnabled(w http.ResponseWriter, r *http.Request) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	var req logStatus
	if err := utils.ParseJSON(r.Body, &req); err != nil {
		return utils.BadRequest(err, "body")
	}
	a.enabled.Store(req.Enabled)

	log.Info("api logs updated", "pkg", "admin", "enabled", req.Enabled)

	return utils.WriteJSON(w, logStatus{Enabled: a.enabled.Load()})
}
