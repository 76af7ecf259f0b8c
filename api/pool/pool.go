// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package pool

import (
	"net/http"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/gorilla/mux"
	"github.com/vechain/stakebank/api/utils"
	"github.com/vechain/stakebank/staker"
)

type API struct {
	ledger *staker.Ledger
}

func New(ledger *staker.Ledger) *API {
	return &API{ledger}
}

func (a *API) handleGetPool(w http.ResponseWriter, _ *http.Request) error {
	cfg := a.ledger.Config()
	return utils.WriteJSON(w, &Pool{
		Address:           a.ledger.Address(),
		Owner:             a.ledger.Owner(),
		StakeToken:        a.ledger.StakeToken(),
		RewardToken:       a.ledger.RewardToken(),
		RewardCoefficient: cfg.RewardCoefficient,
		TokenLock:         cfg.TokenLockDuration,
		RewardLock:        cfg.RewardLockDuration,
		TotalStaked:       (*math.HexOrDecimal256)(a.ledger.TotalStaked()),
		Stakers:           a.ledger.Stakers(),
	})
}

func (a *API) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").
		Methods(http.MethodGet).
		Name("GET /pool").
		HandlerFunc(utils.WrapHandlerFunc(a.handleGetPool))
}
