// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package stakes

import (
	"net/http"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/gorilla/mux"
	"github.com/vechain/stakebank/api/utils"
	"github.com/vechain/stakebank/bank"
	"github.com/vechain/stakebank/staker"
)

type Stakes struct {
	ledger *staker.Ledger
}

func New(ledger *staker.Ledger) *Stakes {
	return &Stakes{ledger}
}

func (s *Stakes) handleGetStakes(w http.ResponseWriter, _ *http.Request) error {
	list := make([]*Stake, 0, s.ledger.Stakers())
	s.ledger.Records(func(addr bank.Address, rec staker.StakeRecord) bool {
		list = append(list, convertStake(addr, rec))
		return true
	})
	return utils.WriteJSON(w, list)
}

func (s *Stakes) handleGetStake(w http.ResponseWriter, req *http.Request) error {
	addr, err := bank.ParseAddress(mux.Vars(req)["address"])
	if err != nil {
		return utils.BadRequest(err, "address")
	}
	return utils.WriteJSON(w, convertStake(*addr, s.ledger.Record(*addr)))
}

func (s *Stakes) handleGetStakeAmount(w http.ResponseWriter, req *http.Request) error {
	addr, err := bank.ParseAddress(mux.Vars(req)["address"])
	if err != nil {
		return utils.BadRequest(err, "address")
	}
	return utils.WriteJSON(w, &Amount{(*math.HexOrDecimal256)(s.ledger.StakeOf(*addr))})
}

func (s *Stakes) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").
		Methods(http.MethodGet).
		Name("GET /stakes").
		HandlerFunc(utils.WrapHandlerFunc(s.handleGetStakes))
	sub.Path("/{address}").
		Methods(http.MethodGet).
		Name("GET /stakes/{address}").
		HandlerFunc(utils.WrapHandlerFunc(s.handleGetStake))
	sub.Path("/{address}/amount").
		Methods(http.MethodGet).
		Name("GET /stakes/{address}/amount").
		HandlerFunc(utils.WrapHandlerFunc(s.handleGetStakeAmount))
}
