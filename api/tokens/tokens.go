// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package tokens

import (
	"net/http"
	"strings"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/vechain/stakebank/api/utils"
	"github.com/vechain/stakebank/bank"
	"github.com/vechain/stakebank/token"
)

type Tokens struct {
	tokens []*token.Token
	pool   bank.Address
}

// New creates the token API. Allowances are reported toward pool.
func New(tokens []*token.Token, pool bank.Address) *Tokens {
	return &Tokens{tokens, pool}
}

func (t *Tokens) lookup(symbol string) *token.Token {
	for _, tok := range t.tokens {
		if strings.EqualFold(tok.Symbol(), symbol) {
			return tok
		}
	}
	return nil
}

func (t *Tokens) handleGetTokens(w http.ResponseWriter, _ *http.Request) error {
	list := make([]*Token, 0, len(t.tokens))
	for _, tok := range t.tokens {
		supply, err := tok.TotalSupply()
		if err != nil {
			return err
		}
		list = append(list, &Token{
			Address:     tok.Address(),
			Name:        tok.Name(),
			Symbol:      tok.Symbol(),
			TotalSupply: (*math.HexOrDecimal256)(supply),
		})
	}
	return utils.WriteJSON(w, list)
}

func (t *Tokens) handleGetBalance(w http.ResponseWriter, req *http.Request) error {
	vars := mux.Vars(req)
	tok := t.lookup(vars["symbol"])
	if tok == nil {
		return utils.NotFound(errors.Errorf("token %v not found", vars["symbol"]))
	}
	addr, err := bank.ParseAddress(vars["address"])
	if err != nil {
		return utils.BadRequest(err, "address")
	}

	balance, err := tok.BalanceOf(*addr)
	if err != nil {
		return err
	}
	allowance, err := tok.Allowance(*addr, t.pool)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &Balance{
		Balance:   (*math.HexOrDecimal256)(balance),
		Allowance: (*math.HexOrDecimal256)(allowance),
	})
}

func (t *Tokens) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").
		Methods(http.MethodGet).
		Name("GET /tokens").
		HandlerFunc(utils.WrapHandlerFunc(t.handleGetTokens))
	sub.Path("/{symbol}/{address}").
		Methods(http.MethodGet).
		Name("GET /tokens/{symbol}/{address}").
		HandlerFunc(utils.WrapHandlerFunc(t.handleGetBalance))
}
