// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package transactions

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/vechain/stakebank/api/utils"
	"github.com/vechain/stakebank/processor"
	"github.com/vechain/stakebank/staker"
)

var errBodyRequired = errors.New("body required")

type Transactions struct {
	processor *processor.Processor
}

func New(processor *processor.Processor) *Transactions {
	return &Transactions{processor}
}

func (t *Transactions) handleSendTransaction(w http.ResponseWriter, req *http.Request) error {
	var raw *RawTx
	if err := utils.ParseJSON(req.Body, &raw); err != nil {
		return utils.BadRequest(err, "body")
	}
	if raw == nil {
		return utils.BadRequest(errBodyRequired, "body")
	}
	trx, err := raw.decode()
	if err != nil {
		return utils.BadRequest(err, "raw")
	}

	receipt, err := t.processor.Process(req.Context(), trx)
	if err != nil {
		if processor.IsBadTx(err) {
			return utils.BadRequest(err, "bad tx")
		}
		if processor.IsTxRejected(err) {
			return utils.Forbidden(err, "rejected tx")
		}
		if staker.IsRevert(err) {
			return utils.BadRequest(err, "reverted "+staker.RevertCode(err))
		}
		return err
	}
	return utils.WriteJSON(w, convertReceipt(receipt))
}

func (t *Transactions) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").
		Methods(http.MethodPost).
		Name("POST /transactions").
		HandlerFunc(utils.WrapHandlerFunc(t.handleSendTransaction))
}
