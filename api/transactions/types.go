// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package transactions

import (
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/vechain/stakebank/bank"
	"github.com/vechain/stakebank/processor"
	"github.com/vechain/stakebank/tx"
)

// RawTx is the hex encoded wire form of a transaction.
type RawTx struct {
	Raw string `json:"raw"`
}

func (r *RawTx) decode() (*tx.Transaction, error) {
	return tx.Parse(r.Raw)
}

// Receipt describes an executed transaction.
type Receipt struct {
	ID     bank.Bytes32          `json:"id"`
	Origin bank.Address          `json:"origin"`
	Method tx.Method             `json:"method"`
	Amount *math.HexOrDecimal256 `json:"amount,omitempty"`
	Events int                   `json:"events"`
}

func convertReceipt(r *processor.Receipt) *Receipt {
	return &Receipt{
		ID:     r.ID,
		Origin: r.Origin,
		Method: r.Method,
		Amount: (*math.HexOrDecimal256)(r.Amount),
		Events: len(r.Events),
	}
}
