// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package logs

import (
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/vechain/stakebank/bank"
	"github.com/vechain/stakebank/logdb"
)

// Event is a journaled event.
type Event struct {
	Seq     uint64                `json:"seq"`
	Time    uint64                `json:"time"`
	TxID    bank.Bytes32          `json:"txID"`
	Origin  bank.Address          `json:"origin"`
	Kind    logdb.Kind            `json:"kind"`
	Account bank.Address          `json:"account"`
	Amount  *math.HexOrDecimal256 `json:"amount"`
	Data    hexutil.Bytes         `json:"data"`
}

// ConvertEvent converts a journaled event to its JSON form.
func ConvertEvent(ev *logdb.Event) *Event {
	return &Event{
		Seq:     ev.Seq,
		Time:    ev.Time,
		TxID:    ev.TxID,
		Origin:  ev.Origin,
		Kind:    ev.Kind,
		Account: ev.Account,
		Amount:  (*math.HexOrDecimal256)(ev.Amount),
		Data:    ev.Data,
	}
}
