// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package health

import (
	"sync"
	"time"

	"github.com/vechain/stakebank/bank"
)

type TxIngestion struct {
	LastTx          *bank.Bytes32 `json:"lastTx"`
	LastTxTimestamp *time.Time    `json:"lastTxTimestamp"`
}

type Status struct {
	Healthy      bool         `json:"healthy"`
	TxIngestion  *TxIngestion `json:"txIngestion"`
	Journal      bool         `json:"journal"`
	JournalError string       `json:"journalError,omitempty"`
}

// Health tracks transaction execution and journal writes of a running node.
type Health struct {
	lock       sync.RWMutex
	lastTx     *bank.Bytes32
	lastTxTime time.Time
	journalErr error
}

func New() *Health {
	return &Health{}
}

func (h *Health) TxExecuted(id bank.Bytes32) {
	h.lock.Lock()
	defer h.lock.Unlock()

	h.lastTx = &id
	h.lastTxTime = time.Now()
}

// JournalWritten records the result of the latest journal insert. The node
// stays unhealthy until a later write succeeds.
func (h *Health) JournalWritten(err error) {
	h.lock.Lock()
	defer h.lock.Unlock()

	h.journalErr = err
}

func (h *Health) Status() *Status {
	h.lock.RLock()
	defer h.lock.RUnlock()

	status := &Status{
		Healthy: h.journalErr == nil,
		Journal: h.journalErr == nil,
	}
	if h.lastTx != nil {
		id, ts := *h.lastTx, h.lastTxTime
		status.TxIngestion = &TxIngestion{LastTx: &id, LastTxTimestamp: &ts}
	}
	if h.journalErr != nil {
		status.JournalError = h.journalErr.Error()
	}
	return status
}
