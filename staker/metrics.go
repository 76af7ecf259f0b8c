// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staker

import "github.com/vechain/stakebank/metrics"

var (
	metricLedgerOps     = metrics.LazyLoadCounterVec("ledger_ops_count", []string{"op", "result"})
	metricActiveStakers = metrics.LazyLoadGauge("ledger_active_stakers_count")
)

func observe(op string, err error) {
	result := "ok"
	if err != nil {
		result = RevertCode(err)
	}
	metricLedgerOps().AddWithLabel(1, map[string]string{"op": op, "result": result})
}
