// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package processor

import "github.com/vechain/stakebank/metrics"

var (
	metricTxCount       = metrics.LazyLoadCounterVec("processor_tx_count", []string{"method", "result"})
	metricJournalErrors = metrics.LazyLoadCounter("processor_journal_errors_count")
)
