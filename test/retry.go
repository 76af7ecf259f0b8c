// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package test

import (
	"time"

	"github.com/pkg/errors"
)

// Retry calls fn every retryPeriod until it succeeds or maxWaitTime elapsed.
func Retry(fn func() error, retryPeriod, maxWaitTime time.Duration) error {
	startTime := time.Now()
	for {
		err := fn()
		if err == nil {
			return nil
		}

		if time.Since(startTime) > maxWaitTime {
			return errors.WithMessage(err, "retry timeout, latest err")
		}
		time.Sleep(retryPeriod)
	}
}
