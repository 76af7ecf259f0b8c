// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package middleware

import (
	"bytes"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/pborman/uuid"
	"github.com/vechain/stakebank/log"
)

// RequestIDHeader carries the id of a request, set by the caller or generated.
const RequestIDHeader = "X-Request-Id"

// RequestLoggerMiddleware returns a middleware logging requests when enabled.
// When it is not, requests slower than a non zero slowQueriesThreshold and,
// with log5xxErrors, requests answered with a server error are still logged.
func RequestLoggerMiddleware(logger log.Logger, enabled *atomic.Bool, slowQueriesThreshold time.Duration, log5xxErrors bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := r.Header.Get(RequestIDHeader)
			if reqID == "" {
				reqID = uuid.NewRandom().String()
			}
			w.Header().Set(RequestIDHeader, reqID)

			if !enabled.Load() && slowQueriesThreshold == 0 && !log5xxErrors {
				next.ServeHTTP(w, r)
				return
			}

			// the body can be read once, so keep a copy for the next handler
			var bodyBytes []byte
			if r.Body != nil {
				var err error
				bodyBytes, err = io.ReadAll(r.Body)
				if err != nil {
					logger.Warn("unexpected body read error", "id", reqID, "err", err)
					return
				}
				r.Body = io.NopCloser(bytes.NewReader(bodyBytes))
			}

			start := time.Now()
			mrw := newMetricsResponseWriter(w)
			next.ServeHTTP(mrw, r)

			duration := time.Since(start)
			slow := slowQueriesThreshold > 0 && duration > slowQueriesThreshold
			serverError := log5xxErrors && mrw.statusCode >= http.StatusInternalServerError
			if enabled.Load() || slow || serverError {
				logger.Info("API Request",
					"id", reqID,
					"status", mrw.statusCode,
					"durationMs", duration.Milliseconds(),
					"uri", r.URL.String(),
					"method", r.Method,
					"body", string(bodyBytes),
				)
			}
		})
	}
}
