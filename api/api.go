// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package api

import (
	"net/http"
	"net/http/pprof"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/vechain/stakebank/api/logs"
	"github.com/vechain/stakebank/api/middleware"
	"github.com/vechain/stakebank/api/pool"
	"github.com/vechain/stakebank/api/stakes"
	"github.com/vechain/stakebank/api/subscriptions"
	"github.com/vechain/stakebank/api/tokens"
	"github.com/vechain/stakebank/api/transactions"
	"github.com/vechain/stakebank/log"
	"github.com/vechain/stakebank/logdb"
	"github.com/vechain/stakebank/processor"
	"github.com/vechain/stakebank/staker"
	"github.com/vechain/stakebank/token"
)

var logger = log.WithContext("pkg", "api")

type Options struct {
	AllowedOrigins       string
	LogsLimit            uint64
	PprofOn              bool
	SkipLogs             bool
	EnableReqLogger      *atomic.Bool
	SlowQueriesThreshold time.Duration
	Log5xxErrors         bool
	EnableMetrics        bool
}

// New return api router, and a func closing the hijacked subscription conns.
// The processor is set to feed the subscriptions.
func New(
	ledger *staker.Ledger,
	tokenList []*token.Token,
	proc *processor.Processor,
	logDB *logdb.LogDB,
	opts Options,
) (http.HandlerFunc, func()) {
	origins := strings.Split(strings.TrimSpace(opts.AllowedOrigins), ",")
	for i, o := range origins {
		origins[i] = strings.ToLower(strings.TrimSpace(o))
	}

	router := mux.NewRouter()

	pool.New(ledger).
		Mount(router, "/pool")
	stakes.New(ledger).
		Mount(router, "/stakes")
	tokens.New(tokenList, ledger.Address()).
		Mount(router, "/tokens")
	transactions.New(proc).
		Mount(router, "/transactions")
	if !opts.SkipLogs {
		logs.New(logDB, opts.LogsLimit).
			Mount(router, "/logs")
	}
	subs := subscriptions.New(origins)
	subs.Mount(router, "/subscriptions")
	proc.SetFeed(subs)

	if opts.PprofOn {
		router.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		router.HandleFunc("/debug/pprof/profile", pprof.Profile)
		router.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		router.HandleFunc("/debug/pprof/trace", pprof.Trace)
		router.PathPrefix("/debug/pprof/").HandlerFunc(pprof.Index)
	}

	if opts.EnableMetrics {
		router.Use(middleware.MetricsMiddleware)
	}

	handler := handlers.CompressHandler(router)
	handler = handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedHeaders([]string{"content-type", middleware.RequestIDHeader}),
		handlers.ExposedHeaders([]string{middleware.RequestIDHeader}),
	)(handler)

	enabled := opts.EnableReqLogger
	if enabled == nil {
		enabled = &atomic.Bool{}
	}
	handler = middleware.RequestLoggerMiddleware(logger, enabled, opts.SlowQueriesThreshold, opts.Log5xxErrors)(handler)

	return handler.ServeHTTP, subs.Close
}
