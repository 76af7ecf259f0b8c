// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package admin serves the operator endpoints of a node: log level, request
// logging and health.
package admin

import (
	"log/slog"
	"net/http"
	"sync/atomic"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/vechain/stakebank/health"
)

func New(logLevel *slog.LevelVar, h *health.Health, apiLogs *atomic.Bool) http.HandlerFunc {
	router := mux.NewRouter()
	sub := router.PathPrefix("/admin").Subrouter()

	newLogLevel(logLevel).Mount(sub, "/loglevel")
	newAPILogs(apiLogs).Mount(sub, "/apilogs")
	newHealthAPI(h).Mount(sub, "/health")

	return handlers.CompressHandler(router).ServeHTTP
}
