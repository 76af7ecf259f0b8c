// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package admin

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/vechain/stakebank/api/utils"
	"github.com/vechain/stakebank/log"
)

type logLevelRequest struct {
	Level string `json:"level"`
}

type logLevelResponse struct {
	CurrentLevel string `json:"currentLevel"`
}

var levels = map[string]slog.Level{
	"trace": log.LevelTrace,
	"debug": log.LevelDebug,
	"info":  log.LevelInfo,
	"warn":  log.LevelWarn,
	"error": log.LevelError,
	"crit":  log.LevelCrit,
}

type logLevel struct {
	level *slog.LevelVar
}

func newLogLevel(level *slog.LevelVar) *logLevel {
	return &logLevel{level}
}

func (l *logLevel) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()
	sub.Path("").
		Methods(http.MethodGet).
		Name("get-log-level").
		HandlerFunc(utils.WrapHandlerFunc(l.getLogLevel))
	sub.Path("").
		Methods(http.MethodPost).
		Name("post-log-level").
		HandlerFunc(utils.WrapHandlerFunc(l.postLogLevel))
}

func (l *logLevel) getLogLevel(w http.ResponseWriter, _ *http.Request) error {
	return utils.WriteJSON(w, logLevelResponse{
		CurrentLevel: log.LevelString(l.level.Level()),
	})
}

func (l *logLevel) postLogLevel(w http.ResponseWriter, r *http.Request) error {
	var req logLevelRequest
	if err := utils.ParseJSON(r.Body, &req); err != nil {
		return utils.BadRequest(err, "body")
	}
	lvl, ok := levels[req.Level]
	if !ok {
		return utils.BadRequest(errors.Errorf("unknown level %q", req.Level), "level")
	}
	l.level.Set(lvl)
	log.Info("log level changed", "pkg", "admin", "level", req.Level)

	return utils.WriteJSON(w, logLevelResponse{
		CurrentLevel: log.LevelString(l.level.Level()),
	})
}
