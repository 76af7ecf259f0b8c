// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package logs

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/vechain/stakebank/api/utils"
	"github.com/vechain/stakebank/bank"
	"github.com/vechain/stakebank/logdb"
)

type Logs struct {
	logDB *logdb.LogDB
	limit uint64
}

// New creates the journal API, answering at most limit events per query.
func New(logDB *logdb.LogDB, limit uint64) *Logs {
	return &Logs{logDB, limit}
}

func (l *Logs) parseFilter(req *http.Request) (*logdb.Filter, error) {
	query := req.URL.Query()
	filter := &logdb.Filter{}

	if s := query.Get("account"); s != "" {
		addr, err := bank.ParseAddress(s)
		if err != nil {
			return nil, utils.BadRequest(err, "account")
		}
		filter.Account = addr
	}
	if s := query.Get("tx"); s != "" {
		id, err := bank.ParseBytes32(s)
		if err != nil {
			return nil, utils.BadRequest(err, "tx")
		}
		filter.TxID = &id
	}
	if s := query.Get("kind"); s != "" {
		for k := range strings.SplitSeq(s, ",") {
			filter.Kinds = append(filter.Kinds, logdb.Kind(strings.TrimSpace(k)))
		}
	}

	from, err := utils.StringToUint64(query.Get("from"), 0)
	if err != nil {
		return nil, utils.BadRequest(err, "from")
	}
	to, err := utils.StringToUint64(query.Get("to"), 0)
	if err != nil {
		return nil, utils.BadRequest(err, "to")
	}
	if to > 0 && to < from {
		return nil, utils.BadRequest(errors.New("to precedes from"), "range")
	}
	if from > 0 || to > 0 {
		filter.Range = &logdb.Range{From: from, To: to}
	}

	switch order := logdb.Order(strings.ToLower(query.Get("order"))); order {
	case "", logdb.ASC:
		filter.Order = logdb.ASC
	case logdb.DESC:
		filter.Order = logdb.DESC
	default:
		return nil, utils.BadRequest(errors.Errorf("unknown order %q", order), "order")
	}

	offset, err := utils.StringToUint64(query.Get("offset"), 0)
	if err != nil {
		return nil, utils.BadRequest(err, "offset")
	}
	limit, err := utils.StringToUint64(query.Get("limit"), l.limit)
	if err != nil {
		return nil, utils.BadRequest(err, "limit")
	}
	if limit > l.limit {
		return nil, utils.Forbidden(errors.Errorf("limit exceeds maximum allowed value of %d", l.limit), "limit")
	}
	filter.Options = &logdb.Options{Offset: offset, Limit: limit}
	return filter, nil
}

func (l *Logs) handleFilter(w http.ResponseWriter, req *http.Request) error {
	filter, err := l.parseFilter(req)
	if err != nil {
		return err
	}
	events, err := l.logDB.Filter(req.Context(), filter)
	if err != nil {
		return err
	}
	list := make([]*Event, 0, len(events))
	for _, ev := range events {
		list = append(list, ConvertEvent(ev))
	}
	return utils.WriteJSON(w, list)
}

func (l *Logs) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").
		Methods(http.MethodGet).
		Name("GET /logs").
		HandlerFunc(utils.WrapHandlerFunc(l.handleFilter))
}
