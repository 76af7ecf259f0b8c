// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package subscriptions streams the events of executed transactions to
// websocket clients.
package subscriptions

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/vechain/stakebank/api/logs"
	"github.com/vechain/stakebank/api/utils"
	"github.com/vechain/stakebank/bank"
	"github.com/vechain/stakebank/log"
	"github.com/vechain/stakebank/logdb"
	"github.com/vechain/stakebank/metrics"
)

const (
	// time allowed to read the next pong from the client
	pongWait = 60 * time.Second
	// must be less than pongWait
	pingPeriod = (pongWait * 7) / 10
	writeWait  = 10 * time.Second

	listenerBuffer = 64
)

var (
	logger                 = log.WithContext("pkg", "subscriptions")
	metricActiveWebsockets = metrics.LazyLoadGauge("api_active_websocket_count")
)

type Subscriptions struct {
	upgrader  *websocket.Upgrader
	listeners map[chan *logdb.Event]struct{}
	mu        sync.RWMutex
	done      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// New creates the subscription endpoints. Websocket handshakes are accepted
// from the given origins only, "*" allowing any.
func New(allowedOrigins []string) *Subscriptions {
	return &Subscriptions{
		upgrader: &websocket.Upgrader{
			EnableCompression: true,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				origin = strings.ToLower(origin)
				for _, allowed := range allowedOrigins {
					if allowed == origin || allowed == "*" {
						return true
					}
				}
				return false
			},
		},
		listeners: make(map[chan *logdb.Event]struct{}),
		done:      make(chan struct{}),
	}
}

func (s *Subscriptions) Subscribe(ch chan *logdb.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.listeners[ch] = struct{}{}
}

func (s *Subscriptions) Unsubscribe(ch chan *logdb.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.listeners, ch)
}

// Publish broadcasts events to every listener.
func (s *Subscriptions) Publish(events []*logdb.Event) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for lsn := range s.listeners {
		for _, ev := range events {
			select {
			case lsn <- ev:
			default: // non-blocking, a lagging listener misses events
			}
		}
	}
}

type eventFilter struct {
	account *bank.Address
	kinds   map[logdb.Kind]bool
}

func parseEventFilter(req *http.Request) (*eventFilter, error) {
	query := req.URL.Query()
	filter := &eventFilter{}

	if s := query.Get("account"); s != "" {
		addr, err := bank.ParseAddress(s)
		if err != nil {
			return nil, utils.BadRequest(err, "account")
		}
		filter.account = addr
	}
	if s := query.Get("kind"); s != "" {
		filter.kinds = make(map[logdb.Kind]bool)
		for k := range strings.SplitSeq(s, ",") {
			filter.kinds[logdb.Kind(strings.TrimSpace(k))] = true
		}
	}
	return filter, nil
}

func (f *eventFilter) match(ev *logdb.Event) bool {
	if f.account != nil && ev.Account != *f.account && ev.Origin != *f.account {
		return false
	}
	return f.kinds == nil || f.kinds[ev.Kind]
}

func (s *Subscriptions) handleSubscribeEvents(w http.ResponseWriter, req *http.Request) error {
	s.wg.Add(1)
	defer s.wg.Done()

	filter, err := parseEventFilter(req)
	if err != nil {
		return err
	}

	// listen before the handshake completes, the client may act on it at once
	ch := make(chan *logdb.Event, listenerBuffer)
	s.Subscribe(ch)
	defer s.Unsubscribe(ch)

	conn, err := s.upgrader.Upgrade(w, req, nil)
	if err != nil {
		// the upgrader already replied
		logger.Debug("websocket upgrade failed", "err", err)
		return nil
	}
	defer conn.Close()

	metricActiveWebsockets().Add(1)
	defer metricActiveWebsockets().Add(-1)

	if err := s.pipe(conn, ch, filter); err != nil {
		logger.Debug("subscription closed", "remote", req.RemoteAddr, "err", err)
	}
	return nil
}

func (s *Subscriptions) pipe(conn *websocket.Conn, ch <-chan *logdb.Event, filter *eventFilter) error {
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		// only control frames are expected, reading drives the pong and close handlers
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case ev := <-ch:
			if !filter.match(ev) {
				continue
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(logs.ConvertEvent(ev)); err != nil {
				return err
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return err
			}
		case <-closed:
			return nil
		case <-s.done:
			msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")
			return conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
		}
	}
}

// Close ends every open subscription and waits for their handlers to return.
func (s *Subscriptions) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
	})
	s.wg.Wait()
}

func (s *Subscriptions) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/event").
		Methods(http.MethodGet).
		Name("WS /subscriptions/event").
		HandlerFunc(utils.WrapHandlerFunc(s.handleSubscribeEvents))
}
