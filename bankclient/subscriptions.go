// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package bankclient

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/vechain/stakebank/api/logs"
	"github.com/vechain/stakebank/bank"
	"github.com/vechain/stakebank/logdb"
)

var ErrUnexpectedMsg = errors.New("unexpected message format")

// EventWrapper carries a streamed event, or the error ending the stream.
type EventWrapper struct {
	Data  *logs.Event
	Error error
}

// Subscription is an open event stream.
type Subscription struct {
	EventChan   <-chan EventWrapper
	Unsubscribe func() error
}

// SubscribeEvents streams the events of executed transactions touching
// account, or all when account is nil, optionally limited to kinds.
func (c *Client) SubscribeEvents(account *bank.Address, kinds ...logdb.Kind) (*Subscription, error) {
	query := url.Values{}
	if account != nil {
		query.Set("account", account.String())
	}
	if len(kinds) > 0 {
		names := make([]string, 0, len(kinds))
		for _, k := range kinds {
			names = append(names, string(k))
		}
		query.Set("kind", strings.Join(names, ","))
	}

	conn, err := c.connect("/subscriptions/event", query.Encode())
	if err != nil {
		return nil, fmt.Errorf("unable to connect - %w", err)
	}
	return subscribe(conn), nil
}

func subscribe(conn *websocket.Conn) *Subscription {
	eventChan := make(chan EventWrapper)
	done := make(chan struct{})
	var once sync.Once

	go func() {
		defer close(eventChan)
		defer conn.Close()

		for {
			var data logs.Event
			if err := conn.ReadJSON(&data); err != nil {
				select {
				case eventChan <- EventWrapper{Error: fmt.Errorf("%w: %w", ErrUnexpectedMsg, err)}:
				case <-done:
				}
				return
			}
			select {
			case eventChan <- EventWrapper{Data: &data}:
			case <-done:
				return
			}
		}
	}()

	return &Subscription{
		EventChan: eventChan,
		Unsubscribe: func() (err error) {
			once.Do(func() {
				close(done)
				err = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			})
			return err
		},
	}
}

func (c *Client) connect(endpoint, rawQuery string) (*websocket.Conn, error) {
	u, err := url.Parse(c.url)
	if err != nil {
		return nil, err
	}
	switch u.Scheme {
	case "https", "wss":
		u.Scheme = "wss"
	case "http", "ws":
		u.Scheme = "ws"
	default:
		return nil, fmt.Errorf("invalid url scheme %q", u.Scheme)
	}
	u.Path = strings.TrimRight(u.Path, "/") + endpoint
	u.RawQuery = rawQuery

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return nil, err
	}
	return conn, nil
}
