// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package bankclient provides an HTTP client to interact with a stakebank
// server: pool state, stakes, token balances, transactions and the journal.
package bankclient

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/vechain/stakebank/api/logs"
	"github.com/vechain/stakebank/api/pool"
	"github.com/vechain/stakebank/api/stakes"
	"github.com/vechain/stakebank/api/tokens"
	"github.com/vechain/stakebank/api/transactions"
	"github.com/vechain/stakebank/bank"
	"github.com/vechain/stakebank/logdb"
	"github.com/vechain/stakebank/tx"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrNot200Status = errors.New("not 200 status code")
)

// StatusError is returned for responses other than 200.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("http error - Status Code %d - %s", e.Code, strings.TrimSpace(e.Body))
}

func (e *StatusError) Unwrap() error {
	if e.Code == http.StatusNotFound {
		return ErrNotFound
	}
	return ErrNot200Status
}

// Client represents the HTTP client for interacting with a stakebank server.
type Client struct {
	url string
	c   *http.Client
}

// New creates a new Client with the provided URL.
func New(url string) *Client {
	return NewWithHTTP(url, http.DefaultClient)
}

func NewWithHTTP(url string, c *http.Client) *Client {
	return &Client{
		url: strings.TrimRight(url, "/"),
		c:   c,
	}
}

// URL returns the server URL.
func (c *Client) URL() string {
	return c.url
}

// Pool retrieves the pool state.
func (c *Client) Pool() (*pool.Pool, error) {
	var res pool.Pool
	if err := c.getJSON(c.url+"/pool", &res); err != nil {
		return nil, fmt.Errorf("unable to retrieve pool - %w", err)
	}
	return &res, nil
}

// StakeRecord retrieves the stake record of addr.
func (c *Client) StakeRecord(addr bank.Address) (*stakes.Stake, error) {
	var res stakes.Stake
	if err := c.getJSON(c.url+"/stakes/"+addr.String(), &res); err != nil {
		return nil, fmt.Errorf("unable to retrieve stake - %w", err)
	}
	return &res, nil
}

// StakeAmount retrieves the staked amount of addr.
func (c *Client) StakeAmount(addr bank.Address) (*big.Int, error) {
	var res stakes.Amount
	if err := c.getJSON(c.url+"/stakes/"+addr.String()+"/amount", &res); err != nil {
		return nil, fmt.Errorf("unable to retrieve stake amount - %w", err)
	}
	if res.Amount == nil {
		return new(big.Int), nil
	}
	return (*big.Int)(res.Amount), nil
}

// Stakes retrieves every known stake record.
func (c *Client) Stakes() ([]*stakes.Stake, error) {
	var res []*stakes.Stake
	if err := c.getJSON(c.url+"/stakes", &res); err != nil {
		return nil, fmt.Errorf("unable to retrieve stakes - %w", err)
	}
	return res, nil
}

// Tokens retrieves the token ledgers served.
func (c *Client) Tokens() ([]*tokens.Token, error) {
	var res []*tokens.Token
	if err := c.getJSON(c.url+"/tokens", &res); err != nil {
		return nil, fmt.Errorf("unable to retrieve tokens - %w", err)
	}
	return res, nil
}

// Balance retrieves the balance of addr in the token named symbol.
func (c *Client) Balance(symbol string, addr bank.Address) (*tokens.Balance, error) {
	var res tokens.Balance
	if err := c.getJSON(c.url+"/tokens/"+url.PathEscape(symbol)+"/"+addr.String(), &res); err != nil {
		return nil, fmt.Errorf("unable to retrieve balance - %w", err)
	}
	return &res, nil
}

// SendTransaction sends a signed transaction and returns its receipt.
func (c *Client) SendTransaction(trx *tx.Transaction) (*transactions.Receipt, error) {
	raw, err := trx.Raw()
	if err != nil {
		return nil, fmt.Errorf("unable to encode transaction - %w", err)
	}
	return c.SendRawTransaction(&transactions.RawTx{Raw: raw})
}

// SendRawTransaction sends a raw transaction and returns its receipt.
func (c *Client) SendRawTransaction(raw *transactions.RawTx) (*transactions.Receipt, error) {
	body, err := c.httpPOST(c.url+"/transactions", raw)
	if err != nil {
		return nil, fmt.Errorf("unable to send raw transaction - %w", err)
	}

	var receipt transactions.Receipt
	if err = json.Unmarshal(body, &receipt); err != nil {
		return nil, fmt.Errorf("unable to unmarshal receipt - %w", err)
	}
	return &receipt, nil
}

// Logs queries the journal.
func (c *Client) Logs(filter *logdb.Filter) ([]*logs.Event, error) {
	var res []*logs.Event
	if err := c.getJSON(c.url+"/logs"+encodeFilter(filter), &res); err != nil {
		return nil, fmt.Errorf("unable to retrieve logs - %w", err)
	}
	return res, nil
}

func encodeFilter(filter *logdb.Filter) string {
	if filter == nil {
		return ""
	}
	q := url.Values{}
	if filter.Account != nil {
		q.Set("account", filter.Account.String())
	}
	if filter.TxID != nil {
		q.Set("tx", filter.TxID.String())
	}
	if len(filter.Kinds) > 0 {
		kinds := make([]string, 0, len(filter.Kinds))
		for _, k := range filter.Kinds {
			kinds = append(kinds, string(k))
		}
		q.Set("kind", strings.Join(kinds, ","))
	}
	if filter.Range != nil {
		if filter.Range.From > 0 {
			q.Set("from", strconv.FormatUint(filter.Range.From, 10))
		}
		if filter.Range.To > 0 {
			q.Set("to", strconv.FormatUint(filter.Range.To, 10))
		}
	}
	if filter.Order != "" {
		q.Set("order", string(filter.Order))
	}
	if filter.Options != nil {
		q.Set("offset", strconv.FormatUint(filter.Options.Offset, 10))
		q.Set("limit", strconv.FormatUint(filter.Options.Limit, 10))
	}
	if len(q) == 0 {
		return ""
	}
	return "?" + q.Encode()
}

func (c *Client) getJSON(url string, v any) error {
	body, err := c.httpGET(url)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("unable to unmarshal response - %w", err)
	}
	return nil
}

func (c *Client) httpRequest(method, url string, payload io.Reader) ([]byte, error) {
	req, err := http.NewRequest(method, url, payload)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	if method == http.MethodPost {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.c.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error performing request: %w", err)
	}
	defer resp.Body.Close()

	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{resp.StatusCode, string(responseBody)}
	}
	return responseBody, nil
}

func (c *Client) httpGET(url string) ([]byte, error) {
	return c.httpRequest(http.MethodGet, url, nil)
}

func (c *Client) httpPOST(url string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("unable to marshal payload - %w", err)
	}
	return c.httpRequest(http.MethodPost, url, bytes.NewReader(data))
}
