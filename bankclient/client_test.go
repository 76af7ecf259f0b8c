// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package bankclient

import (
	"errors"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vechain/stakebank/api"
	"github.com/vechain/stakebank/bank"
	"github.com/vechain/stakebank/logdb"
	"github.com/vechain/stakebank/test/testbank"
	"github.com/vechain/stakebank/tx"
)

func newClient(t *testing.T) (*Client, *testbank.Bank) {
	bnk, err := testbank.New()
	require.NoError(t, err)
	t.Cleanup(bnk.Close)

	handler, closeSubs := api.New(bnk.Ledger(), bnk.Tokens(), bnk.Processor(), bnk.LogDB(), api.Options{LogsLimit: 100})
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	t.Cleanup(closeSubs)
	return New(ts.URL + "/"), bnk
}

func TestClient_StakeFlow(t *testing.T) {
	c, bnk := newClient(t)
	alice := bnk.Account(1)

	receipt, err := c.SendTransaction(bnk.Sign(tx.NewBuilder(tx.MethodStake).Amount(big.NewInt(400)), alice))
	require.NoError(t, err)
	assert.Equal(t, alice.Address, receipt.Origin)

	amount, err := c.StakeAmount(alice.Address)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(400), amount)

	record, err := c.StakeRecord(alice.Address)
	require.NoError(t, err)
	assert.Equal(t, uint64(testbank.StartTime), record.StakedAt)
	assert.False(t, record.Claimed)

	bnk.Clock().Advance(10)
	receipt, err = c.SendTransaction(bnk.Sign(tx.NewBuilder(tx.MethodClaim), alice))
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(100), (*big.Int)(receipt.Amount))

	bal, err := c.Balance("RWD", alice.Address)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(100), (*big.Int)(bal.Balance))

	p, err := c.Pool()
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(400), (*big.Int)(p.TotalStaked))

	list, err := c.Stakes()
	require.NoError(t, err)
	assert.Len(t, list, 1)

	toks, err := c.Tokens()
	require.NoError(t, err)
	assert.Len(t, toks, 2)

	events, err := c.Logs(&logdb.Filter{
		Account: &alice.Address,
		Kinds:   []logdb.Kind{logdb.KindClaimed},
		Range:   &logdb.Range{From: testbank.StartTime},
		Order:   logdb.DESC,
		Options: &logdb.Options{Limit: 10},
	})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, receipt.ID, events[0].TxID)

	all, err := c.Logs(nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestClient_Errors(t *testing.T) {
	c, bnk := newClient(t)

	_, err := c.SendTransaction(bnk.Sign(tx.NewBuilder(tx.MethodUnstake), bnk.Account(1)))
	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusBadRequest, statusErr.Code)
	assert.Contains(t, statusErr.Body, "nothing to unstake")
	assert.ErrorIs(t, err, ErrNot200Status)

	_, err = c.Balance("NOPE", bank.PoolAddress)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = New("http://127.0.0.1:0").Pool()
	assert.Error(t, err)
}

func TestEncodeFilter(t *testing.T) {
	assert.Equal(t, "", encodeFilter(nil))
	assert.Equal(t, "", encodeFilter(&logdb.Filter{}))
	assert.Equal(t, "?kind=staked%2Cclaimed&order=desc", encodeFilter(&logdb.Filter{
		Kinds: []logdb.Kind{logdb.KindStaked, logdb.KindClaimed},
		Order: logdb.DESC,
	}))
}
