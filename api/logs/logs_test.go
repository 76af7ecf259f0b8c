// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package logs_test

import (
	"context"
	"encoding/json"
	"io"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vechain/stakebank/api/logs"
	"github.com/vechain/stakebank/logdb"
	"github.com/vechain/stakebank/test/testbank"
	"github.com/vechain/stakebank/tx"
)

const limit = 5

func httpGet(t *testing.T, url string) ([]byte, int) {
	res, err := http.Get(url) //#nosec G107
	require.NoError(t, err)
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return body, res.StatusCode
}

func TestLogs(t *testing.T) {
	bnk, err := testbank.New()
	require.NoError(t, err)
	defer bnk.Close()

	ctx := context.Background()
	for i := 1; i <= 3; i++ {
		_, err := bnk.Processor().Process(ctx, bnk.Sign(tx.NewBuilder(tx.MethodStake).Amount(big.NewInt(int64(i*100))), bnk.Account(i)))
		require.NoError(t, err)
		bnk.Clock().Advance(10)
	}
	_, err = bnk.Processor().Process(ctx, bnk.Sign(tx.NewBuilder(tx.MethodClaim), bnk.Account(1)))
	require.NoError(t, err)

	router := mux.NewRouter()
	logs.New(bnk.LogDB(), limit).Mount(router, "/logs")
	ts := httptest.NewServer(router)
	defer ts.Close()

	query := func(q string) []*logs.Event {
		body, status := httpGet(t, ts.URL+"/logs"+q)
		require.Equal(t, http.StatusOK, status, string(body))
		var events []*logs.Event
		require.NoError(t, json.Unmarshal(body, &events))
		return events
	}

	all := query("")
	require.Len(t, all, 4)
	assert.Equal(t, logdb.KindClaimed, all[3].Kind)
	assert.Equal(t, big.NewInt(25), (*big.Int)(all[3].Amount))

	desc := query("?order=DESC&limit=2")
	require.Len(t, desc, 2)
	assert.Equal(t, all[3].Seq, desc[0].Seq)

	mine := query("?account=" + bnk.Account(1).Address.String())
	assert.Len(t, mine, 2)

	claims := query("?kind=claimed,unstaked")
	assert.Len(t, claims, 1)

	ranged := query("?from=" + itoa(testbank.StartTime+10) + "&to=" + itoa(testbank.StartTime+20))
	assert.Len(t, ranged, 2)

	paged := query("?offset=3")
	assert.Len(t, paged, 1)

	for _, q := range []string{"?limit=6", "?order=up", "?from=10&to=5", "?account=0x1", "?offset=-1"} {
		_, status := httpGet(t, ts.URL+"/logs"+q)
		assert.NotEqual(t, http.StatusOK, status, q)
	}
}

func itoa(v uint64) string {
	return new(big.Int).SetUint64(v).String()
}
