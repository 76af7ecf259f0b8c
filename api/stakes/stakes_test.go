// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package stakes_test

import (
	"encoding/json"
	"io"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vechain/stakebank/api/stakes"
	"github.com/vechain/stakebank/test/datagen"
	"github.com/vechain/stakebank/test/testbank"
)

func httpGet(t *testing.T, url string) ([]byte, int) {
	res, err := http.Get(url) //#nosec G107
	require.NoError(t, err)
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return body, res.StatusCode
}

func TestStakes(t *testing.T) {
	bnk, err := testbank.New()
	require.NoError(t, err)
	defer bnk.Close()

	alice := bnk.Account(1).Address
	_, err = bnk.Ledger().Stake(alice, big.NewInt(300))
	require.NoError(t, err)
	bnk.Clock().Advance(10)
	_, err = bnk.Ledger().Claim(alice)
	require.NoError(t, err)

	router := mux.NewRouter()
	stakes.New(bnk.Ledger()).Mount(router, "/stakes")
	ts := httptest.NewServer(router)
	defer ts.Close()

	body, status := httpGet(t, ts.URL+"/stakes/"+alice.String())
	require.Equal(t, http.StatusOK, status)
	var stake stakes.Stake
	require.NoError(t, json.Unmarshal(body, &stake))
	assert.Equal(t, alice, stake.Address)
	assert.Equal(t, big.NewInt(300), (*big.Int)(stake.Amount))
	assert.Equal(t, uint64(testbank.StartTime), stake.StakedAt)
	assert.True(t, stake.Claimed)

	body, status = httpGet(t, ts.URL+"/stakes/"+alice.String()+"/amount")
	require.Equal(t, http.StatusOK, status)
	var amount stakes.Amount
	require.NoError(t, json.Unmarshal(body, &amount))
	assert.Equal(t, big.NewInt(300), (*big.Int)(amount.Amount))

	// never staked
	body, status = httpGet(t, ts.URL+"/stakes/"+datagen.RandAddress().String()+"/amount")
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(body, &amount))
	assert.Equal(t, 0, (*big.Int)(amount.Amount).Sign())

	body, status = httpGet(t, ts.URL+"/stakes")
	require.Equal(t, http.StatusOK, status)
	var list []*stakes.Stake
	require.NoError(t, json.Unmarshal(body, &list))
	require.Len(t, list, 1)
	assert.Equal(t, alice, list[0].Address)

	_, status = httpGet(t, ts.URL+"/stakes/0xbad")
	assert.Equal(t, http.StatusBadRequest, status)
}
