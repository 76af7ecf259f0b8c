// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package datagen

import (
	"crypto/rand"
	"math/big"
	mathrand "math/rand/v2"

	"github.com/vechain/stakebank/bank"
)

func RandAddress() (addr bank.Address) {
	rand.Read(addr[:])
	return
}

func RandBytes32() (b bank.Bytes32) {
	rand.Read(b[:])
	return
}

func RandIntN(n int) int {
	return mathrand.N(n) //#nosec G404
}

// RandAmount returns a positive amount below limit.
func RandAmount(limit int64) *big.Int {
	return big.NewInt(mathrand.Int64N(limit-1) + 1) //#nosec G404
}
