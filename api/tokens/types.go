// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package tokens

import (
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/vechain/stakebank/bank"
)

// Token describes a token ledger.
type Token struct {
	Address     bank.Address          `json:"address"`
	Name        string                `json:"name"`
	Symbol      string                `json:"symbol"`
	TotalSupply *math.HexOrDecimal256 `json:"totalSupply"`
}

// Balance is the balance of an account and its allowance toward the pool.
type Balance struct {
	Balance   *math.HexOrDecimal256 `json:"balance"`
	Allowance *math.HexOrDecimal256 `json:"allowance"`
}
