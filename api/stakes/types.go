// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package stakes

import (
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/vechain/stakebank/bank"
	"github.com/vechain/stakebank/staker"
)

// Stake is the stake record of an account.
type Stake struct {
	Address  bank.Address          `json:"address"`
	Amount   *math.HexOrDecimal256 `json:"amount"`
	StakedAt uint64                `json:"stakedAt"`
	Claimed  bool                  `json:"claimed"`
}

// Amount is the staked amount of an account.
type Amount struct {
	Amount *math.HexOrDecimal256 `json:"amount"`
}

func convertStake(addr bank.Address, rec staker.StakeRecord) *Stake {
	return &Stake{
		Address:  addr,
		Amount:   (*math.HexOrDecimal256)(rec.Amount),
		StakedAt: rec.StakedAt,
		Claimed:  rec.Claimed,
	}
}
