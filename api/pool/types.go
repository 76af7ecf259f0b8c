// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package pool

import (
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/vechain/stakebank/bank"
)

// Pool is the public state of the staking pool.
type Pool struct {
	Address           bank.Address          `json:"address"`
	Owner             bank.Address          `json:"owner"`
	StakeToken        bank.Address          `json:"stakeToken"`
	RewardToken       bank.Address          `json:"rewardToken"`
	RewardCoefficient uint64                `json:"rewardCoefficient"`
	TokenLock         uint64                `json:"tokenLock"`
	RewardLock        uint64                `json:"rewardLock"`
	TotalStaked       *math.HexOrDecimal256 `json:"totalStaked"`
	Stakers           int                   `json:"stakers"`
}
