// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package bank

// Default pool parameters, in effect until the owner reconfigures the pool.
// DefaultRewardLock is lower than DefaultTokenLock, a combination the
// configuration check would reject; it is kept as the historical default.
const (
	DefaultRewardCoefficient uint64 = 25 // percent
	DefaultTokenLock         uint64 = 20 // seconds
	DefaultRewardLock        uint64 = 10 // seconds

	MaxRewardCoefficient uint64 = 100
	MinTokenLock         uint64 = 1
)

// Well-known addresses.
var (
	PoolAddress        = NameToAddress("StakingPool")
	StakeTokenAddress  = NameToAddress("StakeToken")
	RewardTokenAddress = NameToAddress("RewardToken")
)
