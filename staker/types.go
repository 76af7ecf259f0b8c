// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staker

import (
	"math/big"

	"github.com/vechain/stakebank/bank"
	"github.com/vechain/stakebank/kv"
)

// Operation names, used in logs, metrics and errors.
const (
	OpConfigureReward    = "configureReward"
	OpConfigureLockTimes = "configureLockTimes"
	OpStake              = "stake"
	OpUnstake            = "unstake"
	OpClaim              = "claim"
)

// PoolConfig holds the owner mutable parameters of the pool.
type PoolConfig struct {
	RewardCoefficient  uint64 // percent of the staked amount paid as reward
	TokenLockDuration  uint64 // seconds before a stake can be withdrawn
	RewardLockDuration uint64 // seconds before the reward can be claimed
}

// DefaultPoolConfig returns the configuration of a freshly created pool.
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		RewardCoefficient:  bank.DefaultRewardCoefficient,
		TokenLockDuration:  bank.DefaultTokenLock,
		RewardLockDuration: bank.DefaultRewardLock,
	}
}

func validateRewardCoefficient(pct uint64) error {
	if pct > bank.MaxRewardCoefficient {
		return &InvalidConfigError{ReasonRewardTooHigh}
	}
	return nil
}

func validateLockTimes(tokenLock, rewardLock uint64) error {
	if tokenLock < bank.MinTokenLock {
		return &InvalidConfigError{ReasonTokenLockTooShort}
	}
	if rewardLock <= tokenLock {
		return &InvalidConfigError{ReasonRewardLockTooShort}
	}
	return nil
}

// Reward returns the reward owed for staking amount, truncated.
func (c PoolConfig) Reward(amount *big.Int) *big.Int {
	reward := new(big.Int).Mul(amount, new(big.Int).SetUint64(c.RewardCoefficient))
	return reward.Div(reward, big.NewInt(100))
}

// StakeRecord is the stake of one account. The zero record stands for both
// an account that never staked and one that unstaked.
type StakeRecord struct {
	Amount   *big.Int
	StakedAt uint64 // unix seconds of the latest deposit
	Claimed  bool
}

func (r *StakeRecord) normalize() {
	if r.Amount == nil {
		r.Amount = new(big.Int)
	}
}

// Copy returns a deep copy of the record.
func (r StakeRecord) Copy() StakeRecord {
	c := r
	c.Amount = new(big.Int)
	if r.Amount != nil {
		c.Amount.Set(r.Amount)
	}
	return c
}

// IsStaked reports whether the record holds an active stake.
func (r StakeRecord) IsStaked() bool {
	return r.Amount != nil && r.Amount.Sign() > 0
}

// elapsed returns the seconds since the latest deposit, 0 if now precedes it.
func (r StakeRecord) elapsed(now uint64) uint64 {
	if now < r.StakedAt {
		return 0
	}
	return now - r.StakedAt
}

// Token is the capability the pool needs from a token ledger. Calls act as
// the pool's own custody account. The writes staged by also must be
// committed in the same batch as the balance change, against the db the
// ledger is stored in.
type Token interface {
	Address() bank.Address
	BalanceOf(addr bank.Address) (*big.Int, error)
	TransferFrom(from, to bank.Address, amount *big.Int, also ...func(w kv.Putter) error) error
	Transfer(to bank.Address, amount *big.Int, also ...func(w kv.Putter) error) error
}
