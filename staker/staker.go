// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package staker implements the single pool staking ledger: accounts deposit
// the stake token, withdraw it once the token lock elapsed, and claim a flat
// percentage of their stake in the reward token once the reward lock elapsed.
package staker

import (
	"encoding/binary"
	"math/big"
	"sort"
	"sync"

	"github.com/pkg/errors"
	"github.com/vechain/stakebank/bank"
	"github.com/vechain/stakebank/kv"
	"github.com/vechain/stakebank/log"
)

var logger = log.WithContext("pkg", "staker")

const lockStripes = 64

// Params are the fixed parameters of a ledger. Both tokens must be stored in
// the same db as the ledger, records are committed with their transfers.
type Params struct {
	Owner       bank.Address // the only account allowed to configure the pool
	Address     bank.Address // custody account holding staked funds and rewards
	StakeToken  Token
	RewardToken Token
	Clock       Clock
	Config      PoolConfig // used when the store holds no configuration yet
}

// Ledger is the staking pool.
//
// Every operation holds the config lock for its whole run, shared by stake,
// unstake and claim and exclusive for the configuration calls, plus the lock
// of the account it acts on. All checks and reads happen before the token
// transfer. A record change is written in the transfer's own batch and only
// becomes visible in memory once that batch is committed.
type Ledger struct {
	owner       bank.Address
	addr        bank.Address
	stakeToken  Token
	rewardToken Token
	clock       Clock
	storage     *storage

	cfgLock sync.RWMutex
	config  PoolConfig

	accountLocks [lockStripes]sync.Mutex

	recLock     sync.Mutex
	records     map[bank.Address]StakeRecord
	totalStaked *big.Int
	stakers     int
}

// New opens the ledger persisted in db, initializing it when db holds none.
func New(db kv.Store, p Params) (*Ledger, error) {
	if p.StakeToken == nil || p.RewardToken == nil {
		return nil, errors.New("tokens are required")
	}
	if p.Clock == nil {
		p.Clock = SystemClock{}
	}
	l := &Ledger{
		owner:       p.Owner,
		addr:        p.Address,
		stakeToken:  p.StakeToken,
		rewardToken: p.RewardToken,
		clock:       p.Clock,
		storage:     newStorage(db),
		totalStaked: new(big.Int),
	}

	owner, found, err := l.storage.getOwner()
	if err != nil {
		return nil, err
	}
	if !found {
		if err := l.storage.setOwner(p.Owner); err != nil {
			return nil, err
		}
	} else if owner != p.Owner {
		return nil, errors.Errorf("owner mismatch: stored %v, given %v", owner, p.Owner)
	}

	cfg, found, err := l.storage.getConfig()
	if err != nil {
		return nil, err
	}
	if !found {
		cfg = p.Config
		if err := l.storage.setConfig(cfg); err != nil {
			return nil, err
		}
	}
	l.config = cfg

	records, err := l.storage.loadRecords()
	if err != nil {
		return nil, err
	}
	l.records = records
	for _, rec := range records {
		if rec.IsStaked() {
			l.totalStaked.Add(l.totalStaked, rec.Amount)
			l.stakers++
		}
	}
	metricActiveStakers().Set(int64(l.stakers))

	logger.Debug("ledger opened", "owner", l.owner, "records", len(records), "staked", l.totalStaked)
	return l, nil
}

// Owner returns the account allowed to configure the pool.
func (l *Ledger) Owner() bank.Address { return l.owner }

// Address returns the custody account of the pool.
func (l *Ledger) Address() bank.Address { return l.addr }

// StakeToken returns the address of the staked token.
func (l *Ledger) StakeToken() bank.Address { return l.stakeToken.Address() }

// RewardToken returns the address of the reward token.
func (l *Ledger) RewardToken() bank.Address { return l.rewardToken.Address() }

// Config returns the current pool configuration.
func (l *Ledger) Config() PoolConfig {
	l.cfgLock.RLock()
	defer l.cfgLock.RUnlock()
	return l.config
}

// Record returns a copy of the stake record of addr.
func (l *Ledger) Record(addr bank.Address) StakeRecord {
	l.recLock.Lock()
	defer l.recLock.Unlock()
	return l.records[addr].Copy()
}

// StakeOf returns the amount currently staked by addr.
func (l *Ledger) StakeOf(addr bank.Address) *big.Int {
	return l.Record(addr).Amount
}

// TotalStaked returns the sum of all active stakes.
func (l *Ledger) TotalStaked() *big.Int {
	l.recLock.Lock()
	defer l.recLock.Unlock()
	return new(big.Int).Set(l.totalStaked)
}

// Stakers returns the number of accounts with an active stake.
func (l *Ledger) Stakers() int {
	l.recLock.Lock()
	defer l.recLock.Unlock()
	return l.stakers
}

// Records calls fn for every known record in address order until fn returns false.
func (l *Ledger) Records(fn func(addr bank.Address, rec StakeRecord) bool) {
	l.recLock.Lock()
	addrs := make([]bank.Address, 0, len(l.records))
	snapshot := make(map[bank.Address]StakeRecord, len(l.records))
	for addr, rec := range l.records {
		addrs = append(addrs, addr)
		snapshot[addr] = rec.Copy()
	}
	l.recLock.Unlock()

	sort.Slice(addrs, func(i, j int) bool {
		return string(addrs[i][:]) < string(addrs[j][:])
	})
	for _, addr := range addrs {
		if !fn(addr, snapshot[addr]) {
			return
		}
	}
}

func (l *Ledger) accountLock(addr bank.Address) *sync.Mutex {
	return &l.accountLocks[binary.BigEndian.Uint16(addr[bank.AddressLength-2:])%lockStripes]
}

// applyRecord makes a committed rec visible.
func (l *Ledger) applyRecord(addr bank.Address, rec StakeRecord) {
	l.recLock.Lock()
	defer l.recLock.Unlock()

	if prev, ok := l.records[addr]; ok && prev.IsStaked() {
		l.totalStaked.Sub(l.totalStaked, prev.Amount)
		l.stakers--
	}
	if rec.IsStaked() {
		l.totalStaked.Add(l.totalStaked, rec.Amount)
		l.stakers++
	}
	l.records[addr] = rec
	metricActiveStakers().Set(int64(l.stakers))
}

// ConfigureReward sets the reward coefficient, in percent.
func (l *Ledger) ConfigureReward(caller bank.Address, pct uint64) (err error) {
	defer func() { observe(OpConfigureReward, err) }()

	if caller != l.owner {
		return ErrUnauthorized
	}
	if err := validateRewardCoefficient(pct); err != nil {
		return err
	}

	l.cfgLock.Lock()
	defer l.cfgLock.Unlock()

	cfg := l.config
	cfg.RewardCoefficient = pct
	if err := l.storage.setConfig(cfg); err != nil {
		return err
	}
	l.config = cfg

	logger.Info("reward configured", "coefficient", pct)
	return nil
}

// ConfigureLockTimes sets both lock durations, in seconds.
func (l *Ledger) ConfigureLockTimes(caller bank.Address, tokenLock, rewardLock uint64) (err error) {
	defer func() { observe(OpConfigureLockTimes, err) }()

	if caller != l.owner {
		return ErrUnauthorized
	}
	if err := validateLockTimes(tokenLock, rewardLock); err != nil {
		return err
	}

	l.cfgLock.Lock()
	defer l.cfgLock.Unlock()

	cfg := l.config
	cfg.TokenLockDuration = tokenLock
	cfg.RewardLockDuration = rewardLock
	if err := l.storage.setConfig(cfg); err != nil {
		return err
	}
	l.config = cfg

	logger.Info("lock times configured", "tokenLock", tokenLock, "rewardLock", rewardLock)
	return nil
}

// Stake deposits amount of the stake token from caller and returns the
// deposit time recorded. The new stake replaces any previous record of
// caller, it does not add to it.
func (l *Ledger) Stake(caller bank.Address, amount *big.Int) (stakedAt uint64, err error) {
	defer func() { observe(OpStake, err) }()

	if amount == nil || amount.Sign() <= 0 {
		return 0, ErrInvalidAmount
	}

	l.cfgLock.RLock()
	defer l.cfgLock.RUnlock()

	lock := l.accountLock(caller)
	lock.Lock()
	defer lock.Unlock()

	prev := l.Record(caller)
	rec := StakeRecord{
		Amount:   new(big.Int).Set(amount),
		StakedAt: l.clock.Now(),
	}
	if err := l.stakeToken.TransferFrom(caller, l.addr, amount, stageRecord(caller, rec)); err != nil {
		return 0, transferFailed(err)
	}
	l.applyRecord(caller, rec)

	if prev.IsStaked() {
		logger.Warn("stake replaced", "account", caller, "previous", prev.Amount, "amount", amount)
	}
	logger.Debug("staked", "account", caller, "amount", amount)
	return rec.StakedAt, nil
}

// Unstake returns the whole stake of caller once the token lock elapsed.
func (l *Ledger) Unstake(caller bank.Address) (amount *big.Int, err error) {
	defer func() { observe(OpUnstake, err) }()

	l.cfgLock.RLock()
	defer l.cfgLock.RUnlock()

	lock := l.accountLock(caller)
	lock.Lock()
	defer lock.Unlock()

	rec := l.Record(caller)
	if elapsed := rec.elapsed(l.clock.Now()); elapsed < l.config.TokenLockDuration {
		return nil, &TooSoonError{OpUnstake, l.config.TokenLockDuration - elapsed}
	}
	if !rec.IsStaked() {
		return nil, ErrNothingToUnstake
	}

	cleared := StakeRecord{}
	cleared.normalize()
	if err := l.stakeToken.Transfer(caller, rec.Amount, stageRecord(caller, cleared)); err != nil {
		return nil, transferFailed(err)
	}
	l.applyRecord(caller, cleared)

	logger.Debug("unstaked", "account", caller, "amount", rec.Amount)
	return rec.Amount, nil
}

// Claim pays the reward of caller's current stake once the reward lock elapsed.
// The reward of a stake can be claimed once.
func (l *Ledger) Claim(caller bank.Address) (reward *big.Int, err error) {
	defer func() { observe(OpClaim, err) }()

	l.cfgLock.RLock()
	defer l.cfgLock.RUnlock()

	lock := l.accountLock(caller)
	lock.Lock()
	defer lock.Unlock()

	rec := l.Record(caller)
	if elapsed := rec.elapsed(l.clock.Now()); elapsed < l.config.RewardLockDuration {
		return nil, &TooSoonError{OpClaim, l.config.RewardLockDuration - elapsed}
	}
	if !rec.IsStaked() {
		return nil, ErrNotAStaker
	}
	if rec.Claimed {
		return nil, ErrNothingToClaim
	}

	reward = l.config.Reward(rec.Amount)
	claimed := rec.Copy()
	claimed.Claimed = true
	if err := l.rewardToken.Transfer(caller, reward, stageRecord(caller, claimed)); err != nil {
		return nil, transferFailed(err)
	}
	l.applyRecord(caller, claimed)

	logger.Debug("claimed", "account", caller, "reward", reward)
	return reward, nil
}
