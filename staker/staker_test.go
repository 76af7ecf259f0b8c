// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staker

import (
	"bytes"
	"math/big"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vechain/stakebank/bank"
	"github.com/vechain/stakebank/kv"
	"github.com/vechain/stakebank/lvldb"
	"github.com/vechain/stakebank/token"
)

const genesisTime = 1_700_000_000

var (
	owner = bank.BytesToAddress([]byte("owner"))
	alice = bank.BytesToAddress([]byte("alice"))
	bob   = bank.BytesToAddress([]byte("bob"))
)

type testEnv struct {
	db     *lvldb.LevelDB
	stake  *token.Token
	reward *token.Token
	clock  *ManualClock
	ledger *Ledger
}

// flakyToken fails transfers out of the pool while broken is set.
type flakyToken struct {
	*token.Holder
	broken bool
}

func (f *flakyToken) Transfer(to bank.Address, amount *big.Int, also ...func(w kv.Putter) error) error {
	if f.broken {
		return errors.New("ledger unavailable")
	}
	return f.Holder.Transfer(to, amount, also...)
}

// recordFaultStore fails every commit touching a stake record while broken is set.
type recordFaultStore struct {
	kv.Store
	broken bool
}

func (s *recordFaultStore) Bulk() kv.Bulk {
	return &recordFaultBulk{Bulk: s.Store.Bulk(), store: s}
}

type recordFaultBulk struct {
	kv.Bulk
	store   *recordFaultStore
	records bool
}

func (b *recordFaultBulk) touch(key []byte) {
	if bytes.HasPrefix(key, []byte("staker/r")) {
		b.records = true
	}
}

func (b *recordFaultBulk) Put(key, val []byte) error {
	b.touch(key)
	return b.Bulk.Put(key, val)
}

func (b *recordFaultBulk) Delete(key []byte) error {
	b.touch(key)
	return b.Bulk.Delete(key)
}

func (b *recordFaultBulk) Write() error {
	if b.records && b.store.broken {
		return errors.New("disk full")
	}
	return b.Bulk.Write()
}

func newTestEnv(t *testing.T) *testEnv {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	env := &testEnv{
		db:     db,
		stake:  token.New(bank.StakeTokenAddress, "Stake Token", "STK", db),
		reward: token.New(bank.RewardTokenAddress, "Reward Token", "RWD", db),
		clock:  NewManualClock(genesisTime),
	}
	for _, acc := range []bank.Address{alice, bob} {
		require.NoError(t, env.stake.Mint(acc, big.NewInt(10_000)))
		require.NoError(t, env.stake.Approve(acc, bank.PoolAddress, big.NewInt(10_000)))
	}
	require.NoError(t, env.reward.Mint(bank.PoolAddress, big.NewInt(1_000_000)))

	env.ledger = env.open(t)
	return env
}

func (env *testEnv) params() Params {
	return Params{
		Owner:       owner,
		Address:     bank.PoolAddress,
		StakeToken:  env.stake.Bind(bank.PoolAddress),
		RewardToken: env.reward.Bind(bank.PoolAddress),
		Clock:       env.clock,
		Config:      DefaultPoolConfig(),
	}
}

func (env *testEnv) open(t *testing.T) *Ledger {
	ledger, err := New(env.db, env.params())
	require.NoError(t, err)
	return ledger
}

func stake(t *testing.T, l *Ledger, acc bank.Address, amount int64) uint64 {
	stakedAt, err := l.Stake(acc, big.NewInt(amount))
	require.NoError(t, err)
	return stakedAt
}

func balance(t *testing.T, tok *token.Token, addr bank.Address) int64 {
	bal, err := tok.BalanceOf(addr)
	require.NoError(t, err)
	return bal.Int64()
}

func TestDefaults(t *testing.T) {
	env := newTestEnv(t)

	cfg := env.ledger.Config()
	assert.Equal(t, uint64(25), cfg.RewardCoefficient)
	assert.Equal(t, uint64(20), cfg.TokenLockDuration)
	assert.Equal(t, uint64(10), cfg.RewardLockDuration)

	assert.Equal(t, owner, env.ledger.Owner())
	assert.Equal(t, bank.PoolAddress, env.ledger.Address())
	assert.Equal(t, bank.StakeTokenAddress, env.ledger.StakeToken())
	assert.Equal(t, bank.RewardTokenAddress, env.ledger.RewardToken())
	assert.Equal(t, int64(0), env.ledger.StakeOf(alice).Int64())
}

func TestConfigureReward(t *testing.T) {
	env := newTestEnv(t)

	assert.ErrorIs(t, env.ledger.ConfigureReward(alice, 50), ErrUnauthorized)

	for _, pct := range []uint64{101, 200} {
		err := env.ledger.ConfigureReward(owner, pct)
		var cfgErr *InvalidConfigError
		require.ErrorAs(t, err, &cfgErr)
		assert.Equal(t, ReasonRewardTooHigh, cfgErr.Reason)
	}
	assert.Equal(t, uint64(25), env.ledger.Config().RewardCoefficient)

	for _, pct := range []uint64{0, 50, 100} {
		assert.NoError(t, env.ledger.ConfigureReward(owner, pct))
		assert.Equal(t, pct, env.ledger.Config().RewardCoefficient)
	}
}

func TestConfigureLockTimes(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		tokenLock  uint64
		rewardLock uint64
		reason     string
	}{
		{0, 0, ReasonTokenLockTooShort},
		{0, 5, ReasonTokenLockTooShort},
		{1, 0, ReasonRewardLockTooShort},
		{1, 1, ReasonRewardLockTooShort},
		{20, 10, ReasonRewardLockTooShort},
		{1, 2, ""},
		{30, 60, ""},
	}
	for _, tt := range tests {
		err := env.ledger.ConfigureLockTimes(owner, tt.tokenLock, tt.rewardLock)
		if tt.reason == "" {
			require.NoError(t, err)
			cfg := env.ledger.Config()
			assert.Equal(t, tt.tokenLock, cfg.TokenLockDuration)
			assert.Equal(t, tt.rewardLock, cfg.RewardLockDuration)
			continue
		}
		var cfgErr *InvalidConfigError
		require.ErrorAs(t, err, &cfgErr)
		assert.Equal(t, tt.reason, cfgErr.Reason)
	}

	before := env.ledger.Config()
	assert.ErrorIs(t, env.ledger.ConfigureLockTimes(bob, 5, 10), ErrUnauthorized)
	assert.Equal(t, before, env.ledger.Config())
}

func TestStakeThenUnstake(t *testing.T) {
	env := newTestEnv(t)

	stake(t, env.ledger, alice, 1000)
	assert.Equal(t, int64(1000), env.ledger.StakeOf(alice).Int64())
	assert.Equal(t, int64(9000), balance(t, env.stake, alice))
	assert.Equal(t, int64(1000), balance(t, env.stake, bank.PoolAddress))

	_, err := env.ledger.Unstake(alice)
	var tooSoon *TooSoonError
	require.ErrorAs(t, err, &tooSoon)
	assert.Equal(t, OpUnstake, tooSoon.Op)
	assert.Equal(t, uint64(20), tooSoon.Remaining)

	env.clock.Advance(19)
	_, err = env.ledger.Unstake(alice)
	require.ErrorAs(t, err, &tooSoon)
	assert.Equal(t, uint64(1), tooSoon.Remaining)

	env.clock.Advance(1)
	amount, err := env.ledger.Unstake(alice)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), amount.Int64())
	assert.Equal(t, int64(0), env.ledger.StakeOf(alice).Int64())
	assert.Equal(t, int64(10_000), balance(t, env.stake, alice))

	_, err = env.ledger.Unstake(alice)
	assert.ErrorIs(t, err, ErrNothingToUnstake)
}

func TestClaimAndUnstakeAfterShortLocks(t *testing.T) {
	env := newTestEnv(t)

	stake(t, env.ledger, alice, 1000)
	require.NoError(t, env.ledger.ConfigureLockTimes(owner, 1, 2))
	env.clock.Advance(2)

	reward, err := env.ledger.Claim(alice)
	require.NoError(t, err)
	assert.Equal(t, int64(250), reward.Int64())
	assert.Equal(t, int64(250), balance(t, env.reward, alice))

	amount, err := env.ledger.Unstake(alice)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), amount.Int64())
	assert.Equal(t, int64(0), env.ledger.StakeOf(alice).Int64())
}

func TestClaimUsesCurrentCoefficient(t *testing.T) {
	env := newTestEnv(t)

	stake(t, env.ledger, alice, 1000)
	require.NoError(t, env.ledger.ConfigureReward(owner, 50))
	require.NoError(t, env.ledger.ConfigureLockTimes(owner, 1, 2))

	_, err := env.ledger.Claim(alice)
	var tooSoon *TooSoonError
	require.ErrorAs(t, err, &tooSoon)
	assert.Equal(t, OpClaim, tooSoon.Op)

	env.clock.Advance(2)
	reward, err := env.ledger.Claim(alice)
	require.NoError(t, err)
	assert.Equal(t, int64(500), reward.Int64())

	_, err = env.ledger.Claim(alice)
	assert.ErrorIs(t, err, ErrNothingToClaim)
	assert.Equal(t, int64(500), balance(t, env.reward, alice))
}

func TestRewardTruncates(t *testing.T) {
	cfg := PoolConfig{RewardCoefficient: 33}
	assert.Equal(t, int64(3), cfg.Reward(big.NewInt(10)).Int64())
	assert.Equal(t, int64(0), cfg.Reward(big.NewInt(3)).Int64())
	assert.Equal(t, int64(250), DefaultPoolConfig().Reward(big.NewInt(1000)).Int64())
}

func TestWithoutStake(t *testing.T) {
	env := newTestEnv(t)
	env.clock.Advance(2)

	_, err := env.ledger.Claim(bob)
	assert.ErrorIs(t, err, ErrNotAStaker)

	_, err = env.ledger.Unstake(bob)
	assert.ErrorIs(t, err, ErrNothingToUnstake)

	// unstaked accounts look the same as fresh ones
	require.NoError(t, env.ledger.ConfigureLockTimes(owner, 1, 2))
	stake(t, env.ledger, alice, 10)
	env.clock.Advance(1)
	_, err = env.ledger.Unstake(alice)
	require.NoError(t, err)
	env.clock.Advance(1)
	_, err = env.ledger.Claim(alice)
	assert.ErrorIs(t, err, ErrNotAStaker)
}

func TestStakeRejections(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.ledger.Stake(alice, big.NewInt(0))
	assert.ErrorIs(t, err, ErrInvalidAmount)
	_, err = env.ledger.Stake(alice, nil)
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = env.ledger.Stake(alice, big.NewInt(10_001))
	var failed *TransferFailedError
	require.ErrorAs(t, err, &failed)
	assert.ErrorIs(t, err, token.ErrInsufficientAllowance)
	assert.Equal(t, token.ErrInsufficientAllowance.Error(), failed.Reason)

	stranger := bank.BytesToAddress([]byte("stranger"))
	_, err = env.ledger.Stake(stranger, big.NewInt(1))
	assert.ErrorIs(t, err, token.ErrInsufficientAllowance)

	assert.Equal(t, int64(0), env.ledger.StakeOf(alice).Int64())
	assert.Equal(t, int64(10_000), balance(t, env.stake, alice))
	assert.Equal(t, 0, env.ledger.Stakers())
}

func TestStakeReplacesPreviousRecord(t *testing.T) {
	env := newTestEnv(t)

	assert.Equal(t, uint64(genesisTime), stake(t, env.ledger, alice, 1000))
	env.clock.Advance(15)
	assert.Equal(t, uint64(genesisTime+15), stake(t, env.ledger, alice, 300))

	rec := env.ledger.Record(alice)
	assert.Equal(t, int64(300), rec.Amount.Int64())
	assert.Equal(t, uint64(genesisTime+15), rec.StakedAt)
	assert.False(t, rec.Claimed)
	assert.Equal(t, int64(300), env.ledger.TotalStaked().Int64())

	// both deposits were pulled into custody
	assert.Equal(t, int64(1300), balance(t, env.stake, bank.PoolAddress))

	// the lock restarts from the latest deposit
	env.clock.Advance(10)
	_, err := env.ledger.Unstake(alice)
	var tooSoon *TooSoonError
	assert.ErrorAs(t, err, &tooSoon)
}

func TestClaimResetsOnRestake(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.ledger.ConfigureLockTimes(owner, 1, 2))

	stake(t, env.ledger, alice, 100)
	env.clock.Advance(2)
	_, err := env.ledger.Claim(alice)
	require.NoError(t, err)

	stake(t, env.ledger, alice, 200)
	env.clock.Advance(2)
	reward, err := env.ledger.Claim(alice)
	require.NoError(t, err)
	assert.Equal(t, int64(50), reward.Int64())
}

func TestClaimTransferFailure(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.ledger.ConfigureLockTimes(owner, 1, 2))

	// drain the reward pool
	require.NoError(t, env.reward.Transfer(bank.PoolAddress, owner, big.NewInt(1_000_000)))

	stake(t, env.ledger, alice, 1000)
	env.clock.Advance(2)

	_, err := env.ledger.Claim(alice)
	var failed *TransferFailedError
	require.ErrorAs(t, err, &failed)
	assert.ErrorIs(t, err, token.ErrInsufficientBalance)
	assert.False(t, env.ledger.Record(alice).Claimed)

	require.NoError(t, env.reward.Mint(bank.PoolAddress, big.NewInt(250)))
	reward, err := env.ledger.Claim(alice)
	require.NoError(t, err)
	assert.Equal(t, int64(250), reward.Int64())
}

func TestUnstakeTransferFailure(t *testing.T) {
	env := newTestEnv(t)
	flaky := &flakyToken{Holder: env.stake.Bind(bank.PoolAddress)}
	params := env.params()
	params.StakeToken = flaky

	ledger, err := New(env.db, params)
	require.NoError(t, err)

	stake(t, ledger, alice, 1000)
	env.clock.Advance(20)

	flaky.broken = true
	_, err = ledger.Unstake(alice)
	var failed *TransferFailedError
	require.ErrorAs(t, err, &failed)
	assert.Equal(t, "ledger unavailable", failed.Reason)
	assert.Equal(t, int64(1000), ledger.StakeOf(alice).Int64())

	flaky.broken = false
	amount, err := ledger.Unstake(alice)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), amount.Int64())
}

func TestUnstakeCommitFailure(t *testing.T) {
	env := newTestEnv(t)
	store := &recordFaultStore{Store: env.db}
	params := env.params()
	params.StakeToken = token.New(bank.StakeTokenAddress, "Stake Token", "STK", store).Bind(bank.PoolAddress)
	params.RewardToken = token.New(bank.RewardTokenAddress, "Reward Token", "RWD", store).Bind(bank.PoolAddress)

	ledger, err := New(store, params)
	require.NoError(t, err)
	stake(t, ledger, alice, 1000)
	env.clock.Advance(20)

	store.broken = true
	_, err = ledger.Unstake(alice)
	var failed *TransferFailedError
	require.ErrorAs(t, err, &failed)

	assert.Equal(t, int64(9000), balance(t, env.stake, alice))
	assert.Equal(t, int64(1000), balance(t, env.stake, bank.PoolAddress))
	assert.Equal(t, int64(1000), ledger.StakeOf(alice).Int64())
	assert.Equal(t, int64(1000), ledger.TotalStaked().Int64())
	assert.Equal(t, 1, ledger.Stakers())

	reopened, err := New(env.db, params)
	require.NoError(t, err)
	assert.Equal(t, ledger.Record(alice), reopened.Record(alice))

	store.broken = false
	amount, err := ledger.Unstake(alice)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), amount.Int64())
	assert.Equal(t, int64(10_000), balance(t, env.stake, alice))
}

func TestStakeCommitFailure(t *testing.T) {
	env := newTestEnv(t)
	store := &recordFaultStore{Store: env.db, broken: true}
	params := env.params()
	params.StakeToken = token.New(bank.StakeTokenAddress, "Stake Token", "STK", store).Bind(bank.PoolAddress)

	ledger, err := New(store, params)
	require.NoError(t, err)

	_, err = ledger.Stake(alice, big.NewInt(1000))
	assert.Error(t, err)
	assert.Equal(t, int64(10_000), balance(t, env.stake, alice))
	assert.Equal(t, int64(0), ledger.StakeOf(alice).Int64())
	allowance, err := env.stake.Allowance(alice, bank.PoolAddress)
	require.NoError(t, err)
	assert.Equal(t, int64(10_000), allowance.Int64())
}

func TestReopen(t *testing.T) {
	env := newTestEnv(t)

	require.NoError(t, env.ledger.ConfigureReward(owner, 40))
	require.NoError(t, env.ledger.ConfigureLockTimes(owner, 3, 6))
	stake(t, env.ledger, alice, 700)
	stake(t, env.ledger, bob, 300)
	env.clock.Advance(6)
	_, err := env.ledger.Claim(bob)
	require.NoError(t, err)
	_, err = env.ledger.Unstake(bob)
	require.NoError(t, err)

	reopened := env.open(t)
	assert.Equal(t, PoolConfig{40, 3, 6}, reopened.Config())
	assert.Equal(t, env.ledger.Record(alice), reopened.Record(alice))
	assert.Equal(t, int64(0), reopened.StakeOf(bob).Int64())
	assert.Equal(t, int64(700), reopened.TotalStaked().Int64())
	assert.Equal(t, 1, reopened.Stakers())

	var seen []bank.Address
	reopened.Records(func(addr bank.Address, _ StakeRecord) bool {
		seen = append(seen, addr)
		return true
	})
	assert.ElementsMatch(t, []bank.Address{alice, bob}, seen)

	params := env.params()
	params.Owner = alice
	_, err = New(env.db, params)
	assert.Error(t, err)
}

func TestConcurrentClaimPaysOnce(t *testing.T) {
	env := newTestEnv(t)
	stake(t, env.ledger, alice, 1000)
	env.clock.Advance(10)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		paid    int
		refused int
	)
	for range 16 {
		wg.Go(func() {
			_, err := env.ledger.Claim(alice)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				paid++
			} else if errors.Is(err, ErrNothingToClaim) {
				refused++
			}
		})
	}
	wg.Wait()

	assert.Equal(t, 1, paid)
	assert.Equal(t, 15, refused)
	assert.Equal(t, int64(250), balance(t, env.reward, alice))
}

func TestConcurrentStakersAndConfig(t *testing.T) {
	env := newTestEnv(t)

	accounts := make([]bank.Address, 32)
	for i := range accounts {
		accounts[i] = bank.BytesToAddress([]byte{byte(i + 1), 0xaa})
		require.NoError(t, env.stake.Mint(accounts[i], big.NewInt(100)))
		require.NoError(t, env.stake.Approve(accounts[i], bank.PoolAddress, big.NewInt(100)))
	}

	var wg sync.WaitGroup
	for _, acc := range accounts {
		wg.Go(func() {
			_, err := env.ledger.Stake(acc, big.NewInt(100))
			assert.NoError(t, err)
		})
	}
	wg.Go(func() {
		assert.NoError(t, env.ledger.ConfigureReward(owner, 10))
	})
	wg.Wait()

	assert.Equal(t, int64(3200), env.ledger.TotalStaked().Int64())
	assert.Equal(t, len(accounts), env.ledger.Stakers())
	assert.Equal(t, int64(3200), balance(t, env.stake, bank.PoolAddress))
}

func TestRevertClassification(t *testing.T) {
	tests := []struct {
		err  error
		code string
	}{
		{ErrUnauthorized, "unauthorized"},
		{&InvalidConfigError{ReasonRewardTooHigh}, "invalid_config"},
		{&TooSoonError{OpClaim, 1}, "too_soon"},
		{transferFailed(token.ErrInsufficientBalance), "transfer_failed"},
		{ErrNothingToUnstake, "nothing_to_unstake"},
		{ErrNotAStaker, "not_a_staker"},
		{ErrNothingToClaim, "nothing_to_claim"},
		{errors.Wrap(ErrNothingToClaim, "api"), "nothing_to_claim"},
	}
	for _, tt := range tests {
		assert.True(t, IsRevert(tt.err))
		assert.Equal(t, tt.code, RevertCode(tt.err))
	}
	assert.False(t, IsRevert(errors.New("disk full")))
	assert.Equal(t, "error", RevertCode(errors.New("disk full")))

	assert.Equal(t, "too soon to claim reward, 3s remaining", (&TooSoonError{OpClaim, 3}).Error())
	assert.Equal(t, "too soon to unstake, 1s remaining", (&TooSoonError{OpUnstake, 1}).Error())
}
