// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package processor_test

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vechain/stakebank/bank"
	"github.com/vechain/stakebank/cache"
	"github.com/vechain/stakebank/health"
	"github.com/vechain/stakebank/logdb"
	"github.com/vechain/stakebank/processor"
	"github.com/vechain/stakebank/staker"
	"github.com/vechain/stakebank/test/datagen"
	"github.com/vechain/stakebank/test/testbank"
	"github.com/vechain/stakebank/token"
	"github.com/vechain/stakebank/tx"
)

func newBank(t *testing.T) *testbank.Bank {
	b, err := testbank.New()
	require.NoError(t, err)
	t.Cleanup(b.Close)
	return b
}

func TestStakeUnstakeClaim(t *testing.T) {
	b := newBank(t)
	p := b.Processor()
	ctx := context.Background()
	alice := b.Account(1)

	stakeTx := b.Sign(tx.NewBuilder(tx.MethodStake).Amount(big.NewInt(100)), alice)
	receipt, err := p.Process(ctx, stakeTx)
	require.NoError(t, err)
	assert.Equal(t, alice.Address, receipt.Origin)
	assert.Nil(t, receipt.Amount)
	require.Len(t, receipt.Events, 1)
	assert.Equal(t, logdb.KindStaked, receipt.Events[0].Kind)
	assert.Equal(t, uint64(testbank.StartTime), receipt.Events[0].Time)
	assert.Equal(t, big.NewInt(100), b.Ledger().StakeOf(alice.Address))

	b.Clock().Advance(10)
	receipt, err = p.Process(ctx, b.Sign(tx.NewBuilder(tx.MethodClaim), alice))
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(25), receipt.Amount)

	b.Clock().Advance(10)
	receipt, err = p.Process(ctx, b.Sign(tx.NewBuilder(tx.MethodUnstake), alice))
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(100), receipt.Amount)

	events, err := b.LogDB().Filter(ctx, &logdb.Filter{Account: &alice.Address})
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, []logdb.Kind{logdb.KindStaked, logdb.KindClaimed, logdb.KindUnstaked},
		[]logdb.Kind{events[0].Kind, events[1].Kind, events[2].Kind})
	for _, ev := range events {
		assert.Equal(t, alice.Address, ev.Origin)
		assert.False(t, ev.TxID.IsZero())
	}
}

func TestReplay(t *testing.T) {
	b := newBank(t)
	p := b.Processor()
	ctx := context.Background()
	alice := b.Account(1)

	stakeTx := b.Sign(tx.NewBuilder(tx.MethodStake).Amount(big.NewInt(100)), alice)
	_, err := p.Process(ctx, stakeTx)
	require.NoError(t, err)

	_, err = p.Process(ctx, stakeTx)
	assert.True(t, processor.IsTxRejected(err))

	// a reverted tx may be sent again once it can succeed
	unstakeTx := b.Sign(tx.NewBuilder(tx.MethodUnstake), alice)
	_, err = p.Process(ctx, unstakeTx)
	var tooSoon *staker.TooSoonError
	require.ErrorAs(t, err, &tooSoon)
	assert.Equal(t, uint64(20), tooSoon.Remaining)

	b.Clock().Advance(20)
	_, err = p.Process(ctx, unstakeTx)
	assert.NoError(t, err)
}

func TestReplayAfterEvictionAndRestart(t *testing.T) {
	b := newBank(t)
	ctx := context.Background()
	bob := b.Account(2)
	stranger := datagen.RandAddress()

	seen, err := cache.NewSeen(1)
	require.NoError(t, err)
	p := processor.New(b.DB(), b.Ledger(), b.Tokens(), nil, seen, b.Clock())

	pay := b.Sign(tx.NewBuilder(tx.MethodTransfer).Token(bank.StakeTokenAddress).To(stranger).Amount(big.NewInt(7)), bob)
	_, err = p.Process(ctx, pay)
	require.NoError(t, err)

	// evicts pay from the cache
	_, err = p.Process(ctx, b.Sign(tx.NewBuilder(tx.MethodStake).Amount(big.NewInt(1)), bob))
	require.NoError(t, err)

	_, err = p.Process(ctx, pay)
	assert.True(t, processor.IsTxRejected(err))

	restarted := processor.New(b.DB(), b.Ledger(), b.Tokens(), nil, nil, b.Clock())
	_, err = restarted.Process(ctx, pay)
	assert.True(t, processor.IsTxRejected(err))

	id, err := pay.ID()
	require.NoError(t, err)
	executed, err := restarted.Executed(id)
	require.NoError(t, err)
	assert.True(t, executed)

	bal, err := b.StakeToken().BalanceOf(stranger)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(7), bal)
}

func TestRevertedTxNotRecorded(t *testing.T) {
	b := newBank(t)
	ctx := context.Background()
	p := processor.New(b.DB(), b.Ledger(), b.Tokens(), nil, nil, b.Clock())

	unstakeTx := b.Sign(tx.NewBuilder(tx.MethodUnstake), b.Account(1))
	_, err := p.Process(ctx, unstakeTx)
	assert.ErrorIs(t, err, staker.ErrNothingToUnstake)

	id, err := unstakeTx.ID()
	require.NoError(t, err)
	executed, err := p.Executed(id)
	require.NoError(t, err)
	assert.False(t, executed)
}

type eventFeed struct {
	events []*logdb.Event
}

func (f *eventFeed) Publish(events []*logdb.Event) {
	f.events = append(f.events, events...)
}

func TestFeed(t *testing.T) {
	b := newBank(t)
	p := b.Processor()
	feed := &eventFeed{}
	p.SetFeed(feed)
	ctx := context.Background()

	_, err := p.Process(ctx, b.Sign(tx.NewBuilder(tx.MethodClaim), b.Account(1)))
	assert.Error(t, err)
	assert.Empty(t, feed.events)

	receipt, err := p.Process(ctx, b.Sign(tx.NewBuilder(tx.MethodStake).Amount(big.NewInt(5)), b.Account(1)))
	require.NoError(t, err)
	require.Len(t, feed.events, 1)
	assert.Equal(t, receipt.ID, feed.events[0].TxID)
	assert.Equal(t, logdb.KindStaked, feed.events[0].Kind)
	assert.NotZero(t, feed.events[0].Seq)
}

func TestBadTx(t *testing.T) {
	b := newBank(t)
	p := b.Processor()
	ctx := context.Background()

	unsigned := tx.NewBuilder(tx.MethodStake).Amount(big.NewInt(1)).Build()
	_, err := p.Process(ctx, unsigned)
	assert.True(t, processor.IsBadTx(err))

	unknownToken := b.Sign(tx.NewBuilder(tx.MethodTransfer).Token(datagen.RandAddress()).To(datagen.RandAddress()).Amount(big.NewInt(1)), b.Account(1))
	_, err = p.Process(ctx, unknownToken)
	assert.True(t, processor.IsBadTx(err))

	noCounterpart := b.Sign(tx.NewBuilder(tx.MethodTransfer).Token(bank.StakeTokenAddress).Amount(big.NewInt(1)), b.Account(1))
	_, err = p.Process(ctx, noCounterpart)
	assert.True(t, processor.IsBadTx(err))
}

func TestConfigure(t *testing.T) {
	b := newBank(t)
	p := b.Processor()
	ctx := context.Background()

	_, err := p.Process(ctx, b.Sign(tx.NewBuilder(tx.MethodSetReward).Coefficient(40), b.Account(1)))
	assert.True(t, processor.IsTxRejected(err))
	assert.ErrorIs(t, err, staker.ErrUnauthorized)

	_, err = p.Process(ctx, b.Sign(tx.NewBuilder(tx.MethodSetReward).Coefficient(40), b.Owner()))
	require.NoError(t, err)
	assert.Equal(t, uint64(40), b.Ledger().Config().RewardCoefficient)

	_, err = p.Process(ctx, b.Sign(tx.NewBuilder(tx.MethodSetLockTime).LockTimes(30, 20), b.Owner()))
	assert.Equal(t, "invalid_config", staker.RevertCode(err))

	receipt, err := p.Process(ctx, b.Sign(tx.NewBuilder(tx.MethodSetLockTime).LockTimes(30, 60), b.Owner()))
	require.NoError(t, err)
	var locks []uint64
	require.NoError(t, rlp.DecodeBytes(receipt.Events[0].Data, &locks))
	assert.Equal(t, []uint64{30, 60}, locks)
	assert.Equal(t, b.Ledger().Address(), receipt.Events[0].Account)
}

func TestTokenMethods(t *testing.T) {
	b := newBank(t)
	p := b.Processor()
	ctx := context.Background()
	alice, bob := b.Account(1), b.Account(2)
	stranger := datagen.RandAddress()

	_, err := p.Process(ctx, b.Sign(tx.NewBuilder(tx.MethodMint).Token(bank.RewardTokenAddress).To(stranger).Amount(big.NewInt(5)), alice))
	assert.True(t, processor.IsTxRejected(err))

	_, err = p.Process(ctx, b.Sign(tx.NewBuilder(tx.MethodMint).Token(bank.RewardTokenAddress).To(stranger).Amount(big.NewInt(5)), b.Owner()))
	require.NoError(t, err)
	bal, err := b.RewardToken().BalanceOf(stranger)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(5), bal)

	_, err = p.Process(ctx, b.Sign(tx.NewBuilder(tx.MethodTransfer).Token(bank.StakeTokenAddress).To(stranger).Amount(big.NewInt(7)), bob))
	require.NoError(t, err)
	bal, err = b.StakeToken().BalanceOf(stranger)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(7), bal)

	_, err = p.Process(ctx, b.Sign(tx.NewBuilder(tx.MethodApprove).Token(bank.StakeTokenAddress).To(b.Ledger().Address()).Amount(big.NewInt(0)), alice))
	require.NoError(t, err)

	// allowance withdrawn, stake must fail without effect
	_, err = p.Process(ctx, b.Sign(tx.NewBuilder(tx.MethodStake).Amount(big.NewInt(1)), alice))
	assert.Equal(t, "transfer_failed", staker.RevertCode(err))
	assert.ErrorIs(t, err, token.ErrInsufficientAllowance)
	assert.Equal(t, 0, b.Ledger().StakeOf(alice.Address).Sign())

	_, err = p.Process(ctx, b.Sign(tx.NewBuilder(tx.MethodTransfer).Token(bank.RewardTokenAddress).To(stranger).Amount(big.NewInt(1)), alice))
	assert.Equal(t, "insufficient_balance", staker.RevertCode(err))

	count, err := b.LogDB().Count(ctx, &logdb.Filter{Kinds: []logdb.Kind{logdb.KindMinted, logdb.KindTransferred, logdb.KindApproved}})
	require.NoError(t, err)
	assert.Equal(t, uint64(3), count)
}

type failingJournal struct{}

func (failingJournal) Insert(context.Context, ...*logdb.Event) error {
	return errors.New("journal closed")
}

func TestMonitor(t *testing.T) {
	b := newBank(t)
	h := health.New()
	p := processor.New(b.DB(), b.Ledger(), b.Tokens(), failingJournal{}, nil, b.Clock())
	p.SetMonitor(h)

	trx := b.Sign(tx.NewBuilder(tx.MethodStake).Amount(big.NewInt(10)), b.Account(2))
	receipt, err := p.Process(context.Background(), trx)
	require.NoError(t, err, "journal failures do not revert")
	assert.Equal(t, big.NewInt(10), b.Ledger().StakeOf(b.Account(2).Address))

	status := h.Status()
	assert.False(t, status.Healthy)
	assert.Equal(t, "journal closed", status.JournalError)
	require.NotNil(t, status.TxIngestion)
	assert.Equal(t, receipt.ID, *status.TxIngestion.LastTx)
}
