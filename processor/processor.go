// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package processor executes signed transactions against the pool and its
// tokens, and journals their effects.
package processor

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"
	"github.com/vechain/stakebank/bank"
	"github.com/vechain/stakebank/cache"
	"github.com/vechain/stakebank/kv"
	"github.com/vechain/stakebank/log"
	"github.com/vechain/stakebank/logdb"
	"github.com/vechain/stakebank/staker"
	"github.com/vechain/stakebank/token"
	"github.com/vechain/stakebank/tx"
)

var logger = log.WithContext("pkg", "processor")

// Journal stores the events of executed transactions.
type Journal interface {
	Insert(ctx context.Context, events ...*logdb.Event) error
}

// Monitor observes executed transactions and journal writes.
type Monitor interface {
	TxExecuted(id bank.Bytes32)
	JournalWritten(err error)
}

// Feed receives the events of every executed transaction, after journaling.
type Feed interface {
	Publish(events []*logdb.Event)
}

// Receipt describes an executed transaction.
type Receipt struct {
	ID     bank.Bytes32
	Origin bank.Address
	Method tx.Method
	Amount *big.Int // unstaked or claimed amount, nil for other methods
	Events []*logdb.Event
}

// Processor executes transactions one account at a time, the ledger and token
// locks serializing conflicting calls.
type Processor struct {
	ledger  *staker.Ledger
	tokens  map[bank.Address]*token.Token
	journal Journal
	seen    *cache.Seen
	txs     *registry
	clock   staker.Clock
	monitor Monitor
	feed    Feed
}

// New creates a processor recording executed transactions in db. The journal
// and the seen cache may be nil.
func New(db kv.Store, ledger *staker.Ledger, tokens []*token.Token, journal Journal, seen *cache.Seen, clock staker.Clock) *Processor {
	if clock == nil {
		clock = staker.SystemClock{}
	}
	byAddr := make(map[bank.Address]*token.Token, len(tokens))
	for _, t := range tokens {
		byAddr[t.Address()] = t
	}
	return &Processor{
		ledger:  ledger,
		tokens:  byAddr,
		journal: journal,
		seen:    seen,
		txs:     newRegistry(db),
		clock:   clock,
	}
}

// SetMonitor registers m to be notified of executed transactions.
func (p *Processor) SetMonitor(m Monitor) {
	p.monitor = m
}

// SetFeed registers f to receive the events of executed transactions.
func (p *Processor) SetFeed(f Feed) {
	p.feed = f
}

// Executed reports whether the transaction id was accepted for execution.
func (p *Processor) Executed(id bank.Bytes32) (bool, error) {
	return p.txs.executed(id)
}

// Token returns the token ledger at addr.
func (p *Processor) Token(addr bank.Address) (*token.Token, bool) {
	t, ok := p.tokens[addr]
	return t, ok
}

// Process verifies and executes trx. Reverts leave no effect and let the same
// transaction be submitted again later. A transaction is recorded in the
// registry before it runs, so it executes at most once even across restarts.
func (p *Processor) Process(ctx context.Context, trx *tx.Transaction) (receipt *Receipt, err error) {
	defer func() {
		result := "ok"
		switch {
		case err == nil:
		case IsBadTx(err):
			result = "bad_tx"
		case IsTxRejected(err):
			result = "rejected"
		default:
			result = staker.RevertCode(err)
		}
		metricTxCount().AddWithLabel(1, map[string]string{"method": string(trx.Method()), "result": result})
	}()

	if err := trx.Validate(); err != nil {
		return nil, badTxError{err.Error()}
	}
	origin, err := trx.Origin()
	if err != nil {
		return nil, badTxError{"invalid signature"}
	}
	id, err := trx.ID()
	if err != nil {
		return nil, badTxError{"invalid signature"}
	}

	if p.seen != nil && !p.seen.Mark(id) {
		return nil, txRejectedError{"known transaction"}
	}
	fresh, err := p.txs.claim(id, origin)
	if err != nil {
		if p.seen != nil {
			p.seen.Forget(id)
		}
		return nil, err
	}
	if !fresh {
		return nil, txRejectedError{"known transaction"}
	}

	receipt = &Receipt{ID: id, Origin: origin, Method: trx.Method()}
	events, err := p.execute(trx, receipt)
	if err != nil {
		if rerr := p.txs.release(id); rerr != nil {
			logger.Error("failed to release reverted tx", "id", id, "err", rerr)
		} else if p.seen != nil {
			p.seen.Forget(id)
		}
		return nil, err
	}

	for _, ev := range events {
		ev.TxID = id
		ev.Origin = origin
	}
	receipt.Events = events

	if p.journal != nil && len(events) > 0 {
		err := p.journal.Insert(ctx, events...)
		if err != nil {
			metricJournalErrors().Add(1)
			logger.Error("failed to journal events", "tx", id, "err", err)
		}
		if p.monitor != nil {
			p.monitor.JournalWritten(err)
		}
	}
	if p.monitor != nil {
		p.monitor.TxExecuted(id)
	}
	if p.feed != nil && len(events) > 0 {
		p.feed.Publish(events)
	}
	logger.Debug("tx executed", "id", id, "origin", origin, "method", trx.Method())
	return receipt, nil
}

func (p *Processor) execute(trx *tx.Transaction, receipt *Receipt) ([]*logdb.Event, error) {
	origin := receipt.Origin
	switch trx.Method() {
	case tx.MethodStake:
		amount := trx.Amount()
		stakedAt, err := p.ledger.Stake(origin, amount)
		if err != nil {
			return nil, err
		}
		return []*logdb.Event{{
			Time:    stakedAt,
			Kind:    logdb.KindStaked,
			Account: origin,
			Amount:  amount,
		}}, nil

	case tx.MethodUnstake:
		amount, err := p.ledger.Unstake(origin)
		if err != nil {
			return nil, err
		}
		receipt.Amount = amount
		return []*logdb.Event{{
			Time:    p.clock.Now(),
			Kind:    logdb.KindUnstaked,
			Account: origin,
			Amount:  amount,
		}}, nil

	case tx.MethodClaim:
		reward, err := p.ledger.Claim(origin)
		if err != nil {
			return nil, err
		}
		receipt.Amount = reward
		return []*logdb.Event{{
			Time:    p.clock.Now(),
			Kind:    logdb.KindClaimed,
			Account: origin,
			Amount:  reward,
		}}, nil

	case tx.MethodSetReward:
		if err := p.ledger.ConfigureReward(origin, trx.Coefficient()); err != nil {
			return nil, err
		}
		return []*logdb.Event{{
			Time:    p.clock.Now(),
			Kind:    logdb.KindRewardConfigured,
			Account: p.ledger.Address(),
			Amount:  new(big.Int).SetUint64(trx.Coefficient()),
		}}, nil

	case tx.MethodSetLockTime:
		tokenLock, rewardLock := trx.LockTimes()
		if err := p.ledger.ConfigureLockTimes(origin, tokenLock, rewardLock); err != nil {
			return nil, err
		}
		data, err := rlp.EncodeToBytes([]uint64{tokenLock, rewardLock})
		if err != nil {
			return nil, err
		}
		return []*logdb.Event{{
			Time:    p.clock.Now(),
			Kind:    logdb.KindLockTimesConfigured,
			Account: p.ledger.Address(),
			Data:    data,
		}}, nil

	case tx.MethodApprove, tx.MethodTransfer, tx.MethodMint:
		return p.executeToken(trx, origin)
	}
	return nil, badTxError{"unknown method"}
}

func (p *Processor) executeToken(trx *tx.Transaction, origin bank.Address) ([]*logdb.Event, error) {
	tok, ok := p.tokens[trx.Token()]
	if !ok {
		return nil, badTxError{"unknown token " + trx.Token().String()}
	}
	amount := trx.Amount()
	ev := &logdb.Event{
		Time:    p.clock.Now(),
		Account: trx.To(),
		Amount:  amount,
		Data:    tok.Address().Bytes(),
	}

	var err error
	switch trx.Method() {
	case tx.MethodApprove:
		ev.Kind = logdb.KindApproved
		err = tok.Approve(origin, trx.To(), amount)
	case tx.MethodTransfer:
		ev.Kind = logdb.KindTransferred
		err = tok.Transfer(origin, trx.To(), amount)
	case tx.MethodMint:
		if origin != p.ledger.Owner() {
			return nil, staker.ErrUnauthorized
		}
		ev.Kind = logdb.KindMinted
		err = tok.Mint(trx.To(), amount)
	}
	if err != nil {
		return nil, errors.WithMessage(tokenError(err), tok.Symbol())
	}
	return []*logdb.Event{ev}, nil
}
