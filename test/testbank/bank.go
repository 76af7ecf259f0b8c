// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package testbank builds a complete in-memory pool on the dev genesis.
package testbank

import (
	"sync/atomic"

	"github.com/vechain/stakebank/cache"
	"github.com/vechain/stakebank/genesis"
	"github.com/vechain/stakebank/logdb"
	"github.com/vechain/stakebank/lvldb"
	"github.com/vechain/stakebank/processor"
	"github.com/vechain/stakebank/staker"
	"github.com/vechain/stakebank/token"
	"github.com/vechain/stakebank/tx"
)

// StartTime is the initial reading of the bank clock.
const StartTime = 1_700_000_000

// Bank is a pool with its tokens, journal and processor.
type Bank struct {
	db        *lvldb.LevelDB
	logDB     *logdb.LogDB
	genesis   *genesis.Genesis
	clock     *staker.ManualClock
	ledger    *staker.Ledger
	stake     *token.Token
	reward    *token.Token
	processor *processor.Processor
	nonce     atomic.Uint64
}

// New creates a bank initialized with the dev genesis.
func New() (*Bank, error) {
	db, err := lvldb.NewMem()
	if err != nil {
		return nil, err
	}
	logDB, err := logdb.NewMem()
	if err != nil {
		db.Close()
		return nil, err
	}

	gen := genesis.NewDevnet()
	stake, reward, err := gen.Apply(db)
	if err != nil {
		return nil, err
	}
	clock := staker.NewManualClock(StartTime)
	pool := gen.PoolAddress()
	ledger, err := staker.New(db, staker.Params{
		Owner:       gen.Owner,
		Address:     pool,
		StakeToken:  stake.Bind(pool),
		RewardToken: reward.Bind(pool),
		Clock:       clock,
		Config:      gen.PoolConfig(),
	})
	if err != nil {
		return nil, err
	}
	seen, err := cache.NewSeen(1024)
	if err != nil {
		return nil, err
	}

	return &Bank{
		db:        db,
		logDB:     logDB,
		genesis:   gen,
		clock:     clock,
		ledger:    ledger,
		stake:     stake,
		reward:    reward,
		processor: processor.New(db, ledger, []*token.Token{stake, reward}, logDB, seen, clock),
	}, nil
}

func (b *Bank) DB() *lvldb.LevelDB               { return b.db }
func (b *Bank) LogDB() *logdb.LogDB              { return b.logDB }
func (b *Bank) Genesis() *genesis.Genesis        { return b.genesis }
func (b *Bank) Clock() *staker.ManualClock       { return b.clock }
func (b *Bank) Ledger() *staker.Ledger           { return b.ledger }
func (b *Bank) StakeToken() *token.Token         { return b.stake }
func (b *Bank) RewardToken() *token.Token        { return b.reward }
func (b *Bank) Processor() *processor.Processor  { return b.processor }
func (b *Bank) Tokens() []*token.Token           { return []*token.Token{b.stake, b.reward} }

// Owner returns the dev account owning the pool.
func (b *Bank) Owner() genesis.DevAccount {
	return genesis.DevAccounts()[0]
}

// Account returns the i-th dev account.
func (b *Bank) Account(i int) genesis.DevAccount {
	return genesis.DevAccounts()[i]
}

// Sign builds the transaction with a fresh nonce and signs it as acc.
func (b *Bank) Sign(builder *tx.Builder, acc genesis.DevAccount) *tx.Transaction {
	return tx.MustSign(builder.Nonce(b.nonce.Add(1)).Build(), acc.PrivateKey)
}

// Close releases the databases.
func (b *Bank) Close() {
	b.logDB.Close()
	b.db.Close()
}
