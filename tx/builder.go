// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package tx

import (
	"math/big"

	"github.com/vechain/stakebank/bank"
)

// Builder to make it easy to build transaction.
type Builder struct {
	body body
}

// NewBuilder creates a builder of a method call.
func NewBuilder(method Method) *Builder {
	return &Builder{body: body{Method: method}}
}

// Token set the token of token operations.
func (b *Builder) Token(addr bank.Address) *Builder {
	b.body.Token = addr
	return b
}

// To set the spender or recipient of token operations.
func (b *Builder) To(addr bank.Address) *Builder {
	b.body.To = addr
	return b
}

// Amount set amount.
func (b *Builder) Amount(amount *big.Int) *Builder {
	if amount == nil {
		b.body.Amount = nil
	} else {
		b.body.Amount = new(big.Int).Set(amount)
	}
	return b
}

// Coefficient set the reward coefficient.
func (b *Builder) Coefficient(pct uint64) *Builder {
	b.body.Coefficient = pct
	return b
}

// LockTimes set token and reward locks.
func (b *Builder) LockTimes(tokenLock, rewardLock uint64) *Builder {
	b.body.TokenLock = tokenLock
	b.body.RewardLock = rewardLock
	return b
}

// Nonce set nonce.
func (b *Builder) Nonce(nonce uint64) *Builder {
	b.body.Nonce = nonce
	return b
}

// Build build tx object.
func (b *Builder) Build() *Transaction {
	tx := Transaction{body: b.body}
	tx.body.Amount = tx.Amount()
	return &tx
}
