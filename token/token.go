// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package token implements the fungible token ledgers the staking pool moves
// funds through. Balances and allowances are persisted in a kv store, every
// call commits its writes in one bulk.
package token

import (
	"math/big"
	"sync"

	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	"github.com/vechain/stakebank/bank"
	"github.com/vechain/stakebank/kv"
)

var (
	ErrInsufficientBalance   = errors.New("insufficient balance")
	ErrInsufficientAllowance = errors.New("insufficient allowance")
	ErrInvalidAmount         = errors.New("invalid amount")
	ErrOverflow              = errors.New("amount overflow")
)

var totalSupplyKey = bank.Keccak256([]byte("total-supply")).Bytes()

func accountKey(addr bank.Address) []byte {
	return append([]byte("a"), addr.Bytes()...)
}

func allowanceKey(owner, spender bank.Address) []byte {
	return append([]byte("l"), bank.Keccak256(owner.Bytes(), spender.Bytes()).Bytes()...)
}

type account struct {
	Balance *big.Int
}

// Token is a fungible token ledger.
type Token struct {
	addr   bank.Address
	name   string
	symbol string
	db     kv.Store
	bucket kv.Bucket
	store  kv.Store
	mu     sync.Mutex
}

// New creates a token ledger persisted in its own bucket of db.
func New(addr bank.Address, name, symbol string, db kv.Store) *Token {
	bucket := kv.Bucket("token/").Sub(string(addr.Bytes()))
	return &Token{
		addr:   addr,
		name:   name,
		symbol: symbol,
		db:     db,
		bucket: bucket,
		store:  bucket.NewStore(db),
	}
}

// Address returns the token address.
func (t *Token) Address() bank.Address { return t.addr }

// Name returns the token name.
func (t *Token) Name() string { return t.name }

// Symbol returns the token symbol.
func (t *Token) Symbol() string { return t.symbol }

func (t *Token) getBig(key []byte) (*big.Int, error) {
	var acc account
	found, err := kv.GetRLP(t.store, key, &acc)
	if err != nil {
		return nil, err
	}
	if !found || acc.Balance == nil {
		return new(big.Int), nil
	}
	return acc.Balance, nil
}

func putBig(putter kv.Putter, key []byte, val *big.Int) error {
	if val.Sign() == 0 {
		return putter.Delete(key)
	}
	return kv.PutRLP(putter, key, &account{val})
}

func checkAmount(amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return ErrInvalidAmount
	}
	if _, overflow := uint256.FromBig(amount); overflow {
		return ErrOverflow
	}
	return nil
}

// update runs fn against a fresh bulk and writes it when fn succeeds.
// Each of also receives the unprefixed bulk of the underlying db, so writes
// outside the token bucket land in the same commit.
func (t *Token) update(fn func(w kv.Putter) error, also ...func(w kv.Putter) error) error {
	bulk := t.db.Bulk()
	if err := fn(t.bucket.NewPutter(bulk)); err != nil {
		return err
	}
	for _, stage := range also {
		if err := stage(bulk); err != nil {
			return err
		}
	}
	return errors.Wrap(bulk.Write(), "commit")
}

// BalanceOf returns the balance of addr.
func (t *Token) BalanceOf(addr bank.Address) (*big.Int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	bal, err := t.getBig(accountKey(addr))
	return bal, errors.Wrap(err, "balance")
}

// TotalSupply returns the amount of tokens ever minted.
func (t *Token) TotalSupply() (*big.Int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	supply, err := t.getBig(totalSupplyKey)
	return supply, errors.Wrap(err, "total supply")
}

// Allowance returns how much spender may still move out of owner's balance.
func (t *Token) Allowance(owner, spender bank.Address) (*big.Int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	allowance, err := t.getBig(allowanceKey(owner, spender))
	return allowance, errors.Wrap(err, "allowance")
}

// Approve sets the allowance of spender over owner's balance.
func (t *Token) Approve(owner, spender bank.Address, amount *big.Int) error {
	if err := checkAmount(amount); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.update(func(w kv.Putter) error {
		return putBig(w, allowanceKey(owner, spender), amount)
	})
}

// Mint credits amount of new tokens to addr.
func (t *Token) Mint(to bank.Address, amount *big.Int) error {
	if err := checkAmount(amount); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.update(func(w kv.Putter) error {
		supply, err := t.getBig(totalSupplyKey)
		if err != nil {
			return err
		}
		supply = new(big.Int).Add(supply, amount)
		if err := checkAmount(supply); err != nil {
			return err
		}
		bal, err := t.getBig(accountKey(to))
		if err != nil {
			return err
		}
		if err := putBig(w, totalSupplyKey, supply); err != nil {
			return err
		}
		return putBig(w, accountKey(to), new(big.Int).Add(bal, amount))
	})
}

// Transfer moves amount from one account to another. The writes staged by
// also are committed atomically with the balance change.
func (t *Token) Transfer(from, to bank.Address, amount *big.Int, also ...func(w kv.Putter) error) error {
	if err := checkAmount(amount); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.update(func(w kv.Putter) error {
		return t.move(w, from, to, amount)
	}, also...)
}

// TransferFrom moves amount out of from's balance on behalf of spender,
// consuming spender's allowance. The writes staged by also are committed
// atomically with the balance change.
func (t *Token) TransferFrom(spender, from, to bank.Address, amount *big.Int, also ...func(w kv.Putter) error) error {
	if err := checkAmount(amount); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.update(func(w kv.Putter) error {
		key := allowanceKey(from, spender)
		allowance, err := t.getBig(key)
		if err != nil {
			return err
		}
		if allowance.Cmp(amount) < 0 {
			return ErrInsufficientAllowance
		}
		if err := t.move(w, from, to, amount); err != nil {
			return err
		}
		return putBig(w, key, new(big.Int).Sub(allowance, amount))
	}, also...)
}

func (t *Token) move(w kv.Putter, from, to bank.Address, amount *big.Int) error {
	fromBal, err := t.getBig(accountKey(from))
	if err != nil {
		return err
	}
	if fromBal.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	if from == to || amount.Sign() == 0 {
		return nil
	}
	toBal, err := t.getBig(accountKey(to))
	if err != nil {
		return err
	}
	if err := putBig(w, accountKey(from), new(big.Int).Sub(fromBal, amount)); err != nil {
		return err
	}
	return putBig(w, accountKey(to), new(big.Int).Add(toBal, amount))
}

// Bind returns a handle acting on the token as holder.
func (t *Token) Bind(holder bank.Address) *Holder {
	return &Holder{t, holder}
}

// Holder is a token handle bound to one account, the shape of the capability
// the staking pool uses to custody funds.
type Holder struct {
	token  *Token
	holder bank.Address
}

// Address returns the token address.
func (h *Holder) Address() bank.Address { return h.token.addr }

// BalanceOf returns the balance of addr.
func (h *Holder) BalanceOf(addr bank.Address) (*big.Int, error) {
	return h.token.BalanceOf(addr)
}

// Transfer pays amount from the holder to to.
func (h *Holder) Transfer(to bank.Address, amount *big.Int, also ...func(w kv.Putter) error) error {
	return h.token.Transfer(h.holder, to, amount, also...)
}

// TransferFrom pulls amount from from to to, spending the holder's allowance.
func (h *Holder) TransferFrom(from, to bank.Address, amount *big.Int, also ...func(w kv.Putter) error) error {
	return h.token.TransferFrom(h.holder, from, to, amount, also...)
}
