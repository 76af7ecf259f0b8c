// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package tx defines the signed requests accounts submit to the pool.
package tx

import (
	"io"
	"math/big"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	"github.com/vechain/stakebank/bank"
)

// SignatureLength is the length of a recoverable secp256k1 signature.
const SignatureLength = crypto.SignatureLength

// Method names the pool or token operation a transaction invokes.
type Method string

const (
	MethodStake       Method = "stake"
	MethodUnstake     Method = "unstake"
	MethodClaim       Method = "claim"
	MethodSetReward   Method = "setReward"
	MethodSetLockTime Method = "setLockTime"
	MethodApprove     Method = "approve"
	MethodTransfer    Method = "transfer"
	MethodMint        Method = "mint"
)

var knownMethods = map[Method]bool{
	MethodStake:       true,
	MethodUnstake:     true,
	MethodClaim:       true,
	MethodSetReward:   true,
	MethodSetLockTime: true,
	MethodApprove:     true,
	MethodTransfer:    true,
	MethodMint:        true,
}

// Transaction is an immutable signed request.
type Transaction struct {
	body body

	cache struct {
		signingHash atomic.Pointer[bank.Bytes32]
		origin      atomic.Pointer[bank.Address]
	}
}

type body struct {
	Method      Method
	Token       bank.Address // token of approve, transfer and mint
	To          bank.Address // spender of approve, recipient of transfer and mint
	Amount      *big.Int
	Coefficient uint64
	TokenLock   uint64
	RewardLock  uint64
	Nonce       uint64
	Signature   []byte
}

// Method returns the invoked operation.
func (t *Transaction) Method() Method { return t.body.Method }

// Token returns the token address of token operations.
func (t *Transaction) Token() bank.Address { return t.body.Token }

// To returns the counterpart of token operations.
func (t *Transaction) To() bank.Address { return t.body.To }

// Amount returns a copy of the amount.
func (t *Transaction) Amount() *big.Int {
	if t.body.Amount == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(t.body.Amount)
}

// Coefficient returns the reward coefficient of setReward.
func (t *Transaction) Coefficient() uint64 { return t.body.Coefficient }

// LockTimes returns the token and reward locks of setLockTime.
func (t *Transaction) LockTimes() (tokenLock, rewardLock uint64) {
	return t.body.TokenLock, t.body.RewardLock
}

// Nonce returns the nonce, which makes otherwise equal requests distinct.
func (t *Transaction) Nonce() uint64 { return t.body.Nonce }

// Signature returns the signature.
func (t *Transaction) Signature() []byte {
	return append([]byte(nil), t.body.Signature...)
}

// SigningHash returns the hash the origin signs.
func (t *Transaction) SigningHash() bank.Bytes32 {
	if cached := t.cache.signingHash.Load(); cached != nil {
		return *cached
	}
	h := bank.Keccak256Fn(func(w io.Writer) {
		rlp.Encode(w, []any{
			t.body.Method,
			t.body.Token,
			t.body.To,
			t.Amount(),
			t.body.Coefficient,
			t.body.TokenLock,
			t.body.RewardLock,
			t.body.Nonce,
		})
	})
	t.cache.signingHash.Store(&h)
	return h
}

// WithSignature creates a new transaction carrying sig.
func (t *Transaction) WithSignature(sig []byte) *Transaction {
	newTx := Transaction{body: t.body}
	newTx.body.Signature = append([]byte(nil), sig...)
	return &newTx
}

// Origin recovers the signer of the transaction.
func (t *Transaction) Origin() (bank.Address, error) {
	if cached := t.cache.origin.Load(); cached != nil {
		return *cached, nil
	}
	if len(t.body.Signature) != SignatureLength {
		return bank.Address{}, errors.New("invalid signature length")
	}
	hash := t.SigningHash()
	pub, err := crypto.SigToPub(hash[:], t.body.Signature)
	if err != nil {
		return bank.Address{}, errors.Wrap(err, "recover origin")
	}
	origin := bank.Address(crypto.PubkeyToAddress(*pub))
	t.cache.origin.Store(&origin)
	return origin, nil
}

// ID identifies the transaction, combining the signed content and its origin.
func (t *Transaction) ID() (bank.Bytes32, error) {
	origin, err := t.Origin()
	if err != nil {
		return bank.Bytes32{}, err
	}
	hash := t.SigningHash()
	return bank.Keccak256(hash[:], origin[:]), nil
}

// Validate checks the fields regardless of the signature.
func (t *Transaction) Validate() error {
	if !knownMethods[t.body.Method] {
		return errors.Errorf("unknown method %q", t.body.Method)
	}
	if t.body.Amount != nil {
		if t.body.Amount.Sign() < 0 {
			return errors.New("negative amount")
		}
		if _, overflow := uint256.FromBig(t.body.Amount); overflow {
			return errors.New("amount exceeds 256 bits")
		}
	}
	switch t.body.Method {
	case MethodApprove, MethodTransfer, MethodMint:
		if t.body.Token.IsZero() {
			return errors.New("token required")
		}
		if t.body.To.IsZero() {
			return errors.New("counterpart required")
		}
	}
	return nil
}

// EncodeRLP implements rlp.Encoder.
func (t *Transaction) EncodeRLP(w io.Writer) error {
	b := t.body
	b.Amount = t.Amount()
	return rlp.Encode(w, &b)
}

// DecodeRLP implements rlp.Decoder.
func (t *Transaction) DecodeRLP(s *rlp.Stream) error {
	var b body
	if err := s.Decode(&b); err != nil {
		return err
	}
	*t = Transaction{body: b}
	return nil
}

// Raw returns the hex encoded wire form.
func (t *Transaction) Raw() (string, error) {
	data, err := rlp.EncodeToBytes(t)
	if err != nil {
		return "", err
	}
	return hexutil.Encode(data), nil
}

// Parse decodes the hex encoded wire form.
func Parse(raw string) (*Transaction, error) {
	data, err := hexutil.Decode(raw)
	if err != nil {
		return nil, errors.WithMessage(err, "hex")
	}
	var t Transaction
	if err := rlp.DecodeBytes(data, &t); err != nil {
		return nil, errors.WithMessage(err, "rlp")
	}
	return &t, nil
}
