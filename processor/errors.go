// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package processor

import (
	"github.com/pkg/errors"
	"github.com/vechain/stakebank/staker"
	"github.com/vechain/stakebank/token"
)

type badTxError struct {
	msg string
}

func (e badTxError) Error() string {
	return "bad tx: " + e.msg
}

type txRejectedError struct {
	msg string
}

func (e txRejectedError) Error() string {
	return "tx rejected: " + e.msg
}

// IsBadTx returns whether the given error indicates that the tx is malformed.
func IsBadTx(err error) bool {
	_, ok := err.(badTxError)
	return ok
}

// IsTxRejected returns whether the given error indicates that the tx is
// refused regardless of its content, like a replay or a non-owner caller.
func IsTxRejected(err error) bool {
	if _, ok := err.(txRejectedError); ok {
		return true
	}
	return errors.Is(err, staker.ErrUnauthorized)
}

// tokenRevert lifts a token ledger refusal into a revert.
type tokenRevert struct {
	code string
	err  error
}

func (e *tokenRevert) Error() string { return e.err.Error() }
func (e *tokenRevert) Code() string  { return e.code }
func (e *tokenRevert) Unwrap() error { return e.err }

func tokenError(err error) error {
	for _, c := range []struct {
		target error
		code   string
	}{
		{token.ErrInsufficientBalance, "insufficient_balance"},
		{token.ErrInsufficientAllowance, "insufficient_allowance"},
		{token.ErrInvalidAmount, "invalid_amount"},
		{token.ErrOverflow, "overflow"},
	} {
		if errors.Is(err, c.target) {
			return &tokenRevert{c.code, err}
		}
	}
	return err
}
