// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staker

import (
	"fmt"

	"github.com/pkg/errors"
)

// Revert is implemented by errors that reject a call without any effect on
// the ledger. Errors that do not implement it are infrastructure failures.
type Revert interface {
	error
	Code() string
}

// IsRevert reports whether err rejects a call as opposed to failing it.
func IsRevert(err error) bool {
	var r Revert
	return errors.As(err, &r)
}

// RevertCode returns the code of the revert wrapped in err, or "error".
func RevertCode(err error) string {
	var r Revert
	if errors.As(err, &r) {
		return r.Code()
	}
	return "error"
}

type revertError struct {
	code    string
	message string
}

func (e *revertError) Error() string { return e.message }
func (e *revertError) Code() string  { return e.code }

var (
	ErrUnauthorized     Revert = &revertError{"unauthorized", "caller is not the owner"}
	ErrInvalidAmount    Revert = &revertError{"invalid_amount", "amount must be positive"}
	ErrNothingToUnstake Revert = &revertError{"nothing_to_unstake", "nothing to unstake"}
	ErrNotAStaker       Revert = &revertError{"not_a_staker", "not a staker"}
	ErrNothingToClaim   Revert = &revertError{"nothing_to_claim", "nothing to claim"}
)

// Reasons carried by InvalidConfigError.
const (
	ReasonRewardTooHigh      = "reward coefficient too high"
	ReasonTokenLockTooShort  = "token lock must be at least 1"
	ReasonRewardLockTooShort = "reward lock must exceed token lock"
)

// InvalidConfigError rejects a pool configuration.
type InvalidConfigError struct {
	Reason string
}

func (e *InvalidConfigError) Error() string { return "invalid config: " + e.Reason }
func (e *InvalidConfigError) Code() string  { return "invalid_config" }

// TransferFailedError reports a token ledger refusing a transfer.
type TransferFailedError struct {
	Reason string
	err    error
}

func (e *TransferFailedError) Error() string { return "transfer failed: " + e.Reason }
func (e *TransferFailedError) Code() string  { return "transfer_failed" }
func (e *TransferFailedError) Unwrap() error { return e.err }

func transferFailed(err error) *TransferFailedError {
	return &TransferFailedError{Reason: err.Error(), err: err}
}

// TooSoonError rejects an unstake or claim issued before its lock elapsed.
type TooSoonError struct {
	Op        string
	Remaining uint64 // seconds until the lock elapses
}

func (e *TooSoonError) Error() string {
	if e.Op == OpClaim {
		return fmt.Sprintf("too soon to claim reward, %ds remaining", e.Remaining)
	}
	return fmt.Sprintf("too soon to %s, %ds remaining", e.Op, e.Remaining)
}

func (e *TooSoonError) Code() string { return "too_soon" }
