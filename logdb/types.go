// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package logdb

import (
	"math/big"

	"github.com/vechain/stakebank/bank"
)

// Kind classifies journaled events.
type Kind string

const (
	KindStaked              Kind = "staked"
	KindUnstaked            Kind = "unstaked"
	KindClaimed             Kind = "claimed"
	KindRewardConfigured    Kind = "rewardConfigured"
	KindLockTimesConfigured Kind = "lockTimesConfigured"
	KindApproved            Kind = "approved"
	KindTransferred         Kind = "transferred"
	KindMinted              Kind = "minted"
)

// Event is one journaled effect of an executed transaction.
type Event struct {
	Seq     uint64
	Time    uint64
	TxID    bank.Bytes32
	Origin  bank.Address
	Kind    Kind
	Account bank.Address // account whose record or balance changed
	Amount  *big.Int
	Data    []byte // kind specific payload
}

type Order string

const (
	ASC  Order = "asc"
	DESC Order = "desc"
)

// Range bounds event time, both ends included. To of 0 means unbounded.
type Range struct {
	From uint64
	To   uint64
}

type Options struct {
	Offset uint64
	Limit  uint64
}

// Filter selects events. Zero fields match everything.
type Filter struct {
	Account *bank.Address
	TxID    *bank.Bytes32
	Kinds   []Kind
	Range   *Range
	Order   Order
	Options *Options
}
