// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"encoding/json"
	"fmt"
	"math/big"
	"reflect"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/pkg/errors"
	"github.com/pmezard/go-difflib/difflib"
	"github.com/vechain/stakebank/bank"
	"github.com/vechain/stakebank/bankclient"
	"github.com/vechain/stakebank/logdb"
	"gopkg.in/cheggaaa/pb.v1"
)

const verifyPageSize = uint64(256)

type stakeState struct {
	Amount   *math.HexOrDecimal256 `json:"amount"`
	StakedAt uint64                `json:"stakedAt"`
	Claimed  bool                  `json:"claimed"`
}

func zeroState() *stakeState {
	return &stakeState{Amount: (*math.HexOrDecimal256)(new(big.Int))}
}

// replayEvents rebuilds stake records from the staking event journal.
func replayEvents(events []*logdb.Event, onEvent func()) map[bank.Address]*stakeState {
	states := make(map[bank.Address]*stakeState)
	for _, ev := range events {
		switch ev.Kind {
		case logdb.KindStaked:
			states[ev.Account] = &stakeState{
				Amount:   (*math.HexOrDecimal256)(new(big.Int).Set(ev.Amount)),
				StakedAt: ev.Time,
			}
		case logdb.KindUnstaked:
			states[ev.Account] = zeroState()
		case logdb.KindClaimed:
			if s, ok := states[ev.Account]; ok {
				s.Claimed = true
			}
		}
		if onEvent != nil {
			onEvent()
		}
	}
	return states
}

func fetchStakingEvents(client *bankclient.Client) ([]*logdb.Event, error) {
	var all []*logdb.Event
	for offset := uint64(0); ; offset += verifyPageSize {
		page, err := client.Logs(&logdb.Filter{
			Kinds:   []logdb.Kind{logdb.KindStaked, logdb.KindUnstaked, logdb.KindClaimed},
			Order:   logdb.ASC,
			Options: &logdb.Options{Offset: offset, Limit: verifyPageSize},
		})
		if err != nil {
			return nil, errors.Wrap(err, "fetch logs")
		}
		for _, ev := range page {
			all = append(all, &logdb.Event{
				Seq:     ev.Seq,
				Time:    ev.Time,
				TxID:    ev.TxID,
				Origin:  ev.Origin,
				Kind:    ev.Kind,
				Account: ev.Account,
				Amount:  (*big.Int)(ev.Amount),
				Data:    ev.Data,
			})
		}
		if uint64(len(page)) < verifyPageSize {
			return all, nil
		}
	}
}

// verifyStakes checks that the records served by the node match a replay
// of its event journal.
func verifyStakes(client *bankclient.Client, quiet bool) error {
	events, err := fetchStakingEvents(client)
	if err != nil {
		return err
	}

	var expected map[bank.Address]*stakeState
	if quiet || len(events) == 0 {
		expected = replayEvents(events, nil)
	} else {
		bar := pb.New64(int64(len(events))).
			Set64(0).
			SetMaxWidth(90).
			Start()
		expected = replayEvents(events, func() { bar.Add64(1) })
		bar.Finish()
	}

	records, err := client.Stakes()
	if err != nil {
		return errors.Wrap(err, "fetch stakes")
	}
	actual := make(map[bank.Address]*stakeState, len(records))
	total := new(big.Int)
	for _, r := range records {
		actual[r.Address] = &stakeState{Amount: r.Amount, StakedAt: r.StakedAt, Claimed: r.Claimed}
		total.Add(total, (*big.Int)(r.Amount))
	}

	if !reflect.DeepEqual(normalize(expected), normalize(actual)) {
		fmt.Println("\nDiff stake records")
		fmt.Println(jsonDiff(expected, actual))
		return errors.New("stake records do not match the event journal")
	}

	p, err := client.Pool()
	if err != nil {
		return errors.Wrap(err, "fetch pool")
	}
	if (*big.Int)(p.TotalStaked).Cmp(total) != 0 {
		return errors.Errorf("total staked %v, records sum to %v", (*big.Int)(p.TotalStaked), total)
	}
	return nil
}

func normalize(m map[bank.Address]*stakeState) map[bank.Address]string {
	out := make(map[bank.Address]string, len(m))
	for addr, s := range m {
		out[addr] = fmt.Sprintf("%v/%d/%v", (*big.Int)(s.Amount), s.StakedAt, s.Claimed)
	}
	return out
}

func jsonDiff(expected, actual any) string {
	e, _ := json.MarshalIndent(expected, "", "  ")
	a, _ := json.MarshalIndent(actual, "", "  ")
	diff, _ := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(e)),
		B:        difflib.SplitLines(string(a)),
		FromFile: "Expected",
		FromDate: "",
		ToFile:   "Actual",
		ToDate:   "",
		Context:  1,
	})
	return diff
}
