// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package logdb journals the effects of executed transactions in sqlite.
package logdb

import (
	"context"
	"database/sql"
	"math/big"
	"strings"

	sqlite3 "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	"github.com/vechain/stakebank/bank"
)

type LogDB struct {
	path          string
	db            *sql.DB
	driverVersion string
}

// New create or open log db at given path.
func New(path string) (logDB *LogDB, err error) {
	dsn := path
	if path != ":memory:" {
		dsn = "file:" + path + "?_journal_mode=WAL&_busy_timeout=5000"
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "open log db")
	}
	defer func() {
		if logDB == nil {
			db.Close()
		}
	}()
	if path == ":memory:" {
		// every connection to :memory: opens a distinct database
		db.SetMaxOpenConns(1)
	}
	if _, err := db.Exec(eventTableSchema); err != nil {
		return nil, errors.Wrap(err, "create schema")
	}

	driverVer, _, _ := sqlite3.Version()
	return &LogDB{path, db, driverVer}, nil
}

// NewMem create a log db in ram.
func NewMem() (*LogDB, error) {
	return New(":memory:")
}

// Close close the log db.
func (db *LogDB) Close() error {
	return db.db.Close()
}

func (db *LogDB) Path() string {
	return db.path
}

func (db *LogDB) DriverVersion() string {
	return db.driverVersion
}

// Insert journals events in one sql transaction and assigns their Seq.
func (db *LogDB) Insert(ctx context.Context, events ...*Event) error {
	if len(events) == 0 {
		return nil
	}
	return db.execInTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx,
			"INSERT INTO event(time, txID, origin, kind, account, amount, data) VALUES(?,?,?,?,?,?,?)")
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, ev := range events {
			var amount []byte
			if ev.Amount != nil {
				amount = ev.Amount.Bytes()
			}
			res, err := stmt.ExecContext(ctx,
				int64(ev.Time),
				ev.TxID.Bytes(),
				ev.Origin.Bytes(),
				string(ev.Kind),
				ev.Account.Bytes(),
				amount,
				ev.Data,
			)
			if err != nil {
				return err
			}
			seq, err := res.LastInsertId()
			if err != nil {
				return err
			}
			ev.Seq = uint64(seq)
		}
		return nil
	})
}

func buildWhere(filter *Filter) (string, []any) {
	stmt := " WHERE 1"
	if filter == nil {
		return stmt, nil
	}
	var args []any
	if filter.Account != nil {
		args = append(args, filter.Account.Bytes())
		stmt += " AND account = ?"
	}
	if filter.TxID != nil {
		args = append(args, filter.TxID.Bytes())
		stmt += " AND txID = ?"
	}
	if len(filter.Kinds) > 0 {
		stmt += " AND kind IN (?" + strings.Repeat(",?", len(filter.Kinds)-1) + ")"
		for _, k := range filter.Kinds {
			args = append(args, string(k))
		}
	}
	if filter.Range != nil {
		args = append(args, int64(filter.Range.From))
		stmt += " AND time >= ?"
		if filter.Range.To > 0 {
			args = append(args, int64(filter.Range.To))
			stmt += " AND time <= ?"
		}
	}
	return stmt, args
}

// Filter returns the events matching filter, all events for a nil filter.
func (db *LogDB) Filter(ctx context.Context, filter *Filter) ([]*Event, error) {
	where, args := buildWhere(filter)
	stmt := "SELECT seq, time, txID, origin, kind, account, amount, data FROM event" + where

	if filter != nil && filter.Order == DESC {
		stmt += " ORDER BY seq DESC"
	} else {
		stmt += " ORDER BY seq ASC"
	}
	if filter != nil && filter.Options != nil {
		stmt += " LIMIT ?, ?"
		args = append(args, int64(filter.Options.Offset), int64(filter.Options.Limit))
	}
	return db.queryEvents(ctx, stmt, args...)
}

// Count returns the number of events matching filter.
func (db *LogDB) Count(ctx context.Context, filter *Filter) (uint64, error) {
	where, args := buildWhere(filter)
	var n int64
	if err := db.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM event"+where, args...).Scan(&n); err != nil {
		return 0, errors.Wrap(err, "count events")
	}
	return uint64(n), nil
}

func (db *LogDB) queryEvents(ctx context.Context, stmt string, args ...any) ([]*Event, error) {
	rows, err := db.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, errors.Wrap(err, "query events")
	}
	defer rows.Close()

	var events []*Event
	for rows.Next() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var (
			seq     int64
			time    int64
			txID    []byte
			origin  []byte
			kind    string
			account []byte
			amount  []byte
			data    []byte
		)
		if err := rows.Scan(&seq, &time, &txID, &origin, &kind, &account, &amount, &data); err != nil {
			return nil, errors.Wrap(err, "scan event")
		}
		events = append(events, &Event{
			Seq:     uint64(seq),
			Time:    uint64(time),
			TxID:    bank.BytesToBytes32(txID),
			Origin:  bank.BytesToAddress(origin),
			Kind:    Kind(kind),
			Account: bank.BytesToAddress(account),
			Amount:  new(big.Int).SetBytes(amount),
			Data:    data,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate events")
	}
	return events, nil
}

func (db *LogDB) execInTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := db.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin")
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return errors.Wrap(tx.Commit(), "commit")
}
