// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staker

import (
	"github.com/pkg/errors"
	"github.com/vechain/stakebank/bank"
	"github.com/vechain/stakebank/kv"
)

var (
	configKey = []byte("config")
	ownerKey  = []byte("owner")
)

const recordPrefix = "r"

func recordKey(addr bank.Address) []byte {
	return append([]byte(recordPrefix), addr.Bytes()...)
}

const bucket = kv.Bucket("staker/")

// storage persists the pool state in its own kv bucket.
type storage struct {
	store kv.Store
}

func newStorage(db kv.Store) *storage {
	return &storage{bucket.NewStore(db)}
}

func (s *storage) getOwner() (bank.Address, bool, error) {
	var owner bank.Address
	found, err := kv.GetRLP(s.store, ownerKey, &owner)
	if err != nil {
		return bank.Address{}, false, errors.Wrap(err, "failed to get owner")
	}
	return owner, found, nil
}

func (s *storage) setOwner(owner bank.Address) error {
	return errors.Wrap(kv.PutRLP(s.store, ownerKey, &owner), "failed to set owner")
}

func (s *storage) getConfig() (PoolConfig, bool, error) {
	var cfg PoolConfig
	found, err := kv.GetRLP(s.store, configKey, &cfg)
	if err != nil {
		return PoolConfig{}, false, errors.Wrap(err, "failed to get config")
	}
	return cfg, found, nil
}

func (s *storage) setConfig(cfg PoolConfig) error {
	return errors.Wrap(kv.PutRLP(s.store, configKey, &cfg), "failed to set config")
}

// stageRecord returns a write of rec to be committed with a token transfer.
// The putter it is given must write to the db the storage was opened on.
func stageRecord(addr bank.Address, rec StakeRecord) func(w kv.Putter) error {
	return func(w kv.Putter) error {
		return errors.Wrapf(kv.PutRLP(bucket.NewPutter(w), recordKey(addr), &rec), "failed to set record %v", addr)
	}
}

// loadRecords reads every persisted record.
func (s *storage) loadRecords() (map[bank.Address]StakeRecord, error) {
	iter := s.store.Iterate(kv.Range{Start: []byte(recordPrefix), Limit: []byte{recordPrefix[0] + 1}})
	defer iter.Release()

	records := make(map[bank.Address]StakeRecord)
	for iter.Next() {
		key := iter.Key()
		if len(key) != len(recordPrefix)+bank.AddressLength {
			return nil, errors.Errorf("malformed record key %x", key)
		}
		var rec StakeRecord
		if err := kv.DecodeRLP(iter.Value(), &rec); err != nil {
			return nil, errors.Wrapf(err, "failed to decode record %x", key)
		}
		rec.normalize()
		records[bank.BytesToAddress(key[len(recordPrefix):])] = rec
	}
	if err := iter.Error(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate records")
	}
	return records, nil
}
