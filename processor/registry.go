// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package processor

import (
	"sync"

	"github.com/pkg/errors"
	"github.com/vechain/stakebank/bank"
	"github.com/vechain/stakebank/kv"
)

// registry persists the IDs of accepted transactions, keyed by ID with the
// origin as value. It outlives both the seen cache and the process.
type registry struct {
	mu    sync.Mutex
	store kv.Store
}

func newRegistry(db kv.Store) *registry {
	return &registry{store: kv.Bucket("tx/").NewStore(db)}
}

// claim records id, returning false if it is already recorded.
func (r *registry) claim(id bank.Bytes32, origin bank.Address) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	has, err := r.store.Has(id.Bytes())
	if err != nil {
		return false, errors.Wrap(err, "tx registry")
	}
	if has {
		return false, nil
	}
	return true, errors.Wrap(r.store.Put(id.Bytes(), origin.Bytes()), "tx registry")
}

// release forgets id, so a reverted transaction can be submitted again.
func (r *registry) release(id bank.Bytes32) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return errors.Wrap(r.store.Delete(id.Bytes()), "tx registry")
}

// executed reports whether id is recorded.
func (r *registry) executed(id bank.Bytes32) (bool, error) {
	has, err := r.store.Has(id.Bytes())
	return has, errors.Wrap(err, "tx registry")
}
