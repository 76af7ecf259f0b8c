// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package bank

import (
	"hash"
	"io"
	"sync"

	"golang.org/x/crypto/sha3"
)

type keccakState struct {
	hash.Hash
	b32 Bytes32
}

var keccakStatePool = sync.Pool{
	New: func() any {
		return &keccakState{Hash: sha3.NewLegacyKeccak256()}
	},
}

// Keccak256 computes keccak-256 checksum for given data.
func Keccak256(data ...[]byte) Bytes32 {
	return Keccak256Fn(func(w io.Writer) {
		for _, b := range data {
			w.Write(b)
		}
	})
}

// Keccak256Fn computes keccak-256 checksum for the provided writer.
func Keccak256Fn(fn func(w io.Writer)) (h Bytes32) {
	w := keccakStatePool.Get().(*keccakState)
	fn(w)
	w.Sum(w.b32[:0])
	w.Reset()
	h = w.b32
	keccakStatePool.Put(w)
	return
}
