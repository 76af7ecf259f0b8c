// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package kv

import (
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"
)

// GetRLP loads the value under key and decodes it into val.
// It reports false without touching val when the key is absent.
func GetRLP(src Getter, key []byte, val any) (bool, error) {
	data, err := src.Get(key)
	if err != nil {
		if src.IsNotFound(err) {
			return false, nil
		}
		return false, errors.Wrap(err, "get")
	}
	if err := rlp.DecodeBytes(data, val); err != nil {
		return false, errors.Wrap(err, "decode")
	}
	return true, nil
}

// PutRLP encodes val and saves it under key.
func PutRLP(dst Putter, key []byte, val any) error {
	data, err := rlp.EncodeToBytes(val)
	if err != nil {
		return errors.Wrap(err, "encode")
	}
	return dst.Put(key, data)
}

// DecodeRLP decodes an rlp encoded value read from a store.
func DecodeRLP(data []byte, val any) error {
	return errors.Wrap(rlp.DecodeBytes(data, val), "decode")
}
