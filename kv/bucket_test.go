// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package kv

import (
	"errors"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
)

var errNotFound = errors.New("not found")

type mem map[string]string

func (m mem) Get(k []byte) ([]byte, error) {
	if v, ok := m[string(k)]; ok {
		return []byte(v), nil
	}
	return nil, errNotFound
}

func (m mem) Has(k []byte) (bool, error) {
	_, ok := m[string(k)]
	return ok, nil
}

func (m mem) Put(k, v []byte) error {
	m[string(k)] = string(v)
	return nil
}

func (m mem) Delete(k []byte) error {
	delete(m, string(k))
	return nil
}

func (m mem) IsNotFound(err error) bool {
	return err == errNotFound
}

func TestBucketGetter(t *testing.T) {
	m := mem{"k1": "v1", "k2": "v2"}

	tests := []struct {
		b       Bucket
		key     string
		want    string
		wantHas bool
	}{
		{Bucket(""), "k1", "v1", true},
		{Bucket(""), "k2", "v2", true},
		{Bucket("k"), "k1", "", false},
		{Bucket("k"), "1", "v1", true},
		{Bucket("k"), "2", "v2", true},
		{Bucket("k1"), "", "v1", true},
	}
	for _, tt := range tests {
		t.Run(string(tt.b)+"/"+tt.key, func(t *testing.T) {
			getter := tt.b.NewGetter(m)
			got, _ := getter.Get([]byte(tt.key))
			assert.Equal(t, tt.want, string(got))

			has, err := getter.Has([]byte(tt.key))
			assert.NoError(t, err)
			assert.Equal(t, tt.wantHas, has)
		})
	}
}

func TestBucketPutter(t *testing.T) {
	m := mem{}
	putter := Bucket("staker/").Sub("r").NewPutter(m)

	assert.NoError(t, putter.Put([]byte("a"), []byte("1")))
	assert.Equal(t, "1", m["staker/ra"])

	assert.NoError(t, putter.Delete([]byte("a")))
	assert.Empty(t, m)
}

func TestRLPHelpers(t *testing.T) {
	m := mem{}
	type record struct {
		Amount  *big.Int
		Claimed bool
	}

	var loaded record
	found, err := GetRLP(m, []byte("x"), &loaded)
	assert.NoError(t, err)
	assert.False(t, found)

	assert.NoError(t, PutRLP(m, []byte("x"), &record{big.NewInt(1000), true}))
	found, err = GetRLP(m, []byte("x"), &loaded)
	assert.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, big.NewInt(1000), loaded.Amount)
	assert.True(t, loaded.Claimed)

	m["bad"] = "\xff"
	_, err = GetRLP(m, []byte("bad"), &loaded)
	assert.Error(t, err)
}
