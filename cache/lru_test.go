// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeen(t *testing.T) {
	seen, err := NewSeen(2)
	require.NoError(t, err)

	assert.True(t, seen.Mark("a"))
	assert.False(t, seen.Mark("a"))
	assert.True(t, seen.Mark("b"))
	assert.True(t, seen.Mark("c")) // evicts a
	assert.True(t, seen.Mark("a"))

	seen.Forget("a")
	assert.True(t, seen.Mark("a"))

	_, hit, miss := seen.Stats()
	assert.Equal(t, int64(1), hit)
	assert.Equal(t, int64(5), miss)

	_, err = NewSeen(0)
	assert.Error(t, err)
}

func TestStats(t *testing.T) {
	var s Stats
	changed, hit, miss := s.Stats()
	assert.False(t, changed)
	assert.Zero(t, hit)
	assert.Zero(t, miss)

	s.Hit()
	s.Miss()
	changed, hit, miss = s.Stats()
	assert.True(t, changed)
	assert.Equal(t, int64(1), hit)
	assert.Equal(t, int64(1), miss)

	changed, _, _ = s.Stats()
	assert.False(t, changed)
}
