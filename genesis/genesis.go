// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package genesis describes the initial state of a pool: its owner, its
// tokens and their initial allocations.
package genesis

import (
	"bytes"
	"io"
	"math/big"
	"os"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"
	"github.com/vechain/stakebank/bank"
	"github.com/vechain/stakebank/kv"
	"github.com/vechain/stakebank/staker"
	"github.com/vechain/stakebank/token"
	"gopkg.in/yaml.v3"
)

var genesisIDKey = []byte("genesis-id")

// Genesis is the initial state of a pool.
type Genesis struct {
	Owner       bank.Address  `yaml:"owner"`
	Pool        *bank.Address `yaml:"pool,omitempty"`
	Config      *PoolConfig   `yaml:"config,omitempty"`
	StakeToken  Token         `yaml:"stakeToken"`
	RewardToken Token         `yaml:"rewardToken"`
}

// PoolConfig overrides the default pool configuration.
type PoolConfig struct {
	RewardCoefficient uint64 `yaml:"rewardCoefficient"`
	TokenLock         uint64 `yaml:"tokenLock"`
	RewardLock        uint64 `yaml:"rewardLock"`
}

// Token describes a token ledger and its initial balances.
type Token struct {
	Name        string        `yaml:"name"`
	Symbol      string        `yaml:"symbol"`
	Address     *bank.Address `yaml:"address,omitempty"`
	Allocations []Allocation  `yaml:"allocations"`
}

// Allocation mints Amount to Address and lets the pool spend Approve of it.
type Allocation struct {
	Address bank.Address          `yaml:"address"`
	Amount  *math.HexOrDecimal256 `yaml:"amount"`
	Approve *math.HexOrDecimal256 `yaml:"approve,omitempty"`
}

// Load reads a yaml genesis file.
func Load(path string) (*Genesis, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open genesis file")
	}
	defer f.Close()
	return Decode(f)
}

// Decode parses a yaml genesis, rejecting unknown fields.
func Decode(r io.Reader) (*Genesis, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var gen Genesis
	if err := dec.Decode(&gen); err != nil {
		return nil, errors.Wrap(err, "decode genesis")
	}
	if err := gen.Validate(); err != nil {
		return nil, err
	}
	return &gen, nil
}

// Encode writes the genesis as yaml.
func (g *Genesis) Encode(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(g); err != nil {
		return err
	}
	return enc.Close()
}

// Validate checks the genesis is usable.
func (g *Genesis) Validate() error {
	if g.Owner.IsZero() {
		return errors.New("owner required")
	}
	if g.Config != nil {
		if g.Config.RewardCoefficient > bank.MaxRewardCoefficient {
			return errors.New("config: reward coefficient too high")
		}
		if g.Config.TokenLock < bank.MinTokenLock {
			return errors.New("config: token lock must be at least 1")
		}
	}
	for _, tok := range []*Token{&g.StakeToken, &g.RewardToken} {
		if tok.Symbol == "" {
			return errors.New("token symbol required")
		}
		for _, alloc := range tok.Allocations {
			if alloc.Amount == nil || (*big.Int)(alloc.Amount).Sign() < 0 {
				return errors.Errorf("%v: invalid allocation for %v", tok.Symbol, alloc.Address)
			}
		}
	}
	if g.StakeTokenAddress() == g.RewardTokenAddress() {
		return errors.New("stake and reward tokens must differ")
	}
	return nil
}

// PoolAddress returns the custody account of the pool.
func (g *Genesis) PoolAddress() bank.Address {
	if g.Pool != nil {
		return *g.Pool
	}
	return bank.PoolAddress
}

// StakeTokenAddress returns the address of the stake token.
func (g *Genesis) StakeTokenAddress() bank.Address {
	if g.StakeToken.Address != nil {
		return *g.StakeToken.Address
	}
	return bank.StakeTokenAddress
}

// RewardTokenAddress returns the address of the reward token.
func (g *Genesis) RewardTokenAddress() bank.Address {
	if g.RewardToken.Address != nil {
		return *g.RewardToken.Address
	}
	return bank.RewardTokenAddress
}

// PoolConfig returns the initial pool configuration.
func (g *Genesis) PoolConfig() staker.PoolConfig {
	if g.Config == nil {
		return staker.DefaultPoolConfig()
	}
	return staker.PoolConfig{
		RewardCoefficient:  g.Config.RewardCoefficient,
		TokenLockDuration:  g.Config.TokenLock,
		RewardLockDuration: g.Config.RewardLock,
	}
}

func allocationsRLP(allocs []Allocation) []any {
	list := make([]any, 0, len(allocs))
	for _, a := range allocs {
		approve := new(big.Int)
		if a.Approve != nil {
			approve = (*big.Int)(a.Approve)
		}
		list = append(list, []any{a.Address, (*big.Int)(a.Amount), approve})
	}
	return list
}

// ID identifies the genesis content.
func (g *Genesis) ID() bank.Bytes32 {
	cfg := g.PoolConfig()
	var buf bytes.Buffer
	rlp.Encode(&buf, []any{
		g.Owner,
		g.PoolAddress(),
		[]any{cfg.RewardCoefficient, cfg.TokenLockDuration, cfg.RewardLockDuration},
		[]any{g.StakeToken.Name, g.StakeToken.Symbol, g.StakeTokenAddress(), allocationsRLP(g.StakeToken.Allocations)},
		[]any{g.RewardToken.Name, g.RewardToken.Symbol, g.RewardTokenAddress(), allocationsRLP(g.RewardToken.Allocations)},
	})
	return bank.Keccak256(buf.Bytes())
}

// Tokens returns the stake and reward token ledgers stored in db.
func (g *Genesis) Tokens(db kv.Store) (stake, reward *token.Token) {
	stake = token.New(g.StakeTokenAddress(), g.StakeToken.Name, g.StakeToken.Symbol, db)
	reward = token.New(g.RewardTokenAddress(), g.RewardToken.Name, g.RewardToken.Symbol, db)
	return
}

// Apply initializes db with the genesis allocations. It does nothing on a db
// initialized with the same genesis, and fails on one initialized with another.
func (g *Genesis) Apply(db kv.Store) (stake, reward *token.Token, err error) {
	stake, reward = g.Tokens(db)
	id := g.ID()

	stored, err := db.Get(genesisIDKey)
	switch {
	case err == nil:
		if !bytes.Equal(stored, id[:]) {
			return nil, nil, errors.Errorf("genesis mismatch: stored %x, given %v", stored, id)
		}
		return stake, reward, nil
	case !db.IsNotFound(err):
		return nil, nil, errors.Wrap(err, "get genesis id")
	}

	pool := g.PoolAddress()
	for _, pair := range []struct {
		tok    *token.Token
		allocs []Allocation
	}{{stake, g.StakeToken.Allocations}, {reward, g.RewardToken.Allocations}} {
		for _, alloc := range pair.allocs {
			if err := pair.tok.Mint(alloc.Address, (*big.Int)(alloc.Amount)); err != nil {
				return nil, nil, errors.Wrapf(err, "%v: mint to %v", pair.tok.Symbol(), alloc.Address)
			}
			if alloc.Approve != nil {
				if err := pair.tok.Approve(alloc.Address, pool, (*big.Int)(alloc.Approve)); err != nil {
					return nil, nil, errors.Wrapf(err, "%v: approve for %v", pair.tok.Symbol(), alloc.Address)
				}
			}
		}
	}
	if err := db.Put(genesisIDKey, id[:]); err != nil {
		return nil, nil, errors.Wrap(err, "put genesis id")
	}
	return stake, reward, nil
}
