// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"crypto/ecdsa"
	"fmt"
	"strings"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/mattn/go-tty"
	"github.com/pkg/errors"
	"github.com/vechain/stakebank/bank"
	cli "gopkg.in/urfave/cli.v1"
)

func parseKey(s string) (*ecdsa.PrivateKey, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(s), "0x"))
	if err != nil {
		return nil, errors.Wrap(err, "parse private key")
	}
	return key, nil
}

func readKeyFromTTY() (string, error) {
	t, err := tty.Open()
	if err != nil {
		return "", errors.Wrap(err, "open tty")
	}
	defer t.Close()

	fmt.Fprint(t.Output(), "Enter private key: ")
	return t.ReadPassword()
}

// loadKey returns the signing key, from the key flag or its env var, or
// prompted on the terminal.
func loadKey(ctx *cli.Context) (*ecdsa.PrivateKey, error) {
	s := ctx.String(keyFlag.Name)
	if s == "" {
		var err error
		if s, err = readKeyFromTTY(); err != nil {
			return nil, err
		}
	}
	return parseKey(s)
}

func keyAddress(key *ecdsa.PrivateKey) bank.Address {
	return bank.Address(crypto.PubkeyToAddress(key.PublicKey))
}

func keygenAction(ctx *cli.Context) error {
	priv, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		return errors.Wrap(err, "generate key")
	}
	key := priv.ToECDSA()

	if path := ctx.String(outputFlag.Name); path != "" {
		if err := crypto.SaveECDSA(path, key); err != nil {
			return errors.Wrap(err, "save key")
		}
		fmt.Println("Key saved to", path)
	} else {
		fmt.Printf("Private key: 0x%x\n", crypto.FromECDSA(key))
	}
	fmt.Println("Address:    ", keyAddress(key))
	return nil
}
