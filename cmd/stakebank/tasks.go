// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
	"github.com/vechain/stakebank/api/tokens"
	"github.com/vechain/stakebank/bank"
	"github.com/vechain/stakebank/bankclient"
	"github.com/vechain/stakebank/genesis"
	"github.com/vechain/stakebank/tx"
	cli "gopkg.in/urfave/cli.v1"
)

var (
	readFlags = []cli.Flag{apiURLFlag}
	sendFlags = []cli.Flag{apiURLFlag, keyFlag}
)

func taskCommands() []cli.Command {
	return []cli.Command{
		{
			Name:   "stake",
			Usage:  "stake tokens into the pool, replacing any current stake",
			Flags:  append(sendFlags, amountFlag),
			Action: stakeAction,
		},
		{
			Name:   "unstake",
			Usage:  "withdraw the whole stake",
			Flags:  sendFlags,
			Action: unstakeAction,
		},
		{
			Name:   "claim",
			Usage:  "claim the reward of the current stake",
			Flags:  sendFlags,
			Action: claimAction,
		},
		{
			Name:   "set-reward",
			Usage:  "set the reward coefficient (owner only)",
			Flags:  append(sendFlags, coeffFlag),
			Action: setRewardAction,
		},
		{
			Name:   "set-lock-time",
			Usage:  "set the token and reward lock durations (owner only)",
			Flags:  append(sendFlags, tokenLockFlag, rewardLockFlag),
			Action: setLockTimeAction,
		},
		{
			Name:   "approve",
			Usage:  "allow the pool to pull tokens from the signer",
			Flags:  append(sendFlags, amountFlag, tokenFlag),
			Action: approveAction,
		},
		{
			Name:   "transfer",
			Usage:  "transfer tokens to another account",
			Flags:  append(sendFlags, amountFlag, tokenFlag, toFlag),
			Action: transferAction,
		},
		{
			Name:   "mint",
			Usage:  "mint tokens to an account (owner only)",
			Flags:  append(sendFlags, amountFlag, tokenFlag, toFlag),
			Action: mintAction,
		},
		{
			Name:   "stake-amount",
			Usage:  "print the amount staked by an account",
			Flags:  append(sendFlags, ownerFlag),
			Action: stakeAmountAction,
		},
		{
			Name:   "balance",
			Usage:  "print the token balance and pool allowance of an account",
			Flags:  append(sendFlags, ownerFlag, tokenFlag),
			Action: balanceAction,
		},
		{
			Name:   "pool",
			Usage:  "print the pool configuration",
			Flags:  readFlags,
			Action: poolAction,
		},
		{
			Name:   "verify",
			Usage:  "check stake records against the event journal",
			Flags:  readFlags,
			Action: verifyAction,
		},
		{
			Name:   "watch",
			Usage:  "stream the events of executed transactions, of one account when --owner is set",
			Flags:  append(readFlags, ownerFlag, countFlag),
			Action: watchAction,
		},
		{
			Name:   "dev-accounts",
			Usage:  "print the pre-funded accounts of the dev network",
			Action: devAccountsAction,
		},
		{
			Name:   "keygen",
			Usage:  "generate a new private key",
			Flags:  []cli.Flag{outputFlag},
			Action: keygenAction,
		},
	}
}

func newClient(ctx *cli.Context) *bankclient.Client {
	return bankclient.New(strings.TrimSuffix(ctx.String(apiURLFlag.Name), "/"))
}

func parseAmount(ctx *cli.Context) (*big.Int, error) {
	s := ctx.String(amountFlag.Name)
	if s == "" {
		return nil, errors.New("--amount is required")
	}
	amount, ok := math.ParseBig256(s)
	if !ok || amount.Sign() <= 0 {
		return nil, errors.Errorf("invalid amount %q", s)
	}
	return amount, nil
}

func parseAddressFlag(ctx *cli.Context, flag cli.StringFlag) (bank.Address, error) {
	s := ctx.String(flag.Name)
	if s == "" {
		return bank.Address{}, errors.Errorf("--%s is required", flag.Name)
	}
	addr, err := bank.ParseAddress(s)
	if err != nil {
		return bank.Address{}, errors.Wrapf(err, "--%s", flag.Name)
	}
	return *addr, nil
}

// targetAccount resolves the owner flag, falling back to the signer.
func targetAccount(ctx *cli.Context) (bank.Address, error) {
	if ctx.String(ownerFlag.Name) != "" {
		return parseAddressFlag(ctx, ownerFlag)
	}
	key, err := loadKey(ctx)
	if err != nil {
		return bank.Address{}, err
	}
	return keyAddress(key), nil
}

func resolveToken(client *bankclient.Client, symbol string) (*tokens.Token, error) {
	list, err := client.Tokens()
	if err != nil {
		return nil, err
	}
	for _, t := range list {
		if strings.EqualFold(t.Symbol, symbol) {
			return t, nil
		}
	}
	return nil, errors.Errorf("unknown token %q", symbol)
}

func send(ctx *cli.Context, client *bankclient.Client, builder *tx.Builder) error {
	key, err := loadKey(ctx)
	if err != nil {
		return err
	}
	trx, err := tx.Sign(builder.Nonce(uint64(time.Now().UnixNano())).Build(), key)
	if err != nil {
		return err
	}
	receipt, err := client.SendTransaction(trx)
	if err != nil {
		return err
	}
	fmt.Println("Transaction:", receipt.ID)
	fmt.Println("Origin:     ", receipt.Origin)
	fmt.Println("Method:     ", receipt.Method)
	if receipt.Amount != nil {
		fmt.Println("Amount:     ", (*big.Int)(receipt.Amount))
	}
	return nil
}

func stakeAction(ctx *cli.Context) error {
	amount, err := parseAmount(ctx)
	if err != nil {
		return err
	}
	return send(ctx, newClient(ctx), tx.NewBuilder(tx.MethodStake).Amount(amount))
}

func unstakeAction(ctx *cli.Context) error {
	return send(ctx, newClient(ctx), tx.NewBuilder(tx.MethodUnstake))
}

func claimAction(ctx *cli.Context) error {
	return send(ctx, newClient(ctx), tx.NewBuilder(tx.MethodClaim))
}

func setRewardAction(ctx *cli.Context) error {
	if !ctx.IsSet(coeffFlag.Name) {
		return errors.New("--coeff is required")
	}
	return send(ctx, newClient(ctx), tx.NewBuilder(tx.MethodSetReward).Coefficient(ctx.Uint64(coeffFlag.Name)))
}

func setLockTimeAction(ctx *cli.Context) error {
	if !ctx.IsSet(tokenLockFlag.Name) || !ctx.IsSet(rewardLockFlag.Name) {
		return errors.New("--token-lock and --reward-lock are required")
	}
	return send(ctx, newClient(ctx), tx.NewBuilder(tx.MethodSetLockTime).
		LockTimes(ctx.Uint64(tokenLockFlag.Name), ctx.Uint64(rewardLockFlag.Name)))
}

func approveAction(ctx *cli.Context) error {
	amount, err := parseAmount(ctx)
	if err != nil {
		return err
	}
	client := newClient(ctx)
	token, err := resolveToken(client, ctx.String(tokenFlag.Name))
	if err != nil {
		return err
	}
	p, err := client.Pool()
	if err != nil {
		return err
	}
	return send(ctx, client, tx.NewBuilder(tx.MethodApprove).
		Token(token.Address).
		To(p.Address).
		Amount(amount))
}

func tokenTransfer(ctx *cli.Context, method tx.Method) error {
	amount, err := parseAmount(ctx)
	if err != nil {
		return err
	}
	to, err := parseAddressFlag(ctx, toFlag)
	if err != nil {
		return err
	}
	client := newClient(ctx)
	token, err := resolveToken(client, ctx.String(tokenFlag.Name))
	if err != nil {
		return err
	}
	return send(ctx, client, tx.NewBuilder(method).
		Token(token.Address).
		To(to).
		Amount(amount))
}

func transferAction(ctx *cli.Context) error { return tokenTransfer(ctx, tx.MethodTransfer) }
func mintAction(ctx *cli.Context) error     { return tokenTransfer(ctx, tx.MethodMint) }

func stakeAmountAction(ctx *cli.Context) error {
	addr, err := targetAccount(ctx)
	if err != nil {
		return err
	}
	amount, err := newClient(ctx).StakeAmount(addr)
	if err != nil {
		return err
	}
	fmt.Println(amount)
	return nil
}

func balanceAction(ctx *cli.Context) error {
	addr, err := targetAccount(ctx)
	if err != nil {
		return err
	}
	b, err := newClient(ctx).Balance(ctx.String(tokenFlag.Name), addr)
	if err != nil {
		return err
	}
	fmt.Println("Balance:  ", (*big.Int)(b.Balance))
	fmt.Println("Allowance:", (*big.Int)(b.Allowance))
	return nil
}

func poolAction(ctx *cli.Context) error {
	p, err := newClient(ctx).Pool()
	if err != nil {
		return err
	}
	fmt.Println("Address:           ", p.Address)
	fmt.Println("Owner:             ", p.Owner)
	fmt.Println("Stake token:       ", p.StakeToken)
	fmt.Println("Reward token:      ", p.RewardToken)
	fmt.Println("Reward coefficient:", p.RewardCoefficient, "%")
	fmt.Println("Token lock:        ", time.Duration(p.TokenLock)*time.Second)
	fmt.Println("Reward lock:       ", time.Duration(p.RewardLock)*time.Second)
	fmt.Println("Total staked:      ", (*big.Int)(p.TotalStaked))
	fmt.Println("Stakers:           ", p.Stakers)
	return nil
}

func verifyAction(ctx *cli.Context) error {
	fmt.Println(">> Verifying stake records <<")
	if err := verifyStakes(newClient(ctx), false); err != nil {
		return err
	}
	fmt.Println("OK")
	return nil
}

func watchAction(ctx *cli.Context) error {
	var account *bank.Address
	if ctx.String(ownerFlag.Name) != "" {
		addr, err := parseAddressFlag(ctx, ownerFlag)
		if err != nil {
			return err
		}
		account = &addr
	}
	sub, err := newClient(ctx).SubscribeEvents(account)
	if err != nil {
		return err
	}
	defer sub.Unsubscribe()

	exitSignal, cancel := handleExitSignal()
	defer cancel()

	limit := ctx.Uint64(countFlag.Name)
	for n := uint64(0); limit == 0 || n < limit; n++ {
		select {
		case <-exitSignal.Done():
			return nil
		case ev, ok := <-sub.EventChan:
			if !ok {
				return nil
			}
			if ev.Error != nil {
				return ev.Error
			}
			fmt.Printf("#%d %v %-20s account=%v amount=%v tx=%v\n",
				ev.Data.Seq,
				time.Unix(int64(ev.Data.Time), 0).UTC().Format(time.RFC3339),
				ev.Data.Kind,
				ev.Data.Account,
				(*big.Int)(ev.Data.Amount),
				ev.Data.TxID.AbbrevString(),
			)
		}
	}
	return nil
}

func devAccountsAction(*cli.Context) error {
	for i, acc := range genesis.DevAccounts() {
		fmt.Printf("#%d %v 0x%x\n", i, acc.Address, crypto.FromECDSA(acc.PrivateKey))
	}
	return nil
}
