// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	cli "gopkg.in/urfave/cli.v1"

	"github.com/vechain/stakebank/log"
)

// server flags
var (
	networkFlag = cli.StringFlag{
		Name:  "network",
		Value: "dev",
		Usage: "the genesis to serve (dev) or the path to a yaml genesis file",
	}
	dataDirFlag = cli.StringFlag{
		Name:  "data-dir",
		Value: defaultDataDir(),
		Usage: "directory for the pool databases",
	}
	inMemoryFlag = cli.BoolFlag{
		Name:  "in-memory",
		Usage: "keep all state in memory, lost on exit",
	}
	cacheFlag = cli.IntFlag{
		Name:  "cache",
		Value: 256,
		Usage: "megabytes of ram allocated to the main database",
	}
	apiAddrFlag = cli.StringFlag{
		Name:  "api-addr",
		Value: "localhost:8669",
		Usage: "API service listening address",
	}
	apiCorsFlag = cli.StringFlag{
		Name:  "api-cors",
		Value: "",
		Usage: "comma separated list of domains from which to accept cross origin requests to API",
	}
	apiTimeoutFlag = cli.Uint64Flag{
		Name:  "api-timeout",
		Value: 10000,
		Usage: "API request timeout value in milliseconds",
	}
	apiLogsLimitFlag = cli.Uint64Flag{
		Name:  "api-logs-limit",
		Value: 1000,
		Usage: "limit the number of journal events returned by one query",
	}
	apiSkipLogsFlag = cli.BoolFlag{
		Name:  "api-skip-logs",
		Usage: "disable the journal endpoint",
	}
	apiPprofFlag = cli.BoolFlag{
		Name:  "api-pprof",
		Usage: "turn on go-pprof",
	}
	enableAPILogsFlag = cli.BoolFlag{
		Name:  "enable-api-logs",
		Usage: "enables API requests logging",
	}
	apiSlowQueriesThresholdFlag = cli.Uint64Flag{
		Name:  "api-slow-queries-threshold",
		Usage: "all queries with duration(ms) above the threshold will be logged",
	}
	apiLog5xxErrorsFlag = cli.BoolFlag{
		Name:  "api-log-5xx-errors",
		Usage: "log all requests answered with a server error",
	}
	replayCacheFlag = cli.IntFlag{
		Name:  "replay-cache",
		Value: 65536,
		Usage: "number of recent transaction ids remembered to reject replays",
	}
	enableMetricsFlag = cli.BoolFlag{
		Name:  "enable-metrics",
		Usage: "enables metrics collection",
	}
	metricsAddrFlag = cli.StringFlag{
		Name:  "metrics-addr",
		Value: "localhost:2112",
		Usage: "metrics service listening address",
	}
	enableAdminFlag = cli.BoolFlag{
		Name:  "enable-admin",
		Usage: "enables admin server",
	}
	adminAddrFlag = cli.StringFlag{
		Name:  "admin-addr",
		Value: "localhost:2113",
		Usage: "admin service listening address",
	}
	ntpServerFlag = cli.StringFlag{
		Name:  "ntp-server",
		Value: "pool.ntp.org",
		Usage: "NTP server used to detect clock offsets, empty to disable",
	}
	verbosityFlag = cli.IntFlag{
		Name:  "verbosity",
		Value: log.LegacyLevelInfo,
		Usage: "log verbosity (0-5)",
	}
	jsonLogsFlag = cli.BoolFlag{
		Name:  "json-logs",
		Usage: "output logs in JSON format",
	}
)

// client flags
var (
	apiURLFlag = cli.StringFlag{
		Name:   "api",
		Value:  "http://localhost:8669",
		EnvVar: "STAKEBANK_API_URL",
		Usage:  "URL of the stakebank API",
	}
	keyFlag = cli.StringFlag{
		Name:   "key",
		EnvVar: "PRIVATE_KEY",
		Usage:  "hex encoded private key signing transactions, prompted when empty",
	}
	amountFlag = cli.StringFlag{
		Name:  "amount",
		Usage: "token amount, decimal or 0x prefixed hex",
	}
	coeffFlag = cli.Uint64Flag{
		Name:  "coeff",
		Usage: "reward coefficient in percent",
	}
	tokenLockFlag = cli.Uint64Flag{
		Name:  "token-lock",
		Usage: "seconds before a stake can be withdrawn",
	}
	rewardLockFlag = cli.Uint64Flag{
		Name:  "reward-lock",
		Usage: "seconds before a reward can be claimed",
	}
	ownerFlag = cli.StringFlag{
		Name:  "owner",
		Usage: "account address, defaults to the signer",
	}
	tokenFlag = cli.StringFlag{
		Name:  "token",
		Value: "MTK",
		Usage: "token symbol",
	}
	toFlag = cli.StringFlag{
		Name:  "to",
		Usage: "recipient address",
	}
	outputFlag = cli.StringFlag{
		Name:  "output",
		Usage: "file to save the generated key to",
	}
	countFlag = cli.Uint64Flag{
		Name:  "count",
		Usage: "stop after this many events, 0 to watch until interrupted",
	}
)
