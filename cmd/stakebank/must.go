// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net"
	"net/http"
	"os"
	"os/signal"
	"os/user"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/beevik/ntp"
	"github.com/elastic/gosigar"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/fdlimit"
	"github.com/mattn/go-isatty"
	"github.com/vechain/stakebank/genesis"
	"github.com/vechain/stakebank/log"
	"github.com/vechain/stakebank/logdb"
	"github.com/vechain/stakebank/lvldb"
	"github.com/vechain/stakebank/metrics"
	"github.com/vechain/stakebank/staker"
	"github.com/vechain/stakebank/token"
	cli "gopkg.in/urfave/cli.v1"
)

func fatal(args ...any) {
	var w io.Writer
	if runtime.GOOS == "windows" {
		// The SameFile check below doesn't work on Windows.
		// stdout is unlikely to get redirected though, so just print there.
		w = os.Stdout
	} else {
		outf, _ := os.Stdout.Stat()
		errf, _ := os.Stderr.Stat()
		if outf != nil && errf != nil && os.SameFile(outf, errf) {
			w = os.Stderr
		} else {
			w = io.MultiWriter(os.Stdout, os.Stderr)
		}
	}
	fmt.Fprint(w, "Fatal: ")
	fmt.Fprintln(w, args...)
	os.Exit(1)
}

func initLogger(ctx *cli.Context) *slog.LevelVar {
	lvl := &slog.LevelVar{}
	lvl.Set(log.FromLegacyLevel(ctx.Int(verbosityFlag.Name)))

	var handler = log.JSONHandlerWithLevel(os.Stderr, lvl)
	if !ctx.Bool(jsonLogsFlag.Name) {
		useColor := isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())
		handler = log.NewTerminalHandlerWithLevel(os.Stderr, lvl, useColor)
	}
	log.SetDefault(log.NewLogger(handler))
	return lvl
}

func homeDir() string {
	if home := os.Getenv("HOME"); home != "" {
		return home
	}
	if usr, err := user.Current(); err == nil {
		return usr.HomeDir
	}
	return ""
}

func defaultDataDir() string {
	if home := homeDir(); home != "" {
		switch runtime.GOOS {
		case "darwin":
			return filepath.Join(home, "Library", "Application Support", "org.vechain.stakebank")
		case "windows":
			return filepath.Join(home, "AppData", "Roaming", "org.vechain.stakebank")
		default:
			return filepath.Join(home, ".org.vechain.stakebank")
		}
	}
	return ""
}

func selectGenesis(ctx *cli.Context) *genesis.Genesis {
	network := ctx.String(networkFlag.Name)
	if network == "" || network == "dev" {
		return genesis.NewDevnet()
	}
	gene, err := genesis.Load(network)
	if err != nil {
		fatal(fmt.Sprintf("load genesis [%v]: %v", network, err))
	}
	return gene
}

func makeInstanceDir(ctx *cli.Context, gene *genesis.Genesis) string {
	dataDir := ctx.String(dataDirFlag.Name)
	if dataDir == "" {
		fatal(fmt.Sprintf("unable to infer default data dir, use -%s to specify", dataDirFlag.Name))
	}
	id := gene.ID()
	instanceDir := filepath.Join(dataDir, fmt.Sprintf("instance-%x", id[24:]))
	if err := os.MkdirAll(instanceDir, 0o700); err != nil {
		fatal(fmt.Sprintf("create instance dir [%v]: %v", instanceDir, err))
	}
	return instanceDir
}

func openMainDB(ctx *cli.Context, instanceDir string) *lvldb.LevelDB {
	cacheMB := normalizeCacheSize(ctx.Int(cacheFlag.Name))
	logger.Debug("cache size(MB)", "size", cacheMB)

	// Ensure Go's GC ignores the database cache for trigger percentage
	gogc := math.Max(20, math.Min(100, 100/(float64(cacheMB)/1024)))
	logger.Debug("sanitize Go's GC trigger", "percent", int(gogc))
	debug.SetGCPercent(int(gogc))

	fdCache := suggestFDCache()
	logger.Debug("fd cache", "n", fdCache)

	dir := filepath.Join(instanceDir, "main.db")
	db, err := lvldb.New(dir, lvldb.Options{
		CacheSize:              cacheMB,
		OpenFilesCacheCapacity: fdCache,
	})
	if err != nil {
		fatal(fmt.Sprintf("open main database [%v]: %v", dir, err))
	}
	return db
}

func normalizeCacheSize(sizeMB int) int {
	if sizeMB < 16 {
		sizeMB = 16
	}

	var mem gosigar.Mem
	if err := mem.Get(); err != nil {
		logger.Warn("failed to get total mem:", "err", err)
	} else {
		// limit to 1/2 os physical ram
		limitMB := int(mem.Total / 1024 / 1024 / 2)
		if sizeMB > limitMB {
			sizeMB = limitMB
			logger.Warn("cache size(MB) limited", "limit", limitMB)
		}
	}
	return sizeMB
}

func suggestFDCache() int {
	limit, err := fdlimit.Current()
	if err != nil {
		fatal("failed to get fd limit:", err)
	}
	if limit <= 1024 {
		logger.Warn("low fd limit, increase it if possible", "limit", limit)
	}

	n := limit / 2
	if n > 5120 {
		return 5120
	}
	return n
}

func openLogDB(instanceDir string) *logdb.LogDB {
	dir := filepath.Join(instanceDir, "logs.db")
	db, err := logdb.New(dir)
	if err != nil {
		fatal(fmt.Sprintf("open log database [%v]: %v", dir, err))
	}
	return db
}

func openMemMainDB() *lvldb.LevelDB {
	db, err := lvldb.NewMem()
	if err != nil {
		fatal(fmt.Sprintf("open main database: %v", err))
	}
	return db
}

func openMemLogDB() *logdb.LogDB {
	db, err := logdb.NewMem()
	if err != nil {
		fatal(fmt.Sprintf("open log database: %v", err))
	}
	return db
}

func initLedger(gene *genesis.Genesis, mainDB *lvldb.LevelDB) (*staker.Ledger, []*token.Token) {
	stake, reward, err := gene.Apply(mainDB)
	if err != nil {
		fatal("apply genesis:", err)
	}
	pool := gene.PoolAddress()
	ledger, err := staker.New(mainDB, staker.Params{
		Owner:       gene.Owner,
		Address:     pool,
		StakeToken:  stake.Bind(pool),
		RewardToken: reward.Bind(pool),
		Config:      gene.PoolConfig(),
	})
	if err != nil {
		fatal("open ledger:", err)
	}
	return ledger, []*token.Token{stake, reward}
}

func listen(addr string) net.Listener {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		fatal(fmt.Sprintf("listen [%v]: %v", addr, err))
	}
	return listener
}

func newAPIServer(ctx *cli.Context, handler http.Handler) *http.Server {
	if timeout := ctx.Uint64(apiTimeoutFlag.Name); timeout > 0 {
		handler = http.TimeoutHandler(handler, time.Duration(timeout)*time.Millisecond, "request timeout")
	}
	return &http.Server{
		Handler:           requestBodyLimit(handler),
		ReadHeaderTimeout: time.Second,
	}
}

// requestBodyLimit caps request bodies, a raw transaction being far smaller.
func requestBodyLimit(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, 64*1024)
		h.ServeHTTP(w, r)
	})
}

func newMetricsServer() *http.Server {
	metrics.InitializePrometheusMetrics()
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.HTTPHandler())
	return &http.Server{Handler: mux, ReadHeaderTimeout: time.Second}
}

// clockOffsetLimit is the largest tolerated clock drift, the locks being
// counted in seconds.
const clockOffsetLimit = 2 * time.Second

func checkClockOffset(server string) {
	resp, err := ntp.Query(server)
	if err != nil {
		logger.Debug("failed to access NTP", "err", err)
		return
	}
	offset := resp.ClockOffset
	if offset < 0 {
		offset = -offset
	}
	if offset > clockOffsetLimit {
		logger.Warn("clock offset detected", "offset", common.PrettyDuration(resp.ClockOffset))
	}
}

func clockOffsetLoop(ctx context.Context, server string) error {
	if server == "" {
		return nil
	}
	checkClockOffset(server)

	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			checkClockOffset(server)
		}
	}
}

func handleExitSignal() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func printStartupMessage(
	gene *genesis.Genesis,
	ledger *staker.Ledger,
	instanceDir string,
	apiURL string,
	metricsURL string,
	adminURL string,
) {
	cfg := ledger.Config()
	fmt.Printf(`Starting %v
    Genesis      [ %v ]
    Pool         [ %v owner %v ]
    Config       [ reward %v%% token lock %vs reward lock %vs ]
    Stakers      [ %v staking %v ]
    Instance dir [ %v ]
    API portal   [ %v ]
    Metrics      [ %v ]
    Admin        [ %v ]
`,
		"Stakebank/"+fullVersion(),
		gene.ID(),
		ledger.Address(), ledger.Owner(),
		cfg.RewardCoefficient, cfg.TokenLockDuration, cfg.RewardLockDuration,
		ledger.Stakers(), ledger.TotalStaked(),
		instanceDir,
		apiURL,
		func() string {
			if metricsURL == "" {
				return "disabled"
			}
			return metricsURL
		}(),
		func() string {
			if adminURL == "" {
				return "disabled"
			}
			return adminURL
		}(),
	)
}
