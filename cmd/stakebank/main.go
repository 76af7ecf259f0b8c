// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"fmt"
	"io/fs"
	"net"
	"net/http"
	"os"
	"sync/atomic"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/vechain/stakebank/admin"
	"github.com/vechain/stakebank/api"
	"github.com/vechain/stakebank/cache"
	"github.com/vechain/stakebank/health"
	"github.com/vechain/stakebank/log"
	"github.com/vechain/stakebank/logdb"
	"github.com/vechain/stakebank/lvldb"
	"github.com/vechain/stakebank/processor"
	"golang.org/x/sync/errgroup"
	cli "gopkg.in/urfave/cli.v1"
)

var (
	version   string
	gitCommit string
	gitTag    string

	logger = log.WithContext("pkg", "stakebank")
)

func fullVersion() string {
	versionMeta := "release"
	if gitTag == "" {
		versionMeta = "dev"
	}
	return fmt.Sprintf("%s-%s-%s", version, gitCommit, versionMeta)
}

// loadDotEnv fills the environment from a .env file, existing variables win.
func loadDotEnv() {
	path := os.Getenv("STAKEBANK_ENV_FILE")
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintln(os.Stderr, "load env file:", err)
	}
}

func newApp() *cli.App {
	app := cli.NewApp()
	app.Version = fullVersion()
	app.Name = "stakebank"
	app.Usage = "Token staking pool with time locked rewards"
	app.Copyright = "2025 VeChain Foundation <https://vechain.org/>"
	app.Flags = []cli.Flag{
		networkFlag,
		dataDirFlag,
		inMemoryFlag,
		cacheFlag,
		apiAddrFlag,
		apiCorsFlag,
		apiTimeoutFlag,
		apiLogsLimitFlag,
		apiSkipLogsFlag,
		apiPprofFlag,
		enableAPILogsFlag,
		apiSlowQueriesThresholdFlag,
		apiLog5xxErrorsFlag,
		replayCacheFlag,
		enableMetricsFlag,
		metricsAddrFlag,
		enableAdminFlag,
		adminAddrFlag,
		ntpServerFlag,
		verbosityFlag,
		jsonLogsFlag,
	}
	app.Action = serveAction
	app.Commands = taskCommands()
	return app
}

func main() {
	loadDotEnv()
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serveAction(ctx *cli.Context) error {
	exitSignal, stop := handleExitSignal()
	defer stop()

	defer func() { logger.Info("exited") }()

	logLevel := initLogger(ctx)
	gene := selectGenesis(ctx)

	var (
		mainDB      *lvldb.LevelDB
		logDB       *logdb.LogDB
		instanceDir string
	)
	if ctx.Bool(inMemoryFlag.Name) {
		instanceDir = "Memory"
		mainDB = openMemMainDB()
		logDB = openMemLogDB()
	} else {
		instanceDir = makeInstanceDir(ctx, gene)
		mainDB = openMainDB(ctx, instanceDir)
		logDB = openLogDB(instanceDir)
	}
	defer func() { logger.Info("closing main database..."); mainDB.Close() }()
	defer func() { logger.Info("closing log database..."); logDB.Close() }()

	ledger, tokens := initLedger(gene, mainDB)

	seen, err := cache.NewSeen(ctx.Int(replayCacheFlag.Name))
	if err != nil {
		return errors.Wrap(err, "replay cache")
	}
	proc := processor.New(mainDB, ledger, tokens, logDB, seen, nil)
	nodeHealth := health.New()
	proc.SetMonitor(nodeHealth)

	enableAPILogs := &atomic.Bool{}
	enableAPILogs.Store(ctx.Bool(enableAPILogsFlag.Name))

	handler, closeSubs := api.New(ledger, tokens, proc, logDB, api.Options{
		AllowedOrigins:       ctx.String(apiCorsFlag.Name),
		LogsLimit:            ctx.Uint64(apiLogsLimitFlag.Name),
		PprofOn:              ctx.Bool(apiPprofFlag.Name),
		SkipLogs:             ctx.Bool(apiSkipLogsFlag.Name),
		EnableReqLogger:      enableAPILogs,
		SlowQueriesThreshold: time.Duration(ctx.Uint64(apiSlowQueriesThresholdFlag.Name)) * time.Millisecond,
		Log5xxErrors:         ctx.Bool(apiLog5xxErrorsFlag.Name),
		EnableMetrics:        ctx.Bool(enableMetricsFlag.Name),
	})

	group, groupCtx := errgroup.WithContext(exitSignal)
	servers := []*http.Server{}

	apiListener := listen(ctx.String(apiAddrFlag.Name))
	apiSrv := newAPIServer(ctx, handler)
	servers = append(servers, apiSrv)
	group.Go(func() error { return serve(apiSrv, apiListener) })
	apiURL := "http://" + apiListener.Addr().String() + "/"

	var metricsURL string
	if ctx.Bool(enableMetricsFlag.Name) {
		metricsListener := listen(ctx.String(metricsAddrFlag.Name))
		metricsSrv := newMetricsServer()
		servers = append(servers, metricsSrv)
		group.Go(func() error { return serve(metricsSrv, metricsListener) })
		metricsURL = "http://" + metricsListener.Addr().String() + "/metrics"
	}

	var adminURL string
	if ctx.Bool(enableAdminFlag.Name) {
		url, stopAdmin, err := admin.StartServer(ctx.String(adminAddrFlag.Name), logLevel, nodeHealth, enableAPILogs)
		if err != nil {
			return err
		}
		defer func() { logger.Info("stopping admin server..."); stopAdmin() }()
		adminURL = url
	}

	group.Go(func() error { return clockOffsetLoop(groupCtx, ctx.String(ntpServerFlag.Name)) })

	group.Go(func() error {
		<-groupCtx.Done()
		logger.Info("stopping servers...")
		closeSubs()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		for _, srv := range servers {
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Warn("server shutdown", "err", err)
			}
		}
		return nil
	})

	printStartupMessage(gene, ledger, instanceDir, apiURL, metricsURL, adminURL)

	return group.Wait()
}

func serve(srv *http.Server, listener net.Listener) error {
	if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
