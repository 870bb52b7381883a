package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/lisanmuaddib/base-minter/internal/runconfig"
	"github.com/lisanmuaddib/base-minter/pkg/action"
	"github.com/lisanmuaddib/base-minter/pkg/batch"
	"github.com/lisanmuaddib/base-minter/pkg/bridge"
	"github.com/lisanmuaddib/base-minter/pkg/db"
	"github.com/lisanmuaddib/base-minter/pkg/logging"
	"github.com/lisanmuaddib/base-minter/pkg/mint"
	"github.com/lisanmuaddib/base-minter/pkg/pace"
	"github.com/lisanmuaddib/base-minter/pkg/report"
	"github.com/lisanmuaddib/base-minter/pkg/wallet"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		// Only log warning since .env is optional
		logrus.WithError(err).Warn("Error loading .env file")
	}

	log := logging.New(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"), os.Stdout)

	cfg, err := runconfig.Load()
	if err != nil {
		log.WithError(err).Fatal("Invalid configuration")
	}
	log.WithFields(cfg.LogFields()).Info("Configuration loaded")

	entries, err := batch.LoadEntries(cfg.WalletsFile, cfg.ProxiesFile)
	if err != nil {
		if errors.Is(err, batch.ErrProxyCountMismatch) {
			log.Error("Proxies count doesn't match wallets count. Add proxies or leave proxies file empty")
			os.Exit(1)
		}
		log.WithError(err).Fatal("Failed to read wallets")
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan
		log.Info("Received shutdown signal")
		cancel()
	}()

	registry := wallet.NewRegistry(log, cfg.ChainConfigs())
	defer registry.Close()

	names, err := fetchTargetNames(ctx, registry, cfg.MintAddresses)
	if err != nil {
		log.WithError(err).Fatal("Can't get nft names")
	}
	targets := cfg.Targets(names)

	columns := make([]string, len(targets))
	for i, t := range targets {
		columns[i] = t.Name
	}

	runID := uuid.NewString()
	resultsDir := filepath.Join(cfg.ResultsDir, time.Now().Format("02-01-2006-15-04-05"))
	writer, err := report.NewWriter(resultsDir, columns)
	if err != nil {
		log.WithError(err).Fatal("Failed to create results directory")
	}

	pacer := pace.New()
	executor := wallet.NewExecutor(log, pacer, wallet.NewNonceManager())
	gate := wallet.NewGasGate(log, pacer)
	runner := action.NewRunner(log, cfg.RetryPolicy())

	coordinator := bridge.NewCoordinator(log, cfg.BridgeConfig(), executor, gate, runner, pacer)
	orchestrator := mint.NewOrchestrator(log, cfg.MintConfig(), executor, coordinator, runner, pacer)

	var opts []batch.Option
	if cfg.LedgerEnabled {
		database, err := db.SetupDatabase(log)
		if err != nil {
			log.WithError(err).Fatal("Failed to set up ledger")
		}
		opts = append(opts, batch.WithRecorder(db.NewLedger(log, database)))
	}

	batchRunner := batch.NewRunner(log, cfg.BatchConfig(runID), registry, orchestrator, targets, writer, pacer, opts...)

	log.WithFields(logrus.Fields{
		"run_id":  runID,
		"wallets": len(entries),
		"targets": len(targets),
		"report":  writer.Path(),
	}).Info("Starting mint run")

	if err := batchRunner.Run(ctx, entries); err != nil && !errors.Is(err, context.Canceled) {
		log.WithError(err).Fatal("Run stopped with error")
	}

	log.Info("Run complete")
}

// fetchTargetNames reads every collection's name on Base without a proxy. Any
// failure aborts the run before a wallet is touched.
func fetchTargetNames(ctx context.Context, registry *wallet.Registry, addresses []common.Address) (map[common.Address]string, error) {
	h, err := registry.Get(ctx, wallet.Base, "")
	if err != nil {
		return nil, err
	}

	names := make(map[common.Address]string, len(addresses))
	for _, addr := range addresses {
		name, err := wallet.NFTName(ctx, h, addr)
		if err != nil {
			return nil, err
		}
		names[addr] = name
	}
	return names, nil
}
