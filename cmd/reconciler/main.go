package main

import (
	"context"
	"flag"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/reliefcoin/reliefcoin-backend/internal/adapter"
	"github.com/reliefcoin/reliefcoin-backend/internal/config"
	"github.com/reliefcoin/reliefcoin-backend/internal/ledger"
	"github.com/reliefcoin/reliefcoin-backend/internal/logger"
	"github.com/reliefcoin/reliefcoin-backend/internal/reconciler"
	"github.com/reliefcoin/reliefcoin-backend/internal/signer"
	"github.com/reliefcoin/reliefcoin-backend/internal/store"
)

var (
	configFile = flag.String("config", "", "Path to configuration file")
	envPath    = flag.String("env", "config/", "Path to environment files")
)

func main() {
	flag.Parse()

	// Load configuration
	config.ChdirRepoRoot()
	cfg, err := config.LoadReconcilerConfig(*configFile, *envPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize logger with sentry integration
	err = logger.Initialize(logger.Config{
		Debug:           cfg.Debug,
		SentryDSN:       cfg.SentryDSN,
		BreadcrumbLevel: zapcore.InfoLevel,
		Tags: map[string]string{
			"service": "reconciler",
		},
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Flush(2 * time.Second)
	logger.InfoCtx(ctx, "Starting ReliefCoin reconciler")

	// Connect to database
	db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{})
	if err != nil {
		logger.FatalCtx(ctx, "Failed to connect to database", zap.Error(err))
	}

	// Configure connection pool
	if err := store.ConfigureConnectionPool(db, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns, cfg.Database.ConnMaxLifetime, cfg.Database.ConnMaxIdleTime); err != nil {
		logger.FatalCtx(ctx, "Failed to configure connection pool", zap.Error(err))
	}

	dataStore := store.NewPGStore(db)
	cursorStore := store.NewCursorStore(db)

	// Connect to the ledger node. The reconciler only reads the event log,
	// but the client still needs the owner key for its binding.
	ethClient, err := adapter.NewEthClientDialer().Dial(ctx, cfg.Ledger.RPCURL)
	if err != nil {
		logger.FatalCtx(ctx, "Failed to connect to ledger node", zap.Error(err), zap.String("rpc_url", cfg.Ledger.RPCURL))
	}

	owner, err := signer.FromHex(cfg.Ledger.OwnerPrivateKey)
	if err != nil {
		logger.FatalCtx(ctx, "Failed to load owner key", zap.Error(err))
	}

	ledgerClient, err := ledger.NewERC20Client(ethClient, owner, adapter.NewClock(), ledger.Config{
		ContractAddress: cfg.Ledger.ContractAddress,
		GasLimit:        cfg.Ledger.GasLimit,
		ConfirmTimeout:  cfg.Ledger.ConfirmTimeout,
		PollInterval:    cfg.Ledger.PollInterval,
	})
	if err != nil {
		logger.FatalCtx(ctx, "Failed to create ledger client", zap.Error(err))
	}
	defer ledgerClient.Close()
	logger.InfoCtx(ctx, "Connected to ledger node",
		zap.String("contract", cfg.Ledger.ContractAddress),
	)

	// Run blocks until the context is cancelled
	rec := reconciler.New(dataStore, cursorStore, ledgerClient, adapter.NewClock(), reconciler.Config{
		PollInterval:  cfg.Sweep.PollInterval,
		Confirmations: cfg.Sweep.Confirmations,
		MaxBlockRange: cfg.Sweep.MaxBlockRange,
		Workers:       cfg.Sweep.Workers,
	})
	if err := rec.Run(ctx); err != nil {
		logger.FatalCtx(ctx, "Reconciler failed", zap.Error(err))
	}

	logger.Info("Reconciler stopped")
}
