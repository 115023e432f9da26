package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/reliefcoin/reliefcoin-backend/internal/adapter"
	"github.com/reliefcoin/reliefcoin-backend/internal/api/server"
	"github.com/reliefcoin/reliefcoin-backend/internal/config"
	"github.com/reliefcoin/reliefcoin-backend/internal/coordinator"
	"github.com/reliefcoin/reliefcoin-backend/internal/ledger"
	"github.com/reliefcoin/reliefcoin-backend/internal/logger"
	"github.com/reliefcoin/reliefcoin-backend/internal/messaging"
	"github.com/reliefcoin/reliefcoin-backend/internal/providers/jetstream"
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
	cfg, err := config.LoadAPIConfig(*configFile, *envPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize logger with sentry integration
	err = logger.Initialize(logger.Config{
		Debug:           cfg.Debug,
		SentryDSN:       cfg.SentryDSN,
		BreadcrumbLevel: zapcore.InfoLevel,
		Tags: map[string]string{
			"service": "api-server",
		},
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Flush(2 * time.Second)
	logger.InfoCtx(ctx, "Starting ReliefCoin API")

	// Connect to database
	db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{})
	if err != nil {
		logger.FatalCtx(ctx, "Failed to connect to database", zap.Error(err))
	}

	// Configure connection pool
	if err := store.ConfigureConnectionPool(db, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns, cfg.Database.ConnMaxLifetime, cfg.Database.ConnMaxIdleTime); err != nil {
		logger.FatalCtx(ctx, "Failed to configure connection pool", zap.Error(err))
	}
	logger.InfoCtx(ctx, "Connected to database",
		zap.Int("max_open_conns", cfg.Database.MaxOpenConns),
		zap.Int("max_idle_conns", cfg.Database.MaxIdleConns),
	)

	// Initialize store
	dataStore := store.NewPGStore(db)

	// Connect to the ledger node with the contract owner's signing key
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

	// Connect to NATS JetStream for aid event publishing. The API keeps
	// working without it; notifications are best effort.
	var publisher messaging.Publisher
	publisher, err = jetstream.NewPublisher(jetstream.Config{
		URL:            cfg.NATS.URL,
		StreamName:     cfg.NATS.StreamName,
		MaxReconnects:  cfg.NATS.MaxReconnects,
		ReconnectWait:  cfg.NATS.ReconnectWait,
		ConnectionName: cfg.NATS.ConnectionName,
	}, adapter.NewNatsJetStream(), adapter.NewJSON())
	if err != nil {
		logger.WarnCtx(ctx, "Failed to connect to NATS, notifications disabled", zap.Error(err))
		publisher = nil
	} else {
		defer publisher.Close()
	}

	// Create the two-phase coordinator
	coord := coordinator.New(dataStore, ledgerClient, publisher, coordinator.Config{
		RecordMaxRetries:      cfg.Coordinator.RecordMaxRetries,
		RecordInitialInterval: cfg.Coordinator.RecordInitialInterval,
		RecordMaxInterval:     cfg.Coordinator.RecordMaxInterval,
	})

	// Create server config
	serverConfig := server.Config{
		Debug:        cfg.Debug,
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
		JWTSecret:    cfg.Auth.JWTSecret,
		TokenTTL:     cfg.Auth.TokenTTL,
	}

	// Create and start server
	srv := server.New(serverConfig, dataStore, ledgerClient, coord)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil {
			errCh <- err
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		logger.InfoCtx(ctx, "Received shutdown signal", zap.String("signal", sig.String()))
		cancel()
	case err := <-errCh:
		logger.ErrorCtx(ctx, err, zap.String("component", "server"))
		cancel()
	}

	// Create shutdown context with timeout (don't use canceled ctx)
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	logger.InfoCtx(shutdownCtx, "Shutting down server...")

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.FatalCtx(shutdownCtx, "Server forced to shutdown", zap.Error(err))
	}

	// Use non-context logger for final message since original ctx is canceled
	logger.Info("API server stopped")
}
