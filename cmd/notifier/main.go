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

	"github.com/reliefcoin/reliefcoin-backend/internal/adapter"
	"github.com/reliefcoin/reliefcoin-backend/internal/config"
	"github.com/reliefcoin/reliefcoin-backend/internal/logger"
	"github.com/reliefcoin/reliefcoin-backend/internal/notify"
	"github.com/reliefcoin/reliefcoin-backend/internal/providers/jetstream"
)

var (
	configFile = flag.String("config", "", "Path to configuration file")
	envPath    = flag.String("env", "config/", "Path to environment files")
)

func main() {
	flag.Parse()

	// Load configuration
	config.ChdirRepoRoot()
	cfg, err := config.LoadNotifierConfig(*configFile, *envPath)
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
			"service": "notifier",
		},
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Flush(2 * time.Second)
	logger.InfoCtx(ctx, "Starting ReliefCoin notifier")

	// Subscribe to aid events on JetStream
	subscriber, err := jetstream.NewSubscriber(jetstream.Config{
		URL:            cfg.NATS.URL,
		StreamName:     cfg.NATS.StreamName,
		MaxReconnects:  cfg.NATS.MaxReconnects,
		ReconnectWait:  cfg.NATS.ReconnectWait,
		ConnectionName: cfg.NATS.ConnectionName,
	}, cfg.NATS.ConsumerName, adapter.NewNatsJetStream(), adapter.NewJSON())
	if err != nil {
		logger.FatalCtx(ctx, "Failed to connect to NATS", zap.Error(err), zap.String("url", cfg.NATS.URL))
	}
	defer subscriber.Close()
	logger.InfoCtx(ctx, "Connected to NATS",
		zap.String("stream", cfg.NATS.StreamName),
		zap.String("consumer", cfg.NATS.ConsumerName),
	)

	// Delivery channels share one HTTP client
	httpClient := adapter.NewHTTPClient(30 * time.Second)
	qr := notify.NewQRUploader(httpClient, cfg.QR.UploadURL, cfg.QR.APIKey, cfg.QR.Size)
	sms := notify.NewSMSSender(httpClient, cfg.SMS.APIURL, cfg.SMS.AccountSID, cfg.SMS.AuthToken, cfg.SMS.From)

	// Run blocks until the context is cancelled
	notifier := notify.New(subscriber, qr, sms)
	if err := notifier.Run(ctx); err != nil {
		logger.FatalCtx(ctx, "Notifier failed", zap.Error(err))
	}

	logger.Info("Notifier stopped")
}
