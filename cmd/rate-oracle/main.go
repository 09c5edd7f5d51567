package main

import (
	"context"
	"flag"
	"fmt"
	"math/big"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/ethclient"

	"tc.com/rate-oracle/pkg/config"
	"tc.com/rate-oracle/pkg/logging"
	"tc.com/rate-oracle/pkg/metrics"
	"tc.com/rate-oracle/pkg/oracle"
	"tc.com/rate-oracle/pkg/oracle/feeds"
	"tc.com/rate-oracle/pkg/server/api"
	"tc.com/rate-oracle/pkg/version"
)

var (
	configFile = flag.String("config", "config/config.yaml", "Path to configuration file")
	showVer    = flag.Bool("version", false, "Show version and exit")
)

func main() {
	flag.Parse()

	if *showVer {
		fmt.Printf("rate-oracle version %s\n", version.Version)
		os.Exit(0)
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := config.Validate(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	logger.Info("Starting rate-oracle", "version", version.Version, "pair", cfg.Oracle.Pair)

	if cfg.Metrics.Enabled {
		metrics.Init()
		go func() {
			logger.Info("Starting metrics server", "addr", cfg.Metrics.Addr)
			if err := metrics.ServeHTTP(cfg.Metrics.Addr); err != nil {
				logger.Error("Metrics server failed", "error", err)
			}
		}()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	client, err := ethclient.DialContext(ctx, cfg.Oracle.RPCURL)
	if err != nil {
		logger.Fatal("Failed to connect to RPC", "url", cfg.Oracle.RPCURL, "error", err)
	}
	defer client.Close()

	o, err := buildOracle(ctx, &cfg.Oracle, client, logger)
	if err != nil {
		logger.Fatal("Failed to assemble oracle", "error", err)
	}

	server := api.NewServer(cfg.Server.HTTP.Addr, o, cfg.Oracle.Pair, cfg.Server.CacheTTL.ToDuration(), logger)

	var wsServer *api.WebSocketServer
	if cfg.Server.WebSocket.Enabled {
		wsServer = api.NewWebSocketServer(cfg.Server.WebSocket.Addr, logger)
		server.SetWebSocketServer(wsServer)

		go func() {
			if err := wsServer.Start(); err != nil {
				logger.Error("WebSocket server error", "error", err)
			}
		}()

		go server.Poll(ctx, cfg.Server.PollInterval.ToDuration())
	}

	errChan := make(chan error, 1)
	go func() {
		errChan <- server.Start()
	}()

	select {
	case sig := <-sigChan:
		logger.Info("Received shutdown signal", "signal", sig.String())
	case err := <-errChan:
		if err != nil {
			logger.Error("Server failed", "error", err)
		}
	}

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	logger.Info("Shutting down gracefully...")
	if err := server.Stop(shutdownCtx); err != nil {
		logger.Error("HTTP shutdown error", "error", err)
	}
	if wsServer != nil {
		wsServer.Stop()
	}
	logger.Info("Shutdown complete")
}

// buildOracle constructs the feed and vault collaborators from config and
// assembles the immutable oracle.
func buildOracle(ctx context.Context, cfg *config.OracleConfig, client *ethclient.Client, logger *logging.Logger) (*oracle.Oracle, error) {
	baseConverter, baseSample, baseFeed1, baseFeed2, err := buildSide(&cfg.Base, client)
	if err != nil {
		return nil, fmt.Errorf("base side: %w", err)
	}

	quoteConverter, quoteSample, quoteFeed1, quoteFeed2, err := buildSide(&cfg.Quote, client)
	if err != nil {
		return nil, fmt.Errorf("quote side: %w", err)
	}

	params := oracle.Params{
		BaseConverter:  baseConverter,
		BaseSample:     baseSample,
		BaseFeed1:      baseFeed1,
		BaseFeed2:      baseFeed2,
		BaseDecimals:   cfg.Base.TokenDecimals,
		QuoteConverter: quoteConverter,
		QuoteSample:    quoteSample,
		QuoteFeed1:     quoteFeed1,
		QuoteFeed2:     quoteFeed2,
		QuoteDecimals:  cfg.Quote.TokenDecimals,
	}

	return oracle.New(ctx, params, logger.With("oracle"))
}

// buildSide creates the optional vault converter and feeds for one side.
func buildSide(cfg *config.SideConfig, client *ethclient.Client) (oracle.ShareConverter, *big.Int, oracle.PriceFeed, oracle.PriceFeed, error) {
	sample, err := cfg.Sample()
	if err != nil {
		return nil, nil, nil, nil, err
	}

	var converter oracle.ShareConverter
	if cfg.HasVault() {
		vault, err := feeds.NewERC4626Vault(client, cfg.Vault)
		if err != nil {
			return nil, nil, nil, nil, fmt.Errorf("vault: %w", err)
		}
		converter = vault
	}

	var feed1, feed2 oracle.PriceFeed
	if cfg.Feed1 != "" {
		f, err := feeds.NewChainlinkFeed(client, cfg.Feed1)
		if err != nil {
			return nil, nil, nil, nil, fmt.Errorf("feed1: %w", err)
		}
		feed1 = f
	}
	if cfg.Feed2 != "" {
		f, err := feeds.NewChainlinkFeed(client, cfg.Feed2)
		if err != nil {
			return nil, nil, nil, nil, fmt.Errorf("feed2: %w", err)
		}
		feed2 = f
	}

	return converter, sample, feed1, feed2, nil
}
