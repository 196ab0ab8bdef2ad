package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"math/big"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/subcommands"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/xraph/fundme"
	audithook "github.com/xraph/fundme/audit_hook"
	"github.com/xraph/fundme/events/kafka"
	"github.com/xraph/fundme/network"
	"github.com/xraph/fundme/observability"
	"github.com/xraph/fundme/oracle"
	"github.com/xraph/fundme/store/journal"
	"github.com/xraph/fundme/types"
	"github.com/xraph/fundme/wallet"
)

// devAccounts are the first accounts of the default development mnemonic.
// serve credits each of them so they can fund the ledger.
var devAccounts = []types.Address{
	types.MustParseAddress("0xf39fd6e51aad88f6f4ce6ab8827279cfffb92266"),
	types.MustParseAddress("0x70997970c51812dc3a010c7d01b50e0d17dc79c8"),
	types.MustParseAddress("0x3c44cdddb6a900fa2b585dd299e03d12fa4293bc"),
	types.MustParseAddress("0x90f79bf6eb2c4f870365e785982e1f101e93b906"),
	types.MustParseAddress("0x15d34aaf54267db7d7c367839aaf71a00a2c6a65"),
	types.MustParseAddress("0x9965507d1a55bcc2695c58ba16fb37d819b0a4dc"),
}

type serveCmd struct {
	addr     string
	network  string
	networks string
	owner    string
	price    int64
	maxAge   time.Duration
	seed     int64
	journal  string
	dsn      string
	kafka    string
	verbose  bool
}

func (*serveCmd) Name() string     { return "serve" }
func (*serveCmd) Synopsis() string { return "host a ledger over HTTP" }
func (*serveCmd) Usage() string {
	return `fundme serve [-addr :8080] [-network hardhat] [-owner <address>] [-price 2000]
             [-journal <driver> -dsn <dsn>] [-kafka <brokers>]

  Runs a ledger on a development network with a mock ETH/USD feed. The
  development accounts are credited with -seed ether each.

  Journal drivers: memory (default), leveldb, redis, postgres, sqlite, mongo.
`
}

func (c *serveCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.addr, "addr", ":8080", "listen address")
	f.StringVar(&c.network, "network", envOr(envNetwork, "hardhat"), "network name")
	f.StringVar(&c.networks, "networks", "", "YAML network registry merged over the built-in one")
	f.StringVar(&c.owner, "owner", envOr(envOwner, devAccounts[0].String()), "owner address")
	f.Int64Var(&c.price, "price", 2000, "initial mock ETH/USD price in whole dollars")
	f.DurationVar(&c.maxAge, "max-price-age", 0, "reject prices older than this (0 disables)")
	f.Int64Var(&c.seed, "seed", 10000, "ether credited to each development account")
	f.StringVar(&c.journal, "journal", envOr(envJournal, journal.Memory), "receipt journal driver")
	f.StringVar(&c.dsn, "dsn", envOr(envJournalDSN, ""), "journal directory, address or connection string")
	f.StringVar(&c.kafka, "kafka", "", "comma-separated Kafka brokers to publish events to")
	f.BoolVar(&c.verbose, "v", false, "debug logging")
}

func (c *serveCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	level := slog.LevelInfo
	if c.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := c.run(ctx, logger); err != nil {
		logger.Error("fundme: serve failed", "error", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func (c *serveCmd) run(ctx context.Context, logger *slog.Logger) error {
	owner, err := types.ParseAddress(c.owner)
	if err != nil {
		return fmt.Errorf("owner: %w", err)
	}

	registry := network.Default()
	if c.networks != "" {
		if registry, err = network.Load(c.networks); err != nil {
			return err
		}
	}
	mock := oracle.NewMockAggregator(oracle.MockDecimals, new(big.Int).Mul(big.NewInt(c.price), big.NewInt(1e8)))
	feed, net, err := registry.ResolveFeed(c.network, mock, nil)
	if err != nil {
		return err
	}

	receipts, err := journal.Open(ctx, c.journal, c.dsn)
	if err != nil {
		return err
	}

	book := wallet.NewBook()
	for _, acct := range devAccounts {
		if err := book.Credit(acct, types.Ether(c.seed)); err != nil {
			return err
		}
	}

	reg := prometheus.NewRegistry()
	opts := []fundme.Option{
		fundme.WithLogger(logger),
		fundme.WithPayee(book),
		fundme.WithStore(receipts),
		fundme.WithMaxPriceAge(c.maxAge),
		fundme.WithPlugin(observability.NewMetricsExtension(observability.NewPrometheusFactory(reg))),
		fundme.WithPlugin(audithook.New(slogRecorder(logger), audithook.WithLogger(logger))),
	}
	if c.kafka != "" {
		opts = append(opts, fundme.WithPlugin(kafka.NewPublisher(strings.Split(c.kafka, ","))))
	}

	l, err := fundme.New(owner, feed, opts...)
	if err != nil {
		return err
	}
	if err := l.Start(ctx); err != nil {
		return err
	}
	defer l.Stop() //nolint:errcheck // best effort on exit

	srv := &server{ledger: l, book: book, journal: receipts, logger: logger}
	router := srv.routes()
	root := http.NewServeMux()
	root.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	root.Handle("/", router)

	httpSrv := &http.Server{
		Addr:              c.addr,
		Handler:           root,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("fundme: listening",
			"addr", c.addr,
			"network", net.Name,
			"chain_id", net.ChainID,
			"owner", owner.String(),
		)
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}

// slogRecorder writes audit events to the log.
func slogRecorder(logger *slog.Logger) audithook.Recorder {
	return audithook.RecorderFunc(func(ctx context.Context, evt *audithook.AuditEvent) error {
		logger.LogAttrs(ctx, slog.LevelInfo, "audit",
			slog.String("action", evt.Action),
			slog.String("outcome", evt.Outcome),
			slog.String("severity", evt.Severity),
			slog.String("resource_id", evt.ResourceID),
			slog.Any("metadata", evt.Metadata),
		)
		return nil
	})
}
