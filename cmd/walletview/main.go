package main

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/mtlprog/walletview/internal/api"
	"github.com/mtlprog/walletview/internal/config"
	"github.com/mtlprog/walletview/internal/currency"
	"github.com/mtlprog/walletview/internal/database"
	"github.com/mtlprog/walletview/internal/display"
	"github.com/mtlprog/walletview/internal/domain"
	"github.com/mtlprog/walletview/internal/export"
	"github.com/mtlprog/walletview/internal/external"
	"github.com/mtlprog/walletview/internal/fee"
	"github.com/mtlprog/walletview/internal/rates"
	"github.com/mtlprog/walletview/internal/snapshot"
	"github.com/mtlprog/walletview/internal/worker"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "walletview",
		Usage: "wallet amount, fee and exchange-rate display service",
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the rate worker and the HTTP API",
				Action: serve,
			},
			{
				Name:  "convert",
				Usage: "convert a native amount into its display denomination",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "currency", Aliases: []string{"c"}, Required: true, Usage: "currency code, e.g. BTC"},
					&cli.StringFlag{Name: "native", Aliases: []string{"n"}, Required: true, Usage: "amount in native units"},
					&cli.StringFlag{Name: "denomination", Aliases: []string{"d"}, Usage: "display multiplier override, e.g. 100000"},
				},
				Action: convert,
			},
			{
				Name:  "fee",
				Usage: "render a network fee and its warning level",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "currency", Aliases: []string{"c"}, Required: true, Usage: "currency of the transaction"},
					&cli.StringFlag{Name: "parent", Usage: "chain currency paying the gas, defaults to the token's parent or --currency"},
					&cli.StringFlag{Name: "network-fee", Usage: "fee in native units of --currency"},
					&cli.StringFlag{Name: "parent-network-fee", Usage: "fee in native units of --parent"},
					&cli.StringFlag{Name: "fiat", Value: domain.USDCode, Usage: "fiat currency for the fee label"},
					&cli.StringSliceFlag{Name: "rate", Usage: "exchange rate as KEY=VALUE, e.g. BTC_iso:USD=50000"},
					&cli.BoolFlag{Name: "fetch", Usage: "fetch current rates from CoinGecko"},
				},
				Action: feeCommand,
			},
			{
				Name:  "export-rates",
				Usage: "fetch current rates and export them to XLSX and/or Google Sheets",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "xlsx", Usage: "write rates to this .xlsx file"},
					&cli.BoolFlag{Name: "sheets", Usage: "write rates to the configured Google spreadsheet"},
				},
				Action: exportRates,
			},
		},
		DefaultCommand: "serve",
	}
}

func serve(c *cli.Context) error {
	ctx := c.Context
	cfg := config.Load()

	// Connect to database
	if cfg.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required")
	}

	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer pool.Close()

	// Run migrations
	migrationsSub, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("creating migrations sub-fs: %w", err)
	}
	if err := database.RunMigrations(ctx, pool, migrationsSub); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	// Rate pipeline
	coingecko := external.NewCoinGeckoClient(cfg.CoinGeckoURL, cfg.CoinGeckoDelay, cfg.CoinGeckoRetryMax)
	snapshotSvc := snapshot.NewService(coingecko, snapshot.NewPgRepository(pool), cfg.FiatCodes)
	ratesSvc := rates.NewService(snapshotSvc, cfg.RateCacheTTL)

	var hook worker.AfterRefreshHook
	if cfg.SheetsEnabled() {
		sheets, err := export.NewSheetsWriter(ctx, cfg.GoogleSpreadsheetID, cfg.GoogleCredentialsJSON)
		if err != nil {
			return fmt.Errorf("creating sheets writer: %w", err)
		}
		hook = export.NewService(sheets)
	} else {
		slog.Info("Google Sheets export disabled")
	}

	rateWorker := worker.NewRateWorker(ratesSvc, cfg.RateWorkerInterval, hook)
	go rateWorker.Run(ctx)

	if cfg.AdminAPIKey == "" {
		slog.Warn("ADMIN_API_KEY not set, admin endpoints are unprotected")
	}

	// Start HTTP server
	fees := fee.NewCalculator(fee.Thresholds{Color: cfg.FeeColorThreshold, Alert: cfg.FeeAlertThreshold})
	srv := api.NewServer(cfg.HTTPPort, ratesSvc, currency.Default(), fees, cfg.AdminAPIKey)

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	// Wait for shutdown signal
	select {
	case <-ctx.Done():
	case err := <-serveErr:
		slog.Error("HTTP server error", "error", err)
	}
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}

func convert(c *cli.Context) error {
	table := currency.Default()
	code := c.String("currency")
	if m := c.String("denomination"); m != "" {
		if _, err := table.SetDisplayDenomination(code, m); err != nil {
			return err
		}
	}

	denom, err := table.DisplayDenomination(code)
	if err != nil {
		return err
	}
	amount, err := display.ConvertNativeToDisplay(c.String("native"), denom)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, display.Label(denom.Symbol, display.GroupThousands(amount)))
	return nil
}

func feeCommand(c *cli.Context) error {
	cfg := config.Load()
	table := currency.Default()

	code := c.String("currency")
	parentCode := c.String("parent")
	if parentCode == "" {
		var err error
		if parentCode, err = table.ParentCurrency(code); err != nil {
			return err
		}
	}
	primary, err := feeSide(table, code)
	if err != nil {
		return err
	}
	parent, err := feeSide(table, parentCode)
	if err != nil {
		return err
	}

	fiat := currency.ToISO(c.String("fiat"))
	exchangeRates, err := parseRates(c.StringSlice("rate"))
	if err != nil {
		return err
	}
	if c.Bool("fetch") {
		coingecko := external.NewCoinGeckoClient(cfg.CoinGeckoURL, cfg.CoinGeckoDelay, cfg.CoinGeckoRetryMax)
		fetched, err := coingecko.FetchRates(c.Context, []string{fiat})
		if err != nil {
			slog.Warn("rendering fee without fetched rates", "error", err)
		} else {
			exchangeRates = fetched.Merge(exchangeRates)
		}
	}

	fees := fee.NewCalculator(fee.Thresholds{Color: cfg.FeeColorThreshold, Alert: cfg.FeeAlertThreshold})
	out, err := fees.ComputeFeeDisplay(fee.Input{
		NetworkFee:       c.String("network-fee"),
		ParentNetworkFee: c.String("parent-network-fee"),
		Primary:          primary,
		Parent:           parent,
		FiatCode:         fiat,
		FiatSymbol:       currency.FiatSymbol(fiat),
	}, exchangeRates)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(struct {
		fee.Display
		Line string `json:"line"`
	}{out, out.Line()})
}

func exportRates(c *cli.Context) error {
	ctx := c.Context
	cfg := config.Load()

	var writers []export.Writer
	if path := c.String("xlsx"); path != "" {
		writers = append(writers, export.NewXLSXWriter(path))
	}
	if c.Bool("sheets") {
		if !cfg.SheetsEnabled() {
			return errors.New("GOOGLE_SPREADSHEET_ID and GOOGLE_CREDENTIALS_JSON are required for --sheets")
		}
		sheets, err := export.NewSheetsWriter(ctx, cfg.GoogleSpreadsheetID, cfg.GoogleCredentialsJSON)
		if err != nil {
			return fmt.Errorf("creating sheets writer: %w", err)
		}
		writers = append(writers, sheets)
	}
	if len(writers) == 0 {
		return errors.New("nothing to export: pass --xlsx and/or --sheets")
	}

	coingecko := external.NewCoinGeckoClient(cfg.CoinGeckoURL, cfg.CoinGeckoDelay, cfg.CoinGeckoRetryMax)
	fetched, err := coingecko.FetchRates(ctx, cfg.FiatCodes)
	if err != nil {
		return fmt.Errorf("fetching rates: %w", err)
	}

	takenAt := time.Now().UTC().Truncate(time.Hour)
	if err := export.NewService(writers...).Export(ctx, fetched, takenAt); err != nil {
		return err
	}
	slog.Info("rates exported", "pairs", len(fetched), "writers", len(writers))
	return nil
}

func feeSide(table *currency.Table, code string) (fee.Side, error) {
	displayDenom, err := table.DisplayDenomination(code)
	if err != nil {
		return fee.Side{}, err
	}
	exchange, err := table.ExchangeDenomination(code)
	if err != nil {
		return fee.Side{}, err
	}
	return fee.Side{CurrencyCode: code, Display: displayDenom, Exchange: exchange}, nil
}

// parseRates reads "KEY=VALUE" pairs into a rate table.
func parseRates(pairs []string) (domain.ExchangeRates, error) {
	out := make(domain.ExchangeRates, len(pairs))
	for _, p := range pairs {
		key, value, ok := strings.Cut(p, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid rate %q, want KEY=VALUE", p)
		}
		rate, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid rate %q: %w", p, err)
		}
		out[key] = rate
	}
	return out, nil
}
