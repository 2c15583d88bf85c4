package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/kamal-hamza/assetctl/internal/backend/api"
	"github.com/kamal-hamza/assetctl/internal/backend/db"
	"github.com/kamal-hamza/assetctl/internal/backend/store"
	"github.com/kamal-hamza/assetctl/pkg/ui"
)

var (
	serveAddr      string
	serveJWTSecret string
	serveSeed      string
	dbDriver       string
	dbDSN          string
	dbUTCOffset    time.Duration
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the asset tracking API server",
	Long: `Run the HTTP API the console talks to.

Records live in SQLite by default; pass --db-driver postgres and a
connection string to use PostgreSQL. A JSONC seed file can preload areas,
parks, users and records.

The JWT secret is read from ASSETCTL_JWT_SECRET when --jwt-secret is unset.

Examples:
  assetctl serve --dsn assets.db --seed seed.jsonc
  assetctl serve --db-driver postgres --dsn postgres://localhost/assets`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "Listen address")
	serveCmd.Flags().StringVar(&serveJWTSecret, "jwt-secret", "", "Secret used to sign session tokens")
	serveCmd.Flags().StringVar(&serveSeed, "seed", "", "JSONC seed file loaded at startup")
	serveCmd.PersistentFlags().AddFlagSet(dbFlags())
}

// dbFlags returns the database flags shared by serve and admin
func dbFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("database", pflag.ContinueOnError)
	fs.StringVar(&dbDriver, "db-driver", "sqlite", "Database driver (sqlite or postgres)")
	fs.StringVar(&dbDSN, "dsn", "assetctl.db", "Database path or connection string")
	fs.DurationVar(&dbUTCOffset, "utc-offset", store.DefaultUTCOffset, "Fixed offset applied to server timestamps")
	return fs
}

// openStore opens the database, creates missing tables and wraps it in a store
func openStore(ctx context.Context) (*store.Store, func(), error) {
	dialect, err := db.ParseDialect(dbDriver)
	if err != nil {
		return nil, nil, err
	}
	d, err := db.Open(ctx, dialect, dbDSN)
	if err != nil {
		return nil, nil, err
	}
	if err := db.EnsureSchema(ctx, d); err != nil {
		d.Close()
		return nil, nil, err
	}
	return store.New(d, dbUTCOffset), func() { d.Close() }, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	level := slog.LevelInfo
	if flagVerbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	secret := serveJWTSecret
	if secret == "" {
		secret = os.Getenv("ASSETCTL_JWT_SECRET")
	}
	if secret == "" {
		fmt.Println(ui.FormatError("A JWT secret is required"))
		fmt.Println(ui.FormatInfo("Pass --jwt-secret or set ASSETCTL_JWT_SECRET"))
		return errors.New("missing jwt secret")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, closeDB, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer closeDB()

	if serveSeed != "" {
		seed, err := store.LoadSeedFile(serveSeed)
		if err != nil {
			return err
		}
		res, err := st.Seed(ctx, seed)
		if err != nil {
			return err
		}
		logger.Info("seeded", "areas", res.Areas, "parks", res.Parks, "users", res.Users, "records", res.Records)
	}

	srv := &http.Server{
		Addr: serveAddr,
		Handler: api.NewRouter(st, api.Options{
			JWTSecret: secret,
			Logger:    logger,
			Metrics:   api.NewMetrics(),
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", serveAddr, "driver", dbDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
