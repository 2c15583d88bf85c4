package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/kamal-hamza/assetctl/internal/adapters/httpapi"
	"github.com/kamal-hamza/assetctl/internal/adapters/kvstore"
	"github.com/kamal-hamza/assetctl/internal/core/ports"
	"github.com/kamal-hamza/assetctl/internal/core/services"
	"github.com/kamal-hamza/assetctl/pkg/appdir"
	"github.com/kamal-hamza/assetctl/pkg/config"
	"github.com/kamal-hamza/assetctl/pkg/ui"
)

var (
	// Paths and configuration
	appDirs    *appdir.Dirs
	appConfig  *config.Config
	configPath string

	// Adapters
	sessionKV *kvstore.FileStore
	apiClient *httpapi.Client
	backend   ports.Backend

	// Services
	session       *services.SessionStore
	authService   *services.AuthService
	fetcher       *services.RecordFetcher
	addService    *services.AddService
	rowEditor     *services.RowEditor
	searchService *services.SearchService

	logFile io.Closer

	// Global flags
	flagServer  string
	flagConfig  string
	flagVerbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "assetctl",
	Short: "assetctl - park asset tracking from the terminal",
	Long: ui.StyleTitle.Render("assetctl") + " - Asset Tracking Console\n\n" +
		"Track assets, transfers and disposals across the parks you manage.\n" +
		"Run 'assetctl console' for the interactive view or 'assetctl serve' to host the API.",
	SilenceUsage:       true,
	PersistentPreRunE:  initializeApp,
	PersistentPostRunE: shutdownApp,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagServer, "server", "", "Backend URL (overrides server_url)")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to the config file")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Log at debug level")

	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(parksCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(editCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(consoleCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(adminCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

// initializeApp initializes the application components
func initializeApp(cmd *cobra.Command, args []string) error {
	dirs, err := appdir.New()
	if err != nil {
		return err
	}
	appDirs = dirs

	configPath = dirs.ConfigPath
	if flagConfig != "" {
		configPath = flagConfig
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if flagServer != "" {
		if err := cfg.Set("server_url", flagServer); err != nil {
			return err
		}
	}
	appConfig = cfg
	ui.SetTheme(cfg.ColorTheme)

	if isServerCommand(cmd) {
		return nil
	}

	if err := appDirs.Initialize(); err != nil {
		return err
	}
	if err := setupLogging(); err != nil {
		return err
	}

	kv, err := kvstore.NewFileStore(appDirs.SessionPath)
	if err != nil {
		return err
	}
	sessionKV = kv
	session = services.NewSessionStore(kv)

	apiClient = httpapi.NewClient(cfg.ServerURL, cfg.RequestTimeout(), session)
	backend = apiClient
	wireServices(backend)

	slog.Debug("initialized", "command", cmd.CommandPath(), "server", cfg.ServerURL)
	return nil
}

// wireServices builds every client-side service on top of a backend
func wireServices(api ports.Backend) {
	authService = services.NewAuthService(api, session)
	fetcher = services.NewRecordFetcher(api)
	addService = services.NewAddService(api)
	rowEditor = services.NewRowEditor(api)
	searchService = services.NewSearchService(fetcher)
}

func setupLogging() error {
	level := slog.LevelInfo
	if err := level.UnmarshalText([]byte(appConfig.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	if flagVerbose {
		level = slog.LevelDebug
	}

	path := appConfig.LogFile
	if path == "" {
		path = appDirs.LogPath()
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	logFile = f

	slog.SetDefault(slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: level})))
	return nil
}

func shutdownApp(cmd *cobra.Command, args []string) error {
	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
	return nil
}

// isServerCommand reports whether cmd runs without a client session:
// the serve and admin trees and version
func isServerCommand(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		switch c.Name() {
		case "serve", "admin", "version":
			return true
		}
	}
	return false
}

// getContext returns a context for operations
func getContext() context.Context {
	return context.Background()
}
