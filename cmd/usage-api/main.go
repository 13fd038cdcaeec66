package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/solvras/file-usage-overview/internal/config"
	"github.com/solvras/file-usage-overview/internal/content"
	"github.com/solvras/file-usage-overview/internal/database"
	"github.com/solvras/file-usage-overview/internal/indexing"
	"github.com/solvras/file-usage-overview/internal/logging"
	"github.com/solvras/file-usage-overview/internal/relations"
	"github.com/solvras/file-usage-overview/internal/reporting"
	"github.com/solvras/file-usage-overview/internal/server"
	"github.com/solvras/file-usage-overview/internal/usage"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var (
	cfgFile string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "usage-api",
		Short: "Asset usage overview service",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context())
		},
	}

	setupFlags(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setupFlags(cmd *cobra.Command) {
	config.ApplyDefaults(viper.GetViper())
	defaults := config.NewViper()
	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to configuration file")
	cmd.PersistentFlags().String("http-address", defaults.GetString("http.address"), "HTTP listen address")
	cmd.PersistentFlags().String("database-path", defaults.GetString("database.path"), "SQLite database path")
	cmd.PersistentFlags().String("log-level", defaults.GetString("log.level"), "Log level (debug, info, warn, error)")

	bindFlag(cmd, "http.address", "http-address")
	bindFlag(cmd, "database.path", "database-path")
	bindFlag(cmd, "log.level", "log-level")
}

func bindFlag(cmd *cobra.Command, key, flag string) {
	if err := viper.BindPFlag(key, cmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(err)
	}
}

func initConfig() error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}

	if err := viper.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if cfgFile != "" && errors.As(err, &configNotFound) {
			return err
		}
	}

	return nil
}

func runServer(ctx context.Context) error {
	appConfig, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}

	logger, err := logging.NewLogger(appConfig.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	db, err := database.OpenSQLite(appConfig.DatabasePath, logger)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	graph, err := content.NewGraph(content.GraphConfig{Database: db, Logger: logger})
	if err != nil {
		return err
	}

	relationStore, err := relations.NewStore(relations.StoreConfig{Database: db, Logger: logger})
	if err != nil {
		return err
	}

	nativeReader, err := relations.NewNativeReader(db)
	if err != nil {
		return err
	}

	resolver, err := usage.NewResolver(usage.ResolverConfig{
		Native:   nativeReader,
		Stored:   relationStore,
		Elements: graph,
		Assets:   graph,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	listener, err := indexing.NewListener(indexing.ListenerConfig{Store: relationStore, Logger: logger})
	if err != nil {
		return err
	}

	// The entry save pipeline is driven by the embedding platform; the
	// listener is wired here so every save re-indexes rich-text references.
	entryService, err := content.NewEntryService(content.EntryServiceConfig{Database: db, Logger: logger})
	if err != nil {
		return err
	}
	entryService.RegisterAfterSaveHook(listener)

	reports, err := reporting.NewService(reporting.ServiceConfig{Database: db, Logger: logger})
	if err != nil {
		return err
	}

	handler, err := server.NewHTTPHandler(server.Dependencies{
		Usage:   resolver,
		Reports: reports,
		Logger:  logger,
	})
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:    appConfig.HTTPAddress,
		Handler: handler,
	}

	signalCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("address", appConfig.HTTPAddress))
		err := httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-signalCtx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
