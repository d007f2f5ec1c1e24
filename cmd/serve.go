package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/underdogdevs/mentormatch/internal/secrets"
	"github.com/underdogdevs/mentormatch/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the matching and search API over HTTP",
	Run: func(_ *cobra.Command, _ []string) {
		serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "listen address (default is server.addr, :8000)")
	viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
}

func serve() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, config := setup()
	defer logger.Sync() //nolint:errcheck

	svc, err := buildServices(ctx, config, logger)
	if err != nil {
		logger.Fatal("building services", zap.Error(err))
	}
	defer svc.close()

	var secret string
	if config.Server.JWTSecret != "" || config.Server.JWTSecretFile != "" {
		secret, err = secrets.Load(secrets.Source{
			Name:  "jwt secret",
			Value: config.Server.JWTSecret,
			File:  config.Server.JWTSecretFile,
		})
		if err != nil {
			logger.Fatal("loading jwt secret", zap.Error(err))
		}
	}

	srv, err := server.New(server.Options{
		Store:     svc.store,
		Matcher:   svc.matcher,
		Searcher:  svc.search,
		Version:   version,
		JWTSecret: secret,
		Logger:    logger.Named("http"),
	})
	if err != nil {
		logger.Fatal("creating http server", zap.Error(err))
	}

	if err := srv.Run(ctx, config.Server.Addr); err != nil {
		logger.Fatal("serving", zap.Error(err))
	}

	logger.Info("server stopped")
}
