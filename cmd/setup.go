package cmd

import (
	"encoding/json"
	"fmt"
	"log"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/underdogdevs/mentormatch/internal/logger"
)

// setup builds the logger and decodes the configuration, exiting on failure.
func setup() (*zap.Logger, *Config) {
	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting the mentormatch", zap.String("version", version))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(redacted(config), "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	return logger, config
}

// redacted returns a copy of config safe to log.
func redacted(config *Config) Config {
	out := *config

	if config.Store != nil && config.Store.Postgres != nil && config.Store.Postgres.DSN != "" {
		st := *config.Store
		pg := *st.Postgres
		pg.DSN = "<redacted>"
		st.Postgres = &pg
		out.Store = &st
	}
	if config.Server != nil && config.Server.JWTSecret != "" {
		srv := *config.Server
		srv.JWTSecret = "<redacted>"
		out.Server = &srv
	}
	if config.AI != nil && config.AI.Gemini != nil && config.AI.Gemini.APIKey != "" {
		a := *config.AI
		g := *a.Gemini
		g.APIKey = "<redacted>"
		a.Gemini = &g
		out.AI = &a
	}

	return out
}

func printJSON(v any) error {
	pretty, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(pretty))
	return nil
}
