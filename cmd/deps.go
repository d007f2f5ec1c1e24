package cmd

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/underdogdevs/mentormatch/internal/ai"
	"github.com/underdogdevs/mentormatch/internal/ai/gemini"
	"github.com/underdogdevs/mentormatch/internal/filtering"
	"github.com/underdogdevs/mentormatch/internal/matcher"
	"github.com/underdogdevs/mentormatch/internal/search"
	"github.com/underdogdevs/mentormatch/internal/secrets"
	"github.com/underdogdevs/mentormatch/internal/store"
	"github.com/underdogdevs/mentormatch/internal/store/postgres"
	"github.com/underdogdevs/mentormatch/internal/store/remote"
	"github.com/underdogdevs/mentormatch/internal/textrank"
)

const (
	backendMemory   = "memory"
	backendPostgres = "postgres"
	backendRemote   = "remote"
)

// services holds everything the commands run against.
type services struct {
	store   store.Store
	matcher *matcher.Matcher
	search  *search.Engine
	close   func()
}

func buildServices(ctx context.Context, config *Config, logger *zap.Logger) (*services, error) {
	st, closeStore, err := openStore(ctx, config.Store, logger)
	if err != nil {
		return nil, err
	}

	steps, err := prepareFilters(config.Match)
	if err != nil {
		closeStore()
		return nil, fmt.Errorf("preparing filters: %w", err)
	}
	for _, status := range filtering.Describe(steps) {
		logger.Debug("filter status",
			zap.String("name", status.Name),
			zap.Bool("enabled", status.Enabled),
			zap.String("reason", status.Reason),
			zap.Any("details", status.Details),
		)
	}

	var introducer ai.Introducer
	if config.AI.Enabled {
		introducer, err = newIntroducer(ctx, config.AI, logger)
		if err != nil {
			logger.Warn("skipping introductions", zap.Error(err))
		}
	}

	m := matcher.New(st, matcher.Options{
		Weights:    config.Match.Weights,
		Workers:    config.Match.Workers,
		Filters:    steps,
		Introducer: introducer,
		Logger:     logger.Named("matcher"),
	})

	weights := textrank.DefaultFieldWeights().Merge(config.Search.FieldWeights)
	engine := search.NewEngine(st, weights, logger.Named("search"))

	return &services{store: st, matcher: m, search: engine, close: closeStore}, nil
}

func openStore(ctx context.Context, config *StoreConfig, logger *zap.Logger) (store.Store, func(), error) {
	noop := func() {}

	switch backend := strings.ToLower(strings.TrimSpace(config.Backend)); backend {
	case "", backendMemory:
		if config.SeedFile == "" {
			logger.Warn("memory store has no seed file, collections are empty",
				zap.String("hint", "set store.seed-file or MENTORMATCH_STORE_SEED_FILE"),
			)
			return store.NewMemory(), noop, nil
		}

		m, err := store.LoadMemory(config.SeedFile)
		if err != nil {
			return nil, noop, err
		}
		logger.Info("loaded seed file", zap.String("filename", config.SeedFile))
		return m, noop, nil

	case backendPostgres:
		dsn, err := secrets.Load(secrets.Source{
			Name:  "postgres dsn",
			Value: config.Postgres.DSN,
			File:  config.Postgres.DSNFile,
		})
		if err != nil {
			return nil, noop, err
		}

		pg, err := postgres.Open(ctx, dsn, postgres.Options{
			MaxConns:     config.Postgres.MaxConns,
			MinConns:     config.Postgres.MinConns,
			QueryTimeout: config.Postgres.QueryTimeout,
		}, logger.Named("postgres"))
		if err != nil {
			return nil, noop, err
		}
		return pg, pg.Close, nil

	case backendRemote:
		if config.Remote.URL == "" {
			return nil, noop, fmt.Errorf("store.remote.url is required for the remote backend")
		}

		var token string
		if config.Remote.TokenFile != "" {
			var err error
			token, err = secrets.Load(secrets.Source{Name: "remote store token", File: config.Remote.TokenFile})
			if err != nil {
				return nil, noop, err
			}
		}

		client := remote.New(config.Remote.URL, token, logger.Named("remote"))
		if config.Remote.UserAgent != "" {
			client.UserAgent = config.Remote.UserAgent
		}
		return client, noop, nil

	default:
		return nil, noop, fmt.Errorf("unsupported store backend: %s", config.Backend)
	}
}

func prepareFilters(config *MatchConfig) ([]filtering.Filter, error) {
	cfg := &filtering.Config{ExcludedMentors: config.ExcludeMentors}
	for name, f := range config.Filters {
		if f.Enabled != nil && !*f.Enabled {
			cfg.Disabled = append(cfg.Disabled, name)
		}
	}

	steps := filtering.Default()
	if err := filtering.Prepare(cfg, steps); err != nil {
		return nil, err
	}
	return steps, nil
}

func newIntroducer(ctx context.Context, config *AIConfig, logger *zap.Logger) (ai.Introducer, error) {
	apiKey, err := secrets.Load(secrets.Source{
		Name:  "gemini api key",
		Value: config.Gemini.APIKey,
		File:  config.Gemini.APIKeyFile,
		Env:   "GEMINI_API_KEY",
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set ai.gemini.api-key-file or GEMINI_API_KEY)", err)
	}

	generator, err := gemini.NewGenerator(ctx, apiKey, config.Gemini.Model)
	if err != nil {
		return nil, err
	}

	return gemini.NewIntroducer(generator, config.Gemini.MaxLogLength, logger.Named("introducer")), nil
}
