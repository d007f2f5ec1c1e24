package cmd

import (
	"errors"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/underdogdevs/mentormatch/internal/scoring"
)

const (
	app       = "mentormatch"
	envPrefix = "MENTORMATCH"
)

type Config struct {
	Store  *StoreConfig  `mapstructure:"store"`
	Match  *MatchConfig  `mapstructure:"match"`
	Search *SearchConfig `mapstructure:"search"`
	Server *ServerConfig `mapstructure:"server"`
	AI     *AIConfig     `mapstructure:"ai"`
}

type StoreConfig struct {
	Backend  string          `mapstructure:"backend"`
	SeedFile string          `mapstructure:"seed-file"`
	Postgres *PostgresConfig `mapstructure:"postgres"`
	Remote   *RemoteConfig   `mapstructure:"remote"`
}

type PostgresConfig struct {
	DSN          string        `mapstructure:"dsn"`
	DSNFile      string        `mapstructure:"dsn-file"`
	MaxConns     int32         `mapstructure:"max-conns"`
	MinConns     int32         `mapstructure:"min-conns"`
	QueryTimeout time.Duration `mapstructure:"query-timeout"`
}

type RemoteConfig struct {
	URL       string `mapstructure:"url"`
	TokenFile string `mapstructure:"token-file"`
	UserAgent string `mapstructure:"user-agent"`
}

type MatchConfig struct {
	WeightOverrides *scoring.Overrides      `mapstructure:"weights"`
	Workers         int                     `mapstructure:"workers"`
	ExcludeMentors  []string                `mapstructure:"exclude-mentors"`
	Filters         map[string]FilterConfig `mapstructure:"filters"`

	// Weights is resolved from the defaults and WeightOverrides.
	Weights scoring.Weights `mapstructure:"-"`
}

type FilterConfig struct {
	Enabled *bool `mapstructure:"enabled"`
}

type SearchConfig struct {
	FieldWeights map[string]float64 `mapstructure:"field-weights"`
}

type ServerConfig struct {
	Addr          string `mapstructure:"addr"`
	JWTSecret     string `mapstructure:"jwt-secret"`
	JWTSecretFile string `mapstructure:"jwt-secret-file"`
}

type AIConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Gemini  *GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKey       string `mapstructure:"api-key"`
	APIKeyFile   string `mapstructure:"api-key-file"`
	Model        string `mapstructure:"model"`
	MaxLogLength int    `mapstructure:"max-log-length"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "mentormatch matches mentees with mentors and searches stored profiles",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is mentormatch.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))

	setDefaults(viper.GetViper())
}

// setDefaults registers every key so that MENTORMATCH_* variables are seen
// by Unmarshal even without a config file.
func setDefaults(v *viper.Viper) {
	v.SetDefault("store.backend", backendMemory)
	v.SetDefault("store.seed-file", "")
	v.SetDefault("store.postgres.dsn", "")
	v.SetDefault("store.postgres.dsn-file", "")
	v.SetDefault("store.postgres.max-conns", 10)
	v.SetDefault("store.postgres.min-conns", 0)
	v.SetDefault("store.postgres.query-timeout", "5s")
	v.SetDefault("store.remote.url", "")
	v.SetDefault("store.remote.token-file", "")
	v.SetDefault("store.remote.user-agent", "")
	v.SetDefault("match.workers", 4)
	v.SetDefault("match.exclude-mentors", []string{})
	v.SetDefault("server.addr", ":8000")
	v.SetDefault("server.jwt-secret", "")
	v.SetDefault("server.jwt-secret-file", "")
	v.SetDefault("ai.enabled", false)
	v.SetDefault("ai.gemini.api-key", "")
	v.SetDefault("ai.gemini.api-key-file", "")
	v.SetDefault("ai.gemini.model", "gemini-2.5-flash")
	v.SetDefault("ai.gemini.max-log-length", 500)
}

func initConfig() {
	// .env is optional and never overrides variables already set.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Fatalf("loading .env: %v", err)
	}

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if versionCmd.CalledAs() != "" {
		return
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	// We can't proceed if the config file parsed with error. A missing
	// default file is fine: defaults and the environment still apply.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

func getConfig() (*Config, error) {
	return decodeConfig(viper.GetViper())
}

func decodeConfig(v *viper.Viper) (*Config, error) {
	var config *Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	if config == nil {
		config = &Config{}
	}
	if config.Store == nil {
		config.Store = &StoreConfig{Backend: backendMemory}
	}
	if config.Store.Postgres == nil {
		config.Store.Postgres = &PostgresConfig{}
	}
	if config.Store.Remote == nil {
		config.Store.Remote = &RemoteConfig{}
	}
	if config.Match == nil {
		config.Match = &MatchConfig{}
	}
	if config.Search == nil {
		config.Search = &SearchConfig{}
	}
	if config.Server == nil {
		config.Server = &ServerConfig{}
	}
	if config.AI == nil {
		config.AI = &AIConfig{}
	}
	if config.AI.Gemini == nil {
		config.AI.Gemini = &GeminiConfig{}
	}

	weights := scoring.Merge(scoring.DefaultWeights(), config.Match.WeightOverrides)
	if err := weights.Validate(); err != nil {
		return nil, err
	}
	config.Match.Weights = weights

	return config, nil
}
