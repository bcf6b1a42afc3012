// Package config loads the indexer's runtime configuration: connection
// strings and API tokens from the environment through viper, and per-run
// options from CLI flags read through urfave/cli. No config file is read.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
	"github.com/urfave/cli/v2"

	"github.com/csic-platform/evm-indexer/internal/ierrors"
)

// tokenEnvVarByChain maps a registry chain name to the environment
// variable holding its block-explorer API token, per the design's
// per-chain ABI-fetcher authentication requirement.
var tokenEnvVarByChain = map[string]string{
	"ethereum":      "ETHERSCAN_TOKEN",
	"polygon":       "POLYGONSCAN_TOKEN",
	"bsc":           "BSCSCAN_TOKEN",
	"fantom":        "FTMSCAN_TOKEN",
	"gnosis":        "GNOSISSCAN_TOKEN",
	"optimism":      "OPTIMISMSCAN_TOKEN",
	"arbitrum":      "ARBISCAN_TOKEN",
	"arbitrum-nova": "ARBISCAN_NOVA_TOKEN",
	"moonbeam":      "MOONSCAN_TOKEN",
	"avalanche":     "SNOWTRACE_TOKEN",
	"bittorrent":    "BITTORRENTSCAN_TOKEN",
	"celo":          "CELOSCAN_TOKEN",
}

// Config is the merged configuration for one binary invocation.
type Config struct {
	DatabaseURL  string
	RedisURL     string
	KafkaBrokers []string

	Chain      string
	StartBlock int64
	BatchSize  int
	Reset      bool
	RPCs       []string
	Websocket  string
	Debug      bool

	AdapterEndpoint string
}

// Flags returns the CLI flags shared by the indexer, parser, and fetcher
// binaries. Each binary registers the full set, including flags it does
// not consume.
func Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "chain", Usage: "registry chain name (mainnet aliases to ethereum)", Required: true},
		&cli.Int64Flag{Name: "start-block", Usage: "first height to sync from", Value: 0},
		&cli.IntFlag{Name: "batch-size", Usage: "concurrent fetch chunk size", Value: 200},
		&cli.BoolFlag{Name: "reset", Usage: "drop the chain's indexed set and exit"},
		&cli.StringSliceFlag{Name: "rpcs", Usage: "comma-separated HTTP RPC URLs"},
		&cli.StringFlag{Name: "websocket", Usage: "websocket RPC URL for head following"},
		&cli.BoolFlag{Name: "debug", Usage: "enable debug-level logging"},
		&cli.StringFlag{Name: "adapter-endpoint", Usage: "adapter directory URL for this chain"},
	}
}

// Load reads required connection strings from the environment via viper
// and the rest of the configuration from CLI flags. DATABASE_URL and
// REDIS_URL are mandatory; their absence is a ConfigError, since the
// process cannot do anything useful without persistence.
func Load(c *cli.Context) (*Config, error) {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	databaseURL := v.GetString("DATABASE_URL")
	if databaseURL == "" {
		return nil, &ierrors.ConfigError{Msg: "DATABASE_URL is required"}
	}
	redisURL := v.GetString("REDIS_URL")
	if redisURL == "" {
		return nil, &ierrors.ConfigError{Msg: "REDIS_URL is required"}
	}

	kafkaBrokers := strings.Split(v.GetString("KAFKA_BROKERS"), ",")
	if len(kafkaBrokers) == 1 && kafkaBrokers[0] == "" {
		kafkaBrokers = []string{"localhost:9092"}
	}

	chain := normalizeChainAlias(c.String("chain"))
	if chain == "" {
		return nil, &ierrors.ConfigError{Msg: "--chain is required"}
	}

	return &Config{
		DatabaseURL:     databaseURL,
		RedisURL:        redisURL,
		KafkaBrokers:    kafkaBrokers,
		Chain:           chain,
		StartBlock:      c.Int64("start-block"),
		BatchSize:       c.Int("batch-size"),
		Reset:           c.Bool("reset"),
		RPCs:            c.StringSlice("rpcs"),
		Websocket:       c.String("websocket"),
		Debug:           c.Bool("debug"),
		AdapterEndpoint: c.String("adapter-endpoint"),
	}, nil
}

// normalizeChainAlias applies the registry's one documented alias.
func normalizeChainAlias(chain string) string {
	if chain == "mainnet" {
		return "ethereum"
	}
	return chain
}

// ABIToken returns the per-chain block-explorer API token from the
// environment, or "" if the chain has no token configured (fine for
// chains whose registry entry doesn't require auth).
func ABIToken(chain string) string {
	envVar, ok := tokenEnvVarByChain[chain]
	if !ok {
		return ""
	}
	v := viper.New()
	v.AutomaticEnv()
	return v.GetString(envVar)
}

// String implements fmt.Stringer for logging a redacted summary.
func (c *Config) String() string {
	return fmt.Sprintf("chain=%s start_block=%d batch_size=%d peers=%d websocket=%t",
		c.Chain, c.StartBlock, c.BatchSize, len(c.RPCs), c.Websocket != "")
}
