package params

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Engine struct {
	// SellPricing is "resting" (trade at the resting bid) or "aggressor"
	// (trade at the incoming sell price).
	SellPricing string
	// Prompts echoes the interactive prompts of the batch driver on stdout.
	Prompts bool
}

type Node struct {
	// SequencerInterval is how often queued instructions are applied.
	SequencerInterval time.Duration
	// MaxBatch caps how many instructions one sequencer tick applies.
	MaxBatch int
	// DataDir holds the Pebble fill tape. Empty keeps fills in memory.
	DataDir string
	LogFile string
	Verbose bool
}

type API struct {
	Addr           string
	AllowedOrigins []string
}

type Kafka struct {
	// Brokers empty disables publishing.
	Brokers []string
	Topic   string
}

type TxGen struct {
	Enabled  bool
	Firms    int
	Symbols  []string
	Interval time.Duration
	Batch    int
}

type Config struct {
	Engine Engine
	Node   Node
	API    API
	Kafka  Kafka
	TxGen  TxGen
}

func Default() Config {
	return Config{
		Engine: Engine{
			SellPricing: "resting",
		},
		Node: Node{
			SequencerInterval: 50 * time.Millisecond,
			MaxBatch:          1024,
			LogFile:           "data/node.log",
		},
		API: API{
			Addr:           ":8080",
			AllowedOrigins: []string{"http://localhost:3000", "http://localhost:3001"},
		},
		Kafka: Kafka{
			Topic: "fills",
		},
		TxGen: TxGen{
			Firms:    20,
			Symbols:  []string{"AAPL", "MSFT"},
			Interval: 100 * time.Millisecond,
			Batch:    10,
		},
	}
}

// LoadFromEnv loads configuration from .env file (if exists) and environment variables
// Priority: ENV > .env file > defaults
func LoadFromEnv(envPath string) Config {
	cfg := Default()

	if envPath != "" {
		_ = godotenv.Load(envPath)
	} else {
		_ = godotenv.Load()
	}

	cfg.Engine.SellPricing = getEnv("ENGINE_SELL_PRICING", cfg.Engine.SellPricing)
	cfg.Engine.Prompts = getBool("ENGINE_PROMPTS", cfg.Engine.Prompts)

	cfg.Node.SequencerInterval = getMillis("NODE_SEQUENCER_INTERVAL_MS", cfg.Node.SequencerInterval)
	cfg.Node.MaxBatch = getInt("NODE_MAX_BATCH", cfg.Node.MaxBatch)
	cfg.Node.DataDir = getEnv("DATA_DIR", cfg.Node.DataDir)
	cfg.Node.LogFile = getEnv("LOG_FILE", cfg.Node.LogFile)
	cfg.Node.Verbose = getBool("VERBOSE", cfg.Node.Verbose)

	cfg.API.Addr = getEnv("API_ADDR", cfg.API.Addr)
	if origins := getList("API_ALLOWED_ORIGINS"); origins != nil {
		cfg.API.AllowedOrigins = origins
	}

	if brokers := getList("KAFKA_BROKERS"); brokers != nil {
		cfg.Kafka.Brokers = brokers
	}
	cfg.Kafka.Topic = getEnv("KAFKA_TOPIC", cfg.Kafka.Topic)

	cfg.TxGen.Enabled = getBool("ENABLE_TXGEN", cfg.TxGen.Enabled)
	cfg.TxGen.Firms = getInt("TXGEN_FIRMS", cfg.TxGen.Firms)
	if syms := getList("TXGEN_SYMBOLS"); syms != nil {
		cfg.TxGen.Symbols = syms
	}
	cfg.TxGen.Interval = getMillis("TXGEN_INTERVAL_MS", cfg.TxGen.Interval)
	cfg.TxGen.Batch = getInt("TXGEN_BATCH", cfg.TxGen.Batch)

	return cfg
}

// getEnv returns environment variable value or default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		return v == "true"
	}
	return def
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getMillis(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if ms, err := strconv.Atoi(v); err == nil {
			return time.Duration(ms) * time.Millisecond
		}
	}
	return def
}

// getList splits a comma-separated variable, dropping empty entries.
func getList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
