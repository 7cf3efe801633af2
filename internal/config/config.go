package config

import (
	"os"
	"strconv"
	"strings"
)

type Config struct {
	HTTPAddr    string
	ServiceName string
	LogLevel    string

	BaristaCount int
	// ClockSpeedup runs the live clock faster than wall time; 12 means one prep
	// minute every five seconds.
	ClockSpeedup float64

	HistoryStore        string // memory | postgres | dynamodb
	ScenarioParallelism int

	// Empty PostgresDSN, RedisAddr or KafkaBrokers disables that integration.
	PostgresDSN  string
	RedisAddr    string
	KafkaBrokers []string

	DynamoTable    string
	AWSRegion      string
	DynamoEndpoint string

	LedgerGroup   string
	LedgerWorkers int
}

func Load() Config {
	return Config{
		HTTPAddr:            getenv("HTTP_ADDR", ":8081"),
		ServiceName:         getenv("SERVICE_NAME", "barista-api"),
		LogLevel:            getenv("LOG_LEVEL", "info"),
		BaristaCount:        getint("BARISTA_COUNT", 3),
		ClockSpeedup:        getfloat("CLOCK_SPEEDUP", 1),
		HistoryStore:        strings.ToLower(getenv("HISTORY_STORE", "memory")),
		ScenarioParallelism: getint("SCENARIO_PARALLELISM", 4),
		PostgresDSN:         os.Getenv("POSTGRES_DSN"),
		RedisAddr:           os.Getenv("REDIS_ADDR"),
		KafkaBrokers:        splitCSV(os.Getenv("KAFKA_BROKERS")),
		DynamoTable:         getenv("DYNAMODB_TABLE", "scenario_history"),
		AWSRegion:           getenv("AWS_REGION", "us-east-1"),
		DynamoEndpoint:      os.Getenv("DYNAMODB_ENDPOINT"),
		LedgerGroup:         getenv("LEDGER_GROUP", "ledger-svc"),
		LedgerWorkers:       getint("LEDGER_WORKERS", 8),
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

// getint ignores values that do not parse or are not positive.
func getint(k string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(os.Getenv(k)))
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func getfloat(k string, def float64) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(os.Getenv(k)), 64)
	if err != nil || f <= 0 {
		return def
	}
	return f
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
