package config

import (
	"log"
	"os"
	"strconv"
	"time"
)

// Config carries everything the service reads from the environment.
type Config struct {
	HTTPPort string

	DepositsTable      string
	AccountsTable      string
	WebhookEventsTable string
	LedgerTable        string

	SettlementQueueURL string

	CoinpayAPIKey  string
	CoinpayBaseURL string

	// CallbackBaseURL is the public base the provider calls back to; the
	// correlation token is appended per deposit.
	CallbackBaseURL string

	// ConfirmationThreshold is the confirmation count required before a
	// settled payment is credited.
	ConfirmationThreshold int32

	// PollStaleness is how old a non-terminal record may be before a status
	// poll triggers a live provider query.
	PollStaleness time.Duration
}

// Load reads the configuration from the environment.
func Load() *Config {
	return &Config{
		HTTPPort:              getEnv("HTTP_PORT", "8080"),
		DepositsTable:         mustGetEnv("DYNAMODB_DEPOSITS_TABLE_NAME"),
		AccountsTable:         mustGetEnv("DYNAMODB_ACCOUNTS_TABLE_NAME"),
		WebhookEventsTable:    mustGetEnv("DYNAMODB_WEBHOOK_EVENTS_TABLE_NAME"),
		LedgerTable:           mustGetEnv("DYNAMODB_LEDGER_TABLE_NAME"),
		SettlementQueueURL:    getEnv("SETTLEMENT_QUEUE_URL", ""),
		CoinpayAPIKey:         getEnv("COINPAY_API_KEY", ""),
		CoinpayBaseURL:        getEnv("COINPAY_BASE_URL", "https://api.coinpay.io"),
		CallbackBaseURL:       mustGetEnv("CALLBACK_BASE_URL"),
		ConfirmationThreshold: int32(getEnvInt("CONFIRMATION_THRESHOLD", 1)),
		PollStaleness:         getEnvDuration("POLL_STALENESS", 30*time.Second),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func mustGetEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		log.Fatalf("required environment variable %s is not set", key)
	}
	return v
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Fatalf("environment variable %s is not an integer: %v", key, err)
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Fatalf("environment variable %s is not a duration: %v", key, err)
	}
	return d
}
