package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type HTTPServer struct {
	Port string `mapstructure:"port"`
}

type HTTPClient struct {
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
}

type Logging struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type Scheduler struct {
	JobDurationSec int `mapstructure:"job_duration_sec"`
}

type Rates struct {
	BaseCurrency string            `mapstructure:"base_currency"`
	TTLSeconds   int               `mapstructure:"ttl_seconds"`
	Fiat         []string          `mapstructure:"fiat"`
	Crypto       []string          `mapstructure:"crypto"`
	CryptoIDs    map[string]string `mapstructure:"crypto_ids"`
}

type Storage struct {
	RatesFile   string `mapstructure:"rates_file"`
	HistoryFile string `mapstructure:"history_file"`
}

type CoinGecko struct {
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
}

type ExchangeRateAPI struct {
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
}

type Redis struct {
	Addr       string `mapstructure:"addr"`
	Password   string `mapstructure:"password"`
	DB         int    `mapstructure:"db"`
	LockTTLSec int    `mapstructure:"lock_ttl_sec"`
}

type Kafka struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

type Cache struct {
	MaxItems   int64 `mapstructure:"max_items"`
	TTLSeconds int   `mapstructure:"ttl_seconds"`
}

type AppConfig struct {
	HTTPServer      HTTPServer      `mapstructure:"http_server"`
	HTTPClient      HTTPClient      `mapstructure:"http_client"`
	Logging         Logging         `mapstructure:"logging"`
	Scheduler       Scheduler       `mapstructure:"scheduler"`
	Rates           Rates           `mapstructure:"rates"`
	Storage         Storage         `mapstructure:"storage"`
	CoinGecko       CoinGecko       `mapstructure:"coingecko"`
	ExchangeRateAPI ExchangeRateAPI `mapstructure:"exchange_rate_api"`
	Redis           Redis           `mapstructure:"redis"`
	Kafka           Kafka           `mapstructure:"kafka"`
	Cache           Cache           `mapstructure:"cache"`
}

// Init loads configuration from .env, the yaml file at path and the
// environment, in increasing priority. Missing files are not an error.
func Init(path string) (*AppConfig, error) {
	var cfg AppConfig

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	bindEnv(v)

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	cfg.Rates.BaseCurrency = strings.ToUpper(cfg.Rates.BaseCurrency)
	// viper lowercases map keys
	ids := make(map[string]string, len(cfg.Rates.CryptoIDs))
	for code, id := range cfg.Rates.CryptoIDs {
		ids[strings.ToUpper(code)] = id
	}
	cfg.Rates.CryptoIDs = ids
	// KAFKA_BROKERS arrives as one comma separated string
	if len(cfg.Kafka.Brokers) == 1 && strings.Contains(cfg.Kafka.Brokers[0], ",") {
		cfg.Kafka.Brokers = strings.Split(cfg.Kafka.Brokers[0], ",")
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http_server.port", "8080")
	v.SetDefault("http_client.timeout_seconds", 10)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("scheduler.job_duration_sec", 300)

	v.SetDefault("rates.base_currency", "USD")
	v.SetDefault("rates.ttl_seconds", 300)
	v.SetDefault("rates.fiat", []string{"EUR", "GBP", "RUB"})
	v.SetDefault("rates.crypto", []string{"BTC", "ETH", "SOL"})
	v.SetDefault("rates.crypto_ids", map[string]string{"BTC": "bitcoin", "ETH": "ethereum", "SOL": "solana"})

	v.SetDefault("storage.rates_file", "data/rates.json")
	v.SetDefault("storage.history_file", "data/exchange_rates.json")

	v.SetDefault("coingecko.base_url", "https://api.coingecko.com/api/v3")
	v.SetDefault("exchange_rate_api.base_url", "https://v6.exchangerate-api.com/v6")

	v.SetDefault("redis.lock_ttl_sec", 60)
	v.SetDefault("kafka.topic", "fx.rate-history")
	v.SetDefault("cache.max_items", 64)
	v.SetDefault("cache.ttl_seconds", 10)
}

func bindEnv(v *viper.Viper) {
	_ = v.BindEnv("http_server.port", "HTTP_PORT")
	_ = v.BindEnv("http_client.timeout_seconds", "HTTP_CLIENT_TIMEOUT_SECONDS")
	_ = v.BindEnv("logging.level", "LOG_LEVEL")
	_ = v.BindEnv("logging.format", "LOG_FORMAT")
	_ = v.BindEnv("scheduler.job_duration_sec", "SCHEDULER_JOB_DURATION_SEC")

	_ = v.BindEnv("rates.base_currency", "BASE_CURRENCY")
	_ = v.BindEnv("rates.ttl_seconds", "RATES_TTL_SECONDS")

	_ = v.BindEnv("storage.rates_file", "RATES_FILE_PATH")
	_ = v.BindEnv("storage.history_file", "HISTORY_FILE_PATH")

	// source credentials
	_ = v.BindEnv("coingecko.api_key", "COINGECKO_API_KEY")
	_ = v.BindEnv("exchange_rate_api.api_key", "EXCHANGERATE_API_KEY")

	_ = v.BindEnv("redis.addr", "REDIS_ADDR")
	_ = v.BindEnv("redis.password", "REDIS_PASSWORD")
	_ = v.BindEnv("kafka.brokers", "KAFKA_BROKERS")
	_ = v.BindEnv("kafka.topic", "KAFKA_TOPIC")
}
