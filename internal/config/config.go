// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/viper"
)

// default admin address hash; overridable via marketplace.admin_hashes.
const defaultAdminHash = "0xe84da52ab5da5aa49dd5a94636dfebc2f41ba9539ecfe8dfd073cbf1e4b3f0b9"

// Config holds all application configuration.
type Config struct {
	App         AppConfig         `mapstructure:"app"`
	Ethereum    EthereumConfig    `mapstructure:"ethereum"`
	Marketplace MarketplaceConfig `mapstructure:"marketplace"`
	Catalog     CatalogConfig     `mapstructure:"catalog"`
	Telemetry   TelemetryConfig   `mapstructure:"telemetry"`
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"log_level"`
}

// EthereumConfig holds wallet provider node configuration.
type EthereumConfig struct {
	RPCURL          string        `mapstructure:"rpc_url"`
	PollInterval    time.Duration `mapstructure:"poll_interval"`
	PollRatePerMin  int           `mapstructure:"poll_rate_per_min"`
	ReceiptInterval time.Duration `mapstructure:"receipt_interval"`
	ReceiptTimeout  time.Duration `mapstructure:"receipt_timeout"`
}

// MarketplaceConfig holds the deployed contract binding and access policy.
type MarketplaceConfig struct {
	ContractAddress string   `mapstructure:"contract_address"`
	TargetChainID   uint64   `mapstructure:"target_chain_id"`
	AdminHashes     []string `mapstructure:"admin_hashes"`
}

// CatalogConfig holds the static course catalog source.
type CatalogConfig struct {
	URL  string `mapstructure:"url"`  // remote JSON catalog
	Path string `mapstructure:"path"` // local file fallback
}

// TelemetryConfig holds observability settings.
type TelemetryConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	ServiceName    string `mapstructure:"service_name"`
	OTLPEndpoint   string `mapstructure:"otlp_endpoint"`
	PrometheusPort int    `mapstructure:"prometheus_port"`
}

// ContractAddressHex returns the contract address as common.Address.
func (c *MarketplaceConfig) ContractAddressHex() common.Address {
	return common.HexToAddress(c.ContractAddress)
}

// Load loads configuration from file and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Environment variables
	v.SetEnvPrefix("MKT")
	v.AutomaticEnv()

	// Bind env vars to config keys
	bindEnvVars(v)

	// Set defaults
	setDefaults(v)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found is OK, use env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func bindEnvVars(v *viper.Viper) {
	// App
	v.BindEnv("app.name", "MKT_APP_NAME", "SERVICE_NAME")
	v.BindEnv("app.environment", "MKT_ENVIRONMENT", "ENVIRONMENT")
	v.BindEnv("app.log_level", "MKT_LOG_LEVEL", "LOG_LEVEL")

	// Ethereum
	v.BindEnv("ethereum.rpc_url", "MKT_ETH_RPC_URL", "ETH_RPC_URL")
	v.BindEnv("ethereum.poll_interval", "MKT_ETH_POLL_INTERVAL")

	// Marketplace
	v.BindEnv("marketplace.contract_address", "MKT_CONTRACT_ADDRESS", "CONTRACT_ADDRESS")
	v.BindEnv("marketplace.target_chain_id", "MKT_TARGET_CHAIN_ID", "TARGET_CHAIN_ID")
	v.BindEnv("marketplace.admin_hashes", "MKT_ADMIN_HASHES")

	// Catalog
	v.BindEnv("catalog.url", "MKT_CATALOG_URL")
	v.BindEnv("catalog.path", "MKT_CATALOG_PATH")

	// Telemetry
	v.BindEnv("telemetry.enabled", "MKT_OTEL_ENABLED", "OTEL_ENABLED")
	v.BindEnv("telemetry.service_name", "MKT_OTEL_SERVICE_NAME", "OTEL_SERVICE_NAME")
	v.BindEnv("telemetry.otlp_endpoint", "MKT_OTEL_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT")
}

func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "eth-market-course")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	// Ethereum defaults
	v.SetDefault("ethereum.rpc_url", "http://127.0.0.1:8545")
	v.SetDefault("ethereum.poll_interval", "4s")
	v.SetDefault("ethereum.poll_rate_per_min", 30)
	v.SetDefault("ethereum.receipt_interval", "1s")
	v.SetDefault("ethereum.receipt_timeout", "2m")

	// Marketplace defaults (Ganache deployment)
	v.SetDefault("marketplace.target_chain_id", 1337)
	v.SetDefault("marketplace.admin_hashes", []string{defaultAdminHash})

	// Catalog defaults
	v.SetDefault("catalog.path", "content/courses.json")

	// Telemetry defaults
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.service_name", "eth-market-course")
	v.SetDefault("telemetry.prometheus_port", 9090)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Ethereum.RPCURL == "" {
		return fmt.Errorf("ethereum.rpc_url is required")
	}
	if c.Marketplace.ContractAddress != "" && !common.IsHexAddress(c.Marketplace.ContractAddress) {
		return fmt.Errorf("invalid marketplace.contract_address: %s", c.Marketplace.ContractAddress)
	}
	if c.Marketplace.TargetChainID == 0 {
		return fmt.Errorf("marketplace.target_chain_id is required")
	}
	if len(c.Marketplace.AdminHashes) == 0 {
		return fmt.Errorf("marketplace.admin_hashes cannot be empty")
	}
	if c.Catalog.URL == "" && c.Catalog.Path == "" {
		return fmt.Errorf("either catalog.url or catalog.path is required")
	}
	return nil
}
