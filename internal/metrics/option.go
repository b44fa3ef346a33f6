package metrics

type Provider string

const (
	PrometheusProvider Provider = "prometheus"
	OtelCollector      Provider = "otelCollector"
)

// ProviderCfg selects one exporter backend.
type ProviderCfg struct {
	Provider Provider
	Endpoint string
	Headers  map[string]string
	Insecure bool
}

type Config struct {
	ServiceName string
	Provider    []ProviderCfg
}

type OptionFn func(config Config) Config

func WithProviderConfig(provider ProviderCfg) OptionFn {
	return func(config Config) Config {
		config.Provider = append(config.Provider, provider)
		return config
	}
}

func WithServiceName(serviceName string) OptionFn {
	return func(config Config) Config {
		config.ServiceName = serviceName
		return config
	}
}

type PromServerConfig struct {
	port string
}

type PromOptionFn func(config PromServerConfig) PromServerConfig

func WithPort(port string) PromOptionFn {
	return func(config PromServerConfig) PromServerConfig {
		config.port = port
		return config
	}
}
