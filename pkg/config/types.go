package config

import "time"

// Config is the root configuration structure.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Oracle  OracleConfig  `yaml:"oracle"`
	Metrics MetricsConfig `yaml:"metrics"`
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig configures the price server component.
type ServerConfig struct {
	HTTP         HTTPConfig `yaml:"http"`
	WebSocket    WSConfig   `yaml:"websocket"`
	CacheTTL     Duration   `yaml:"cache_ttl"`
	PollInterval Duration   `yaml:"poll_interval"`
}

// HTTPConfig configures the HTTP server.
type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

// WSConfig configures the WebSocket streaming server.
type WSConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// OracleConfig configures the rate computation.
type OracleConfig struct {
	RPCURL string     `yaml:"rpc_url"`
	Pair   string     `yaml:"pair"` // display symbol, e.g. "wstETH/USDC"
	Base   SideConfig `yaml:"base"`
	Quote  SideConfig `yaml:"quote"`
}

// SideConfig configures one side of the rate. Vault and feed addresses are
// optional; an empty address means the slot is not configured.
type SideConfig struct {
	TokenDecimals uint8  `yaml:"token_decimals"`
	Vault         string `yaml:"vault"`
	VaultSample   string `yaml:"vault_sample"` // decimal integer string, default "1"
	Feed1         string `yaml:"feed1"`
	Feed2         string `yaml:"feed2"`
}

// MetricsConfig configures Prometheus metrics.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Duration is a wrapper around time.Duration for YAML parsing.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	td, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(td)
	return nil
}

// ToDuration converts Duration to time.Duration.
func (d Duration) ToDuration() time.Duration {
	return time.Duration(d)
}
