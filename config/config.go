package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Config holds the configuration for the Agent Dispatch Gateway.
type Config struct {
	// General settings
	ApplicationName string `env:"APPLICATION_NAME, default=dispatch-gateway" description:"The name of the application"`
	Environment     string `env:"ENVIRONMENT, default=production" description:"The environment"`
	EnableTelemetry bool   `env:"ENABLE_TELEMETRY, default=false" description:"Enable telemetry"`

	// Server settings
	Server *ServerConfig `env:", prefix=SERVER_" description:"Server configuration"`

	// Backend agent runtime settings
	Backend *BackendConfig `env:", prefix=BACKEND_" description:"Backend runtime configuration"`

	// Agent dispatch settings
	Dispatch *DispatchConfig `env:", prefix=DISPATCH_" description:"Dispatch configuration"`
}

// ServerConfig holds the HTTP server settings.
type ServerConfig struct {
	Host         string        `env:"HOST, default=0.0.0.0" description:"Server host"`
	Port         string        `env:"PORT, default=9100" description:"Server port"`
	ReadTimeout  time.Duration `env:"READ_TIMEOUT, default=30s" description:"Read timeout"`
	WriteTimeout time.Duration `env:"WRITE_TIMEOUT, default=30s" description:"Write timeout"`
	IdleTimeout  time.Duration `env:"IDLE_TIMEOUT, default=120s" description:"Idle timeout"`
	TLSCertPath  string        `env:"TLS_CERT_PATH" description:"TLS certificate path"`
	TLSKeyPath   string        `env:"TLS_KEY_PATH" description:"TLS key path"`
}

// BackendConfig holds the connection settings for the backend agent runtime.
type BackendConfig struct {
	URL            string        `env:"URL, default=http://127.0.0.1:8052/api/v1" description:"Backend runtime base URL"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT, default=30s" description:"Per-request timeout for backend calls"`
	MaxRetries     int           `env:"MAX_RETRIES, default=2" description:"Retry attempts for backend invocations"`
	RetryBackoff   time.Duration `env:"RETRY_BACKOFF, default=250ms" description:"Initial backoff between backend retries"`
}

// DispatchConfig holds the agent routing settings.
type DispatchConfig struct {
	// AgentIDs is the fixed list of agent identifiers served by this process.
	// Each identifier is both a routing path segment and the backend lookup key.
	AgentIDs []string `env:"AGENT_IDS, default=add2-agent" description:"Comma-separated agent identifiers to serve"`
	// ExternalURL is the base address advertised in agent cards.
	ExternalURL string        `env:"EXTERNAL_URL, default=http://127.0.0.1:9100" description:"Externally reachable base URL"`
	Timeout     time.Duration `env:"TIMEOUT, default=60s" description:"Deadline applied to each task dispatch"`
}

// Load populates the configuration from the given lookuper and validates
// the agent list. Duplicate agent identifiers are a configuration error
// because they would collide on the routing table.
func (cfg *Config) Load(lookuper envconfig.Lookuper) (Config, error) {
	if err := envconfig.ProcessWith(context.Background(), &envconfig.Config{
		Target:   cfg,
		Lookuper: lookuper,
	}); err != nil {
		return Config{}, err
	}

	if len(cfg.Dispatch.AgentIDs) == 0 {
		return Config{}, fmt.Errorf("no agent identifiers configured")
	}

	seen := make(map[string]struct{}, len(cfg.Dispatch.AgentIDs))
	for _, id := range cfg.Dispatch.AgentIDs {
		if id == "" {
			return Config{}, fmt.Errorf("empty agent identifier in DISPATCH_AGENT_IDS")
		}
		if _, ok := seen[id]; ok {
			return Config{}, fmt.Errorf("duplicate agent identifier: %s", id)
		}
		seen[id] = struct{}{}
	}

	return *cfg, nil
}
