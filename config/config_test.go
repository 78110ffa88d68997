package config_test

import (
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dispatch-gateway/dispatch-gateway/config"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name          string
		env           map[string]string
		expectedCfg   config.Config
		expectedError string
	}{
		{
			name: "Success_Defaults",
			env:  map[string]string{},
			expectedCfg: config.Config{
				ApplicationName: "dispatch-gateway",
				Environment:     "production",
				EnableTelemetry: false,
				Server: &config.ServerConfig{
					Host:         "0.0.0.0",
					Port:         "9100",
					ReadTimeout:  30 * time.Second,
					WriteTimeout: 30 * time.Second,
					IdleTimeout:  120 * time.Second,
				},
				Backend: &config.BackendConfig{
					URL:            "http://127.0.0.1:8052/api/v1",
					RequestTimeout: 30 * time.Second,
					MaxRetries:     2,
					RetryBackoff:   250 * time.Millisecond,
				},
				Dispatch: &config.DispatchConfig{
					AgentIDs:    []string{"add2-agent"},
					ExternalURL: "http://127.0.0.1:9100",
					Timeout:     60 * time.Second,
				},
			},
		},
		{
			name: "Success_Overrides",
			env: map[string]string{
				"ENVIRONMENT":        "development",
				"ENABLE_TELEMETRY":   "true",
				"SERVER_PORT":        "8081",
				"BACKEND_URL":        "http://juliaos:8052/api/v1",
				"DISPATCH_AGENT_IDS": "add2-agent,echo-agent",
				"DISPATCH_TIMEOUT":   "15s",
			},
			expectedCfg: config.Config{
				ApplicationName: "dispatch-gateway",
				Environment:     "development",
				EnableTelemetry: true,
				Server: &config.ServerConfig{
					Host:         "0.0.0.0",
					Port:         "8081",
					ReadTimeout:  30 * time.Second,
					WriteTimeout: 30 * time.Second,
					IdleTimeout:  120 * time.Second,
				},
				Backend: &config.BackendConfig{
					URL:            "http://juliaos:8052/api/v1",
					RequestTimeout: 30 * time.Second,
					MaxRetries:     2,
					RetryBackoff:   250 * time.Millisecond,
				},
				Dispatch: &config.DispatchConfig{
					AgentIDs:    []string{"add2-agent", "echo-agent"},
					ExternalURL: "http://127.0.0.1:9100",
					Timeout:     15 * time.Second,
				},
			},
		},
		{
			name: "Error_DuplicateAgentIDs",
			env: map[string]string{
				"DISPATCH_AGENT_IDS": "add2-agent,add2-agent",
			},
			expectedError: "duplicate agent identifier: add2-agent",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var target config.Config
			cfg, err := target.Load(envconfig.MapLookuper(tt.env))

			if tt.expectedError != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectedError)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.expectedCfg, cfg)
		})
	}
}
