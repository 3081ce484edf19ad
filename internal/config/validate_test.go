package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	cfg := Defaults()
	cfg.PatCall = "WY2K"
	cfg.RxAuxCall = "WY2K-1"
	cfg.Sender = "WY2K"
	cfg.RigPort = "/dev/ttyUSB0"
	cfg.RigPortSpeed = 9600
	cfg.MailboxBasePath = "/tmp/mailbox"
	cfg.Nodes = []Node{
		{Name: "a", FrequencyMHz: 430.85, Peer: "P1", Channel: 1},
		{Name: "b", FrequencyMHz: 439.75, Peer: "P2", Channel: 2},
	}
	return cfg
}

func TestValidateOK(t *testing.T) {
	require.NoError(t, Validate(validConfig()))
}

func TestValidateFailures(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing pat_call", func(c *Config) { c.PatCall = "" }},
		{"missing rx_aux_call", func(c *Config) { c.RxAuxCall = "" }},
		{"missing rig_port", func(c *Config) { c.RigPort = "" }},
		{"zero rig speed", func(c *Config) { c.RigPortSpeed = 0 }},
		{"unsupported rig model", func(c *Config) { c.RigModel = "RIG_MODEL_IC705" }},
		{"zero window", func(c *Config) { c.HealthWindowSize = 0 }},
		{"threshold above window", func(c *Config) { c.UnhealthyThreshold = 6 }},
		{"zero threshold", func(c *Config) { c.UnhealthyThreshold = 0 }},
		{"no nodes", func(c *Config) { c.Nodes = nil }},
		{"duplicate node name", func(c *Config) { c.Nodes[1].Name = "a" }},
		{"node without peer", func(c *Config) { c.Nodes[0].Peer = "" }},
		{"negative frequency", func(c *Config) { c.Nodes[0].FrequencyMHz = -1 }},
		{"channel out of range", func(c *Config) { c.Nodes[0].Channel = 1000 }},
		{"zero retry interval", func(c *Config) { c.FetchRetryInterval = 0 }},
		{"negative retries", func(c *Config) { c.FetchRetriesCount = -1 }},
		{"zero pass delay", func(c *Config) { c.NextPassDelay = 0 }},
		{"zero rig timeout", func(c *Config) { c.RigTimeout = 0 * time.Second }},
		{"cert without key", func(c *Config) { c.HTTPTLSCert = "/tls/cert.pem" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := Validate(cfg)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrConfig)
		})
	}
}
