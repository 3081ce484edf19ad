package config

import (
	"errors"
	"fmt"
	"strings"
)

// ErrConfig marks fatal configuration errors. The process must not start
// with a config that fails validation.
var ErrConfig = errors.New("CONFIG_ERROR")

// maxChannel is the highest channel index the rig's go-to-channel command
// accepts (three ASCII decimal digits on the wire).
const maxChannel = 999

// Validate checks the resolved configuration. All failures wrap ErrConfig.
func Validate(cfg *Config) error {
	if cfg.PatCall == "" {
		return fmt.Errorf("%w: missing pat_call", ErrConfig)
	}
	if cfg.RxAuxCall == "" {
		return fmt.Errorf("%w: missing rx_aux_call", ErrConfig)
	}
	if cfg.RigPort == "" {
		return fmt.Errorf("%w: missing rig_port", ErrConfig)
	}
	if cfg.RigPortSpeed <= 0 {
		return fmt.Errorf("%w: missing or invalid rig_port_speed", ErrConfig)
	}
	if !strings.EqualFold(cfg.RigModel, "TAIT") {
		// Only the CCDI driver is built in; anything else needs an external
		// rig daemon, which this canary deliberately does not manage.
		return fmt.Errorf("%w: unsupported rig_model %q", ErrConfig, cfg.RigModel)
	}
	if cfg.RigTimeout <= 0 {
		return fmt.Errorf("%w: rig_timeout_seconds must be positive", ErrConfig)
	}

	if cfg.FetchRetryInterval <= 0 {
		return fmt.Errorf("%w: fetch_retry_interval_seconds must be positive", ErrConfig)
	}
	if cfg.FetchRetriesCount < 0 {
		return fmt.Errorf("%w: fetch_retries_count must not be negative", ErrConfig)
	}
	if cfg.NextPassDelay <= 0 {
		return fmt.Errorf("%w: next_pass_delay must be positive", ErrConfig)
	}

	if cfg.HealthWindowSize < 1 {
		return fmt.Errorf("%w: health_window_size must be at least 1", ErrConfig)
	}
	if cfg.UnhealthyThreshold < 1 || cfg.UnhealthyThreshold > cfg.HealthWindowSize {
		return fmt.Errorf("%w: unhealthy_threshold must be in 1..health_window_size", ErrConfig)
	}

	if len(cfg.Nodes) == 0 {
		return fmt.Errorf("%w: no nodes configured", ErrConfig)
	}
	seen := make(map[string]bool, len(cfg.Nodes))
	for i, node := range cfg.Nodes {
		if node.Name == "" {
			return fmt.Errorf("%w: node %d has no name", ErrConfig, i)
		}
		if seen[node.Name] {
			return fmt.Errorf("%w: duplicate node name %q", ErrConfig, node.Name)
		}
		seen[node.Name] = true
		if node.Peer == "" {
			return fmt.Errorf("%w: node %q has no peer callsign", ErrConfig, node.Name)
		}
		if node.FrequencyMHz <= 0 {
			return fmt.Errorf("%w: node %q has invalid frequency %v", ErrConfig, node.Name, node.FrequencyMHz)
		}
		if node.Channel < 0 || node.Channel > maxChannel {
			return fmt.Errorf("%w: node %q channel %d out of range 0..%d", ErrConfig, node.Name, node.Channel, maxChannel)
		}
	}

	if (cfg.HTTPTLSCert == "") != (cfg.HTTPTLSKey == "") {
		return fmt.Errorf("%w: http_tls_cert and http_tls_key must be set together", ErrConfig)
	}

	return nil
}
