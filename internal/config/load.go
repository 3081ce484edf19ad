package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
)

// fileConfig mirrors the on-disk JSON. Pointer fields distinguish "absent"
// from zero values so file entries only override what they set.
type fileConfig struct {
	PatCall            *string  `json:"pat_call"`
	RxAuxCall          *string  `json:"rx_aux_call"`
	Sender             *string  `json:"sender"`
	MailboxBasePath    *string  `json:"mailbox_base_path"`
	PatBinPath         *string  `json:"pat_bin_path"`
	RigPort            *string  `json:"rig_port"`
	RigPortSpeed       *int     `json:"rig_port_speed"`
	RigModel           *string  `json:"rig_model"`
	RigTimeoutSeconds  *int     `json:"rig_timeout_seconds"`
	FetchRetryInterval *int     `json:"fetch_retry_interval_seconds"`
	FetchRetriesCount  *int     `json:"fetch_retries_count"`
	NextPassDelay      *int     `json:"next_pass_delay"`
	HealthWindowSize   *int     `json:"health_window_size"`
	UnhealthyThreshold *int     `json:"unhealthy_threshold"`
	DedicatedMailbox   *bool    `json:"dedicated_mailbox"`
	HTTPAddr           *string  `json:"http_addr"`
	HTTPTLSCert        *string  `json:"http_tls_cert"`
	HTTPTLSKey         *string  `json:"http_tls_key"`
	APIAuthSecret      *string  `json:"api_auth_secret"`
	LogLevel           *string  `json:"log_level"`
	JournalDir         *string  `json:"journal_dir"`
	Nodes              []Node   `json:"nodes"`
}

// Load reads the config file at path, merges it over the defaults, applies
// WLC_* environment overrides, and validates the result.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var fc fileConfig
	if err := json.Unmarshal(raw, &fc); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyFile(cfg, &fc)
	applyEnvOverrides(cfg)

	// Sender defaults to the station callsign: Winlink suppresses a message
	// whose envelope sender equals the recipient, so the field exists to
	// let operators work around that.
	if cfg.Sender == "" {
		cfg.Sender = cfg.PatCall
	}
	if cfg.MailboxBasePath == "" && cfg.PatCall != "" {
		cfg.MailboxBasePath = defaultMailboxPath(cfg.PatCall)
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func applyFile(cfg *Config, fc *fileConfig) {
	setString(&cfg.PatCall, fc.PatCall)
	setString(&cfg.RxAuxCall, fc.RxAuxCall)
	setString(&cfg.Sender, fc.Sender)
	setString(&cfg.MailboxBasePath, fc.MailboxBasePath)
	setString(&cfg.PatBinPath, fc.PatBinPath)
	setString(&cfg.RigPort, fc.RigPort)
	setString(&cfg.RigModel, fc.RigModel)
	setString(&cfg.HTTPAddr, fc.HTTPAddr)
	setString(&cfg.HTTPTLSCert, fc.HTTPTLSCert)
	setString(&cfg.HTTPTLSKey, fc.HTTPTLSKey)
	setString(&cfg.APIAuthSecret, fc.APIAuthSecret)
	setString(&cfg.LogLevel, fc.LogLevel)
	setString(&cfg.JournalDir, fc.JournalDir)

	if fc.RigPortSpeed != nil {
		cfg.RigPortSpeed = *fc.RigPortSpeed
	}
	setSeconds(&cfg.RigTimeout, fc.RigTimeoutSeconds)
	setSeconds(&cfg.FetchRetryInterval, fc.FetchRetryInterval)
	setSeconds(&cfg.NextPassDelay, fc.NextPassDelay)
	if fc.FetchRetriesCount != nil {
		cfg.FetchRetriesCount = *fc.FetchRetriesCount
	}
	if fc.HealthWindowSize != nil {
		cfg.HealthWindowSize = *fc.HealthWindowSize
	}
	if fc.UnhealthyThreshold != nil {
		cfg.UnhealthyThreshold = *fc.UnhealthyThreshold
	}
	if fc.DedicatedMailbox != nil {
		cfg.DedicatedMailbox = *fc.DedicatedMailbox
	}
	cfg.Nodes = fc.Nodes
}

// applyEnvOverrides applies WLC_* environment variables over file values.
// Duration-valued fields take plain integer seconds, matching the file keys.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("WLC_HTTP_ADDR"); v != "" {
		cfg.HTTPAddr = v
	}
	if v := os.Getenv("WLC_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("WLC_RIG_PORT"); v != "" {
		cfg.RigPort = v
	}
	if v := os.Getenv("WLC_PAT_BIN_PATH"); v != "" {
		cfg.PatBinPath = v
	}
	if v := os.Getenv("WLC_MAILBOX_BASE_PATH"); v != "" {
		cfg.MailboxBasePath = v
	}
	if v := os.Getenv("WLC_NEXT_PASS_DELAY"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil {
			cfg.NextPassDelay = secondsDuration(secs)
		}
	}
	if v := os.Getenv("WLC_FETCH_RETRY_INTERVAL_SECONDS"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil {
			cfg.FetchRetryInterval = secondsDuration(secs)
		}
	}
	if v := os.Getenv("WLC_FETCH_RETRIES_COUNT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.FetchRetriesCount = n
		}
	}
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}
