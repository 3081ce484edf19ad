package config

import (
	"os"
	"path/filepath"
	"time"
)

// Node is a monitored RF relay/gateway. Identity is the configured name;
// nodes are immutable after load and probed in configured order.
type Node struct {
	Name         string  `json:"name"`
	FrequencyMHz float64 `json:"frequency"`
	Peer         string  `json:"peer"`
	Channel      int     `json:"channel"`
}

// Config holds the resolved runtime configuration.
type Config struct {
	// Callsigns and mailbox
	PatCall         string
	RxAuxCall       string
	Sender          string
	MailboxBasePath string
	PatBinPath      string

	// Rig transport
	RigPort      string
	RigPortSpeed int
	RigModel     string
	RigTimeout   time.Duration

	// Probe cadence
	FetchRetryInterval time.Duration
	FetchRetriesCount  int
	NextPassDelay      time.Duration

	// Health aggregation
	HealthWindowSize   int
	UnhealthyThreshold int

	// Mailbox ownership policy. True means the mailbox is used solely by
	// this canary and leftover outbox debris may be removed automatically.
	DedicatedMailbox bool

	// Status surface
	HTTPAddr      string
	HTTPTLSCert   string
	HTTPTLSKey    string
	APIAuthSecret string

	// Ambient
	LogLevel   string
	JournalDir string

	Nodes []Node
}

// Defaults returns the baseline configuration before file and env layers.
func Defaults() *Config {
	return &Config{
		PatBinPath:         "pat",
		RigModel:           "TAIT",
		RigTimeout:         5 * time.Second,
		FetchRetryInterval: 30 * time.Second,
		FetchRetriesCount:  3,
		NextPassDelay:      3600 * time.Second,
		HealthWindowSize:   5,
		UnhealthyThreshold: 3,
		DedicatedMailbox:   false,
		HTTPAddr:           ":8080",
		LogLevel:           "info",
		JournalDir:         "logs",
	}
}

func secondsDuration(n int) time.Duration {
	return time.Duration(n) * time.Second
}

func setSeconds(dst *time.Duration, src *int) {
	if src != nil {
		*dst = secondsDuration(*src)
	}
}

// defaultMailboxPath is where pat keeps per-callsign mailboxes on Linux.
func defaultMailboxPath(call string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".local", "share", "pat", "mailbox", call)
}

// Sanitized returns a copy safe to echo over HTTP: the auth secret is
// redacted and TLS key paths are dropped.
func (c *Config) Sanitized() map[string]interface{} {
	nodes := make([]Node, len(c.Nodes))
	copy(nodes, c.Nodes)

	out := map[string]interface{}{
		"pat_call":                     c.PatCall,
		"rx_aux_call":                  c.RxAuxCall,
		"sender":                       c.Sender,
		"mailbox_base_path":            c.MailboxBasePath,
		"pat_bin_path":                 c.PatBinPath,
		"rig_port":                     c.RigPort,
		"rig_port_speed":               c.RigPortSpeed,
		"rig_model":                    c.RigModel,
		"rig_timeout_seconds":          int(c.RigTimeout / time.Second),
		"fetch_retry_interval_seconds": int(c.FetchRetryInterval / time.Second),
		"fetch_retries_count":          c.FetchRetriesCount,
		"next_pass_delay":              int(c.NextPassDelay / time.Second),
		"health_window_size":           c.HealthWindowSize,
		"unhealthy_threshold":          c.UnhealthyThreshold,
		"dedicated_mailbox":            c.DedicatedMailbox,
		"http_addr":                    c.HTTPAddr,
		"log_level":                    c.LogLevel,
		"nodes":                        nodes,
	}
	if c.APIAuthSecret != "" {
		out["api_auth_secret"] = "REDACTED"
	}
	return out
}
