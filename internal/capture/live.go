package capture

import "time"

// LiveConfig configures a monitor-mode capture.
type LiveConfig struct {
	Interface string
	// Filter is a BPF expression; empty selects DefaultFilter.
	Filter string
	// Snaplen is the maximum bytes kept per packet; 0 selects
	// DefaultSnaplen.
	Snaplen int
	// Timeout bounds each blocking read so cancellation is noticed;
	// 0 selects DefaultReadTimeout.
	Timeout time.Duration
	// Buffered disables immediate mode.
	Buffered bool
}

// Live capture defaults.
const (
	DefaultSnaplen     = 65535
	DefaultReadTimeout = 250 * time.Millisecond
)

func (c LiveConfig) withDefaults() LiveConfig {
	if c.Filter == "" {
		c.Filter = DefaultFilter
	}
	if c.Snaplen <= 0 {
		c.Snaplen = DefaultSnaplen
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultReadTimeout
	}
	return c
}
