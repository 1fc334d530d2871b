package config

import "sync/atomic"

var cfg atomic.Value

// Init installs the default config as the process-wide singleton.
func Init() {
	c := Default()
	cfg.Store(&c)
}

// Load returns the current config. Treat the result as read-only.
func Load() *Config {
	v, _ := cfg.Load().(*Config)
	if v == nil {
		c := Default()
		cfg.Store(&c)
		v = &c
	}
	return v
}

// Update applies a mutation on a copy of the current config and swaps it
// in atomically, returning the new value.
func Update(mut func(*Config)) *Config {
	curr := Load()
	next := *curr
	mut(&next)
	cfg.Store(&next)
	return &next
}

// Swap replaces the global config wholesale.
func Swap(next Config) *Config {
	cfg.Store(&next)
	return &next
}
