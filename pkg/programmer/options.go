// SPDX-License-Identifier: GPL-3.0-or-later

package programmer

import "time"

// Config holds the options a Programmer is constructed with.
type Config struct {
	logger        Logger
	progress      ProgressFunc
	pollInterval  time.Duration
	debug         bool
}

func defaultConfig() Config {
	return Config{
		logger:       defaultLogger(),
		pollInterval: 5 * time.Millisecond,
	}
}

// Option configures a Programmer at construction time.
type Option func(*Config)

// WithLogger overrides the default stderr logger.
func WithLogger(l Logger) Option {
	return func(c *Config) { c.logger = l }
}

// WithProgressCallback installs a callback invoked as streaming memory
// commands make progress.
func WithProgressCallback(f ProgressFunc) Option {
	return func(c *Config) { c.progress = f }
}

// WithPollInterval overrides the sleep between polls in bounded
// wait loops (waitUntilChipInSocket, isBlankROM busy-poll). The
// default is small enough not to visibly slow interactive use while
// still yielding the CPU between transport reads.
func WithPollInterval(d time.Duration) Option {
	return func(c *Config) { c.pollInterval = d }
}

// WithDebug enables verbose Debugf logging of the command/response
// byte stream.
func WithDebug(on bool) Option {
	return func(c *Config) { c.debug = on }
}
