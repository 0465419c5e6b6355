// Copyright (c) 2024 The BitFS developers
// Use of this source code is governed by the Open BSV License v5
// that can be found in the LICENSE file.

package config

import (
	"log/slog"
	"strings"
)

// logLevels maps the accepted log level strings to slog levels.
var logLevels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// ValidateConfig checks that all configuration values are within acceptable
// ranges and returns the first error encountered, or nil if valid.
func ValidateConfig(cfg Config) error {
	if cfg.DataDir == "" {
		return ErrEmptyDataDir
	}

	if cfg.Network != "mainnet" && cfg.Network != "testnet" && cfg.Network != "regtest" {
		return ErrInvalidNetwork
	}

	if _, ok := logLevels[strings.ToLower(cfg.LogLevel)]; !ok {
		return ErrInvalidLogLevel
	}

	if cfg.Fee == 0 {
		return ErrInvalidFee
	}
	if cfg.TombstoneBlocks == 0 {
		return ErrInvalidTombstone
	}
	if cfg.MaxInputs <= 0 {
		return ErrInvalidMaxInputs
	}

	return nil
}
