// Copyright (c) 2024 The BitFS developers
// Use of this source code is governed by the Open BSV License v5
// that can be found in the LICENSE file.

// Package config loads, saves and validates the daemon's key=value
// configuration file and builds its logger.
package config

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const (
	// DefaultFee is the flat fee, in picoMOB, attached to every proposal.
	DefaultFee uint64 = 10_000_000_000

	// DefaultTombstoneBlocks is how many blocks past the current height a
	// proposal stays valid.
	DefaultTombstoneBlocks uint64 = 50

	// DefaultMaxInputs caps the inputs selected for one proposal.
	DefaultMaxInputs = 16
)

// Config holds the daemon settings.
type Config struct {
	DataDir         string
	Network         string
	LogLevel        string
	LogFile         string
	Fee             uint64
	TombstoneBlocks uint64
	MaxInputs       int
}

// DefaultDataDir returns ~/.mobilecoind, or .mobilecoind when the home
// directory cannot be determined.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".mobilecoind"
	}
	return filepath.Join(home, ".mobilecoind")
}

// DefaultConfig returns a configuration populated with defaults.
func DefaultConfig() Config {
	return Config{
		DataDir:         DefaultDataDir(),
		Network:         "mainnet",
		LogLevel:        "info",
		Fee:             DefaultFee,
		TombstoneBlocks: DefaultTombstoneBlocks,
		MaxInputs:       DefaultMaxInputs,
	}
}

// ConfigPath returns the configuration file location inside dataDir.
func ConfigPath(dataDir string) string {
	return filepath.Join(dataDir, "config")
}

// UTXODBPath returns the bbolt database file holding unspent outputs.
func (c Config) UTXODBPath() string {
	return filepath.Join(c.DataDir, "utxos.db")
}

// LoadConfig reads path on top of DefaultConfig. Blank lines and lines
// starting with '#' are skipped and unknown keys are ignored.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return cfg, fmt.Errorf("config: open: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, err := parseKeyValue(line)
		if err != nil {
			return cfg, fmt.Errorf("%w: line %d: %q", ErrInvalidConfigLine, lineNo, line)
		}
		if err := cfg.set(key, value); err != nil {
			return cfg, fmt.Errorf("%w: line %d: %w", ErrInvalidConfigLine, lineNo, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return cfg, fmt.Errorf("config: read: %w", err)
	}
	return cfg, nil
}

// parseKeyValue splits on the first '=' and trims both sides.
func parseKeyValue(line string) (string, string, error) {
	key, value, ok := strings.Cut(line, "=")
	if !ok {
		return "", "", ErrInvalidConfigLine
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return "", "", ErrInvalidConfigLine
	}
	return strings.ToLower(key), strings.TrimSpace(value), nil
}

func (c *Config) set(key, value string) error {
	var err error
	switch key {
	case "datadir":
		c.DataDir = value
	case "network":
		c.Network = value
	case "loglevel":
		c.LogLevel = value
	case "logfile":
		c.LogFile = value
	case "fee":
		c.Fee, err = strconv.ParseUint(value, 10, 64)
	case "tombstone_blocks":
		c.TombstoneBlocks, err = strconv.ParseUint(value, 10, 64)
	case "max_inputs":
		c.MaxInputs, err = strconv.Atoi(value)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	return nil
}

// SaveConfig writes cfg to path, creating the parent directory.
func SaveConfig(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("config: create directory: %w", err)
	}

	var b strings.Builder
	b.WriteString("# mobilecoind configuration\n\n")
	fmt.Fprintf(&b, "datadir = %s\n", cfg.DataDir)
	fmt.Fprintf(&b, "network = %s\n", cfg.Network)
	fmt.Fprintf(&b, "loglevel = %s\n", cfg.LogLevel)
	fmt.Fprintf(&b, "logfile = %s\n", cfg.LogFile)
	fmt.Fprintf(&b, "fee = %d\n", cfg.Fee)
	fmt.Fprintf(&b, "tombstone_blocks = %d\n", cfg.TombstoneBlocks)
	fmt.Fprintf(&b, "max_inputs = %d\n", cfg.MaxInputs)

	if err := os.WriteFile(path, []byte(b.String()), 0600); err != nil {
		return fmt.Errorf("config: write: %w", err)
	}
	return nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// NewLogger builds a text slog.Logger at the configured level. Output goes
// to LogFile when set (opened for append), otherwise to stderr. The returned
// Closer releases the log file.
func NewLogger(cfg Config) (*slog.Logger, io.Closer, error) {
	level, ok := logLevels[strings.ToLower(cfg.LogLevel)]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %q", ErrInvalidLogLevel, cfg.LogLevel)
	}

	var (
		w      io.Writer = os.Stderr
		closer io.Closer = nopCloser{}
	)
	if cfg.LogFile != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0700); err != nil {
			return nil, nil, fmt.Errorf("config: create log directory: %w", err)
		}
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err != nil {
			return nil, nil, fmt.Errorf("config: open log file: %w", err)
		}
		w, closer = f, f
	}

	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
	return logger.With(slog.String("network", cfg.Network)), closer, nil
}
