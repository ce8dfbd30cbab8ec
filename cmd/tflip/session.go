package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/srg/timeflip/pkg/config"
	"github.com/srg/timeflip/timeflip"
)

// loadConfig resolves the config file path and loads it. Missing files fall
// back to defaults, so running without a config is fine.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return config.DefaultConfig(), nil
		}
		path = filepath.Join(home, ".tflip.yaml")
	}
	return config.Load(path)
}

// resolveAddress picks the device address from the flag or the config file.
func resolveAddress(cmd *cobra.Command, cfg *config.Config) (string, error) {
	address, _ := cmd.Flags().GetString("address")
	if address == "" {
		address = cfg.Address
	}
	if address == "" {
		return "", fmt.Errorf("device address required: pass --address or set it in the config file")
	}
	return address, nil
}

// resolvePassword picks the device password from the prompt, the flag or the
// config file, in that order.
func resolvePassword(cmd *cobra.Command, cfg *config.Config) (string, error) {
	if ask, _ := cmd.Flags().GetBool("ask-password"); ask {
		fmt.Fprint(os.Stderr, "Password: ")
		raw, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("reading password: %w", err)
		}
		return string(raw), nil
	}

	password, _ := cmd.Flags().GetString("password")
	if password == "" {
		password = cfg.Password
	}
	if len(password) != 6 {
		return "", fmt.Errorf("password must be exactly 6 characters")
	}
	return password, nil
}

// runSession wires the common per-command plumbing: logger, progress display
// and the scoped device session. The callback runs against a
// connected, logged-in client; skipLogin sessions are connection-only.
func runSession[R any](cmd *cobra.Command, cfg *config.Config, progressDesc string, skipLogin bool, callback timeflip.SessionCallback[R]) (R, error) {
	var zero R

	address, err := resolveAddress(cmd, cfg)
	if err != nil {
		return zero, err
	}

	password, err := resolvePassword(cmd, cfg)
	if err != nil {
		return zero, err
	}

	logger, err := configureLogger(cmd)
	if err != nil {
		return zero, err
	}

	connectTimeout := cfg.ConnectTimeout
	if flagTimeout, _ := cmd.Flags().GetDuration("timeout"); flagTimeout > 0 {
		connectTimeout = flagTimeout
	}

	// All arguments validated - don't show usage on runtime errors
	cmd.SilenceUsage = true

	progress := NewProgressPrinter(progressDesc, "Connecting", "Connected", "Failed")
	progress.Start()
	defer progress.Stop()

	opts := &timeflip.SessionOptions{
		ConnectTimeout: connectTimeout,
		Password:       password,
		SkipLogin:      skipLogin,
	}

	return timeflip.WithClient(context.Background(), address, opts, logger, progress.Callback(),
		func(client *timeflip.Client) (R, error) {
			// Stop progress indicator before printing output
			progress.Stop()
			return callback(client)
		})
}

// jsonOutput reports whether the command should print JSON.
func jsonOutput(cmd *cobra.Command, cfg *config.Config) bool {
	if flag, _ := cmd.Flags().GetBool("json"); flag {
		return true
	}
	return cfg != nil && cfg.OutputFormat == "json"
}
