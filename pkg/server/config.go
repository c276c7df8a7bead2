// Copyright (c) 2025, NVIDIA CORPORATION.  All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package server

import (
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/zbx-vsphere/vsphere-status/pkg/collector"
	"github.com/zbx-vsphere/vsphere-status/pkg/defaults"
	"github.com/zbx-vsphere/vsphere-status/pkg/errors"
)

// Config holds server configuration
type Config struct {
	// Server identity
	Name    string
	Version string

	// Listen address
	Address string
	Port    int

	// Targets lists the hosts /v1/collect may be asked about. Requests for
	// any other target are refused.
	Targets []string

	// DefaultQuery is used when a request names no query set.
	DefaultQuery collector.QuerySet

	// Rate limiting configuration
	RateLimit      rate.Limit // requests per second
	RateLimitBurst int        // burst size

	// Timeouts
	CollectTimeout    time.Duration
	ReadTimeout       time.Duration
	ReadHeaderTimeout time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	ShutdownTimeout   time.Duration
}

// NewConfig returns a Config with defaults. PORT and
// SHUTDOWN_TIMEOUT_SECONDS override the port and shutdown timeout.
func NewConfig() *Config {
	cfg := &Config{
		Name:              "vsphere-status",
		Version:           "undefined",
		Port:              8080,
		DefaultQuery:      collector.QueryAll,
		RateLimit:         10,
		RateLimitBurst:    20,
		CollectTimeout:    defaults.ServerCollectTimeout,
		ReadTimeout:       defaults.ServerReadTimeout,
		ReadHeaderTimeout: defaults.ServerReadHeaderTimeout,
		WriteTimeout:      defaults.ServerWriteTimeout,
		IdleTimeout:       defaults.ServerIdleTimeout,
		ShutdownTimeout:   defaults.ServerShutdownTimeout,
	}

	if portStr := os.Getenv("PORT"); portStr != "" {
		var port int
		if _, err := fmt.Sscanf(portStr, "%d", &port); err == nil {
			cfg.Port = port
		}
	}

	// match the Kubernetes termination grace period when set
	if shutdownStr := os.Getenv("SHUTDOWN_TIMEOUT_SECONDS"); shutdownStr != "" {
		var seconds int
		if _, err := fmt.Sscanf(shutdownStr, "%d", &seconds); err == nil && seconds > 0 {
			cfg.ShutdownTimeout = time.Duration(seconds) * time.Second
		}
	}

	return cfg
}

// Validate checks the config.
func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return errors.NewWithContext(errors.ErrCodeInvalidRequest, "invalid listen port",
			map[string]any{"port": c.Port})
	}
	if len(c.Targets) == 0 {
		return errors.New(errors.ErrCodeInvalidRequest, "at least one allowed target is required")
	}
	for _, t := range c.Targets {
		if _, _, err := collector.SplitTarget(t); err != nil {
			return err
		}
	}
	if _, err := collector.ParseQuerySet(string(c.DefaultQuery)); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidRequest, "invalid default query set", err)
	}
	if c.RateLimit <= 0 || c.RateLimitBurst <= 0 {
		return errors.New(errors.ErrCodeInvalidRequest, "rate limit and burst must be positive")
	}
	if c.CollectTimeout <= 0 {
		return errors.New(errors.ErrCodeInvalidRequest, "collect timeout must be positive")
	}
	return nil
}

func (c *Config) allowedTargets() map[string]string {
	m := make(map[string]string, len(c.Targets))
	for _, t := range c.Targets {
		t = strings.TrimSpace(t)
		m[strings.ToLower(t)] = t
	}
	return m
}
