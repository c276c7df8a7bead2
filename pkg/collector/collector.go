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

package collector

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/zbx-vsphere/vsphere-status/pkg/errors"
	"github.com/zbx-vsphere/vsphere-status/pkg/header"
	"github.com/zbx-vsphere/vsphere-status/pkg/serializer"
	"github.com/zbx-vsphere/vsphere-status/pkg/vsphere/decoder"
	"github.com/zbx-vsphere/vsphere-status/pkg/vsphere/inventory"
	"github.com/zbx-vsphere/vsphere-status/pkg/vsphere/session"
)

// APIVersion is the schema version of Report.
const APIVersion = "vsphere-status/v1"

// TargetReport is the collected data of one target.
type TargetReport struct {
	Target     string                  `json:"target" yaml:"target"`
	System     session.ServiceMetadata `json:"system" yaml:"system"`
	HostList   []inventory.Host        `json:"hostList,omitempty" yaml:"hostList,omitempty"`
	Hosts      decoder.Hosts           `json:"hosts,omitempty" yaml:"hosts,omitempty"`
	Licenses   []inventory.License     `json:"licenses,omitempty" yaml:"licenses,omitempty"`
	Datastores inventory.DatastoreSet  `json:"datastores,omitempty" yaml:"datastores,omitempty"`

	// ProductVersion is the normalized product version, empty when the
	// target reported none that parses.
	ProductVersion string `json:"productVersion,omitempty" yaml:"productVersion,omitempty"`
}

// Report is the result of a collection run over one or more targets.
type Report struct {
	header.Header `json:",inline" yaml:",inline"`

	Targets []*TargetReport `json:"targets" yaml:"targets"`
}

// Collector runs the selected query set against vSphere targets, one
// Session per target.
type Collector struct {
	// Version is the tool version recorded in the report header.
	Version string

	// Session is the per-target session template. Host and Port are
	// replaced by each target.
	Session session.Config

	// SessionOptions are applied to every per-target Session.
	SessionOptions []session.Option

	// Query selects the queries to run. Empty means QueryAll.
	Query QuerySet

	// Logout ends the session and removes its cookie after collection.
	Logout bool

	// Serializer receives the report in Measure. If nil, a stdout JSON
	// writer is used.
	Serializer serializer.Serializer
}

// Measure collects every target and serializes the report.
func (c *Collector) Measure(ctx context.Context, targets []string) error {
	report, err := c.Run(ctx, targets)
	if err != nil {
		return err
	}

	if c.Serializer == nil {
		c.Serializer = serializer.NewStdoutWriter(serializer.FormatJSON)
	}
	if err := c.Serializer.Serialize(ctx, report); err != nil {
		slog.Error("failed to serialize", slog.String("error", err.Error()))
		return fmt.Errorf("failed to serialize: %w", err)
	}
	return nil
}

// Run collects all targets concurrently. If any target fails the run
// fails and no report is returned.
func (c *Collector) Run(ctx context.Context, targets []string) (*Report, error) {
	if len(targets) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidRequest, "at least one target is required")
	}
	seen := make(map[string]bool, len(targets))
	for _, t := range targets {
		key := strings.ToLower(t)
		if seen[key] {
			return nil, errors.NewWithContext(errors.ErrCodeInvalidRequest, "duplicate target",
				map[string]any{"target": t})
		}
		seen[key] = true
	}

	start := time.Now()
	defer func() {
		collectionDuration.Observe(time.Since(start).Seconds())
	}()

	reports := make([]*TargetReport, len(targets))
	g, gctx := errgroup.WithContext(ctx)
	for i, target := range targets {
		g.Go(func() error {
			r, err := c.Collect(gctx, target)
			if err != nil {
				return fmt.Errorf("failed to collect %s: %w", target, err)
			}
			reports[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	query := c.Query
	if query == "" {
		query = QueryAll
	}

	report := &Report{Targets: reports}
	report.Init(header.KindInventory, APIVersion, c.Version,
		header.WithMetadata(header.MetadataRunID, uuid.NewString()),
		header.WithMetadata(header.MetadataQuery, string(query)))

	slog.Debug("collection complete",
		slog.Int("targets", len(reports)),
		slog.Duration("elapsed", time.Since(start)))
	return report, nil
}

// Collect runs the query set against a single target. The target is a
// host name, optionally with ":port".
func (c *Collector) Collect(ctx context.Context, target string) (*TargetReport, error) {
	report, err := c.collect(ctx, target)
	if err != nil {
		collectionTotal.WithLabelValues("error").Inc()
		slog.Error("collection failed", slog.String("target", target), slog.String("error", err.Error()))
		return nil, err
	}
	collectionTotal.WithLabelValues("success").Inc()
	return report, nil
}

func (c *Collector) collect(ctx context.Context, target string) (*TargetReport, error) {
	cfg := c.Session
	host, port, err := SplitTarget(target)
	if err != nil {
		return nil, err
	}
	cfg.Host = host
	if port != 0 {
		cfg.Port = port
	}

	query := c.Query
	if query == "" {
		query = QueryAll
	}

	s, err := session.New(cfg, c.SessionOptions...)
	if err != nil {
		return nil, err
	}
	defer s.Close()

	if err := c.timed("about", func() error { return s.Open(ctx) }); err != nil {
		return nil, err
	}

	report := &TargetReport{
		Target: target,
		System: s.Metadata(),
	}
	if v, err := report.System.ProductVersion(); err == nil {
		report.ProductVersion = v.String()
	} else {
		slog.Debug("unparseable product version",
			slog.String("target", target),
			slog.String("version", report.System.Version),
			slog.String("error", err.Error()))
	}
	if !query.NeedsLogin() {
		return report, nil
	}

	if err := s.Authenticate(ctx); err != nil {
		return nil, err
	}
	if c.Logout {
		defer s.Logout(context.WithoutCancel(ctx))
	}

	if query.includes(QueryHostList) {
		if err := c.timed("hostlist", func() (err error) {
			report.HostList, err = inventory.HostList(ctx, s)
			return err
		}); err != nil {
			return nil, err
		}
		collectedObjects.WithLabelValues(host, "hosts").Set(float64(len(report.HostList)))
	}

	if query.includes(QueryHosts) {
		if err := c.timed("hosts", func() (err error) {
			report.Hosts, err = inventory.HostDetails(ctx, s)
			return err
		}); err != nil {
			return nil, err
		}
		collectedObjects.WithLabelValues(host, "hosts").Set(float64(len(report.Hosts)))
	}

	if query.includes(QueryLicenses) {
		if err := c.timed("licenses", func() (err error) {
			report.Licenses, err = inventory.Licenses(ctx, s)
			return err
		}); err != nil {
			return nil, err
		}
		collectedObjects.WithLabelValues(host, "licenses").Set(float64(len(report.Licenses)))
	}

	if query.includes(QueryDatastores) {
		if err := c.timed("datastores", func() (err error) {
			report.Datastores, err = inventory.Datastores(ctx, s)
			return err
		}); err != nil {
			return nil, err
		}
		collectedObjects.WithLabelValues(host, "datastores").Set(float64(len(report.Datastores)))
	}

	return report, nil
}

func (c *Collector) timed(name string, fn func() error) error {
	start := time.Now()
	defer func() {
		collectorQueryDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	}()
	return fn()
}

// SplitTarget splits "host" or "host:port". A missing port is returned
// as zero.
func SplitTarget(target string) (string, int, error) {
	target = strings.TrimSpace(target)
	if target == "" {
		return "", 0, errors.New(errors.ErrCodeInvalidRequest, "empty target")
	}

	host, portStr, err := net.SplitHostPort(target)
	if err != nil {
		// bare host or IPv6 literal without port
		return strings.Trim(target, "[]"), 0, nil
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port <= 0 || port > 65535 {
		return "", 0, errors.NewWithContext(errors.ErrCodeInvalidRequest, "invalid target port",
			map[string]any{"target": target})
	}
	return host, port, nil
}
