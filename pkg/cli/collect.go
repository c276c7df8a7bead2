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

package cli

import (
	"context"
	"crypto/x509"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v3"

	"github.com/zbx-vsphere/vsphere-status/pkg/collector"
	"github.com/zbx-vsphere/vsphere-status/pkg/defaults"
	"github.com/zbx-vsphere/vsphere-status/pkg/k8s/client"
	"github.com/zbx-vsphere/vsphere-status/pkg/serializer"
	"github.com/zbx-vsphere/vsphere-status/pkg/vsphere/session"
)

var (
	outputFlag = &cli.StringFlag{
		Name:    "output",
		Aliases: []string{"o"},
		Usage:   "output destination: file path, - for stdout, or cm://namespace/name",
	}

	formatFlag = &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Usage:   fmt.Sprintf("output format (%s)", strings.Join(serializer.SupportedFormats(), ", ")),
		Value:   string(serializer.FormatJSON),
	}

	kubeconfigFlag = &cli.StringFlag{
		Name:    "kubeconfig",
		Usage:   "kubeconfig used for cm:// output (default: $KUBECONFIG, ~/.kube/config, in-cluster)",
		Sources: cli.EnvVars("KUBECONFIG"),
	}
)

func collectCmd() *cli.Command {
	return &cli.Command{
		Name:  "collect",
		Usage: "Query one or more vCenter or ESXi targets",
		Description: `Connect to each target's /sdk endpoint, load the service content, log in
(reusing a persisted session cookie when one exists) and run the selected
query set. Targets are collected concurrently; any failing target fails the
run and no report is written.

Query sets:
  all         hosts, licenses and datastores
  about       service content only, no login
  hosts       host details, sensors and multipath state
  hostlist    host names only
  licenses    license usage
  datastores  datastore summaries

# Examples

  vsphere-status collect -t vcenter.example.com -u monitor@vsphere.local -s "$SECRET"
  vsphere-status collect -t esx01:8443 -q about -f yaml
  vsphere-status collect -t vc01 -t vc02 -q datastores -o cm://monitoring/vsphere-status`,
		Flags: append(append(targetFlags("target host name, optionally host:port (can be repeated)"),
			&cli.DurationFlag{
				Name:  "collection-timeout",
				Usage: "overall limit for the whole run",
				Value: defaults.CollectorTimeout,
			},
			&cli.StringFlag{
				Name:  "metrics-file",
				Usage: "write Prometheus metrics in textfile format to this path",
			},
			outputFlag,
			formatFlag,
			kubeconfigFlag,
		), sessionFlags()...),
		Action: runCollect,
	}
}

func targetFlags(usage string) []cli.Flag {
	return []cli.Flag{
		&cli.StringSliceFlag{
			Name:    "target",
			Aliases: []string{"t"},
			Usage:   usage,
			Sources: cli.EnvVars("VSPHERE_TARGET"),
		},
		&cli.StringFlag{
			Name:    "targets-file",
			Usage:   "file with one target per line, # starts a comment",
			Sources: cli.EnvVars("VSPHERE_TARGETS_FILE"),
		},
	}
}

// resolveTargets merges --target and --targets-file entries.
func resolveTargets(cmd *cli.Command) ([]string, error) {
	var fromFile []string
	if path := cmd.String("targets-file"); path != "" {
		var err error
		if fromFile, err = collector.LoadTargets(path); err != nil {
			return nil, err
		}
	}
	targets := collector.MergeTargets(cmd.StringSlice("target"), fromFile)
	if len(targets) == 0 {
		return nil, fmt.Errorf("at least one --target or --targets-file entry is required")
	}
	return targets, nil
}

// sessionFlags are the connection and login flags shared by collect and serve.
func sessionFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:    "port",
			Aliases: []string{"p"},
			Usage:   "default HTTPS port for targets without one",
			Value:   defaults.TargetPort,
			Sources: cli.EnvVars("VSPHERE_PORT"),
		},
		&cli.DurationFlag{
			Name:  "timeout",
			Usage: "per-operation network timeout",
			Value: defaults.TargetTimeout,
		},
		&cli.StringFlag{
			Name:    "user",
			Aliases: []string{"u"},
			Usage:   "login user name",
			Sources: cli.EnvVars("VSPHERE_USER"),
		},
		&cli.StringFlag{
			Name:    "secret",
			Aliases: []string{"s"},
			Usage:   "login password",
			Sources: cli.EnvVars("VSPHERE_SECRET"),
		},
		&cli.StringFlag{
			Name:    "query",
			Aliases: []string{"q"},
			Usage:   fmt.Sprintf("query set (%s)", strings.Join(collector.SupportedQuerySets(), ", ")),
			Value:   string(collector.QueryAll),
		},
		&cli.BoolFlag{
			Name:  "logout",
			Usage: "log out and remove the session cookie when done",
		},
		&cli.BoolFlag{
			Name:  "cert-check",
			Usage: "validate the target certificate",
		},
		&cli.StringFlag{
			Name:  "ca-file",
			Usage: "PEM bundle of trusted CAs, implies --cert-check",
		},
		&cli.StringFlag{
			Name:    "cookie-dir",
			Usage:   "directory of persisted session cookies, empty disables reuse",
			Value:   defaultCookieDir(),
			Sources: cli.EnvVars("VSPHERE_COOKIE_DIR"),
		},
		&cli.StringFlag{
			Name:  "pages",
			Usage: "pages of a paginated result to report (first, all)",
			Value: string(session.PagesFirst),
		},
		&cli.IntFlag{
			Name:  "auth-retries",
			Usage: "re-logins per query after the session expires",
			Value: defaults.SessionAuthRetries,
		},
		&cli.FloatFlag{
			Name:  "rps",
			Usage: "maximum requests per second per target, 0 is unlimited",
		},
	}
}

func queriesCmd() *cli.Command {
	return &cli.Command{
		Name:  "queries",
		Usage: "List the supported query sets",
		Action: func(_ context.Context, cmd *cli.Command) error {
			for _, q := range collector.SupportedQuerySets() {
				fmt.Fprintln(cmd.Root().Writer, q)
			}
			return nil
		},
	}
}

func runCollect(ctx context.Context, cmd *cli.Command) error {
	targets, err := resolveTargets(cmd)
	if err != nil {
		return err
	}

	c, err := buildCollector(cmd)
	if err != nil {
		return err
	}

	outFormat, err := parseOutputFormat(cmd)
	if err != nil {
		return err
	}
	client.SetKubeconfig(cmd.String("kubeconfig"))

	ctx, cancel := context.WithTimeout(ctx, cmd.Duration("collection-timeout"))
	defer cancel()

	report, err := c.Run(ctx, targets)
	if mErr := writeMetrics(cmd.String("metrics-file")); mErr != nil {
		slog.Warn("failed to write metrics file", "error", mErr)
	}
	if err != nil {
		return fmt.Errorf("collection failed: %w", err)
	}

	// the destination is only opened once there is a report to write
	out, err := serializer.NewFileWriterOrStdout(outFormat, cmd.String("output"))
	if err != nil {
		return fmt.Errorf("failed to open output: %w", err)
	}
	if closer, ok := out.(serializer.Closer); ok {
		defer closer.Close()
	}
	if err := out.Serialize(ctx, report); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

func buildCollector(cmd *cli.Command) (*collector.Collector, error) {
	query, err := collector.ParseQuerySet(cmd.String("query"))
	if err != nil {
		return nil, err
	}

	pages, err := parsePageMode(cmd.String("pages"))
	if err != nil {
		return nil, err
	}

	cfg := session.Config{
		Port:              cmd.Int("port"),
		Timeout:           cmd.Duration("timeout"),
		Username:          cmd.String("user"),
		Password:          cmd.String("secret"),
		VerifyCertificate: cmd.Bool("cert-check"),
		CookieDir:         cmd.String("cookie-dir"),
		Pages:             pages,
		AuthRetries:       cmd.Int("auth-retries"),
		RequestsPerSecond: cmd.Float("rps"),
	}
	if query.NeedsLogin() && cfg.Username == "" {
		return nil, fmt.Errorf("--user is required for query set %q", query)
	}

	var opts []session.Option
	if path := cmd.String("ca-file"); path != "" {
		pool, err := loadRootCAs(path)
		if err != nil {
			return nil, err
		}
		cfg.VerifyCertificate = true
		opts = append(opts, session.WithRootCAs(pool))
	}

	return &collector.Collector{
		Version:        version,
		Session:        cfg,
		SessionOptions: opts,
		Query:          query,
		Logout:         cmd.Bool("logout"),
	}, nil
}

func parseOutputFormat(cmd *cli.Command) (serializer.Format, error) {
	f := serializer.Format(strings.ToLower(cmd.String("format")))
	if f.IsUnknown() {
		return "", fmt.Errorf("unknown output format: %q", cmd.String("format"))
	}
	return f, nil
}

func parsePageMode(s string) (session.PageMode, error) {
	switch m := session.PageMode(strings.ToLower(strings.TrimSpace(s))); m {
	case session.PagesFirst, session.PagesAll:
		return m, nil
	default:
		return "", fmt.Errorf("unknown page mode %q (supported: %s, %s)", s, session.PagesFirst, session.PagesAll)
	}
}

func loadRootCAs(path string) (*x509.CertPool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read CA file: %w", err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(data) {
		return nil, fmt.Errorf("no certificates found in %s", path)
	}
	return pool, nil
}

func writeMetrics(path string) error {
	if path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}

func defaultCookieDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".vsphere-status", "cookies")
}
