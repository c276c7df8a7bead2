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

	"github.com/urfave/cli/v3"
	"golang.org/x/time/rate"

	"github.com/zbx-vsphere/vsphere-status/pkg/defaults"
	"github.com/zbx-vsphere/vsphere-status/pkg/server"
)

func serveCmd() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve on-demand collection over HTTP",
		Description: `Start an HTTP server answering GET /v1/collect for the listed targets.
Requests may pick the query set and output format; the session flags apply
to every request, and persisted session cookies are shared between them.

# Examples

  vsphere-status serve -t vc01.example.com -t vc02.example.com -u monitor@vsphere.local
  curl 'http://localhost:8080/v1/collect?target=vc01.example.com&query=datastores&format=yaml'`,
		Flags: append(append(targetFlags("target served by /v1/collect, optionally host:port (can be repeated)"),
			&cli.StringFlag{
				Name:  "address",
				Usage: "listen address, empty for all interfaces",
			},
			&cli.IntFlag{
				Name:    "http-port",
				Usage:   "listen port",
				Value:   8080,
				Sources: cli.EnvVars("PORT"),
			},
			&cli.DurationFlag{
				Name:  "collection-timeout",
				Usage: "limit for one collect request",
				Value: defaults.ServerCollectTimeout,
			},
			&cli.FloatFlag{
				Name:  "rate-limit",
				Usage: "collect requests per second across all clients",
				Value: 10,
			},
			&cli.IntFlag{
				Name:  "rate-burst",
				Usage: "collect request burst size",
				Value: 20,
			},
		), sessionFlags()...),
		Action: runServe,
	}
}

func runServe(ctx context.Context, cmd *cli.Command) error {
	targets, err := resolveTargets(cmd)
	if err != nil {
		return err
	}

	c, err := buildCollector(cmd)
	if err != nil {
		return err
	}

	cfg := server.NewConfig()
	cfg.Version = version
	cfg.Address = cmd.String("address")
	cfg.Port = cmd.Int("http-port")
	cfg.Targets = targets
	cfg.DefaultQuery = c.Query
	cfg.RateLimit = rate.Limit(cmd.Float("rate-limit"))
	cfg.RateLimitBurst = cmd.Int("rate-burst")
	cfg.CollectTimeout = cmd.Duration("collection-timeout")
	// leave room to write the reply after a collection that uses its full budget
	cfg.WriteTimeout = cfg.CollectTimeout + defaults.ServerWriteTimeout - defaults.ServerCollectTimeout

	s, err := server.New(cfg, c)
	if err != nil {
		return err
	}
	return s.Run(ctx)
}
