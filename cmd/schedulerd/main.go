// Licensed to LinDB under one or more contributor
// license agreements. See the NOTICE file distributed with
// this work for additional information regarding copyright
// ownership. LinDB licenses this file to you under
// the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing,
// software distributed under the License is distributed on an
// "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
// KIND, either express or implied.  See the License for the
// specific language governing permissions and limitations
// under the License.

package main

import (
	"context"
	"fmt"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"syscall"

	_ "go.uber.org/automaxprocs"

	"github.com/felixge/fgprof"
	"github.com/lindb/common/pkg/logger"
	"github.com/lindb/common/pkg/ltoml"
	"github.com/spf13/cobra"

	"github.com/talex5/build-scheduler/config"
)

var cfgPath string

func main() {
	root := &cobra.Command{
		Use:   "schedulerd",
		Short: "Run the build-pool scheduler daemon",
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", "", "path to a scheduler.toml config file")

	root.AddCommand(newServeCmd(), newInitConfigCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newInitConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init-config",
		Short: "write a default scheduler.toml to the given path",
		RunE: func(_ *cobra.Command, args []string) error {
			path := cfgPath
			if path == "" {
				path = "scheduler.toml"
			}
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("%s already exists", path)
			}
			return ltoml.WriteConfig(path, config.NewDefault().TOML())
		},
	}
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "run the scheduler daemon in the foreground",
		RunE:  serve,
	}
}

func serve(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}

	if err := logger.InitLogger(cfg.Logging, "schedulerd.log"); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	log := logger.GetLogger("Main", "Server")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if cfg.Server.DebugAddr != "" {
		mux := http.NewServeMux()
		mux.HandleFunc("/debug/pprof/", pprof.Index)
		if cfg.Server.EnableFgprof {
			mux.Handle("/debug/fgprof", fgprof.Handler())
		}
		debugServer := &http.Server{Addr: cfg.Server.DebugAddr, Handler: mux}
		go func() {
			if err := debugServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error("debug server stopped", logger.Error(err))
			}
		}()
		go func() {
			<-ctx.Done()
			_ = debugServer.Close()
		}()
	}

	daemon, err := newDaemon(cfg)
	if err != nil {
		return err
	}
	defer daemon.Close()

	log.Info("scheduler daemon starting", logger.String("defaultPool", cfg.Server.DefaultPool))
	daemon.Run(ctx)
	log.Info("scheduler daemon stopped")
	return nil
}
