/*
 * Copyright 2022 The FlowSQL Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Command flowsqld runs one flowsql node: the worker runtime behind the RPC
// server, plus the view maintainer and snapshot clock backing it.
package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/flowsql/flowsql/compute"
	"github.com/flowsql/flowsql/conf"
	"github.com/flowsql/flowsql/proto"
	"github.com/flowsql/flowsql/rpc"
	"github.com/flowsql/flowsql/snapshot"
	"github.com/flowsql/flowsql/storage"
	"github.com/flowsql/flowsql/utils/log"
	"github.com/flowsql/flowsql/view"
	"github.com/flowsql/flowsql/worker"
)

var configFile string

func init() {
	flag.StringVar(&configFile, "config", "./config.yaml", "config file path")
}

func main() {
	flag.Parse()

	cfg, err := conf.LoadConfig(configFile)
	if err != nil {
		log.WithField("config", configFile).WithError(err).Fatal("load config failed")
	}
	log.SetStringLevel(cfg.LogLevel, log.InfoLevel)

	store := storage.NewStore()
	snap := snapshot.NewManager()
	// epoch 0 is the empty initial state
	snap.Commit(0)

	maintainer, err := view.NewMaintainer(store, snap)
	if err != nil {
		log.WithError(err).Fatal("init view maintainer failed")
	}
	maintainer.Start()
	defer maintainer.Stop()

	clients := compute.NewClientManager(cfg.FetchBuffer)
	defer clients.Close()

	node := proto.Node{ID: cfg.NodeID, Addr: cfg.ListenAddr}
	runtime := worker.NewRuntime(node, store, maintainer, clients, cfg.ChunkSize)

	server, err := rpc.NewServerWithService(rpc.ServiceMap{
		worker.ServiceName: worker.NewService(runtime),
	})
	if err != nil {
		log.WithError(err).Fatal("register rpc service failed")
	}
	if err = server.InitRPCServer(cfg.ListenAddr); err != nil {
		log.WithField("addr", cfg.ListenAddr).WithError(err).Fatal("bind rpc server failed")
	}

	go server.Serve()
	log.WithFields(log.Fields{
		"node": cfg.NodeID,
		"addr": cfg.ListenAddr,
	}).Info("node started")

	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-signalCh
	log.WithField("signal", sig.String()).Info("shutting down")

	server.Stop()
}
