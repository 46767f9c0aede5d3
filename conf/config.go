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

// Package conf holds the YAML-loaded node configuration.
package conf

import (
	"io/ioutil"
	"time"

	"github.com/pkg/errors"
	yaml "gopkg.in/yaml.v2"

	"github.com/flowsql/flowsql/proto"
)

// Config holds the settings of one frontend/compute node.
type Config struct {
	// ListenAddr is the RPC listen address of the local node.
	ListenAddr string `yaml:"ListenAddr"`
	// NodeID is the identity the local node registers under.
	NodeID proto.NodeID `yaml:"NodeID"`
	// Workers lists the compute nodes available for task placement.
	Workers []proto.Node `yaml:"Workers"`
	// ScheduleTimeout bounds plan scheduling and task dispatch.
	ScheduleTimeout time.Duration `yaml:"ScheduleTimeout"`
	// PlacementPolicy selects the worker placement strategy by name,
	// "scan_spread" (default) or "round_robin".
	PlacementPolicy string `yaml:"PlacementPolicy"`
	// FetchBuffer is the chunk count buffered by the compute client
	// transport before backpressure applies.
	FetchBuffer int `yaml:"FetchBuffer"`
	// ChunkSize is the max row count per output chunk on the worker side.
	ChunkSize int `yaml:"ChunkSize"`
	// LogLevel names the logging verbosity.
	LogLevel string `yaml:"LogLevel"`
}

const (
	// DefaultScheduleTimeout is applied when ScheduleTimeout is unset.
	DefaultScheduleTimeout = 10 * time.Second
	// DefaultFetchBuffer is applied when FetchBuffer is unset.
	DefaultFetchBuffer = 16
	// DefaultChunkSize is applied when ChunkSize is unset.
	DefaultChunkSize = 1024
)

// GConf is the global config pointer, set by LoadConfig.
var GConf *Config

// LoadConfig loads config from the supplied YAML file and fills defaults.
func LoadConfig(configPath string) (config *Config, err error) {
	configBytes, err := ioutil.ReadFile(configPath)
	if err != nil {
		err = errors.Wrap(err, "read config file failed")
		return
	}

	config = &Config{}
	if err = yaml.Unmarshal(configBytes, config); err != nil {
		config = nil
		err = errors.Wrap(err, "unmarshal config file failed")
		return
	}

	if config.ScheduleTimeout <= 0 {
		config.ScheduleTimeout = DefaultScheduleTimeout
	}
	if config.FetchBuffer <= 0 {
		config.FetchBuffer = DefaultFetchBuffer
	}
	if config.ChunkSize <= 0 {
		config.ChunkSize = DefaultChunkSize
	}

	GConf = config
	return
}
