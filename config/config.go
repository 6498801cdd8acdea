// Package config loads the CORE's process-level settings from the
// environment, following the same getenv/mustGetenv pattern torua's node and
// coordinator commands use (cmd/node/main.go, cmd/coordinator/main.go): no
// flags, no config file, just env vars with documented defaults. This
// package configures the two knobs the configuration surface names: the
// listen address a transport layer binds to, and the worker count (plus the
// request channel depth that sizing implies) the dispatcher starts with.
package config

import (
	"os"
	"strconv"
)

// Config holds the settings Open reads to build a Store.
type Config struct {
	// ListenAddr is the address a transport layer listening on top of Store
	// should bind to. The CORE itself never binds a socket; it only carries
	// this value through for whatever process wires a listener to a Store.
	ListenAddr string
	// WorkerCount is the number of worker goroutines dispatching requests
	// against the ShardMap. Must be at least 1.
	WorkerCount int
	// Backlog is the buffer depth of the shared request channel.
	Backlog int
}

const (
	envListenAddr  = "SHARDKV_LISTEN_ADDR"
	envWorkerCount = "SHARDKV_WORKER_COUNT"
	envBacklog     = "SHARDKV_BACKLOG"

	defaultListenAddr  = ":7070"
	defaultWorkerCount = 8
	defaultBacklog     = 256
)

// FromEnv builds a Config from the environment, falling back to defaults for
// any variable that is unset, empty, or (for the integer knobs) not a valid
// integer.
func FromEnv() Config {
	return Config{
		ListenAddr:  getenv(envListenAddr, defaultListenAddr),
		WorkerCount: getenvInt(envWorkerCount, defaultWorkerCount),
		Backlog:     getenvInt(envBacklog, defaultBacklog),
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getenvInt(k string, def int) int {
	v := getenv(k, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
