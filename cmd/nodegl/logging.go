package main

import (
	"os"

	"github.com/op/go-logging"
	"github.com/urfave/cli"

	"github.com/phanxgames/nodegl"
)

var logger = logging.MustGetLogger("nodegl-cli")

var logFormat = logging.MustStringFormatter(
	`%{color}[%{time:15:04:05.000}] [%{module}] [%{level}]%{color:reset} %{message}`,
)

func init() {
	backend := logging.NewBackendFormatter(logging.NewLogBackend(os.Stderr, "", 0), logFormat)
	leveled := logging.AddModuleLevel(backend)
	leveled.SetLevel(logging.NOTICE, "")
	logging.SetBackend(leveled)
}

// setupLogging applies the verbosity flags and returns the matching level
// for scene contexts.
func setupLogging(ctx *cli.Context) nodegl.LogLevel {
	level := nodegl.LogWarning
	logLevel := logging.NOTICE
	if ctx.GlobalBool("v") {
		level, logLevel = nodegl.LogInfo, logging.INFO
	}
	if ctx.GlobalBool("vv") {
		level, logLevel = nodegl.LogDebug, logging.DEBUG
	}
	logging.SetLevel(logLevel, "")
	return level
}

// newContext creates a context logging through the CLI logger.
func newContext(level nodegl.LogLevel, debug bool) *nodegl.Context {
	cfg := nodegl.DefaultConfig()
	cfg.LogLevel = level
	cfg.Debug = debug
	cfg.LogWriter = os.Stderr
	return nodegl.NewContext(&cfg)
}
