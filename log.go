package main

import (
	"fmt"
	"os"

	"github.com/btcsuite/btclog"
	"github.com/btcutils/txbuilder/txauthor"
)

// Loggers per subsystem.  A single backend logger is created and all
// subsystem loggers created from it write to stderr.
var (
	backendLog = btclog.NewBackend(os.Stderr)

	log       = backendLog.Logger("SGTX")
	txauthLog = backendLog.Logger("TXAU")
)

// Initialize package-global logger variables.
func init() {
	txauthor.UseLogger(txauthLog)
}

// subsystemLoggers maps each subsystem identifier to its associated logger.
var subsystemLoggers = map[string]btclog.Logger{
	"SGTX": log,
	"TXAU": txauthLog,
}

// setLogLevels sets the logging level of every subsystem.
func setLogLevels(logLevel string) error {
	level, ok := btclog.LevelFromString(logLevel)
	if !ok {
		return fmt.Errorf("the specified debug level [%v] is invalid",
			logLevel)
	}
	for _, logger := range subsystemLoggers {
		logger.SetLevel(level)
	}
	return nil
}
