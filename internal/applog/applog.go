// Package applog builds the zap logger used by the CLI.
package applog

import "go.uber.org/zap"

// New builds a development logger when verbose is set, otherwise a
// production logger. Falls back to a no-op logger if construction fails
// rather than aborting startup over a logging problem.
func New(verbose bool) *zap.Logger {
	var logger *zap.Logger
	var err error
	if verbose {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return zap.NewNop()
	}
	return logger
}
