package utils

import "go.uber.org/zap"

// NewLogger returns the process logger. Debug mode uses the development
// config (human-readable console output, debug level) so resolved candidates
// and watch events show up while iterating; otherwise the production config
// (JSON, info level).
func NewLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
