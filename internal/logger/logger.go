// Package logger builds the zap logger used by the gateway server.
package logger

import "go.uber.org/zap"

// New returns a production logger in "prod", a development logger
// otherwise.
func New(env string) *zap.SugaredLogger {
	var z *zap.Logger
	if env == "prod" {
		z, _ = zap.NewProduction()
	} else {
		z, _ = zap.NewDevelopment()
	}
	return z.Sugar()
}
