// Package logger builds the zap logger used by every service binary.
package logger

import "go.uber.org/zap"

// New returns a sugared logger. Development mode enables human-readable
// console output, anything else uses the production JSON encoder.
func New(env string) (*zap.SugaredLogger, error) {
	var (
		l   *zap.Logger
		err error
	)
	if env == "development" {
		l, err = zap.NewDevelopment()
	} else {
		l, err = zap.NewProduction()
	}
	if err != nil {
		return nil, err
	}
	return l.Sugar(), nil
}
