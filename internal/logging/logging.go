// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package logging provides the structured logger collaborator every
// component in this module accepts at construction, the way
// vms/secp256k1fx.VM exposes a Logger() to fx implementations.
package logging

import (
	"go.uber.org/zap"
)

// Logger is the structured logging surface components depend on.
type Logger interface {
	Debug(msg string, fields ...zap.Field)
	Info(msg string, fields ...zap.Field)
	Warn(msg string, fields ...zap.Field)
	Error(msg string, fields ...zap.Field)
}

// NoLog discards everything. Useful as a zero-value default so callers
// that don't care about logs don't need to wire one up.
type NoLog struct{}

func (NoLog) Debug(string, ...zap.Field) {}
func (NoLog) Info(string, ...zap.Field)  {}
func (NoLog) Warn(string, ...zap.Field)  {}
func (NoLog) Error(string, ...zap.Field) {}

var _ Logger = (*zapLogger)(nil)

type zapLogger struct {
	log *zap.Logger
}

// NewZap wraps a *zap.Logger as a Logger.
func NewZap(log *zap.Logger) Logger {
	return &zapLogger{log: log}
}

// NewProduction builds a Logger backed by zap's production configuration.
func NewProduction() (Logger, error) {
	log, err := zap.NewProduction()
	if err != nil {
		return nil, err
	}
	return NewZap(log), nil
}

func (l *zapLogger) Debug(msg string, fields ...zap.Field) { l.log.Debug(msg, fields...) }
func (l *zapLogger) Info(msg string, fields ...zap.Field)  { l.log.Info(msg, fields...) }
func (l *zapLogger) Warn(msg string, fields ...zap.Field)  { l.log.Warn(msg, fields...) }
func (l *zapLogger) Error(msg string, fields ...zap.Field) { l.log.Error(msg, fields...) }
