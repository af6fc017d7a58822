package logging

import "context"

type discardLogger struct{}

// Discard returns a Logger that drops everything. Used as the default when
// no logger is injected.
func Discard() Logger { return discardLogger{} }

func (discardLogger) Debug(context.Context, string, ...any) {}
func (discardLogger) Info(context.Context, string, ...any)  {}
func (discardLogger) Warn(context.Context, string, ...any)  {}
func (discardLogger) Error(context.Context, string, ...any) {}
func (d discardLogger) With(...any) Logger                  { return d }
