package logging

import "github.com/arloliu/ferry/types"

// NopLogger discards all log output.
type NopLogger struct{}

var _ types.Logger = (*NopLogger)(nil)

// NewNop creates a logger that discards everything. Used as the default when
// the caller supplies no logger.
func NewNop() *NopLogger {
	return &NopLogger{}
}

// Debug discards the message.
func (*NopLogger) Debug(_ string, _ ...any) {}

// Info discards the message.
func (*NopLogger) Info(_ string, _ ...any) {}

// Warn discards the message.
func (*NopLogger) Warn(_ string, _ ...any) {}

// Error discards the message.
func (*NopLogger) Error(_ string, _ ...any) {}

// Fatal discards the message and does not exit; a no-op logger must not
// terminate the host process.
func (*NopLogger) Fatal(_ string, _ ...any) {}
