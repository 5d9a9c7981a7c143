package middleware

import "github.com/google/wire"

var ProviderSet = wire.NewSet(
	NewTraceEntry,
	NewRecorder,
	NewLogger,
	NewCors,
	NewRecovery,
)
