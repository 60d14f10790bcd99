package ctxlog

import (
	"github.com/rs/zerolog"
)

func Op(logger zerolog.Logger, op string) zerolog.Logger {
	return logger.With().Str("op", op).Logger()
}

func Component(logger zerolog.Logger, name string) zerolog.Logger {
	return logger.With().Str("component", name).Logger()
}

// Seq tags a logger with a history sequence number.
func Seq(logger zerolog.Logger, seq uint64) zerolog.Logger {
	return logger.With().Uint64("seq", seq).Logger()
}
