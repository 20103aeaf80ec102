// Package logger provides a configured zerolog logger.
package logger

import (
	"io"
	"os"

	pkgerrors "github.com/pkg/errors"
	"github.com/rs/zerolog"
	zpkgerrors "github.com/rs/zerolog/pkgerrors"
)

type stackTracer interface{ StackTrace() pkgerrors.StackTrace }

// New returns a JSON logger on stdout tagged with serviceName.
// An unparsable level falls back to info.
// Call sites should use .Stack() on error events to include stacks.
func New(serviceName, level string) zerolog.Logger {
	return NewWithWriter(os.Stdout, serviceName, level)
}

// NewWithWriter is New with an explicit sink.
func NewWithWriter(w io.Writer, serviceName, level string) zerolog.Logger {
	zerolog.ErrorStackMarshaler = func(err error) interface{} {
		if _, ok := err.(stackTracer); !ok {
			err = pkgerrors.WithStack(err)
		}
		return zpkgerrors.MarshalStack(err)
	}
	zerolog.ErrorMarshalFunc = func(err error) interface{} {
		if _, ok := err.(stackTracer); ok {
			return err
		}
		return pkgerrors.WithStack(err)
	}

	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}

	return zerolog.New(w).Level(lvl).With().
		Str("service", serviceName).
		Timestamp().
		Logger()
}
