package log

import (
	"io"
	"os"

	"github.com/rs/zerolog"

	pipelearnerrors "github.com/harukimoto/pipelearn/pkg/errors"
)

// RegisterWarningLogger routes library warnings (see pkg/errors.Warn) to a
// zerolog logger writing to w. Warning types implementing
// zerolog.LogObjectMarshaler are logged with their structured fields.
func RegisterWarningLogger(w io.Writer) {
	if w == nil {
		w = os.Stderr
	}
	logger := zerolog.New(w).With().Timestamp().Logger()

	pipelearnerrors.SetZerologWarnFunc(func(warning error) {
		ev := logger.Warn()
		if m, ok := warning.(zerolog.LogObjectMarshaler); ok {
			ev = ev.EmbedObject(m)
		}
		ev.Msg(warning.Error())
	})
}
