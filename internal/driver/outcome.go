package driver

import (
	"fmt"
	"time"

	"github.com/DoyleJ11/chessmate-smoke/internal/session"
	"github.com/DoyleJ11/chessmate-smoke/internal/transcript"
)

// Outcome is Completed(Result) when the session reached Terminated through a
// game over, and Failed(Reason) otherwise.
type Outcome struct {
	Completed  bool
	Result     string
	Reason     string
	Err        error
	Endpoint   string
	Session    session.Session
	Transcript *transcript.Transcript
	Started    time.Time
	Finished   time.Time
}

func completed(s session.Session) Outcome {
	return Outcome{Completed: true, Result: s.Result, Session: s}
}

func failed(s session.Session, err error) Outcome {
	return Outcome{Reason: err.Error(), Err: err, Session: s}
}

func (o Outcome) String() string {
	if o.Completed {
		return fmt.Sprintf("Completed(%q)", o.Result)
	}
	return fmt.Sprintf("Failed(%s)", o.Reason)
}

func (o Outcome) Duration() time.Duration { return o.Finished.Sub(o.Started) }
