package transcript

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/DoyleJ11/chessmate-smoke/internal/session"
	"github.com/DoyleJ11/chessmate-smoke/internal/wire"
)

type Kind string

const (
	KindConnect    Kind = "connect"
	KindTransition Kind = Kind(session.StepTransition)
	KindSent       Kind = Kind(session.StepSent)
	KindReceived   Kind = Kind(session.StepReceived)
	KindRecorded   Kind = Kind(session.StepRecorded)
	KindIgnored    Kind = Kind(session.StepIgnored)
	KindError      Kind = Kind(session.StepFailed)
	KindOutcome    Kind = "outcome"
)

type Entry struct {
	Seq   int
	At    time.Time
	Kind  Kind
	State string // session state label when the entry was made
	From  string // set for transitions
	To    string // set for transitions
	Text  string
}

func (e Entry) String() string {
	switch e.Kind {
	case KindTransition:
		return fmt.Sprintf("%s -> %s %s", e.From, e.To, e.Text)
	case KindSent:
		return fmt.Sprintf("[%s] -> %s", e.State, e.Text)
	case KindReceived:
		return fmt.Sprintf("[%s] <- %s", e.State, e.Text)
	case KindError:
		return fmt.Sprintf("[%s] error: %s", e.State, e.Text)
	default:
		return fmt.Sprintf("[%s] %s: %s", e.State, e.Kind, e.Text)
	}
}

// Transcript is the ordered log of one run. It is safe for concurrent use,
// though a single run only ever writes from one goroutine.
type Transcript struct {
	mu      sync.Mutex
	player  string
	now     func() time.Time
	entries []Entry
}

func New(playerID string) *Transcript {
	return &Transcript{player: playerID, now: time.Now}
}

func (t *Transcript) Player() string { return t.player }

func (t *Transcript) add(e Entry) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e.Seq = len(t.entries) + 1
	e.At = t.now()
	t.entries = append(t.entries, e)
}

// Note records an entry that does not come from the session itself.
func (t *Transcript) Note(kind Kind, state, text string) {
	t.add(Entry{Kind: kind, State: state, Text: text})
}

// Observe is a session observer.
func (t *Transcript) Observe(step session.Step) {
	e := Entry{Kind: Kind(step.Kind), State: step.From.Label()}
	switch step.Kind {
	case session.StepTransition:
		e.From = step.From.Label()
		e.To = step.To.Label()
		e.State = e.To
		e.Text = "(" + describeEvent(step.Event) + ")"
	case session.StepRecorded:
		if om, ok := step.Msg.(wire.OpponentMove); ok {
			e.Text = fmt.Sprintf("opponent move (%d,%d)", om.X, om.Y)
		}
	case session.StepFailed:
		e.Text = step.Err.Error()
	default:
		e.Text = describe(step.Msg)
	}
	t.add(e)
}

func (t *Transcript) Entries() []Entry {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Transitions lists "From->To" for every transition entry, in order.
func (t *Transcript) Transitions() []string {
	var out []string
	for _, e := range t.Entries() {
		if e.Kind == KindTransition {
			out = append(out, e.From+"->"+e.To)
		}
	}
	return out
}

func (t *Transcript) String() string {
	var b strings.Builder
	_, _ = t.WriteTo(&b)
	return b.String()
}

// WriteTo prints one line per entry, prefixed with the player id.
func (t *Transcript) WriteTo(w io.Writer) (int64, error) {
	var total int64
	for _, e := range t.Entries() {
		n, err := fmt.Fprintf(w, "[%s] %02d %s\n", t.player, e.Seq, e)
		total += int64(n)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func describe(m wire.Message) string {
	if m == nil {
		return "<nil>"
	}
	if s, ok := m.(fmt.Stringer); ok {
		return s.String()
	}
	return string(m.Kind())
}

func describeEvent(ev session.Event) string {
	switch e := ev.(type) {
	case session.Opened:
		return "connected"
	case session.Received:
		return describe(e.Msg)
	case session.Lost:
		if e.Err == nil {
			return "disconnected"
		}
		return "disconnected: " + e.Err.Error()
	default:
		return fmt.Sprintf("%T", ev)
	}
}
