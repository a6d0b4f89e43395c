package session

import "log"

// Kind identifies an advisory cue raised by the machine. The surrounding
// interface decides how to present it (sound, overlay text, console).
type Kind int

const (
	KindAuth Kind = iota
	KindAttend
	KindActiveSession
	KindWarn
	KindFlush
)

func (k Kind) String() string {
	switch k {
	case KindAuth:
		return "auth"
	case KindAttend:
		return "attend"
	case KindActiveSession:
		return "active-session"
	case KindWarn:
		return "warn"
	case KindFlush:
		return "flush"
	}
	return "unknown"
}

// Feedback presents advisory cues. Implementations must not block the
// polling loop.
type Feedback interface {
	Play(kind Kind, detail string)
}

// LogFeedback writes cues to the process log with a terminal bell.
type LogFeedback struct{}

func (LogFeedback) Play(kind Kind, detail string) {
	if detail != "" {
		log.Printf("\a[%s] %s", kind, detail)
		return
	}
	log.Printf("\a[%s]", kind)
}
