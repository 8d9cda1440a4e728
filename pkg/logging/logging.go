// Package logging backs logiface loggers with zerolog.
package logging

import (
	"io"

	"github.com/joeycumines/logiface"
	"github.com/rs/zerolog"
)

type (
	Event struct {
		logiface.UnimplementedEvent
		Z   *zerolog.Event
		lvl logiface.Level
		msg string
	}

	Logger struct {
		Z zerolog.Logger
	}
)

var (
	// compile time assertions

	_ logiface.Event                 = (*Event)(nil)
	_ logiface.EventFactory[*Event]  = (*Logger)(nil)
	_ logiface.Writer[*Event]        = (*Logger)(nil)
	_ logiface.EventReleaser[*Event] = (*Logger)(nil)
)

// New
// a logger writing JSON lines to w, dropping events above level.
func New(w io.Writer, level logiface.Level) *logiface.Logger[logiface.Event] {
	return Wrap(zerolog.New(w).Level(zerolog.TraceLevel).With().Timestamp().Logger(), level)
}

// Wrap
// a logger writing through z.
func Wrap(z zerolog.Logger, level logiface.Level) *logiface.Logger[logiface.Event] {
	l := &Logger{Z: z}
	return logiface.New[*Event](
		logiface.WithEventFactory[*Event](l),
		logiface.WithWriter[*Event](l),
		logiface.WithEventReleaser[*Event](l),
		logiface.WithLevel[*Event](level),
	).Logger()
}

// ParseLevel
// maps a level name such as "debug" or "warning" to its logiface level.
func ParseLevel(name string) (logiface.Level, bool) {
	for level := logiface.LevelEmergency; level <= logiface.LevelTrace; level++ {
		if level.String() == name {
			return level, true
		}
	}
	switch name {
	case "disabled", "off":
		return logiface.LevelDisabled, true
	case "warn":
		return logiface.LevelWarning, true
	case "error":
		return logiface.LevelError, true
	}
	return logiface.LevelDisabled, false
}

func (x *Event) Level() logiface.Level {
	if x != nil {
		return x.lvl
	}
	return logiface.LevelDisabled
}

func (x *Event) AddField(key string, val any) {
	x.Z.Interface(key, val)
}

func (x *Event) AddMessage(msg string) bool {
	x.msg = msg
	return true
}

func (x *Event) AddError(err error) bool {
	x.Z.Err(err)
	return true
}

func (x *Event) AddString(key string, val string) bool {
	x.Z.Str(key, val)
	return true
}

func (x *Event) AddInt(key string, val int) bool {
	x.Z.Int(key, val)
	return true
}

func (x *Event) AddInt64(key string, val int64) bool {
	x.Z.Int64(key, val)
	return true
}

func (x *Event) AddUint64(key string, val uint64) bool {
	x.Z.Uint64(key, val)
	return true
}

func (x *Event) AddBool(key string, val bool) bool {
	x.Z.Bool(key, val)
	return true
}

func (x *Logger) NewEvent(level logiface.Level) *Event {
	if !level.Enabled() {
		return nil
	}
	r := Event{
		lvl: level,
	}
	switch level {
	case logiface.LevelTrace:
		r.Z = x.Z.Trace()
	case logiface.LevelDebug:
		r.Z = x.Z.Debug()
	case logiface.LevelInformational:
		r.Z = x.Z.Info()
	case logiface.LevelNotice, logiface.LevelWarning:
		r.Z = x.Z.Warn()
	case logiface.LevelError, logiface.LevelCritical, logiface.LevelAlert:
		// zerolog's fatal level exits the process
		r.Z = x.Z.Error()
	case logiface.LevelEmergency:
		r.Z = x.Z.WithLevel(zerolog.PanicLevel)
	default:
		r.Z = x.Z.WithLevel(zerolog.Level(7 - level))
	}
	if r.Z == nil {
		return nil
	}
	return &r
}

func (x *Logger) Write(event *Event) error {
	event.Z.Msg(event.msg)
	return nil
}

func (x *Logger) ReleaseEvent(event *Event) {
	if event != nil {
		event.Z = nil
		event.msg = ""
	}
}
