package logger

import (
	"fmt"

	"go.uber.org/zap"
)

// EventCode identifies the outcome a log line reports
type EventCode int

const (
	EventOk           EventCode = 200
	EventCreated      EventCode = 201
	EventUnauthorized EventCode = 401
	EventForbiden     EventCode = 403
	EventNotFound     EventCode = 404
)

func (e EventCode) String() string {
	return fmt.Sprintf("%d %s", int(e), e.name())
}

func (e EventCode) name() string {
	switch e {
	case EventOk:
		return "Ok"
	case EventCreated:
		return "Created"
	case EventUnauthorized:
		return "Unauthorized"
	case EventForbiden:
		return "Forbiden"
	case EventNotFound:
		return "NotFound"
	default:
		return "Unknown"
	}
}

// Event returns the field tagging a log line with its event code
func Event(e EventCode) zap.Field {
	return zap.Stringer("event_code", e)
}
