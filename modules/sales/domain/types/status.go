package types

import "strings"

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusCompleted Status = "COMPLETED"
	StatusCancelled Status = "CANCELLED"
)

func ParseStatus(raw string) (Status, bool) {
	switch s := Status(strings.ToUpper(strings.TrimSpace(raw))); s {
	case StatusPending, StatusCompleted, StatusCancelled:
		return s, true
	default:
		return "", false
	}
}

func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// TransitionTo validates s -> target. Terminal states reject every target,
// and PENDING is never a valid target.
func (s Status) TransitionTo(target Status) error {
	switch s {
	case StatusCancelled:
		return ErrAlreadyCancelled()
	case StatusCompleted:
		return ErrAlreadyCompleted()
	}
	switch target {
	case StatusCompleted, StatusCancelled:
		return nil
	default:
		return ErrInvalidStatusTarget(string(target))
	}
}

// RestoresStock reports whether entering s gives item quantities back.
func (s Status) RestoresStock() bool {
	return s == StatusCancelled
}

func (s Status) EventType() string {
	switch s {
	case StatusCompleted:
		return EventOrderCompleted
	case StatusCancelled:
		return EventOrderCancelled
	default:
		return EventOrderCreated
	}
}
