package task

import (
	"fmt"
	"strconv"
)

// LinkType says which ends of two tasks a dependency ties together.
type LinkType int

const (
	FinishToStart LinkType = iota
	StartToStart
	FinishToFinish
	StartToFinish
)

var linkTypeNames = []string{"finish_to_start", "start_to_start", "finish_to_finish", "start_to_finish"}

func (t LinkType) String() string {
	if t < 0 || int(t) >= len(linkTypeNames) {
		return fmt.Sprintf("LinkType(%d)", int(t))
	}
	return linkTypeNames[t]
}

// FromEnd reports whether the link leaves the source at its due date.
func (t LinkType) FromEnd() bool { return t == FinishToStart || t == FinishToFinish }

// ToStart reports whether the link enters the target at its start date.
func (t LinkType) ToStart() bool { return t == FinishToStart || t == StartToStart }

func (t LinkType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText accepts the names above or the numeric codes "0".."3"
// used by web Gantt widgets.
func (t *LinkType) UnmarshalText(b []byte) error {
	v, err := ParseLinkType(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

func ParseLinkType(s string) (LinkType, error) {
	if s == "" {
		return FinishToStart, nil
	}
	for i, n := range linkTypeNames {
		if s == n {
			return LinkType(i), nil
		}
	}
	if n, err := strconv.Atoi(s); err == nil && n >= 0 && n < len(linkTypeNames) {
		return LinkType(n), nil
	}
	return FinishToStart, fmt.Errorf("unknown link type %q", s)
}

// Link is a dependency between two tasks: Target waits on Source.
type Link struct {
	ID     int64    `json:"id"`
	Source int64    `json:"source"`
	Target int64    `json:"target"`
	Type   LinkType `json:"type"`
}
