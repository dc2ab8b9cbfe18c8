// Package status derives the effective lifecycle status of projects, tasks
// and schedules from their stored status and dates.
//
// An explicit terminal stored status always wins. Otherwise the entity is in
// its pre-start tier before the start date, in its active tier from start to
// end inclusive, and Overdue after the end date. A missing end date never
// yields Overdue; a missing start date counts as already started. When both
// dates are missing the stored status is returned as-is.
//
// Derivation is pure: the stored value is never overwritten.
package status

import (
	"fmt"
	"time"

	"github.com/phmhse/csmstrack/internal/apperr"
	"github.com/phmhse/csmstrack/internal/models"
)

// Status is an effective status value.
type Status string

// Effective statuses. Overdue is derived only and never stored.
const (
	Upcoming       Status = models.ProjectUpcoming
	InProgress     Status = models.ProjectInProgress
	TaskInProgress Status = models.TaskInProgress
	Completed      Status = models.ProjectCompleted
	OnHold         Status = models.ProjectOnHold
	Scheduled      Status = models.ScheduleScheduled
	Done           Status = models.ScheduleDone
	Overdue        Status = "Overdue"
)

// Kind selects the status vocabulary of an entity.
type Kind int

const (
	KindProject Kind = iota
	KindTask
	KindSchedule
)

func (k Kind) String() string {
	switch k {
	case KindProject:
		return "project"
	case KindTask:
		return "task"
	case KindSchedule:
		return "schedule"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

type rules struct {
	pre      Status
	active   Status
	terminal []Status
	stored   []Status          // values accepted on write
	aliases  map[string]Status // legacy spellings accepted on read
}

var kindRules = map[Kind]rules{
	KindProject: {
		pre:      Upcoming,
		active:   InProgress,
		terminal: []Status{Completed, OnHold},
		stored:   []Status{Upcoming, InProgress, Completed, OnHold},
		aliases:  map[string]Status{models.ProjectOngoing: InProgress, "In Progress": InProgress},
	},
	KindTask: {
		pre:      Upcoming,
		active:   TaskInProgress,
		terminal: []Status{Completed},
		stored:   []Status{Upcoming, TaskInProgress, Completed},
		aliases:  map[string]Status{"InProgress": TaskInProgress},
	},
	KindSchedule: {
		pre:      Scheduled,
		active:   Scheduled,
		terminal: []Status{Done},
		stored:   []Status{Scheduled, Done},
		aliases:  map[string]Status{"Completed": Done},
	},
}

// normalize maps a stored value onto the kind's vocabulary. Unknown values
// return "".
func (r rules) normalize(stored string) Status {
	for _, s := range r.stored {
		if string(s) == stored {
			return s
		}
	}
	return r.aliases[stored]
}

func (r rules) isTerminal(s Status) bool {
	for _, t := range r.terminal {
		if t == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether s is a terminal status for kind.
func IsTerminal(kind Kind, s Status) bool {
	return kindRules[kind].isTerminal(s)
}

// Derive computes the effective status. start and end are calendar days in
// the reference zone; today is Calendar.Today(now).
func Derive(kind Kind, stored string, start, end *time.Time, today time.Time) Status {
	r := kindRules[kind]
	norm := r.normalize(stored)
	if r.isTerminal(norm) {
		return norm
	}
	if start == nil && end == nil {
		if norm != "" {
			return norm
		}
		return r.pre
	}
	if start != nil && today.Before(*start) {
		return r.pre
	}
	if end != nil && today.After(*end) {
		return Overdue
	}
	return r.active
}

// ValidateStored checks a status value on a write path. Empty is allowed and
// means "use the default"; Overdue is rejected because it is derived only.
func ValidateStored(kind Kind, stored string) error {
	if stored == "" {
		return nil
	}
	if kindRules[kind].normalize(stored) == "" {
		return apperr.Validation("status", "%q is not a valid %s status", stored, kind)
	}
	return nil
}

// Normalize returns the canonical stored value for kind, mapping legacy
// spellings. Unknown or empty input yields the kind's pre-start status.
func Normalize(kind Kind, stored string) Status {
	r := kindRules[kind]
	if n := r.normalize(stored); n != "" {
		return n
	}
	return r.pre
}

// ValidateRange rejects an end date before the start date.
func (c Calendar) ValidateRange(startRaw, endRaw string) error {
	start, err := c.ParseDate(startRaw)
	if err != nil {
		return apperr.Validation("start_date", "cannot parse %q", startRaw)
	}
	end, err := c.ParseDate(endRaw)
	if err != nil {
		return apperr.Validation("end_date", "cannot parse %q", endRaw)
	}
	if start != nil && end != nil && end.Before(*start) {
		return apperr.Validation("end_date", "%s is before start_date %s", endRaw, startRaw)
	}
	return nil
}
