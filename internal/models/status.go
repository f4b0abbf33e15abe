package models

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Status is the lifecycle state of a complaint.
type Status string

// Complaint states as they appear on the wire.
const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusResolved   Status = "resolved"
	StatusClosed     Status = "closed"
)

// AllStatuses lists every state in lifecycle order.
var AllStatuses = []Status{StatusPending, StatusInProgress, StatusResolved, StatusClosed}

// title builds a fresh Caser per call; a Caser keeps state and is not safe
// for concurrent use.
func title(s string) string {
	return cases.Title(language.English).String(s)
}

// ParseStatus accepts the wire value as well as the dashed and spaced
// spellings used by section slugs ("in-progress", "In Progress").
func ParseStatus(s string) (Status, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.NewReplacer("-", "_", " ", "_").Replace(norm)
	st := Status(norm)
	if !st.Valid() {
		return "", fmt.Errorf("unknown complaint status %q", s)
	}
	return st, nil
}

// Valid reports whether s is one of the known states.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusResolved, StatusClosed:
		return true
	}
	return false
}

// IsTerminal reports whether no admin action can move the complaint further.
func (s Status) IsTerminal() bool {
	return len(AvailableActions(s)) == 0
}

// Label returns the human readable form, e.g. "In Progress".
func (s Status) Label() string {
	return title(strings.ReplaceAll(string(s), "_", " "))
}

func (s Status) String() string { return string(s) }

// Action is an admin-triggered, one-way status change.
type Action string

// Admin actions offered by the dashboards.
const (
	ActionStartProgress Action = "start_progress"
	ActionMarkResolved  Action = "mark_resolved"
)

type transition struct {
	from   Status
	to     Status
	action Action
	label  string
}

// transitions is the complete table of client-side transitions. closed is
// only reachable through backend-side action and never appears here.
var transitions = []transition{
	{from: StatusPending, to: StatusInProgress, action: ActionStartProgress, label: "Start Progress"},
	{from: StatusInProgress, to: StatusResolved, action: ActionMarkResolved, label: "Mark Resolved"},
}

// AvailableActions returns the actions offered for a complaint in state s.
func AvailableActions(s Status) []Action {
	var out []Action
	for _, t := range transitions {
		if t.from == s {
			out = append(out, t.action)
		}
	}
	return out
}

// CanTransition reports whether the table contains from -> to.
func CanTransition(from, to Status) bool {
	for _, t := range transitions {
		if t.from == from && t.to == to {
			return true
		}
	}
	return false
}

// Allows reports whether a is offered for a complaint in state s.
func (a Action) Allows(s Status) bool {
	for _, t := range transitions {
		if t.action == a && t.from == s {
			return true
		}
	}
	return false
}

// Target returns the status the action moves a complaint into.
func (a Action) Target() Status {
	for _, t := range transitions {
		if t.action == a {
			return t.to
		}
	}
	return ""
}

// Label returns the button caption for the action.
func (a Action) Label() string {
	for _, t := range transitions {
		if t.action == a {
			return t.label
		}
	}
	return string(a)
}

// ParseAction resolves an action by its identifier or its short CLI alias.
func ParseAction(s string) (Action, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(ActionStartProgress), "start", "start-progress":
		return ActionStartProgress, nil
	case string(ActionMarkResolved), "resolve", "mark-resolved":
		return ActionMarkResolved, nil
	}
	return "", fmt.Errorf("unknown action %q", s)
}

// Priority is the urgency assigned at creation or by classification.
type Priority string

// Priorities, most urgent first.
const (
	PriorityUrgent Priority = "urgent"
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// ParsePriority normalizes a priority value.
func ParsePriority(s string) (Priority, error) {
	p := Priority(strings.ToLower(strings.TrimSpace(s)))
	if p.Rank() < 0 {
		return "", fmt.Errorf("unknown priority %q", s)
	}
	return p, nil
}

// Rank orders priorities; urgent is 0. Unknown values return -1.
func (p Priority) Rank() int {
	switch p {
	case PriorityUrgent:
		return 0
	case PriorityHigh:
		return 1
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 3
	}
	return -1
}

// Label returns the capitalized priority.
func (p Priority) Label() string {
	return title(string(p))
}
