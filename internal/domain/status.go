package domain

type ProjectStatus string

const (
	StatusPending    ProjectStatus = "pending"
	StatusApproved   ProjectStatus = "approved"
	StatusDeclined   ProjectStatus = "declined"
	StatusInProgress ProjectStatus = "in_progress"
	StatusCompleted  ProjectStatus = "completed"
	StatusCancelled  ProjectStatus = "cancelled"
)

// transitions is the booking lifecycle. declined, completed and cancelled have no exits.
var transitions = map[ProjectStatus][]ProjectStatus{
	StatusPending:    {StatusApproved, StatusDeclined},
	StatusApproved:   {StatusInProgress, StatusCancelled},
	StatusInProgress: {StatusCompleted, StatusCancelled},
}

// CanTransition reports whether a project may move from one status to another.
func CanTransition(from, to ProjectStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no transition leaves s.
func (s ProjectStatus) IsTerminal() bool {
	return len(transitions[s]) == 0
}

// CapacityExcludedStatuses are the statuses that free a booking month slot.
var CapacityExcludedStatuses = []ProjectStatus{StatusCancelled}
