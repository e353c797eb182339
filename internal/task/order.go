package task

import "slices"

// Compare orders tasks for display:
//  1. incomplete before completed
//  2. higher priority rank first
//  3. tasks with a due date before tasks without; earlier due date first
//  4. when neither has a due date, most recently created first
//
// Anything else compares equal; Sort keeps such ties in collection order.
func Compare(a, b Task) int {
	if a.Completed != b.Completed {
		if a.Completed {
			return 1
		}
		return -1
	}

	if ra, rb := a.Priority.Rank(), b.Priority.Rank(); ra != rb {
		if ra > rb {
			return -1
		}
		return 1
	}

	switch {
	case a.DueDate != nil && b.DueDate != nil:
		return a.DueDate.Compare(*b.DueDate)
	case a.DueDate != nil:
		return -1
	case b.DueDate != nil:
		return 1
	}

	return b.CreatedAt.Compare(a.CreatedAt)
}

// Sort sorts tasks in place into display order. The sort is stable.
func Sort(tasks []Task) {
	slices.SortStableFunc(tasks, Compare)
}
