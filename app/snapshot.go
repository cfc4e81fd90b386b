package app

import (
	"railos/kernel"

	"golang.org/x/exp/slices"
)

// SortTasks orders a task listing the way the scheduler sees it: highest
// priority first, then by tid.
func SortTasks(tasks []kernel.TaskInfo) {
	slices.SortFunc(tasks, func(a, b kernel.TaskInfo) int {
		if a.Priority != b.Priority {
			return b.Priority - a.Priority
		}
		return int(a.TID) - int(b.TID)
	})
}
