package task

import (
	"sort"
	"strings"
	"time"

	"github.com/trezcool/mwalimu/core"
)

var priorityRanks = map[string]int{
	PriorityLow:    0,
	PriorityMedium: 1,
	PriorityHigh:   2,
}

// PriorityRank orders priorities from low to high.
func PriorityRank(priority string) int {
	return priorityRanks[priority]
}

func compareTimes(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil: // nulls last
		return 1
	case b == nil:
		return -1
	case a.Before(*b):
		return -1
	case a.After(*b):
		return 1
	}
	return 0
}

func compareField(a, b Task, field string) int {
	switch field {
	case "created_at":
		return compareTimes(&a.CreatedAt, &b.CreatedAt)
	case "updated_at":
		return compareTimes(&a.UpdatedAt, &b.UpdatedAt)
	case "due_date":
		return compareTimes(a.DueDate, b.DueDate)
	case "priority":
		return PriorityRank(a.Priority) - PriorityRank(b.Priority)
	case "title":
		return strings.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
	case "status":
		return strings.Compare(a.Status, b.Status)
	}
	return 0
}

// Sort orders tasks in memory the way the SQL store does: by ordering, newest first when empty.
// Priority is ranked (low < medium < high) and missing due dates come last.
func Sort(tasks []Task, ordering []core.DBOrdering) {
	if len(ordering) == 0 {
		ordering = []core.DBOrdering{{Field: "created_at"}}
	}
	sort.SliceStable(tasks, func(i, j int) bool {
		for _, ord := range ordering {
			c := compareField(tasks[i], tasks[j], ord.Field)
			if c == 0 {
				continue
			}
			if ord.Ascending {
				return c < 0
			}
			return c > 0
		}
		return tasks[i].ID < tasks[j].ID
	})
}
