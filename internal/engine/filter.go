package engine

import (
	"strings"

	"watersafe/internal/model"
)

// TaskFilter narrows a task list the way the dashboard's status dropdown and
// search box do. Zero values match everything.
type TaskFilter struct {
	Status model.TaskStatus
	Search string
}

func FilterTasks(tasks []model.ComplianceTask, f TaskFilter) []model.ComplianceTask {
	search := strings.ToLower(strings.TrimSpace(f.Search))
	out := make([]model.ComplianceTask, 0, len(tasks))
	for _, t := range tasks {
		if t.Name == "" {
			continue
		}
		if f.Status != "" && t.Status != f.Status {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(t.Name), search) {
			continue
		}
		out = append(out, t)
	}
	return out
}

func Summarize(pwsid string, tasks []model.ComplianceTask, letters int) model.TaskSummary {
	sum := model.TaskSummary{PWSID: pwsid, Total: len(tasks), Letters: letters}
	for _, t := range tasks {
		switch t.Status {
		case model.StatusOnTrack:
			sum.OnTrack++
		case model.StatusOverdue:
			sum.Overdue++
		case model.StatusUpcoming:
			sum.Upcoming++
		case model.StatusDueSoon:
			sum.DueSoon++
		case model.StatusCompleted:
			sum.Completed++
		}
	}
	return sum
}

// ParseStatus maps a user supplied status filter onto a task status. It
// accepts the display form ("Due Soon") and snake case ("due_soon").
func ParseStatus(s string) (model.TaskStatus, bool) {
	n := strings.ToLower(strings.TrimSpace(s))
	n = strings.NewReplacer("_", " ", "-", " ").Replace(n)
	for _, st := range []model.TaskStatus{
		model.StatusCompleted, model.StatusOverdue, model.StatusDueSoon, model.StatusUpcoming, model.StatusOnTrack,
	} {
		if strings.ToLower(string(st)) == n {
			return st, true
		}
	}
	return "", n == ""
}
