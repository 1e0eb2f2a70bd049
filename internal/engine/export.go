package engine

import (
	"io"
	"strconv"
	"strings"

	"watersafe/internal/model"
)

var csvHeader = []string{"Name", "Due", "Locations", "Days Left", "Status"}

// TasksCSV renders tasks as comma separated rows under a fixed header.
// Fields are joined verbatim; a comma inside a task name shifts the columns
// of that row.
func TasksCSV(tasks []model.ComplianceTask) string {
	rows := make([]string, 0, len(tasks)+1)
	rows = append(rows, strings.Join(csvHeader, ","))
	for _, t := range tasks {
		rows = append(rows, strings.Join([]string{
			t.Name,
			t.Due,
			t.Locations,
			strconv.Itoa(t.DaysLeft),
			string(t.Status),
		}, ","))
	}
	return strings.Join(rows, "\n")
}

func WriteCSV(w io.Writer, tasks []model.ComplianceTask) error {
	_, err := io.WriteString(w, TasksCSV(tasks))
	return err
}
