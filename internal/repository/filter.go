package repository

import (
	"strings"

	"github.com/jengzang/sporttracker-backend-go/internal/models"
)

// yearOfStartTime extracts the calendar year (UTC) of workout alias w
const yearOfStartTime = "CAST(strftime('%Y', w.start_time, 'unixepoch') AS INTEGER)"

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?, ", n-1) + "?"
}

// filterConditions builds the WHERE conditions that select the workouts (alias w)
// of a tile filter. ok is false when the filter cannot match any workout.
func filterConditions(filter models.TileFilter) (conditions []string, args []interface{}, ok bool) {
	if len(filter.Types) == 0 || len(filter.Years) == 0 {
		return nil, nil, false
	}

	conditions = append(conditions, "w.type IN ("+placeholders(len(filter.Types))+")")
	for _, t := range filter.Types {
		args = append(args, string(t))
	}

	conditions = append(conditions, yearOfStartTime+" IN ("+placeholders(len(filter.Years))+")")
	for _, y := range filter.Years {
		args = append(args, y)
	}

	return conditions, args, true
}

// boundsConditions restricts a tile table alias to an inclusive bounding box
func boundsConditions(alias string, b models.TileBounds) ([]string, []interface{}) {
	conditions := []string{alias + ".x >= ?", alias + ".x <= ?", alias + ".y >= ?", alias + ".y <= ?"}
	return conditions, []interface{}{b.MinX, b.MaxX, b.MinY, b.MaxY}
}
