// Package progress is the single source of truth for onboarding progress
// arithmetic. Handlers, the dashboard payloads, and the rollover worker all
// call into it instead of recomputing completion inline.
package progress

import (
	"time"

	"github.com/rjirving6-commits/rampright/internal/model"
)

// WeekStats summarises task completion within one week of a plan.
type WeekStats struct {
	Total      int `json:"total"`
	Completed  int `json:"completed"`
	Percentage int `json:"percentage"`
}

// Progress is the computed completion state of a plan.
type Progress struct {
	TotalTasks     int               `json:"totalTasks"`
	CompletedTasks int               `json:"completedTasks"`
	Percentage     int               `json:"percentage"`
	ByWeek         map[int]WeekStats `json:"byWeek"`
}

// Compute derives overall and per-week completion from a plan's tasks.
// Percentages are rounded to the nearest integer; an empty task list is 0%.
func Compute(tasks []model.Task) Progress {
	p := Progress{ByWeek: make(map[int]WeekStats)}
	for _, t := range tasks {
		p.TotalTasks++
		ws := p.ByWeek[t.WeekNumber]
		ws.Total++
		if t.Completed {
			p.CompletedTasks++
			ws.Completed++
		}
		p.ByWeek[t.WeekNumber] = ws
	}

	p.Percentage = percent(p.CompletedTasks, p.TotalTasks)
	for week, ws := range p.ByWeek {
		ws.Percentage = percent(ws.Completed, ws.Total)
		p.ByWeek[week] = ws
	}
	return p
}

// CurrentWeek derives the 1-based onboarding week from the plan's start date.
// Dates before the start clamp to week 1.
func CurrentWeek(startDate, now time.Time) int {
	if now.Before(startDate) {
		return 1
	}
	return int(now.Sub(startDate)/(7*24*time.Hour)) + 1
}

func percent(completed, total int) int {
	if total == 0 {
		return 0
	}
	// Round half up, matching the dashboard's display arithmetic.
	return (completed*100 + total/2) / total
}
