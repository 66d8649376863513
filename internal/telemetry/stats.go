package telemetry

import (
	"encoding/json"
	"time"
)

type Stats struct {
	Since           string            `json:"since"`
	EventCounts     map[EventType]int `json:"event_counts"`
	TaskCompletions int               `json:"task_completions"`
	TasksCreated    int               `json:"tasks_created"`
	TasksMoved      int               `json:"tasks_moved"`
	CompletionsBy   map[string]int    `json:"completions_by_project"`
	OverdueMoves    int               `json:"overdue_moves"`
}

// CalculateStats aggregates activity events recorded since a cutoff.
func CalculateStats(events []Event, since time.Time) (Stats, error) {
	stats := Stats{
		Since:         since.Format("2006-01-02"),
		EventCounts:   make(map[EventType]int),
		CompletionsBy: make(map[string]int),
	}

	for _, event := range events {
		stats.EventCounts[event.Type]++

		var metadata EventMetadata
		if err := json.Unmarshal([]byte(event.Metadata), &metadata); err != nil {
			continue
		}

		switch event.Type {
		case EventTaskCreated:
			stats.TasksCreated++
		case EventTaskCompleted:
			stats.TaskCompletions++
			project := "none"
			if p, ok := metadata["project"].(string); ok && p != "" {
				project = p
			}
			stats.CompletionsBy[project]++
		case EventTaskMoved:
			stats.TasksMoved++
			if overdue, ok := metadata["overdue"].(bool); ok && overdue {
				stats.OverdueMoves++
			}
		}
	}

	return stats, nil
}
