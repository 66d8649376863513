package telemetry

import "time"

type EventType string

const (
	EventTaskCreated    EventType = "task_created"
	EventTaskCompleted  EventType = "task_completed"
	EventTaskReopened   EventType = "task_reopened"
	EventTaskMoved      EventType = "task_moved"
	EventTaskDeleted    EventType = "task_deleted"
	EventUserRegistered EventType = "user_registered"
)

type Event struct {
	ID        int       `json:"id"`
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Metadata  string    `json:"metadata"`
}

type EventMetadata map[string]interface{}
