package project

import (
	"errors"
	"time"
)

var (
	ErrNotFound = errors.New("project not found")
	ErrExists   = errors.New("project already exists")
)

// Project is an owner-scoped grouping label. Tasks reference projects
// by name, so the name is the key and cannot change.
type Project struct {
	Name      string    `json:"name"`
	OwnerID   string    `json:"ownerId"`
	Color     string    `json:"color,omitempty"`
	Archived  bool      `json:"archived"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
