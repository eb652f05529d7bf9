package domain

import (
	"time"

	"github.com/google/uuid"
)

// Visibility of a saved route
type Visibility string

const (
	VisibilityPublic   Visibility = "PUBLIC"
	VisibilityPrivate  Visibility = "PRIVATE"
	VisibilityLinkOnly Visibility = "LINK_ONLY"
)

// SavedRoute - сохранённый маршрут вместе с состоянием редактора
type SavedRoute struct {
	ID            uuid.UUID   `json:"id" db:"id"`
	Title         string      `json:"title" db:"title"`
	Description   string      `json:"description" db:"description"`
	Visibility    Visibility  `json:"visibility" db:"visibility"`
	Tags          []string    `json:"tags" db:"-"`
	EditorState   EditorState `json:"editor_state" db:"-"`
	DistanceM     int         `json:"distance" db:"distance"`
	ElevationGain int         `json:"elevation_gain" db:"elevation_gain"`
	DataFilePath  string      `json:"data_file_path,omitempty" db:"data_file_path"`
	CreatedAt     time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at" db:"updated_at"`
}
