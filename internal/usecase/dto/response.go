package dto

import (
	"github.com/route-planner/internal/domain"
	"github.com/route-planner/internal/editor"
)

// HealthResponse - ответ health check
type HealthResponse struct {
	Status   string            `json:"status"`
	Sessions int               `json:"sessions"`
	Checks   map[string]string `json:"checks,omitempty"`
}

// InsertResponse - результат вставки. Если кандидатов больше одного,
// точка не вставляется и клиент выбирает сегмент из Candidates.
type InsertResponse struct {
	Inserted   bool                     `json:"inserted"`
	Candidates []domain.RankedCandidate `json:"candidates"`
	Session    editor.View              `json:"session"`
}

// CandidatesResponse - ранжированные кандидаты без изменения маршрута
type CandidatesResponse struct {
	Candidates []domain.RankedCandidate `json:"candidates"`
}

// ProfileResponse - профиль высот
type ProfileResponse struct {
	Points     []domain.ProfilePoint `json:"points"`
	DistanceKm float64               `json:"distance_km"`
	AscentM    float64               `json:"ascent_m"`
}

// ExportFile - файл трека для скачивания
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}
