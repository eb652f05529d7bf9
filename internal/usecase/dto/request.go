package dto

// Point - координаты точки маршрута
type Point struct {
	Lat float64 `json:"lat" validate:"min=-90,max=90"`
	Lng float64 `json:"lng" validate:"min=-180,max=180"`
}

// CreateSessionRequest - запрос на создание сессии редактора
type CreateSessionRequest struct {
	RouteID    string `json:"route_id,omitempty" validate:"omitempty,uuid"`
	DirectMode *bool  `json:"direct_mode,omitempty"`
}

// RenameSectionRequest - переименование секции
type RenameSectionRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

// RenamePointRequest - подпись точки, пустая строка снимает подпись
type RenamePointRequest struct {
	Label string `json:"label" validate:"max=100"`
}

// Candidate - сегмент-кандидат для вставки точки
type Candidate struct {
	SectionIdx int `json:"section_idx" validate:"min=0"`
	SegmentIdx int `json:"segment_idx" validate:"min=0"`
}

// InsertRequest - вставка точки в один из сегментов-кандидатов
type InsertRequest struct {
	Lat        float64     `json:"lat" validate:"min=-90,max=90"`
	Lng        float64     `json:"lng" validate:"min=-180,max=180"`
	Candidates []Candidate `json:"candidates" validate:"required,min=1,max=50,dive"`
}

// DirectModeRequest - переключение режима прямых линий
type DirectModeRequest struct {
	Enabled bool `json:"enabled"`
}

// SaveRouteRequest - сохранение маршрута
type SaveRouteRequest struct {
	Title       string   `json:"title" validate:"required,max=255"`
	Description string   `json:"description" validate:"max=2000"`
	Visibility  string   `json:"visibility" validate:"omitempty,visibility"`
	Tags        []string `json:"tags" validate:"omitempty,max=20,dive,min=1,max=50"`
	// Overwrite перезаписывает маршрут, из которого была открыта сессия
	Overwrite bool `json:"overwrite"`
}
