package domain

type BoundingBox struct {
	MinLat float64 `json:"min_lat"`
	MinLon float64 `json:"min_lon"`
	MaxLat float64 `json:"max_lat"`
	MaxLon float64 `json:"max_lon"`
}

// SectionStats статистика по секции
type SectionStats struct {
	SectionID  string  `json:"section_id"`
	Name       string  `json:"name"`
	Points     int     `json:"points"`
	Segments   int     `json:"segments"`
	DistanceKm float64 `json:"distance_km"`
	AscentM    float64 `json:"ascent_m"`
}

// RouteStats представляет общую статистику маршрута
type RouteStats struct {
	DistanceKm float64        `json:"distance_km"`
	AscentM    float64        `json:"ascent_m"`
	Points     int            `json:"points"`
	Pending    int            `json:"pending"`
	Errors     int            `json:"errors"`
	Sections   []SectionStats `json:"sections"`
	BBox       *BoundingBox   `json:"bbox,omitempty"`
}
