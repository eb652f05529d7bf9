package domain

import "github.com/google/uuid"

// Stream names
const (
	StreamRouteSaved    = "stream:route:saved"
	StreamRouteExported = "stream:route:exported"
)

// RouteSavedEvent - событие о сохранении маршрута, запускает экспорт трека
type RouteSavedEvent struct {
	RouteID   uuid.UUID `json:"route_id"`
	Overwrite bool      `json:"overwrite"`
}

// Valid проверяет, что событие ссылается на маршрут
func (e *RouteSavedEvent) Valid() bool {
	return e.RouteID != uuid.Nil
}

// RouteExportedEvent - результат экспорта
type RouteExportedEvent struct {
	RouteID      uuid.UUID `json:"route_id"`
	DataFilePath string    `json:"data_file_path,omitempty"`
	Error        string    `json:"error,omitempty"`
}

// StreamMessage - сообщение из Redis Stream
type StreamMessage struct {
	ID   string
	Data string
}
