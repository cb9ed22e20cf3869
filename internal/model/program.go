package model

import (
	"time"

	"github.com/google/uuid"
)

// TargetProgram групповая программа с ограниченной вместимостью.
// Инвариант: 0 <= CurrentCapacity <= Capacity, поддерживается атомарно в БД.
type TargetProgram struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	Description     string    `json:"description"`
	CounselorID     uuid.UUID `json:"counselor_id"`
	StartAt         time.Time `json:"start_at"` // дата и время первой сессии
	Dimension       string    `json:"dimension"`
	MinPoint        int       `json:"min_point"`
	Capacity        int       `json:"capacity"`
	CurrentCapacity int       `json:"current_capacity"`
	CreatedAt       time.Time `json:"created_at"`
}

// FreeSeats количество свободных мест
func (p *TargetProgram) FreeSeats() int {
	return p.Capacity - p.CurrentCapacity
}
