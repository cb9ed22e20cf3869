package model

import (
	"time"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	AppointmentStatusScheduled AppointmentStatus = "scheduled" // Запланирована
	AppointmentStatusCancelled AppointmentStatus = "cancelled" // Отменена
	AppointmentStatusCompleted AppointmentStatus = "completed" // Проведена
)

// IsTerminal возвращает true для конечных статусов (из них переходов нет)
func (s AppointmentStatus) IsTerminal() bool {
	return s == AppointmentStatusCancelled || s == AppointmentStatusCompleted
}

type Appointment struct {
	ID          uuid.UUID         `json:"id"`
	CounselorID uuid.UUID         `json:"counselor_id"`
	StudentID   uuid.UUID         `json:"student_id"`
	MeetingDate time.Time         `json:"meeting_date"` // только дата, время задаёт SlotOrdinal
	SlotOrdinal int               `json:"slot_ordinal"`
	Status      AppointmentStatus `json:"status"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`

	// Дополнительные поля для удобства (не из БД)
	Counselor *User `json:"counselor,omitempty"`
	Student   *User `json:"student,omitempty"`
}
