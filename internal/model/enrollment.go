package model

import (
	"time"

	"github.com/google/uuid"
)

type AttendanceStatus string

const (
	AttendanceStatusUnset   AttendanceStatus = "unset"   // Посещение ещё не отмечено
	AttendanceStatusPresent AttendanceStatus = "present" // Присутствовал
	AttendanceStatusAbsent  AttendanceStatus = "absent"  // Отсутствовал
)

// Enrollment запись пользователя в программу, уникальна по (user_id, program_id)
type Enrollment struct {
	ID         uuid.UUID        `json:"id"`
	ProgramID  uuid.UUID        `json:"program_id"`
	UserID     uuid.UUID        `json:"user_id"`
	Attendance AttendanceStatus `json:"attendance"`
	CreatedAt  time.Time        `json:"created_at"`

	// Дополнительные поля для удобства (не из БД)
	User    *User          `json:"user,omitempty"`
	Program *TargetProgram `json:"program,omitempty"`
}
