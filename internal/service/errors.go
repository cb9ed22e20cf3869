package service

import (
	"errors"

	"github.com/mindaid/counseling/internal/timeslot"
)

// Ошибки, которые ядро отдаёт вызывающим. Ошибки хранилища и транзиентные
// конфликты наружу не выходят: после внутреннего повтора они сворачиваются
// в ErrSlotUnavailable / ErrProgramFull.
var (
	ErrInvalidSlot        = timeslot.ErrInvalidSlot
	ErrSlotUnavailable    = errors.New("slot is not available")
	ErrNotFound           = errors.New("record not found")
	ErrAlreadyTerminal    = errors.New("appointment is already cancelled or completed")
	ErrAlreadyEnrolled    = errors.New("user is already enrolled in the program")
	ErrProgramFull        = errors.New("program has no free seats")
	ErrNotEligible        = errors.New("user score is below the program minimum")
	ErrEnrollmentNotFound = errors.New("enrollment not found")

	// ErrConflict транзиентный конфликт конкурентной записи, безопасно
	// повторить один раз со свежим чтением
	ErrConflict = errors.New("concurrent write conflict")
)
