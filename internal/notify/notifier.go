// Package notify порт для исходящих событий ядра. Доставкой (чат, почта)
// занимается внешняя подсистема, ядро отправляет сигналы fire-and-forget
// и не ждёт результата.
package notify

import (
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Notifier interface {
	AppointmentBooked(appointmentID uuid.UUID)
	AppointmentCancelled(appointmentID uuid.UUID)
	AppointmentReminder(appointmentID uuid.UUID)
	EnrollmentCreated(enrollmentID, programID uuid.UUID)
}

// LogNotifier пишет события в лог. Рабочая заглушка до подключения
// транспорта уведомлений, удобна и в тестах.
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) AppointmentBooked(appointmentID uuid.UUID) {
	n.logger.Info("notify: appointment booked", zap.String("appointment_id", appointmentID.String()))
}

func (n *LogNotifier) AppointmentCancelled(appointmentID uuid.UUID) {
	n.logger.Info("notify: appointment cancelled", zap.String("appointment_id", appointmentID.String()))
}

func (n *LogNotifier) AppointmentReminder(appointmentID uuid.UUID) {
	n.logger.Info("notify: appointment reminder", zap.String("appointment_id", appointmentID.String()))
}

func (n *LogNotifier) EnrollmentCreated(enrollmentID, programID uuid.UUID) {
	n.logger.Info("notify: enrollment created",
		zap.String("enrollment_id", enrollmentID.String()),
		zap.String("program_id", programID.String()))
}
