package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"

	"github.com/mindaid/counseling/internal/model"
	"github.com/mindaid/counseling/internal/notify"
	"github.com/mindaid/counseling/internal/timeslot"
)

// Пауза перед повтором после конкурентного конфликта записи
const conflictRetryBackoff = 25 * time.Millisecond

// AppointmentService жизненный цикл индивидуальных встреч.
// Машина состояний: scheduled -> cancelled, scheduled -> completed,
// из конечных статусов переходов нет. Записи никогда не удаляются.
type AppointmentService struct {
	users        UserDirectory
	appointments AppointmentStore
	availability *AvailabilityService
	notifier     notify.Notifier
	logger       *zap.Logger
}

func NewAppointmentService(
	users UserDirectory,
	appointments AppointmentStore,
	availability *AvailabilityService,
	notifier notify.Notifier,
	logger *zap.Logger,
) *AppointmentService {
	return &AppointmentService{
		users:        users,
		appointments: appointments,
		availability: availability,
		notifier:     notifier,
		logger:       logger,
	}
}

// Book бронирует слот консультанта для студента.
// Проверка доступности и вставка выполняются хранилищем атомарно;
// конкурентный конфликт повторяется один раз со свежим чтением,
// после чего наружу уходит ErrSlotUnavailable.
func (s *AppointmentService) Book(ctx context.Context, counselorID, studentID uuid.UUID, date time.Time, ordinal int) (*model.Appointment, error) {
	if _, _, err := timeslot.Resolve(ordinal, date); err != nil {
		return nil, err
	}

	counselor, err := s.users.Lookup(ctx, counselorID)
	if err != nil {
		return nil, fmt.Errorf("lookup counselor: %w", err)
	}
	if counselor == nil || !counselor.IsCounselor() {
		return nil, fmt.Errorf("counselor %s: %w", counselorID, ErrNotFound)
	}

	student, err := s.users.Lookup(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("lookup student: %w", err)
	}
	if student == nil {
		return nil, fmt.Errorf("student %s: %w", studentID, ErrNotFound)
	}

	appt := &model.Appointment{
		ID:          uuid.New(),
		CounselorID: counselorID,
		StudentID:   studentID,
		MeetingDate: date,
		SlotOrdinal: ordinal,
		Status:      model.AppointmentStatusScheduled,
	}

	backoff := retry.WithMaxRetries(1, retry.NewConstant(conflictRetryBackoff))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		free, err := s.availability.AvailableSlots(ctx, counselorID, date)
		if err != nil {
			return fmt.Errorf("resolve availability: %w", err)
		}
		if !containsOrdinal(free, ordinal) {
			return ErrSlotUnavailable
		}

		if err := s.appointments.CreateScheduled(ctx, appt); err != nil {
			if errors.Is(err, ErrConflict) {
				// Кто-то занял слот между чтением и вставкой, пробуем ещё раз
				return retry.RetryableError(err)
			}
			return fmt.Errorf("create appointment: %w", err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrConflict) {
			return nil, ErrSlotUnavailable
		}
		return nil, err
	}

	s.logger.Info("Appointment booked",
		zap.String("appointment_id", appt.ID.String()),
		zap.String("counselor_id", counselorID.String()),
		zap.String("student_id", studentID.String()),
		zap.String("date", date.Format("2006-01-02")),
		zap.Int("slot_ordinal", ordinal),
	)

	go s.notifier.AppointmentBooked(appt.ID)

	appt.Counselor = counselor
	appt.Student = student

	return appt, nil
}

// Cancel отменяет запланированную встречу. Строка остаётся в таблице,
// слот снова появляется в выдаче AvailableSlots при следующем чтении.
func (s *AppointmentService) Cancel(ctx context.Context, appointmentID uuid.UUID) error {
	if err := s.transition(ctx, appointmentID, model.AppointmentStatusCancelled); err != nil {
		return err
	}

	go s.notifier.AppointmentCancelled(appointmentID)
	return nil
}

// Complete отмечает встречу проведённой, используется после её времени
func (s *AppointmentService) Complete(ctx context.Context, appointmentID uuid.UUID) error {
	return s.transition(ctx, appointmentID, model.AppointmentStatusCompleted)
}

// GetByID возвращает встречу по id
func (s *AppointmentService) GetByID(ctx context.Context, appointmentID uuid.UUID) (*model.Appointment, error) {
	appt, err := s.appointments.GetByID(ctx, appointmentID)
	if err != nil {
		return nil, fmt.Errorf("get appointment: %w", err)
	}
	if appt == nil {
		return nil, fmt.Errorf("appointment %s: %w", appointmentID, ErrNotFound)
	}
	return appt, nil
}

func (s *AppointmentService) transition(ctx context.Context, appointmentID uuid.UUID, to model.AppointmentStatus) error {
	appt, err := s.appointments.GetByID(ctx, appointmentID)
	if err != nil {
		return fmt.Errorf("get appointment: %w", err)
	}
	if appt == nil {
		return fmt.Errorf("appointment %s: %w", appointmentID, ErrNotFound)
	}
	if appt.Status.IsTerminal() {
		return fmt.Errorf("appointment %s is %s: %w", appointmentID, appt.Status, ErrAlreadyTerminal)
	}

	updated, err := s.appointments.TransitionStatus(ctx, appointmentID, to)
	if err != nil {
		return fmt.Errorf("transition appointment to %s: %w", to, err)
	}
	if !updated {
		// Конкурентный вызов успел перевести запись первым
		return fmt.Errorf("appointment %s: %w", appointmentID, ErrAlreadyTerminal)
	}

	s.logger.Info("Appointment status changed",
		zap.String("appointment_id", appointmentID.String()),
		zap.String("counselor_id", appt.CounselorID.String()),
		zap.String("student_id", appt.StudentID.String()),
		zap.String("status", string(to)),
	)

	return nil
}

func containsOrdinal(ordinals []int, ordinal int) bool {
	for _, o := range ordinals {
		if o == ordinal {
			return true
		}
	}
	return false
}
