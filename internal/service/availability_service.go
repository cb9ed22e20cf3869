package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mindaid/counseling/internal/model"
	"github.com/mindaid/counseling/internal/timeslot"
)

// AvailabilityService вычисляет свободные слоты консультанта на дату.
// Никакого кеша: каждый вызов читает записи и сессии программ заново,
// поэтому результат не может устареть относительно таблиц.
type AvailabilityService struct {
	users        UserDirectory
	appointments AppointmentStore
	programs     ProgramStore
	logger       *zap.Logger
}

func NewAvailabilityService(
	users UserDirectory,
	appointments AppointmentStore,
	programs ProgramStore,
	logger *zap.Logger,
) *AvailabilityService {
	return &AvailabilityService{
		users:        users,
		appointments: appointments,
		programs:     programs,
		logger:       logger,
	}
}

// AvailableSlots возвращает свободные номера слотов по возрастанию.
// Из полной сетки убираются scheduled-записи консультанта и слоты,
// на начало которых попадает сессия его программы. Прошедшие слоты
// сегодняшнего дня не отсекаются: это политика вызывающей стороны.
func (s *AvailabilityService) AvailableSlots(ctx context.Context, counselorID uuid.UUID, date time.Time) ([]int, error) {
	booked, err := s.appointments.ScheduledOrdinals(ctx, counselorID, date)
	if err != nil {
		return nil, fmt.Errorf("get scheduled ordinals: %w", err)
	}

	sessions, err := s.programs.ByCounselorOnDate(ctx, counselorID, date)
	if err != nil {
		return nil, fmt.Errorf("get program sessions: %w", err)
	}

	taken := make(map[int]bool, timeslot.MaxOrdinal)
	for _, ordinal := range booked {
		taken[ordinal] = true
	}
	for _, program := range sessions {
		// Сессия занимает слот, на начало которого она назначена
		if ordinal, ok := timeslot.FromStart(program.StartAt); ok {
			taken[ordinal] = true
		}
	}

	free := make([]int, 0, timeslot.MaxOrdinal)
	for _, ordinal := range timeslot.All() {
		if !taken[ordinal] {
			free = append(free, ordinal)
		}
	}

	return free, nil
}

// AvailableCounselors возвращает консультантов, у которых на дату есть
// хотя бы один свободный слот
func (s *AvailabilityService) AvailableCounselors(ctx context.Context, date time.Time) ([]*model.User, error) {
	counselors, err := s.users.Counselors(ctx)
	if err != nil {
		return nil, fmt.Errorf("get counselors: %w", err)
	}

	var available []*model.User
	for _, counselor := range counselors {
		free, err := s.AvailableSlots(ctx, counselor.ID, date)
		if err != nil {
			return nil, fmt.Errorf("get available slots for counselor %s: %w", counselor.ID, err)
		}
		if len(free) > 0 {
			available = append(available, counselor)
		}
	}

	return available, nil
}
