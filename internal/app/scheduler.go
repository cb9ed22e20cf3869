package app

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/mindaid/counseling/internal/model"
	"github.com/mindaid/counseling/internal/notify"
	"github.com/mindaid/counseling/internal/service"
)

// Интервал между проходами задачи напоминаний
const reminderInterval = time.Hour

// Scheduler управляет фоновыми задачами
type Scheduler struct {
	appointments service.AppointmentStore
	notifier     notify.Notifier
	logger       *zap.Logger
	stopChan     chan struct{}

	// id встреч, по которым напоминание уже ушло
	// TODO: вычищать записи прошедших дат, чтобы map не рос бесконечно
	reminded map[string]struct{}
}

// NewScheduler создаёт новый планировщик
func NewScheduler(appointments service.AppointmentStore, notifier notify.Notifier, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		appointments: appointments,
		notifier:     notifier,
		logger:       logger,
		stopChan:     make(chan struct{}),
		reminded:     make(map[string]struct{}),
	}
}

// Start запускает фоновые задачи
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("Starting background scheduler")

	go s.runReminderTask(ctx)
}

// Stop останавливает фоновые задачи
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping background scheduler")
	close(s.stopChan)
}

// runReminderTask периодически рассылает напоминания о завтрашних встречах
func (s *Scheduler) runReminderTask(ctx context.Context) {
	// Первый запуск сразу при старте
	s.sendReminders(ctx)

	ticker := time.NewTicker(reminderInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sendReminders(ctx)
		case <-s.stopChan:
			s.logger.Info("Reminder task stopped")
			return
		case <-ctx.Done():
			s.logger.Info("Reminder task cancelled")
			return
		}
	}
}

// sendReminders находит scheduled-встречи на завтра и шлёт по ним уведомления.
// Уведомления fire-and-forget: неудача доставки дело внешней подсистемы.
func (s *Scheduler) sendReminders(ctx context.Context) {
	tomorrow := time.Now().AddDate(0, 0, 1)

	appointments, err := s.appointments.ScheduledOnDate(ctx, tomorrow)
	if err != nil {
		s.logger.Error("Failed to load appointments for reminders", zap.Error(err))
		return
	}

	sent := 0
	for _, appt := range appointments {
		if appt.Status != model.AppointmentStatusScheduled {
			continue
		}
		key := appt.ID.String()
		if _, ok := s.reminded[key]; ok {
			continue
		}
		s.reminded[key] = struct{}{}
		s.notifier.AppointmentReminder(appt.ID)
		sent++
	}

	if sent > 0 {
		s.logger.Info("Appointment reminders sent",
			zap.String("date", tomorrow.Format("2006-01-02")),
			zap.Int("count", sent),
		)
	}
}
