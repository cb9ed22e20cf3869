package app

import (
	"context"

	"go.uber.org/zap"

	"github.com/mindaid/counseling/internal/notify"
	"github.com/mindaid/counseling/internal/service"
)

// Core собирает сервисы ядра в одну точку подключения. Транспортные
// адаптеры (HTTP, очереди) живут вне этого модуля и дергают Core напрямую.
type Core struct {
	Availability *service.AvailabilityService
	Booking      *service.AppointmentService
	Programs     *service.ProgramService

	scheduler *Scheduler
}

func NewCore(
	availability *service.AvailabilityService,
	booking *service.AppointmentService,
	programs *service.ProgramService,
	appointments service.AppointmentStore,
	notifier notify.Notifier,
	logger *zap.Logger,
) *Core {
	return &Core{
		Availability: availability,
		Booking:      booking,
		Programs:     programs,
		scheduler:    NewScheduler(appointments, notifier, logger),
	}
}

// Start запускает фоновые задачи ядра
func (c *Core) Start(ctx context.Context) {
	c.scheduler.Start(ctx)
}

// Stop останавливает фоновые задачи
func (c *Core) Stop() {
	c.scheduler.Stop()
}
