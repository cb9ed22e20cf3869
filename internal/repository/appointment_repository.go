package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mindaid/counseling/internal/model"
	"github.com/mindaid/counseling/internal/repository/base"
	"github.com/mindaid/counseling/internal/service"
)

var _ service.AppointmentStore = (*AppointmentRepository)(nil)

type AppointmentRepository struct {
	*base.Repository
}

func NewAppointmentRepository(pool *pgxpool.Pool) *AppointmentRepository {
	return &AppointmentRepository{Repository: base.NewRepository(pool)}
}

// CreateScheduled создаёт запись в статусе scheduled. Частичный уникальный
// индекс на (counselor_id, meeting_date, slot_ordinal) WHERE status='scheduled'
// делает проверку-и-вставку атомарной: конкурирующая вставка получает 23505
func (r *AppointmentRepository) CreateScheduled(ctx context.Context, appt *model.Appointment) error {
	query := `
		INSERT INTO appointments (id, counselor_id, student_id, meeting_date, slot_ordinal, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`

	err := r.QueryRow(
		ctx, query,
		appt.ID,
		appt.CounselorID,
		appt.StudentID,
		appt.MeetingDate,
		appt.SlotOrdinal,
		appt.Status,
	).Scan(&appt.CreatedAt, &appt.UpdatedAt)

	if err != nil {
		if base.IsUniqueViolation(err) {
			return service.ErrConflict
		}
		return fmt.Errorf("create appointment: %w", err)
	}

	return nil
}

// GetByID получает запись по ID
func (r *AppointmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	query := `
		SELECT id, counselor_id, student_id, meeting_date, slot_ordinal, status, created_at, updated_at
		FROM appointments
		WHERE id = $1
	`

	var appt model.Appointment
	err := r.QueryRow(ctx, query, id).Scan(
		&appt.ID,
		&appt.CounselorID,
		&appt.StudentID,
		&appt.MeetingDate,
		&appt.SlotOrdinal,
		&appt.Status,
		&appt.CreatedAt,
		&appt.UpdatedAt,
	)

	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get appointment by id: %w", err)
	}

	return &appt, nil
}

// TransitionStatus переводит запись из scheduled в конечный статус.
// Условие по статусу в WHERE гарантирует единственного победителя
// при конкурентных переходах
func (r *AppointmentRepository) TransitionStatus(ctx context.Context, id uuid.UUID, to model.AppointmentStatus) (bool, error) {
	query := `
		UPDATE appointments
		SET status = $1, updated_at = now()
		WHERE id = $2 AND status = 'scheduled'
	`

	affected, err := r.ExecAffected(ctx, query, to, id)
	if err != nil {
		return false, fmt.Errorf("transition appointment status: %w", err)
	}

	return affected > 0, nil
}

// ScheduledOrdinals номера слотов, занятых scheduled-записями консультанта на дату
func (r *AppointmentRepository) ScheduledOrdinals(ctx context.Context, counselorID uuid.UUID, date time.Time) ([]int, error) {
	query := `
		SELECT slot_ordinal
		FROM appointments
		WHERE counselor_id = $1 AND meeting_date = $2 AND status = 'scheduled'
		ORDER BY slot_ordinal
	`

	rows, err := r.Query(ctx, query, counselorID, date)
	if err != nil {
		return nil, fmt.Errorf("get scheduled ordinals: %w", err)
	}
	defer rows.Close()

	var ordinals []int
	for rows.Next() {
		var ordinal int
		if err := rows.Scan(&ordinal); err != nil {
			return nil, fmt.Errorf("scan slot ordinal: %w", err)
		}
		ordinals = append(ordinals, ordinal)
	}

	return ordinals, rows.Err()
}

// ScheduledOnDate все scheduled-записи на дату
func (r *AppointmentRepository) ScheduledOnDate(ctx context.Context, date time.Time) ([]*model.Appointment, error) {
	query := `
		SELECT id, counselor_id, student_id, meeting_date, slot_ordinal, status, created_at, updated_at
		FROM appointments
		WHERE meeting_date = $1 AND status = 'scheduled'
		ORDER BY slot_ordinal
	`

	rows, err := r.Query(ctx, query, date)
	if err != nil {
		return nil, fmt.Errorf("get scheduled appointments: %w", err)
	}
	defer rows.Close()

	var appointments []*model.Appointment
	for rows.Next() {
		var appt model.Appointment
		err := rows.Scan(
			&appt.ID,
			&appt.CounselorID,
			&appt.StudentID,
			&appt.MeetingDate,
			&appt.SlotOrdinal,
			&appt.Status,
			&appt.CreatedAt,
			&appt.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan appointment: %w", err)
		}
		appointments = append(appointments, &appt)
	}

	return appointments, rows.Err()
}
