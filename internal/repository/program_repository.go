package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mindaid/counseling/internal/model"
	"github.com/mindaid/counseling/internal/repository/base"
	"github.com/mindaid/counseling/internal/service"
)

const programColumns = `id, name, description, counselor_id, start_at, dimension, min_point, capacity, current_capacity, created_at`

var _ service.ProgramStore = (*ProgramRepository)(nil)

type ProgramRepository struct {
	*base.Repository
}

func NewProgramRepository(pool *pgxpool.Pool) *ProgramRepository {
	return &ProgramRepository{Repository: base.NewRepository(pool)}
}

// Create создаёт новую программу
func (r *ProgramRepository) Create(ctx context.Context, program *model.TargetProgram) error {
	query := `
		INSERT INTO target_programs (id, name, description, counselor_id, start_at, dimension, min_point, capacity, current_capacity)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 0)
		RETURNING created_at
	`

	err := r.QueryRow(
		ctx, query,
		program.ID,
		program.Name,
		program.Description,
		program.CounselorID,
		program.StartAt,
		program.Dimension,
		program.MinPoint,
		program.Capacity,
	).Scan(&program.CreatedAt)

	if err != nil {
		return fmt.Errorf("create program: %w", err)
	}

	return nil
}

// GetByID получает программу по ID
func (r *ProgramRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.TargetProgram, error) {
	query := `SELECT ` + programColumns + ` FROM target_programs WHERE id = $1`

	program, err := scanProgram(r.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get program by id: %w", err)
	}

	return program, nil
}

// List получает программы, при dimension != "" — только одного измерения
func (r *ProgramRepository) List(ctx context.Context, dimension string) ([]*model.TargetProgram, error) {
	query := `
		SELECT ` + programColumns + `
		FROM target_programs
		WHERE ($1 = '' OR dimension = $1)
		ORDER BY start_at
	`

	rows, err := r.Query(ctx, query, dimension)
	if err != nil {
		return nil, fmt.Errorf("list programs: %w", err)
	}
	defer rows.Close()

	return collectPrograms(rows)
}

// ByCounselorOnDate сессии программ консультанта на дату
func (r *ProgramRepository) ByCounselorOnDate(ctx context.Context, counselorID uuid.UUID, date time.Time) ([]*model.TargetProgram, error) {
	query := `
		SELECT ` + programColumns + `
		FROM target_programs
		WHERE counselor_id = $1 AND start_at::date = $2::date
		ORDER BY start_at
	`

	rows, err := r.Query(ctx, query, counselorID, date)
	if err != nil {
		return nil, fmt.Errorf("get programs by counselor on date: %w", err)
	}
	defer rows.Close()

	return collectPrograms(rows)
}

// Candidates программы измерения, проходной балл которых не выше score
func (r *ProgramRepository) Candidates(ctx context.Context, dimension string, score int) ([]*model.TargetProgram, error) {
	query := `
		SELECT ` + programColumns + `
		FROM target_programs
		WHERE dimension = $1 AND min_point <= $2
		ORDER BY start_at
	`

	rows, err := r.Query(ctx, query, dimension, score)
	if err != nil {
		return nil, fmt.Errorf("get candidate programs: %w", err)
	}
	defer rows.Close()

	return collectPrograms(rows)
}

// ReserveSeat атомарно занимает место: условный инкремент счётчика и вставка
// записи в одной транзакции. Инкремент проходит только пока
// current_capacity < capacity, поэтому конкурентные вызовы не могут
// превысить вместимость; страхующий CHECK лежит в схеме.
func (r *ProgramRepository) ReserveSeat(ctx context.Context, programID, userID uuid.UUID) (*model.Enrollment, error) {
	enrollment := &model.Enrollment{
		ID:         uuid.New(),
		ProgramID:  programID,
		UserID:     userID,
		Attendance: model.AttendanceStatusUnset,
	}

	err := r.WithTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE target_programs
			SET current_capacity = current_capacity + 1
			WHERE id = $1 AND current_capacity < capacity
		`, programID)
		if err != nil {
			return fmt.Errorf("increment capacity: %w", err)
		}
		if tag.RowsAffected() == 0 {
			// Либо программы нет, либо мест не осталось
			var exists bool
			if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM target_programs WHERE id = $1)`, programID).Scan(&exists); err != nil {
				return fmt.Errorf("check program exists: %w", err)
			}
			if !exists {
				return service.ErrNotFound
			}
			return service.ErrProgramFull
		}

		err = tx.QueryRow(ctx, `
			INSERT INTO enrollments (id, program_id, user_id, attendance)
			VALUES ($1, $2, $3, $4)
			RETURNING created_at
		`, enrollment.ID, programID, userID, enrollment.Attendance).Scan(&enrollment.CreatedAt)
		if err != nil {
			if base.IsUniqueViolation(err) {
				// Откат транзакции вернёт и счётчик
				return service.ErrAlreadyEnrolled
			}
			return fmt.Errorf("insert enrollment: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return enrollment, nil
}

func scanProgram(row pgx.Row) (*model.TargetProgram, error) {
	var program model.TargetProgram
	err := row.Scan(
		&program.ID,
		&program.Name,
		&program.Description,
		&program.CounselorID,
		&program.StartAt,
		&program.Dimension,
		&program.MinPoint,
		&program.Capacity,
		&program.CurrentCapacity,
		&program.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &program, nil
}

func collectPrograms(rows pgx.Rows) ([]*model.TargetProgram, error) {
	var programs []*model.TargetProgram
	for rows.Next() {
		program, err := scanProgram(rows)
		if err != nil {
			return nil, fmt.Errorf("scan program: %w", err)
		}
		programs = append(programs, program)
	}
	return programs, rows.Err()
}
