package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mindaid/counseling/internal/model"
	"github.com/mindaid/counseling/internal/repository/base"
	"github.com/mindaid/counseling/internal/service"
)

var _ service.EnrollmentStore = (*EnrollmentRepository)(nil)

type EnrollmentRepository struct {
	*base.Repository
}

func NewEnrollmentRepository(pool *pgxpool.Pool) *EnrollmentRepository {
	return &EnrollmentRepository{Repository: base.NewRepository(pool)}
}

// Exists проверяет наличие записи (user, program)
func (r *EnrollmentRepository) Exists(ctx context.Context, userID, programID uuid.UUID) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM enrollments WHERE user_id = $1 AND program_id = $2)`

	var exists bool
	if err := r.QueryRow(ctx, query, userID, programID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check enrollment exists: %w", err)
	}
	return exists, nil
}

// ByProgram записи программы вместе с пользователями
func (r *EnrollmentRepository) ByProgram(ctx context.Context, programID uuid.UUID) ([]*model.Enrollment, error) {
	query := `
		SELECT e.id, e.program_id, e.user_id, e.attendance, e.created_at,
		       u.id, u.display_name, u.role, u.created_at
		FROM enrollments e
		JOIN users u ON u.id = e.user_id
		WHERE e.program_id = $1
		ORDER BY e.created_at
	`

	rows, err := r.Query(ctx, query, programID)
	if err != nil {
		return nil, fmt.Errorf("get enrollments by program: %w", err)
	}
	defer rows.Close()

	var enrollments []*model.Enrollment
	for rows.Next() {
		var enrollment model.Enrollment
		var user model.User
		err := rows.Scan(
			&enrollment.ID,
			&enrollment.ProgramID,
			&enrollment.UserID,
			&enrollment.Attendance,
			&enrollment.CreatedAt,
			&user.ID,
			&user.DisplayName,
			&user.Role,
			&user.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan enrollment: %w", err)
		}
		enrollment.User = &user
		enrollments = append(enrollments, &enrollment)
	}

	return enrollments, rows.Err()
}

// SetAttendance отмечает посещение; false если записи нет
func (r *EnrollmentRepository) SetAttendance(ctx context.Context, enrollmentID uuid.UUID, attended bool) (bool, error) {
	status := model.AttendanceStatusAbsent
	if attended {
		status = model.AttendanceStatusPresent
	}

	affected, err := r.ExecAffected(ctx, `UPDATE enrollments SET attendance = $1 WHERE id = $2`, status, enrollmentID)
	if err != nil {
		return false, fmt.Errorf("set attendance: %w", err)
	}

	return affected > 0, nil
}
