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

var _ service.UserDirectory = (*UserRepository)(nil)

// UserRepository читает справочник пользователей. Таблицей владеет внешняя
// подсистема учётных записей, ядро её не изменяет.
type UserRepository struct {
	*base.Repository
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{Repository: base.NewRepository(pool)}
}

// Lookup получает пользователя по ID, nil если не найден
func (r *UserRepository) Lookup(ctx context.Context, id uuid.UUID) (*model.User, error) {
	query := `SELECT id, display_name, role, created_at FROM users WHERE id = $1`

	var user model.User
	err := r.QueryRow(ctx, query, id).Scan(
		&user.ID,
		&user.DisplayName,
		&user.Role,
		&user.CreatedAt,
	)

	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user by id: %w", err)
	}

	return &user, nil
}

// Counselors возвращает всех консультантов
func (r *UserRepository) Counselors(ctx context.Context) ([]*model.User, error) {
	query := `SELECT id, display_name, role, created_at FROM users WHERE role = 'counselor' ORDER BY display_name`

	rows, err := r.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get counselors: %w", err)
	}
	defer rows.Close()

	var users []*model.User
	for rows.Next() {
		var user model.User
		if err := rows.Scan(&user.ID, &user.DisplayName, &user.Role, &user.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, &user)
	}

	return users, rows.Err()
}
