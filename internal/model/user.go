package model

import (
	"time"

	"github.com/google/uuid"
)

type UserRole string

const (
	UserRoleStudent   UserRole = "student"
	UserRoleCounselor UserRole = "counselor"
	UserRoleParent    UserRole = "parent"
)

// User справочная запись пользователя. Учётными записями и аутентификацией
// управляет внешний сервис, ядро читает пользователей только по id.
type User struct {
	ID          uuid.UUID `json:"id"`
	DisplayName string    `json:"display_name"`
	Role        UserRole  `json:"role"`
	CreatedAt   time.Time `json:"created_at"`
}

// IsCounselor проверяет что пользователь может вести встречи и программы
func (u *User) IsCounselor() bool {
	return u.Role == UserRoleCounselor
}
