package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/mindaid/counseling/internal/model"
	"github.com/mindaid/counseling/internal/survey"
)

// Интерфейсы хранилища, которыми пользуются сервисы. Реализации на pgx живут
// в internal/repository, тесты подставляют in-memory реализации.
// Методы, от которых зависят инварианты (CreateScheduled, ReserveSeat),
// обязаны быть атомарными: проверка и запись в одной транзакции.

// UserDirectory справочник пользователей, принадлежит внешней подсистеме
type UserDirectory interface {
	// Lookup возвращает nil, nil если пользователь не найден
	Lookup(ctx context.Context, id uuid.UUID) (*model.User, error)
	// Counselors возвращает всех пользователей с ролью counselor
	Counselors(ctx context.Context) ([]*model.User, error)
}

type AppointmentStore interface {
	// CreateScheduled атомарная проверка-и-вставка: возвращает ErrConflict
	// если слот (counselor, date, ordinal) уже занят записью в статусе scheduled
	CreateScheduled(ctx context.Context, appt *model.Appointment) error
	// GetByID возвращает nil, nil если запись не найдена
	GetByID(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
	// TransitionStatus переводит запись из scheduled в конечный статус.
	// Возвращает false если запись уже не в scheduled (проигран конкурентный переход)
	TransitionStatus(ctx context.Context, id uuid.UUID, to model.AppointmentStatus) (bool, error)
	// ScheduledOrdinals номера слотов, занятых scheduled-записями консультанта на дату
	ScheduledOrdinals(ctx context.Context, counselorID uuid.UUID, date time.Time) ([]int, error)
	// ScheduledOnDate все scheduled-записи на дату, для напоминаний
	ScheduledOnDate(ctx context.Context, date time.Time) ([]*model.Appointment, error)
}

type ProgramStore interface {
	Create(ctx context.Context, program *model.TargetProgram) error
	// GetByID возвращает nil, nil если программа не найдена
	GetByID(ctx context.Context, id uuid.UUID) (*model.TargetProgram, error)
	// List программы, опционально отфильтрованные по измерению ("" — все)
	List(ctx context.Context, dimension string) ([]*model.TargetProgram, error)
	// ByCounselorOnDate сессии программ консультанта на дату
	ByCounselorOnDate(ctx context.Context, counselorID uuid.UUID, date time.Time) ([]*model.TargetProgram, error)
	// Candidates программы измерения с minPoint <= score, по возрастанию start_at.
	// Заполненные программы включаются: решает сервис, различая
	// "нет подходящей программы" и "все места заняты"
	Candidates(ctx context.Context, dimension string, score int) ([]*model.TargetProgram, error)
	// ReserveSeat атомарный инкремент-если-есть-место плюс вставка записи
	// в одной транзакции. Возвращает ErrProgramFull если мест нет,
	// ErrAlreadyEnrolled если пара (user, program) уже существует
	ReserveSeat(ctx context.Context, programID, userID uuid.UUID) (*model.Enrollment, error)
}

type EnrollmentStore interface {
	// Exists проверяет наличие записи (user, program)
	Exists(ctx context.Context, userID, programID uuid.UUID) (bool, error)
	// ByProgram записи программы вместе с пользователями
	ByProgram(ctx context.Context, programID uuid.UUID) ([]*model.Enrollment, error)
	// SetAttendance отмечает посещение; false если записи нет
	SetAttendance(ctx context.Context, enrollmentID uuid.UUID, attended bool) (bool, error)
}

type SurveyStore interface {
	// Catalog справочник вопросов и ответов опроса, только чтение
	Catalog(ctx context.Context, surveyID uuid.UUID) (*survey.Catalog, error)
	// SaveResponse сохраняет отправленный опрос; ответы неизменяемы
	SaveResponse(ctx context.Context, resp *survey.Response) error
	// LatestResponse последний отправленный опрос пользователя, nil, nil если нет
	LatestResponse(ctx context.Context, userID uuid.UUID) (*survey.Response, error)
}
