package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mindaid/counseling/internal/model"
	"github.com/mindaid/counseling/internal/notify"
	"github.com/mindaid/counseling/internal/survey"
	"github.com/mindaid/counseling/internal/timeslot"
)

// AssignmentOutcome итог подбора программы для одного измерения
type AssignmentOutcome string

const (
	OutcomeEnrolled          AssignmentOutcome = "enrolled"
	OutcomeNoMatchingProgram AssignmentOutcome = "no_matching_program"
	OutcomeProgramFull       AssignmentOutcome = "program_full"
)

type AssignmentResult struct {
	Dimension    string            `json:"dimension"`
	Score        int               `json:"score"`
	Outcome      AssignmentOutcome `json:"outcome"`
	ProgramID    uuid.UUID         `json:"program_id,omitempty"`
	EnrollmentID uuid.UUID         `json:"enrollment_id,omitempty"`
}

type AttendanceUpdate struct {
	EnrollmentID uuid.UUID `json:"enrollment_id"`
	Attended     bool      `json:"attended"`
}

// AttendanceResult итог одного элемента батча, Err == nil при успехе
type AttendanceResult struct {
	EnrollmentID uuid.UUID `json:"enrollment_id"`
	Err          error     `json:"-"`
}

// ProgramService подбор программ по баллам опроса, запись с атомарной
// защитой вместимости и учёт посещаемости
type ProgramService struct {
	users       UserDirectory
	programs    ProgramStore
	enrollments EnrollmentStore
	surveys     SurveyStore
	notifier    notify.Notifier
	logger      *zap.Logger

	// Сколько других кандидатов того же измерения пробовать, когда место
	// увели между сканом и коммитом
	enrollRetryLimit int
}

func NewProgramService(
	users UserDirectory,
	programs ProgramStore,
	enrollments EnrollmentStore,
	surveys SurveyStore,
	notifier notify.Notifier,
	logger *zap.Logger,
	enrollRetryLimit int,
) *ProgramService {
	if enrollRetryLimit < 0 {
		enrollRetryLimit = 0
	}
	return &ProgramService{
		users:            users,
		programs:         programs,
		enrollments:      enrollments,
		surveys:          surveys,
		notifier:         notifier,
		logger:           logger,
		enrollRetryLimit: enrollRetryLimit,
	}
}

// CreateProgram создаёт программу. Начало сессии обязано попадать на сетку
// слотов, иначе занятость ведущего не вычислить.
func (s *ProgramService) CreateProgram(ctx context.Context, program *model.TargetProgram) error {
	if _, ok := timeslot.FromStart(program.StartAt); !ok {
		return fmt.Errorf("program start %s is off the slot grid: %w", program.StartAt.Format("15:04"), ErrInvalidSlot)
	}
	if program.Capacity <= 0 {
		return fmt.Errorf("program capacity must be positive")
	}

	counselor, err := s.users.Lookup(ctx, program.CounselorID)
	if err != nil {
		return fmt.Errorf("lookup counselor: %w", err)
	}
	if counselor == nil || !counselor.IsCounselor() {
		return fmt.Errorf("counselor %s: %w", program.CounselorID, ErrNotFound)
	}

	if program.ID == uuid.Nil {
		program.ID = uuid.New()
	}
	program.CurrentCapacity = 0

	if err := s.programs.Create(ctx, program); err != nil {
		return fmt.Errorf("create program: %w", err)
	}

	s.logger.Info("Program created",
		zap.String("program_id", program.ID.String()),
		zap.String("counselor_id", program.CounselorID.String()),
		zap.String("dimension", program.Dimension),
		zap.Int("capacity", program.Capacity),
	)

	return nil
}

// ListPrograms возвращает программы, при dimension != "" — только одного измерения
func (s *ProgramService) ListPrograms(ctx context.Context, dimension string) ([]*model.TargetProgram, error) {
	return s.programs.List(ctx, dimension)
}

// ProgramStudents возвращает записи программы вместе с пользователями
func (s *ProgramService) ProgramStudents(ctx context.Context, programID uuid.UUID) ([]*model.Enrollment, error) {
	program, err := s.programs.GetByID(ctx, programID)
	if err != nil {
		return nil, fmt.Errorf("get program: %w", err)
	}
	if program == nil {
		return nil, fmt.Errorf("program %s: %w", programID, ErrNotFound)
	}
	return s.enrollments.ByProgram(ctx, programID)
}

// SubmitSurvey точка входа потока "опрос заполнен": сохраняет ответы,
// считает баллы по справочнику и запускает подбор программ
func (s *ProgramService) SubmitSurvey(ctx context.Context, resp *survey.Response) ([]AssignmentResult, error) {
	cat, err := s.surveys.Catalog(ctx, resp.SurveyID)
	if err != nil {
		return nil, fmt.Errorf("load survey catalog: %w", err)
	}

	scores, err := survey.Score(*resp, cat)
	if err != nil {
		// Невалидные id отклоняем до любой записи в хранилище
		return nil, err
	}

	if resp.ID == uuid.Nil {
		resp.ID = uuid.New()
	}
	if err := s.surveys.SaveResponse(ctx, resp); err != nil {
		return nil, fmt.Errorf("save survey response: %w", err)
	}

	return s.Assign(ctx, resp.UserID, scores)
}

// Assign подбирает программы по баллам. Для каждого измерения итог один из
// {Enrolled, NoMatchingProgram, ProgramFull}; неудача по одному измерению
// не мешает остальным.
func (s *ProgramService) Assign(ctx context.Context, userID uuid.UUID, scores map[string]int) ([]AssignmentResult, error) {
	user, err := s.users.Lookup(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("user %s: %w", userID, ErrNotFound)
	}

	// Сортируем измерения, чтобы порядок результатов был стабильным
	dimensions := make([]string, 0, len(scores))
	for dim := range scores {
		dimensions = append(dimensions, dim)
	}
	sort.Strings(dimensions)

	results := make([]AssignmentResult, 0, len(dimensions))
	for _, dim := range dimensions {
		result, err := s.assignDimension(ctx, userID, dim, scores[dim])
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}

	return results, nil
}

func (s *ProgramService) assignDimension(ctx context.Context, userID uuid.UUID, dimension string, score int) (AssignmentResult, error) {
	result := AssignmentResult{Dimension: dimension, Score: score}

	candidates, err := s.programs.Candidates(ctx, dimension, score)
	if err != nil {
		return result, fmt.Errorf("scan candidates for %s: %w", dimension, err)
	}

	eligible := 0
	attempts := 0
	for _, program := range candidates {
		enrolled, err := s.enrollments.Exists(ctx, userID, program.ID)
		if err != nil {
			return result, fmt.Errorf("check enrollment: %w", err)
		}
		if enrolled {
			continue
		}
		eligible++

		// Заполненные при скане программы не пробуем, но они считаются:
		// для таких измерений итог ProgramFull, а не NoMatchingProgram
		if program.FreeSeats() <= 0 {
			continue
		}

		// Первая попытка плюс enrollRetryLimit других кандидатов
		if attempts > s.enrollRetryLimit {
			break
		}
		attempts++

		enrollment, err := s.programs.ReserveSeat(ctx, program.ID, userID)
		switch {
		case err == nil:
			s.logger.Info("Student assigned to program",
				zap.String("user_id", userID.String()),
				zap.String("program_id", program.ID.String()),
				zap.String("dimension", dimension),
				zap.Int("score", score),
			)
			go s.notifier.EnrollmentCreated(enrollment.ID, program.ID)

			result.Outcome = OutcomeEnrolled
			result.ProgramID = program.ID
			result.EnrollmentID = enrollment.ID
			return result, nil
		case errors.Is(err, ErrProgramFull), errors.Is(err, ErrAlreadyEnrolled):
			// Место увели или запись уже есть: пробуем следующего кандидата
			continue
		default:
			return result, fmt.Errorf("reserve seat in program %s: %w", program.ID, err)
		}
	}

	if eligible == 0 {
		result.Outcome = OutcomeNoMatchingProgram
	} else {
		result.Outcome = OutcomeProgramFull
	}
	return result, nil
}

// RegisterManually записывает пользователя в программу напрямую, вне потока
// опроса. Право на участие проверяется по последнему отправленному опросу.
func (s *ProgramService) RegisterManually(ctx context.Context, programID, userID uuid.UUID) (*model.Enrollment, error) {
	program, err := s.programs.GetByID(ctx, programID)
	if err != nil {
		return nil, fmt.Errorf("get program: %w", err)
	}
	if program == nil {
		return nil, fmt.Errorf("program %s: %w", programID, ErrNotFound)
	}

	user, err := s.users.Lookup(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("user %s: %w", userID, ErrNotFound)
	}

	enrolled, err := s.enrollments.Exists(ctx, userID, programID)
	if err != nil {
		return nil, fmt.Errorf("check enrollment: %w", err)
	}
	if enrolled {
		return nil, fmt.Errorf("user %s in program %s: %w", userID, programID, ErrAlreadyEnrolled)
	}

	score, err := s.dimensionScore(ctx, userID, program.Dimension)
	if err != nil {
		return nil, err
	}
	if score < program.MinPoint {
		return nil, fmt.Errorf("score %d is below min point %d: %w", score, program.MinPoint, ErrNotEligible)
	}

	enrollment, err := s.programs.ReserveSeat(ctx, programID, userID)
	if err != nil {
		if errors.Is(err, ErrProgramFull) || errors.Is(err, ErrAlreadyEnrolled) {
			return nil, err
		}
		return nil, fmt.Errorf("reserve seat in program %s: %w", programID, err)
	}

	s.logger.Info("Student registered to program",
		zap.String("user_id", userID.String()),
		zap.String("program_id", programID.String()),
		zap.String("dimension", program.Dimension),
		zap.Int("score", score),
	)
	go s.notifier.EnrollmentCreated(enrollment.ID, programID)

	return enrollment, nil
}

// dimensionScore пересчитывает балл пользователя по измерению из его
// последнего опроса. Баллы отдельно не хранятся, они всегда производные.
func (s *ProgramService) dimensionScore(ctx context.Context, userID uuid.UUID, dimension string) (int, error) {
	resp, err := s.surveys.LatestResponse(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("get latest survey response: %w", err)
	}
	if resp == nil {
		// Без опроса право на участие подтвердить нечем
		return 0, fmt.Errorf("user %s has no survey on file: %w", userID, ErrNotEligible)
	}

	cat, err := s.surveys.Catalog(ctx, resp.SurveyID)
	if err != nil {
		return 0, fmt.Errorf("load survey catalog: %w", err)
	}

	scores, err := survey.Score(*resp, cat)
	if err != nil {
		return 0, err
	}

	return scores[dimension], nil
}

// UpdateAttendance применяет батч отметок посещаемости. Элементы независимы:
// неизвестный enrollment_id даёт ErrEnrollmentNotFound в своём элементе
// и не прерывает остальные.
func (s *ProgramService) UpdateAttendance(ctx context.Context, updates []AttendanceUpdate) []AttendanceResult {
	results := make([]AttendanceResult, 0, len(updates))

	for _, update := range updates {
		result := AttendanceResult{EnrollmentID: update.EnrollmentID}

		updated, err := s.enrollments.SetAttendance(ctx, update.EnrollmentID, update.Attended)
		switch {
		case err != nil:
			result.Err = fmt.Errorf("set attendance: %w", err)
		case !updated:
			result.Err = fmt.Errorf("enrollment %s: %w", update.EnrollmentID, ErrEnrollmentNotFound)
		}

		if result.Err != nil {
			s.logger.Warn("Attendance update failed",
				zap.String("enrollment_id", update.EnrollmentID.String()),
				zap.Error(result.Err),
			)
		}

		results = append(results, result)
	}

	return results
}
