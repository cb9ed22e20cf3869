package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mindaid/counseling/internal/model"
	"github.com/mindaid/counseling/internal/notify"
	"github.com/mindaid/counseling/internal/survey"
)

// In-memory реализации хранилища для тестов сервисов. Атомарные операции
// (CreateScheduled, ReserveSeat) сериализуются мьютексом так же, как
// pgx-реализации сериализуются ограничениями БД.

func dateKey(t time.Time) string {
	return t.Format("2006-01-02")
}

type memUsers struct {
	mu    sync.Mutex
	users map[uuid.UUID]*model.User
}

func newMemUsers() *memUsers {
	return &memUsers{users: make(map[uuid.UUID]*model.User)}
}

func (m *memUsers) add(role model.UserRole) uuid.UUID {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := &model.User{ID: uuid.New(), Role: role, DisplayName: string(role), CreatedAt: time.Now()}
	m.users[u.ID] = u
	return u.ID
}

func (m *memUsers) Lookup(_ context.Context, id uuid.UUID) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (m *memUsers) Counselors(_ context.Context) ([]*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.User
	for _, u := range m.users {
		if u.Role == model.UserRoleCounselor {
			cp := *u
			out = append(out, &cp)
		}
	}
	return out, nil
}

type memAppointments struct {
	mu   sync.Mutex
	byID map[uuid.UUID]*model.Appointment
}

func newMemAppointments() *memAppointments {
	return &memAppointments{byID: make(map[uuid.UUID]*model.Appointment)}
}

func (m *memAppointments) CreateScheduled(_ context.Context, appt *model.Appointment) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Аналог частичного уникального индекса (counselor, date, ordinal) WHERE scheduled
	for _, existing := range m.byID {
		if existing.Status == model.AppointmentStatusScheduled &&
			existing.CounselorID == appt.CounselorID &&
			dateKey(existing.MeetingDate) == dateKey(appt.MeetingDate) &&
			existing.SlotOrdinal == appt.SlotOrdinal {
			return ErrConflict
		}
	}

	now := time.Now()
	appt.CreatedAt = now
	appt.UpdatedAt = now
	cp := *appt
	m.byID[appt.ID] = &cp
	return nil
}

func (m *memAppointments) GetByID(_ context.Context, id uuid.UUID) (*model.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	appt, ok := m.byID[id]
	if !ok {
		return nil, nil
	}
	cp := *appt
	return &cp, nil
}

func (m *memAppointments) TransitionStatus(_ context.Context, id uuid.UUID, to model.AppointmentStatus) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	appt, ok := m.byID[id]
	if !ok || appt.Status != model.AppointmentStatusScheduled {
		return false, nil
	}
	appt.Status = to
	appt.UpdatedAt = time.Now()
	return true, nil
}

func (m *memAppointments) ScheduledOrdinals(_ context.Context, counselorID uuid.UUID, date time.Time) ([]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ordinals []int
	for _, appt := range m.byID {
		if appt.Status == model.AppointmentStatusScheduled &&
			appt.CounselorID == counselorID &&
			dateKey(appt.MeetingDate) == dateKey(date) {
			ordinals = append(ordinals, appt.SlotOrdinal)
		}
	}
	sort.Ints(ordinals)
	return ordinals, nil
}

func (m *memAppointments) ScheduledOnDate(_ context.Context, date time.Time) ([]*model.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Appointment
	for _, appt := range m.byID {
		if appt.Status == model.AppointmentStatusScheduled && dateKey(appt.MeetingDate) == dateKey(date) {
			cp := *appt
			out = append(out, &cp)
		}
	}
	return out, nil
}

type memEnrollments struct {
	mu   sync.Mutex
	byID map[uuid.UUID]*model.Enrollment
}

func newMemEnrollments() *memEnrollments {
	return &memEnrollments{byID: make(map[uuid.UUID]*model.Enrollment)}
}

func (m *memEnrollments) Exists(_ context.Context, userID, programID uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.exists(userID, programID), nil
}

func (m *memEnrollments) exists(userID, programID uuid.UUID) bool {
	for _, e := range m.byID {
		if e.UserID == userID && e.ProgramID == programID {
			return true
		}
	}
	return false
}

func (m *memEnrollments) ByProgram(_ context.Context, programID uuid.UUID) ([]*model.Enrollment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Enrollment
	for _, e := range m.byID {
		if e.ProgramID == programID {
			cp := *e
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memEnrollments) SetAttendance(_ context.Context, enrollmentID uuid.UUID, attended bool) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.byID[enrollmentID]
	if !ok {
		return false, nil
	}
	if attended {
		e.Attendance = model.AttendanceStatusPresent
	} else {
		e.Attendance = model.AttendanceStatusAbsent
	}
	return true, nil
}

type memPrograms struct {
	mu          sync.Mutex
	byID        map[uuid.UUID]*model.TargetProgram
	enrollments *memEnrollments
}

func newMemPrograms(enrollments *memEnrollments) *memPrograms {
	return &memPrograms{
		byID:        make(map[uuid.UUID]*model.TargetProgram),
		enrollments: enrollments,
	}
}

func (m *memPrograms) Create(_ context.Context, program *model.TargetProgram) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	program.CreatedAt = time.Now()
	cp := *program
	m.byID[program.ID] = &cp
	return nil
}

func (m *memPrograms) GetByID(_ context.Context, id uuid.UUID) (*model.TargetProgram, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	program, ok := m.byID[id]
	if !ok {
		return nil, nil
	}
	cp := *program
	return &cp, nil
}

func (m *memPrograms) List(_ context.Context, dimension string) ([]*model.TargetProgram, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.TargetProgram
	for _, program := range m.byID {
		if dimension == "" || program.Dimension == dimension {
			cp := *program
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartAt.Before(out[j].StartAt) })
	return out, nil
}

func (m *memPrograms) ByCounselorOnDate(_ context.Context, counselorID uuid.UUID, date time.Time) ([]*model.TargetProgram, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.TargetProgram
	for _, program := range m.byID {
		if program.CounselorID == counselorID && dateKey(program.StartAt) == dateKey(date) {
			cp := *program
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memPrograms) Candidates(_ context.Context, dimension string, score int) ([]*model.TargetProgram, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.TargetProgram
	for _, program := range m.byID {
		if program.Dimension == dimension && program.MinPoint <= score {
			cp := *program
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartAt.Before(out[j].StartAt) })
	return out, nil
}

func (m *memPrograms) ReserveSeat(_ context.Context, programID, userID uuid.UUID) (*model.Enrollment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	program, ok := m.byID[programID]
	if !ok {
		return nil, ErrNotFound
	}

	m.enrollments.mu.Lock()
	defer m.enrollments.mu.Unlock()
	if m.enrollments.exists(userID, programID) {
		return nil, ErrAlreadyEnrolled
	}
	if program.CurrentCapacity >= program.Capacity {
		return nil, ErrProgramFull
	}

	program.CurrentCapacity++
	enrollment := &model.Enrollment{
		ID:         uuid.New(),
		ProgramID:  programID,
		UserID:     userID,
		Attendance: model.AttendanceStatusUnset,
		CreatedAt:  time.Now(),
	}
	m.enrollments.byID[enrollment.ID] = enrollment
	cp := *enrollment
	return &cp, nil
}

type memSurveys struct {
	mu        sync.Mutex
	catalogs  map[uuid.UUID]*survey.Catalog
	responses []*survey.Response
}

func newMemSurveys() *memSurveys {
	return &memSurveys{catalogs: make(map[uuid.UUID]*survey.Catalog)}
}

func (m *memSurveys) Catalog(_ context.Context, surveyID uuid.UUID) (*survey.Catalog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.catalogs[surveyID], nil
}

func (m *memSurveys) SaveResponse(_ context.Context, resp *survey.Response) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	resp.SubmittedAt = time.Now()
	cp := *resp
	m.responses = append(m.responses, &cp)
	return nil
}

func (m *memSurveys) LatestResponse(_ context.Context, userID uuid.UUID) (*survey.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.responses) - 1; i >= 0; i-- {
		if m.responses[i].UserID == userID {
			cp := *m.responses[i]
			return &cp, nil
		}
	}
	return nil, nil
}

// testEnv собирает сервисы поверх in-memory хранилища
type testEnv struct {
	users        *memUsers
	appointments *memAppointments
	enrollments  *memEnrollments
	programs     *memPrograms
	surveys      *memSurveys

	availability *AvailabilityService
	booking      *AppointmentService
	assignment   *ProgramService
}

func newTestEnv(enrollRetryLimit int) *testEnv {
	logger := zap.NewNop()
	notifier := notify.NewLogNotifier(logger)

	users := newMemUsers()
	appointments := newMemAppointments()
	enrollments := newMemEnrollments()
	programs := newMemPrograms(enrollments)
	surveys := newMemSurveys()

	availability := NewAvailabilityService(users, appointments, programs, logger)

	return &testEnv{
		users:        users,
		appointments: appointments,
		enrollments:  enrollments,
		programs:     programs,
		surveys:      surveys,
		availability: availability,
		booking:      NewAppointmentService(users, appointments, availability, notifier, logger),
		assignment:   NewProgramService(users, programs, enrollments, surveys, notifier, logger, enrollRetryLimit),
	}
}
