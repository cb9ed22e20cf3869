package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mindaid/counseling/internal/model"
	"github.com/mindaid/counseling/internal/survey"
)

func addProgram(t *testing.T, env *testEnv, dimension string, minPoint, capacity int, startHour int) *model.TargetProgram {
	t.Helper()
	counselorID := env.users.add(model.UserRoleCounselor)
	program := &model.TargetProgram{
		Name:        dimension + " group",
		CounselorID: counselorID,
		StartAt:     time.Date(2024, 7, 1, startHour, 0, 0, 0, time.UTC),
		Dimension:   dimension,
		MinPoint:    minPoint,
		Capacity:    capacity,
	}
	require.NoError(t, env.assignment.CreateProgram(context.Background(), program))
	return program
}

// seedSurvey сохраняет справочник и отправленный опрос с нужными баллами,
// чтобы RegisterManually было что пересчитывать
func seedSurvey(t *testing.T, env *testEnv, userID uuid.UUID, scores map[string]int) {
	t.Helper()
	surveyID := uuid.New()

	var questions []survey.Question
	var answers []survey.Answer
	var chosen []survey.ResponseAnswer
	for dim, point := range scores {
		q := survey.Question{ID: uuid.New(), SurveyID: surveyID, Dimension: dim}
		a := survey.Answer{ID: uuid.New(), QuestionID: q.ID, Point: point}
		questions = append(questions, q)
		answers = append(answers, a)
		chosen = append(chosen, survey.ResponseAnswer{QuestionID: q.ID, AnswerID: a.ID})
	}

	env.surveys.catalogs[surveyID] = survey.NewCatalog(questions, answers)
	require.NoError(t, env.surveys.SaveResponse(context.Background(), &survey.Response{
		ID:       uuid.New(),
		SurveyID: surveyID,
		UserID:   userID,
		Answers:  chosen,
	}))
}

// Приёмочный сценарий: баллы {Anxiety: 12, Stress: 4}, программа Anxiety
// с minPoint=10 получает студента, программа Stress с minPoint=8 — нет
func TestAssign(t *testing.T) {
	env := newTestEnv(1)
	ctx := context.Background()
	userID := env.users.add(model.UserRoleStudent)

	anxiety := addProgram(t, env, "Anxiety", 10, 5, 9)
	addProgram(t, env, "Stress", 8, 5, 14)

	results, err := env.assignment.Assign(ctx, userID, map[string]int{"Anxiety": 12, "Stress": 4})
	require.NoError(t, err)
	require.Len(t, results, 2)

	byDim := make(map[string]AssignmentResult)
	for _, r := range results {
		byDim[r.Dimension] = r
	}

	assert.Equal(t, OutcomeEnrolled, byDim["Anxiety"].Outcome)
	assert.Equal(t, anxiety.ID, byDim["Anxiety"].ProgramID)
	assert.Equal(t, OutcomeNoMatchingProgram, byDim["Stress"].Outcome)

	enrolled, err := env.enrollments.Exists(ctx, userID, anxiety.ID)
	require.NoError(t, err)
	assert.True(t, enrolled)

	fresh, err := env.programs.GetByID(ctx, anxiety.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, fresh.CurrentCapacity)
}

func TestAssignUnknownUser(t *testing.T) {
	env := newTestEnv(1)
	_, err := env.assignment.Assign(context.Background(), uuid.New(), map[string]int{"Anxiety": 12})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAssignSkipsProgramUserIsAlreadyIn(t *testing.T) {
	env := newTestEnv(1)
	ctx := context.Background()
	userID := env.users.add(model.UserRoleStudent)
	program := addProgram(t, env, "Anxiety", 10, 5, 9)

	scores := map[string]int{"Anxiety": 12}
	_, err := env.assignment.Assign(ctx, userID, scores)
	require.NoError(t, err)

	// Повторный прогон того же опроса не создаёт дубль и не ест место
	results, err := env.assignment.Assign(ctx, userID, scores)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, OutcomeNoMatchingProgram, results[0].Outcome)

	fresh, err := env.programs.GetByID(ctx, program.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, fresh.CurrentCapacity)
}

func TestAssignFullProgram(t *testing.T) {
	env := newTestEnv(1)
	ctx := context.Background()
	program := addProgram(t, env, "Anxiety", 10, 1, 9)

	first := env.users.add(model.UserRoleStudent)
	_, err := env.assignment.Assign(ctx, first, map[string]int{"Anxiety": 15})
	require.NoError(t, err)

	second := env.users.add(model.UserRoleStudent)
	results, err := env.assignment.Assign(ctx, second, map[string]int{"Anxiety": 15})
	require.NoError(t, err)
	require.Len(t, results, 1)

	// Программа есть, но мест нет: это ProgramFull, не NoMatchingProgram
	assert.Equal(t, OutcomeProgramFull, results[0].Outcome)

	fresh, err := env.programs.GetByID(ctx, program.ID)
	require.NoError(t, err)
	assert.Equal(t, fresh.Capacity, fresh.CurrentCapacity)
}

// Когда первое место уводят в гонке, сервис пробует одного другого кандидата
func TestAssignFallsBackToSecondCandidate(t *testing.T) {
	env := newTestEnv(1)
	ctx := context.Background()

	full := addProgram(t, env, "Anxiety", 10, 1, 9)
	open := addProgram(t, env, "Anxiety", 10, 3, 14)

	occupant := env.users.add(model.UserRoleStudent)
	_, err := env.programs.ReserveSeat(ctx, full.ID, occupant)
	require.NoError(t, err)

	userID := env.users.add(model.UserRoleStudent)
	results, err := env.assignment.Assign(ctx, userID, map[string]int{"Anxiety": 12})
	require.NoError(t, err)
	require.Len(t, results, 1)

	assert.Equal(t, OutcomeEnrolled, results[0].Outcome)
	assert.Equal(t, open.ID, results[0].ProgramID)
}

// Последнее место под конкуренцией: ровно один из N получает его,
// вместимость не превышается
func TestAssignConcurrentLastSeat(t *testing.T) {
	env := newTestEnv(1)
	ctx := context.Background()
	program := addProgram(t, env, "Anxiety", 10, 1, 9)

	const contenders = 12
	var wg sync.WaitGroup
	outcomes := make([]AssignmentOutcome, contenders)

	for i := 0; i < contenders; i++ {
		userID := env.users.add(model.UserRoleStudent)
		wg.Add(1)
		go func(i int, userID uuid.UUID) {
			defer wg.Done()
			results, err := env.assignment.Assign(ctx, userID, map[string]int{"Anxiety": 20})
			if err == nil && len(results) == 1 {
				outcomes[i] = results[0].Outcome
			}
		}(i, userID)
	}
	wg.Wait()

	won := 0
	for _, outcome := range outcomes {
		if outcome == OutcomeEnrolled {
			won++
		} else {
			assert.Equal(t, OutcomeProgramFull, outcome)
		}
	}
	assert.Equal(t, 1, won)

	fresh, err := env.programs.GetByID(ctx, program.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, fresh.CurrentCapacity)
	assert.LessOrEqual(t, fresh.CurrentCapacity, fresh.Capacity)
}

func TestRegisterManually(t *testing.T) {
	env := newTestEnv(1)
	ctx := context.Background()
	program := addProgram(t, env, "Anxiety", 10, 2, 9)

	t.Run("eligible user is enrolled", func(t *testing.T) {
		userID := env.users.add(model.UserRoleStudent)
		seedSurvey(t, env, userID, map[string]int{"Anxiety": 11})

		enrollment, err := env.assignment.RegisterManually(ctx, program.ID, userID)
		require.NoError(t, err)
		assert.Equal(t, program.ID, enrollment.ProgramID)
		assert.Equal(t, model.AttendanceStatusUnset, enrollment.Attendance)
	})

	t.Run("repeat registration", func(t *testing.T) {
		userID := env.users.add(model.UserRoleStudent)
		seedSurvey(t, env, userID, map[string]int{"Anxiety": 11})

		_, err := env.assignment.RegisterManually(ctx, program.ID, userID)
		require.NoError(t, err)
		_, err = env.assignment.RegisterManually(ctx, program.ID, userID)
		assert.ErrorIs(t, err, ErrAlreadyEnrolled)
	})

	t.Run("score below min point", func(t *testing.T) {
		userID := env.users.add(model.UserRoleStudent)
		seedSurvey(t, env, userID, map[string]int{"Anxiety": 9})

		_, err := env.assignment.RegisterManually(ctx, program.ID, userID)
		assert.ErrorIs(t, err, ErrNotEligible)
	})

	t.Run("no survey on file", func(t *testing.T) {
		userID := env.users.add(model.UserRoleStudent)
		_, err := env.assignment.RegisterManually(ctx, program.ID, userID)
		assert.ErrorIs(t, err, ErrNotEligible)
	})

	t.Run("unknown program", func(t *testing.T) {
		userID := env.users.add(model.UserRoleStudent)
		_, err := env.assignment.RegisterManually(ctx, uuid.New(), userID)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("full program", func(t *testing.T) {
		small := addProgram(t, env, "Stress", 5, 1, 15)
		occupant := env.users.add(model.UserRoleStudent)
		seedSurvey(t, env, occupant, map[string]int{"Stress": 10})
		_, err := env.assignment.RegisterManually(ctx, small.ID, occupant)
		require.NoError(t, err)

		late := env.users.add(model.UserRoleStudent)
		seedSurvey(t, env, late, map[string]int{"Stress": 10})
		_, err = env.assignment.RegisterManually(ctx, small.ID, late)
		assert.ErrorIs(t, err, ErrProgramFull)
	})
}

func TestSubmitSurvey(t *testing.T) {
	env := newTestEnv(1)
	ctx := context.Background()
	userID := env.users.add(model.UserRoleStudent)
	program := addProgram(t, env, "Anxiety", 10, 5, 9)

	surveyID := uuid.New()
	q1 := survey.Question{ID: uuid.New(), SurveyID: surveyID, Dimension: "Anxiety"}
	q2 := survey.Question{ID: uuid.New(), SurveyID: surveyID, Dimension: "Stress"}
	a1 := survey.Answer{ID: uuid.New(), QuestionID: q1.ID, Point: 12}
	a2 := survey.Answer{ID: uuid.New(), QuestionID: q2.ID, Point: 4}
	env.surveys.catalogs[surveyID] = survey.NewCatalog(
		[]survey.Question{q1, q2},
		[]survey.Answer{a1, a2},
	)

	resp := &survey.Response{
		SurveyID: surveyID,
		UserID:   userID,
		Answers: []survey.ResponseAnswer{
			{QuestionID: q1.ID, AnswerID: a1.ID},
			{QuestionID: q2.ID, AnswerID: a2.ID},
		},
	}

	results, err := env.assignment.SubmitSurvey(ctx, resp)
	require.NoError(t, err)
	require.Len(t, results, 2)

	byDim := make(map[string]AssignmentResult)
	for _, r := range results {
		byDim[r.Dimension] = r
	}
	assert.Equal(t, OutcomeEnrolled, byDim["Anxiety"].Outcome)
	assert.Equal(t, program.ID, byDim["Anxiety"].ProgramID)
	assert.Equal(t, OutcomeNoMatchingProgram, byDim["Stress"].Outcome)

	// Опрос сохранился и виден как последний
	saved, err := env.surveys.LatestResponse(ctx, userID)
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Equal(t, surveyID, saved.SurveyID)
}

func TestSubmitSurveyRejectsUnknownAnswer(t *testing.T) {
	env := newTestEnv(1)
	ctx := context.Background()
	userID := env.users.add(model.UserRoleStudent)

	surveyID := uuid.New()
	q := survey.Question{ID: uuid.New(), SurveyID: surveyID, Dimension: "Anxiety"}
	env.surveys.catalogs[surveyID] = survey.NewCatalog([]survey.Question{q}, nil)

	resp := &survey.Response{
		SurveyID: surveyID,
		UserID:   userID,
		Answers:  []survey.ResponseAnswer{{QuestionID: q.ID, AnswerID: uuid.New()}},
	}

	_, err := env.assignment.SubmitSurvey(ctx, resp)
	assert.ErrorIs(t, err, survey.ErrUnknownAnswer)

	// Отклонённый опрос не сохраняется
	saved, err := env.surveys.LatestResponse(ctx, userID)
	require.NoError(t, err)
	assert.Nil(t, saved)
}

func TestCreateProgramOffGrid(t *testing.T) {
	env := newTestEnv(1)
	counselorID := env.users.add(model.UserRoleCounselor)

	err := env.assignment.CreateProgram(context.Background(), &model.TargetProgram{
		CounselorID: counselorID,
		StartAt:     time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC), // обеденный час
		Dimension:   "Anxiety",
		MinPoint:    10,
		Capacity:    5,
	})
	assert.ErrorIs(t, err, ErrInvalidSlot)
}

func TestUpdateAttendance(t *testing.T) {
	env := newTestEnv(1)
	ctx := context.Background()
	program := addProgram(t, env, "Anxiety", 10, 5, 9)

	userID := env.users.add(model.UserRoleStudent)
	enrollment, err := env.programs.ReserveSeat(ctx, program.ID, userID)
	require.NoError(t, err)

	unknownID := uuid.New()
	results := env.assignment.UpdateAttendance(ctx, []AttendanceUpdate{
		{EnrollmentID: enrollment.ID, Attended: true},
		{EnrollmentID: unknownID, Attended: false},
	})

	require.Len(t, results, 2)
	assert.NoError(t, results[0].Err)
	assert.ErrorIs(t, results[1].Err, ErrEnrollmentNotFound)

	// Валидный элемент применился несмотря на соседа
	list, err := env.enrollments.ByProgram(ctx, program.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, model.AttendanceStatusPresent, list[0].Attendance)
}
