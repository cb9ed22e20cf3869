package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mindaid/counseling/internal/repository/base"
	"github.com/mindaid/counseling/internal/service"
	"github.com/mindaid/counseling/internal/survey"
)

var _ service.SurveyStore = (*SurveyRepository)(nil)

// SurveyRepository хранит отправленные опросы и читает справочник вопросов.
// Справочником владеет подсистема опросов, здесь он только на чтение.
type SurveyRepository struct {
	*base.Repository
}

func NewSurveyRepository(pool *pgxpool.Pool) *SurveyRepository {
	return &SurveyRepository{Repository: base.NewRepository(pool)}
}

// Catalog загружает вопросы и ответы опроса
func (r *SurveyRepository) Catalog(ctx context.Context, surveyID uuid.UUID) (*survey.Catalog, error) {
	rows, err := r.Query(ctx, `
		SELECT id, survey_id, text, dimension
		FROM survey_questions
		WHERE survey_id = $1
	`, surveyID)
	if err != nil {
		return nil, fmt.Errorf("get survey questions: %w", err)
	}
	defer rows.Close()

	var questions []survey.Question
	for rows.Next() {
		var q survey.Question
		if err := rows.Scan(&q.ID, &q.SurveyID, &q.Text, &q.Dimension); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read questions: %w", err)
	}

	answerRows, err := r.Query(ctx, `
		SELECT a.id, a.question_id, a.text, a.point
		FROM survey_answers a
		JOIN survey_questions q ON q.id = a.question_id
		WHERE q.survey_id = $1
	`, surveyID)
	if err != nil {
		return nil, fmt.Errorf("get survey answers: %w", err)
	}
	defer answerRows.Close()

	var answers []survey.Answer
	for answerRows.Next() {
		var a survey.Answer
		if err := answerRows.Scan(&a.ID, &a.QuestionID, &a.Text, &a.Point); err != nil {
			return nil, fmt.Errorf("scan answer: %w", err)
		}
		answers = append(answers, a)
	}
	if err := answerRows.Err(); err != nil {
		return nil, fmt.Errorf("read answers: %w", err)
	}

	return survey.NewCatalog(questions, answers), nil
}

// SaveResponse сохраняет отправленный опрос и его ответы одной транзакцией.
// Ответы после отправки не изменяются.
func (r *SurveyRepository) SaveResponse(ctx context.Context, resp *survey.Response) error {
	return r.WithTx(ctx, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO survey_responses (id, survey_id, user_id)
			VALUES ($1, $2, $3)
			RETURNING submitted_at
		`, resp.ID, resp.SurveyID, resp.UserID).Scan(&resp.SubmittedAt)
		if err != nil {
			return fmt.Errorf("insert survey response: %w", err)
		}

		for i, answer := range resp.Answers {
			_, err := tx.Exec(ctx, `
				INSERT INTO survey_response_answers (response_id, position, question_id, answer_id)
				VALUES ($1, $2, $3, $4)
			`, resp.ID, i, answer.QuestionID, answer.AnswerID)
			if err != nil {
				return fmt.Errorf("insert response answer: %w", err)
			}
		}

		return nil
	})
}

// LatestResponse последний отправленный опрос пользователя, nil если нет
func (r *SurveyRepository) LatestResponse(ctx context.Context, userID uuid.UUID) (*survey.Response, error) {
	var resp survey.Response
	err := r.QueryRow(ctx, `
		SELECT id, survey_id, user_id, submitted_at
		FROM survey_responses
		WHERE user_id = $1
		ORDER BY submitted_at DESC
		LIMIT 1
	`, userID).Scan(&resp.ID, &resp.SurveyID, &resp.UserID, &resp.SubmittedAt)
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get latest survey response: %w", err)
	}

	rows, err := r.Query(ctx, `
		SELECT question_id, answer_id
		FROM survey_response_answers
		WHERE response_id = $1
		ORDER BY position
	`, resp.ID)
	if err != nil {
		return nil, fmt.Errorf("get response answers: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var answer survey.ResponseAnswer
		if err := rows.Scan(&answer.QuestionID, &answer.AnswerID); err != nil {
			return nil, fmt.Errorf("scan response answer: %w", err)
		}
		resp.Answers = append(resp.Answers, answer)
	}

	return &resp, rows.Err()
}
