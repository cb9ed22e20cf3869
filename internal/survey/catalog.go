// Package survey подсчёт баллов по измерениям из заполненного опроса.
// Справочник вопросов и ответов принадлежит внешней подсистеме опросов,
// ядро получает его только на чтение.
package survey

import (
	"time"

	"github.com/google/uuid"
)

// Question вопрос опроса, привязан к одному измерению (Anxiety, Stress, ...)
type Question struct {
	ID        uuid.UUID `json:"id"`
	SurveyID  uuid.UUID `json:"survey_id"`
	Text      string    `json:"text"`
	Dimension string    `json:"dimension"`
}

// Answer вариант ответа с количеством баллов
type Answer struct {
	ID         uuid.UUID `json:"id"`
	QuestionID uuid.UUID `json:"question_id"`
	Text       string    `json:"text"`
	Point      int       `json:"point"`
}

// Catalog справочник вопросов и ответов одного опроса
type Catalog struct {
	questions map[uuid.UUID]Question
	answers   map[uuid.UUID]Answer
}

func NewCatalog(questions []Question, answers []Answer) *Catalog {
	cat := &Catalog{
		questions: make(map[uuid.UUID]Question, len(questions)),
		answers:   make(map[uuid.UUID]Answer, len(answers)),
	}
	for _, q := range questions {
		cat.questions[q.ID] = q
	}
	for _, a := range answers {
		cat.answers[a.ID] = a
	}
	return cat
}

// Question находит вопрос по id
func (c *Catalog) Question(id uuid.UUID) (Question, bool) {
	q, ok := c.questions[id]
	return q, ok
}

// Answer находит вариант ответа по id
func (c *Catalog) Answer(id uuid.UUID) (Answer, bool) {
	a, ok := c.answers[id]
	return a, ok
}

// Dimensions возвращает все измерения, встречающиеся в вопросах справочника
func (c *Catalog) Dimensions() []string {
	seen := make(map[string]struct{})
	var dims []string
	for _, q := range c.questions {
		if _, ok := seen[q.Dimension]; !ok {
			seen[q.Dimension] = struct{}{}
			dims = append(dims, q.Dimension)
		}
	}
	return dims
}

// ResponseAnswer выбранный ответ на один вопрос
type ResponseAnswer struct {
	QuestionID uuid.UUID `json:"question_id"`
	AnswerID   uuid.UUID `json:"answer_id"`
}

// Response заполненный опрос одного пользователя, неизменяем после отправки
type Response struct {
	ID          uuid.UUID        `json:"id"`
	SurveyID    uuid.UUID        `json:"survey_id"`
	UserID      uuid.UUID        `json:"user_id"`
	Answers     []ResponseAnswer `json:"answers"`
	SubmittedAt time.Time        `json:"submitted_at"`
}
