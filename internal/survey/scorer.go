package survey

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownQuestion = errors.New("question is not in the catalog")
	ErrUnknownAnswer   = errors.New("answer is not in the catalog")
)

// Score суммирует баллы выбранных ответов по измерению их вопроса.
// Измерения без набранных ответов получают 0. Ссылка на неизвестный вопрос
// или ответ прерывает подсчёт: молча выброшенные баллы испортили бы
// последующий отбор в программы.
func Score(resp Response, cat *Catalog) (map[string]int, error) {
	scores := make(map[string]int)
	for _, dim := range cat.Dimensions() {
		scores[dim] = 0
	}

	for _, ra := range resp.Answers {
		question, ok := cat.Question(ra.QuestionID)
		if !ok {
			return nil, fmt.Errorf("score question %s: %w", ra.QuestionID, ErrUnknownQuestion)
		}

		answer, ok := cat.Answer(ra.AnswerID)
		if !ok || answer.QuestionID != question.ID {
			return nil, fmt.Errorf("score answer %s of question %s: %w", ra.AnswerID, ra.QuestionID, ErrUnknownAnswer)
		}

		scores[question.Dimension] += answer.Point
	}

	return scores, nil
}
