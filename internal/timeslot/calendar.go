// Package timeslot единственный источник соответствия между номером слота
// и временем дня. Таблица фиксированная: восемь часовых окон, обеденный
// перерыв 12:00-13:00 слота не имеет.
package timeslot

import (
	"errors"
	"time"
)

const (
	// MinOrdinal и MaxOrdinal границы допустимых номеров слотов
	MinOrdinal = 1
	MaxOrdinal = 8

	// Duration длительность любого слота
	Duration = time.Hour
)

var ErrInvalidSlot = errors.New("invalid slot ordinal")

// startHours час начала слота по его номеру (1→08:00 ... 8→16:00)
var startHours = [MaxOrdinal + 1]int{0, 8, 9, 10, 11, 13, 14, 15, 16}

// Resolve возвращает интервал времени слота на заданную дату.
// Компоненты времени в date игнорируются, используется только день.
func Resolve(ordinal int, date time.Time) (start, end time.Time, err error) {
	if ordinal < MinOrdinal || ordinal > MaxOrdinal {
		return time.Time{}, time.Time{}, ErrInvalidSlot
	}

	start = time.Date(date.Year(), date.Month(), date.Day(), startHours[ordinal], 0, 0, 0, date.Location())
	return start, start.Add(Duration), nil
}

// All возвращает все номера слотов по возрастанию
func All() []int {
	ordinals := make([]int, 0, MaxOrdinal)
	for ordinal := MinOrdinal; ordinal <= MaxOrdinal; ordinal++ {
		ordinals = append(ordinals, ordinal)
	}
	return ordinals
}

// FromStart обратное отображение: находит номер слота по времени его начала.
// Возвращает false если время не совпадает с началом ни одного слота
// (минуты отличны от нуля или час вне сетки).
func FromStart(t time.Time) (int, bool) {
	if t.Minute() != 0 || t.Second() != 0 {
		return 0, false
	}
	for ordinal := MinOrdinal; ordinal <= MaxOrdinal; ordinal++ {
		if startHours[ordinal] == t.Hour() {
			return ordinal, true
		}
	}
	return 0, false
}
