package main

import (
	"fmt"
	"os"
	"time"

	"github.com/mindaid/counseling/internal/render"
)

// Генерирует пример недельной сетки занятости в week.png
func main() {
	now := time.Now()
	monday := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	for monday.Weekday() != time.Monday {
		monday = monday.AddDate(0, 0, -1)
	}

	days := make([]render.Day, 7)
	for i := range days {
		days[i] = render.Day{Date: monday.AddDate(0, 0, i)}
	}

	// Понедельник: встреча в 10:00 и сессия программы в 14:00
	days[0].Slots = map[int]render.SlotState{
		3: render.StateBooked,
		6: render.StateSession,
	}
	// Среда: утро занято встречами
	days[2].Slots = map[int]render.SlotState{
		1: render.StateBooked,
		2: render.StateBooked,
		4: render.StateSession,
	}

	png, err := render.WeekGrid(days)
	if err != nil {
		fmt.Fprintf(os.Stderr, "generate week grid: %v\n", err)
		os.Exit(1)
	}

	if err := os.WriteFile("week.png", png, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "write week.png: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("week.png generated")
}
