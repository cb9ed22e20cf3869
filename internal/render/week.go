// Package render рисует недельную сетку занятости консультанта: семь дней
// на восемь слотов. Используется для выгрузки отчётов, на доступность
// ничего здесь не влияет.
package render

import (
	"bytes"
	"fmt"
	"image/color"
	"time"

	"github.com/fogleman/gg"
	"golang.org/x/image/font/basicfont"

	"github.com/mindaid/counseling/internal/timeslot"
)

// SlotState состояние клетки сетки
type SlotState int

const (
	StateFree SlotState = iota
	StateBooked
	StateSession
)

// Day занятость одного дня, слоты без записи считаются свободными
type Day struct {
	Date  time.Time
	Slots map[int]SlotState
}

// Константы размеров и отступов
const (
	imageWidth      = 1120
	imageHeight     = 640
	headerHeight    = 60
	leftLabelsWidth = 90
	legendHeight    = 40
	cellPadding     = 4.0
	cellRadius      = 5.0
	totalDays       = 7
)

// Цветовая схема
var (
	bgColor        = color.RGBA{245, 246, 248, 255}
	textColor      = color.RGBA{80, 85, 90, 220}
	gridLineColor  = color.NRGBA{210, 212, 214, 255}
	weekendBgColor = color.NRGBA{235, 236, 238, 255}

	freeColor    = color.RGBA{133, 193, 85, 220}  // свободен
	bookedColor  = color.RGBA{255, 182, 193, 255} // индивидуальная встреча
	sessionColor = color.RGBA{120, 160, 220, 230} // сессия программы
)

var stateColors = map[SlotState]color.RGBA{
	StateFree:    freeColor,
	StateBooked:  bookedColor,
	StateSession: sessionColor,
}

var stateLabels = []struct {
	state SlotState
	label string
}{
	{StateFree, "free"},
	{StateBooked, "appointment"},
	{StateSession, "program session"},
}

// WeekGrid рисует сетку и возвращает PNG. days обязан содержать ровно
// семь дней подряд, начиная с понедельника.
func WeekGrid(days []Day) ([]byte, error) {
	if len(days) != totalDays {
		return nil, fmt.Errorf("week grid needs %d days, got %d", totalDays, len(days))
	}

	dc := gg.NewContext(imageWidth, imageHeight)
	dc.SetFontFace(basicfont.Face7x13)

	dc.SetColor(bgColor)
	dc.Clear()

	gridTop := float64(headerHeight)
	gridHeight := float64(imageHeight - headerHeight - legendHeight)
	dayWidth := float64(imageWidth-leftLabelsWidth) / totalDays
	rowHeight := gridHeight / float64(timeslot.MaxOrdinal)

	drawHeader(dc, days)
	drawSlotLabels(dc, days[0].Date, gridTop, rowHeight)
	drawCells(dc, days, gridTop, dayWidth, rowHeight)
	drawLegend(dc, gridTop+gridHeight)

	return encodePNG(dc)
}

func drawHeader(dc *gg.Context, days []Day) {
	dc.SetColor(textColor)

	title := fmt.Sprintf("Week %s - %s",
		days[0].Date.Format("Jan 2"),
		days[totalDays-1].Date.Format("Jan 2, 2006"))
	dc.DrawStringAnchored(title, float64(imageWidth)/2, float64(headerHeight)/3, 0.5, 0.5)

	dayWidth := float64(imageWidth-leftLabelsWidth) / totalDays
	for i, day := range days {
		x := float64(leftLabelsWidth) + dayWidth*float64(i) + dayWidth/2
		dc.DrawStringAnchored(day.Date.Format("Mon 02"), x, float64(headerHeight)*2/3+6, 0.5, 0.5)
	}
}

func drawSlotLabels(dc *gg.Context, date time.Time, gridTop, rowHeight float64) {
	dc.SetColor(textColor)
	for i, ordinal := range timeslot.All() {
		start, _, err := timeslot.Resolve(ordinal, date)
		if err != nil {
			continue
		}
		y := gridTop + rowHeight*float64(i) + rowHeight/2
		dc.DrawStringAnchored(start.Format("15:04"), float64(leftLabelsWidth)/2, y, 0.5, 0.5)
	}
}

func drawCells(dc *gg.Context, days []Day, gridTop, dayWidth, rowHeight float64) {
	for dayIdx, day := range days {
		x := float64(leftLabelsWidth) + dayWidth*float64(dayIdx)

		// Выходные подсвечиваем фоном колонки
		if wd := day.Date.Weekday(); wd == time.Saturday || wd == time.Sunday {
			dc.SetColor(weekendBgColor)
			dc.DrawRectangle(x, gridTop, dayWidth, rowHeight*float64(timeslot.MaxOrdinal))
			dc.Fill()
		}

		for rowIdx, ordinal := range timeslot.All() {
			y := gridTop + rowHeight*float64(rowIdx)

			state := StateFree
			if day.Slots != nil {
				if s, ok := day.Slots[ordinal]; ok {
					state = s
				}
			}

			dc.SetColor(stateColors[state])
			dc.DrawRoundedRectangle(
				x+cellPadding, y+cellPadding,
				dayWidth-2*cellPadding, rowHeight-2*cellPadding,
				cellRadius)
			dc.Fill()
		}

		dc.SetColor(gridLineColor)
		dc.DrawLine(x, gridTop, x, gridTop+rowHeight*float64(timeslot.MaxOrdinal))
		dc.Stroke()
	}
}

func drawLegend(dc *gg.Context, legendTop float64) {
	x := float64(leftLabelsWidth)
	y := legendTop + float64(legendHeight)/2

	for _, item := range stateLabels {
		dc.SetColor(stateColors[item.state])
		dc.DrawRoundedRectangle(x, y-7, 14, 14, 3)
		dc.Fill()

		dc.SetColor(textColor)
		dc.DrawStringAnchored(item.label, x+22, y, 0, 0.5)
		x += 22 + float64(len(item.label))*7 + 30
	}
}

func encodePNG(dc *gg.Context) ([]byte, error) {
	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode week grid: %w", err)
	}
	return buf.Bytes(), nil
}
