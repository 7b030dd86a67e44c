package timetable

import (
	"sort"
	"strconv"
	"time"

	"github.com/nice-timetable/backend/internal/storage/models"
	"github.com/nice-timetable/backend/internal/timetable/week"
)

// toScheduleDays converts raw timetable rows into canonical days.
//
// Rows with a missing or non-positive period are dropped. The rest are
// grouped by date, then by period, keeping the first row seen per
// (date, period) pair; later duplicates for the same slot are dropped, not
// merged. Each day's columns are then padded into a contiguous 1..max run
// with empty placeholders for missing periods. Output is sorted ascending
// by date. These rules keep the parsed (and therefore cached) output
// reproducible regardless of upstream row order.
func toScheduleDays(rows []timetableRow) []models.ScheduleDay {
	byDate := make(map[string]map[int]models.ScheduleColumn)
	for _, row := range rows {
		period, err := strconv.Atoi(row.Period)
		if err != nil || period <= 0 {
			continue
		}

		slots, ok := byDate[row.Date]
		if !ok {
			slots = make(map[int]models.ScheduleColumn)
			byDate[row.Date] = slots
		}
		if _, taken := slots[period]; taken {
			continue // first row wins
		}
		slots[period] = models.ScheduleColumn{
			Period:      period,
			Subject:     row.Subject,
			Room:        row.Room,
			LastUpdated: row.LastUpdated,
		}
	}

	var days []models.ScheduleDay
	for dateStr, slots := range byDate {
		date, err := time.ParseInLocation(week.StampFormat, dateStr, time.Local)
		if err != nil {
			continue
		}

		maxPeriod := 0
		for period := range slots {
			if period > maxPeriod {
				maxPeriod = period
			}
		}

		columns := make([]models.ScheduleColumn, 0, maxPeriod)
		for period := 1; period <= maxPeriod; period++ {
			if col, ok := slots[period]; ok {
				columns = append(columns, col)
			} else {
				columns = append(columns, models.ScheduleColumn{Period: period})
			}
		}

		days = append(days, models.ScheduleDay{Date: date, Columns: columns})
	}

	sort.Slice(days, func(i, j int) bool {
		return days[i].Date.Before(days[j].Date)
	})

	return days
}

// PadDays fills every weekday (Mon-Fri) in [startDate, endDate] that has no
// parsed data with an empty ScheduleDay, so a week always has a uniform
// shape. Weekend dates are never emitted. Output is sorted ascending.
func PadDays(days []models.ScheduleDay, startDate, endDate time.Time) []models.ScheduleDay {
	start := week.Midnight(startDate)
	end := week.Midnight(endDate)

	byDate := make(map[time.Time]models.ScheduleDay, len(days))
	for _, d := range days {
		byDate[week.Midnight(d.Date)] = d
	}

	var result []models.ScheduleDay
	for cursor := start; !cursor.After(end); cursor = cursor.AddDate(0, 0, 1) {
		if !week.IsWeekday(cursor) {
			continue
		}
		if existing, ok := byDate[cursor]; ok {
			result = append(result, existing)
		} else {
			result = append(result, models.ScheduleDay{Date: cursor})
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Date.Before(result[j].Date)
	})

	return result
}
