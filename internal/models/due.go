package models

import (
	"time"
)

var calendarLayouts = []string{
	"2006-01-02 15:04",
	"2006-01-02T15:04",
	"2006-01-02",
	"01/02/2006 15:04",
	"01/02/2006",
}

// DueAtFor вычисляет срок выполнения по бакету относительно now.
// Для due_later и пустого бакета срока нет.
func DueAtFor(bucket, calendar string, now time.Time) (*time.Time, bool) {
	var due time.Time
	switch bucket {
	case BucketDueASAP:
		due = now
	case BucketDueToday:
		due = endOfDay(now)
	case BucketDueTomorrow:
		due = endOfDay(now.AddDate(0, 0, 1))
	case BucketDueThisWeek:
		due = endOfWeek(now)
	case BucketDueNextWeek:
		due = endOfWeek(now.AddDate(0, 0, 7))
	case BucketSpecificTime:
		parsed, ok := ParseCalendar(calendar, now.Location())
		if !ok {
			return nil, false
		}
		due = parsed
	default:
		return nil, true
	}
	return &due, true
}

// ParseCalendar разбирает дату из поля calendar
func ParseCalendar(value string, loc *time.Location) (time.Time, bool) {
	for _, layout := range calendarLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// BucketFor определяет, в какой бакет сайдбара попадает открытая задача
func BucketFor(t *Task, now time.Time) string {
	if t.Bucket == BucketDueASAP {
		return BucketDueASAP
	}
	if t.DueAt == nil {
		return BucketDueLater
	}
	due := *t.DueAt
	switch {
	case due.Before(now):
		return BucketOverdue
	case !due.After(endOfDay(now)):
		return BucketDueToday
	case !due.After(endOfDay(now.AddDate(0, 0, 1))):
		return BucketDueTomorrow
	case !due.After(endOfWeek(now)):
		return BucketDueThisWeek
	case !due.After(endOfWeek(now.AddDate(0, 0, 7))):
		return BucketDueNextWeek
	default:
		return BucketDueLater
	}
}

func endOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, 0, t.Location())
}

// неделя заканчивается в воскресенье в 23:59:59
func endOfWeek(t time.Time) time.Time {
	offset := (7 - int(t.Weekday())) % 7
	return endOfDay(t.AddDate(0, 0, offset))
}
