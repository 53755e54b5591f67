// Package eta сдвигает человекочитаемый срок доставки ("10–14.02.2026")
// на заданное число дней, сохраняя исходную форму записи.
// Грамматика умышленно узкая: три формы, см. регэкспы ниже.
// Не расширять без соответствующих тестов.
package eta

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

var (
	spaceRe = regexp.MustCompile(`\s`)

	// ДД.ММ.ГГГГ–ДД.ММ.ГГГГ (диапазон через месяц/год)
	fullRangeRe = regexp.MustCompile(`^(\d{1,2})\.(\d{1,2})\.(\d{4})[–-](\d{1,2})\.(\d{1,2})\.(\d{4})$`)
	// ДД–ДД.ММ.ГГГГ (диапазон внутри месяца)
	sameMonthRangeRe = regexp.MustCompile(`^(\d{1,2})[–-](\d{1,2})\.(\d{1,2})\.(\d{4})$`)
	// ДД.ММ.ГГГГ
	singleRe = regexp.MustCompile(`^(\d{1,2})\.(\d{1,2})\.(\d{4})$`)
)

// Shift разбирает etaText, сдвигает каждую дату на days и рендерит
// в исходной форме. Пустой или неразборчивый текст — сегодня+days
// одной датой.
func Shift(etaText string, days int, now time.Time) string {
	fallback := func() string {
		return formatDate(now.AddDate(0, 0, days))
	}
	if etaText == "" {
		return fallback()
	}

	cleaned := spaceRe.ReplaceAllString(etaText, "")

	if m := fullRangeRe.FindStringSubmatch(cleaned); m != nil {
		start, okS := makeDate(m[1], m[2], m[3])
		end, okE := makeDate(m[4], m[5], m[6])
		if okS && okE {
			return formatDate(start.AddDate(0, 0, days)) + "–" + formatDate(end.AddDate(0, 0, days))
		}
	}

	if m := sameMonthRangeRe.FindStringSubmatch(cleaned); m != nil {
		start, okS := makeDate(m[1], m[3], m[4])
		end, okE := makeDate(m[2], m[3], m[4])
		if okS && okE {
			return formatRange(start.AddDate(0, 0, days), end.AddDate(0, 0, days))
		}
	}

	if m := singleRe.FindStringSubmatch(cleaned); m != nil {
		if d, ok := makeDate(m[1], m[2], m[3]); ok {
			return formatDate(d.AddDate(0, 0, days))
		}
	}

	return fallback()
}

// formatRange схлопывает диапазон обратно в короткую форму ДД–ДД.ММ.ГГГГ,
// если обе даты остались в одном месяце, иначе рендерит полный диапазон.
func formatRange(start, end time.Time) string {
	if start.Year() == end.Year() && start.Month() == end.Month() {
		return fmt.Sprintf("%02d–%s", start.Day(), formatDate(end))
	}
	return formatDate(start) + "–" + formatDate(end)
}

func formatDate(t time.Time) string {
	return fmt.Sprintf("%02d.%02d.%04d", t.Day(), int(t.Month()), t.Year())
}

func makeDate(day, month, year string) (time.Time, bool) {
	d, _ := strconv.Atoi(day)
	m, _ := strconv.Atoi(month)
	y, _ := strconv.Atoi(year)
	if d == 0 || m == 0 || y == 0 {
		return time.Time{}, false
	}
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC), true
}
