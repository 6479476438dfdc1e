package service

import "time"

const MaxBirthdayWindow = 366

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func isLeap(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

// anniversary places a birthday in year; Feb 29 moves to Mar 1 in common years.
func anniversary(birthday time.Time, year int) time.Time {
	m, d := birthday.Month(), birthday.Day()
	if m == time.February && d == 29 && !isLeap(year) {
		m, d = time.March, 1
	}
	return time.Date(year, m, d, 0, 0, 0, 0, time.UTC)
}

// NextBirthday is the first anniversary on or after today.
func NextBirthday(birthday, today time.Time) time.Time {
	today = dateOnly(today)
	next := anniversary(birthday, today.Year())
	if next.Before(today) {
		next = anniversary(birthday, today.Year()+1)
	}
	return next
}

// BirthdayWithin reports whether the next anniversary falls in [today, today+days].
func BirthdayWithin(birthday, today time.Time, days int) bool {
	if days < 0 {
		return false
	}
	today = dateOnly(today)
	return !NextBirthday(birthday, today).After(today.AddDate(0, 0, days))
}
