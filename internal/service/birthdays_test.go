package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNextBirthday(t *testing.T) {
	tests := []struct {
		name     string
		birthday time.Time
		today    time.Time
		want     time.Time
	}{
		{"later this year", date(1990, 7, 10), date(2025, 3, 1), date(2025, 7, 10)},
		{"today", date(1990, 3, 1), date(2025, 3, 1), date(2025, 3, 1)},
		{"already passed", date(1990, 1, 5), date(2025, 3, 1), date(2026, 1, 5)},
		{"leap day in common year", date(2000, 2, 29), date(2025, 2, 10), date(2025, 3, 1)},
		{"leap day in leap year", date(2000, 2, 29), date(2028, 2, 10), date(2028, 2, 29)},
		{"leap day rolls into leap year", date(2000, 2, 29), date(2027, 3, 2), date(2028, 2, 29)},
		{"year end wrap", date(1985, 1, 2), date(2025, 12, 30), date(2026, 1, 2)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NextBirthday(tt.birthday, tt.today))
		})
	}
}

func TestBirthdayWithin(t *testing.T) {
	today := date(2025, 12, 25)

	assert.True(t, BirthdayWithin(date(1990, 12, 25), today, 0))
	assert.False(t, BirthdayWithin(date(1990, 12, 26), today, 0))
	assert.True(t, BirthdayWithin(date(1990, 12, 26), today, 1))
	assert.True(t, BirthdayWithin(date(1990, 1, 1), today, 7))
	assert.False(t, BirthdayWithin(date(1990, 1, 2), today, 7))
	assert.True(t, BirthdayWithin(date(1990, 12, 24), today, 366))
	assert.False(t, BirthdayWithin(date(1990, 12, 24), today, 300))
	assert.False(t, BirthdayWithin(date(1990, 12, 25), today, -1))
}

func TestBirthdayWithin_IgnoresTimeOfDay(t *testing.T) {
	late := time.Date(2025, 6, 1, 23, 59, 0, 0, time.UTC)
	assert.True(t, BirthdayWithin(date(1970, 6, 1), late, 0))
}
