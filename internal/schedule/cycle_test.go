package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/fairview/review-cycle-service/internal/domain"
)

func TestCycleAnchor(t *testing.T) {
	tests := []struct {
		name     string
		today    time.Time
		anchor   time.Time
		next     time.Time
		label    string
	}{
		{
			name:   "mid first half",
			today:  date(2025, time.March, 15),
			anchor: date(2025, time.January, 1),
			next:   date(2025, time.July, 1),
			label:  "2H-2024",
		},
		{
			name:   "last day of first half",
			today:  date(2025, time.June, 30),
			anchor: date(2025, time.January, 1),
			next:   date(2025, time.July, 1),
			label:  "2H-2024",
		},
		{
			name:   "first day of second half",
			today:  date(2025, time.July, 1),
			anchor: date(2025, time.July, 1),
			next:   date(2026, time.January, 1),
			label:  "1H-2025",
		},
		{
			name:   "end of year",
			today:  date(2025, time.December, 31),
			anchor: date(2025, time.July, 1),
			next:   date(2026, time.January, 1),
			label:  "1H-2025",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			anchor := CycleAnchor(tt.today)
			assert.Equal(t, tt.anchor, anchor)
			assert.Equal(t, tt.next, NextCycleAnchor(tt.today))
			assert.Equal(t, tt.label, PeriodLabel(anchor))
		})
	}
}

func TestFlavorFor(t *testing.T) {
	tests := []struct {
		name   string
		today  time.Time
		manual domain.Flavor
		want   domain.Flavor
	}{
		{
			name:  "first half is formal",
			today: date(2025, time.February, 10),
			want:  domain.FlavorFormal,
		},
		{
			name:  "second half is informal",
			today: date(2025, time.September, 10),
			want:  domain.FlavorInformal,
		},
		{
			name:   "manual override wins",
			today:  date(2025, time.February, 10),
			manual: domain.FlavorInformal,
			want:   domain.FlavorInformal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FlavorFor(tt.today, tt.manual))
		})
	}
}
