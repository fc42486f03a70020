package classroom

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func mondayClass() Class {
	return Class{
		ID:           1,
		ScheduleDays: []string{"Monday"},
		StartDate:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:      time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
	}
}

func TestMeetsOn(t *testing.T) {
	c := mondayClass()

	cases := []struct {
		name string
		day  time.Time
		want bool
	}{
		{"monday in range", time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC), true},
		{"tuesday in range", time.Date(2024, 1, 9, 0, 0, 0, 0, time.UTC), false},
		{"monday past end date", time.Date(2024, 2, 5, 0, 0, 0, 0, time.UTC), false},
		{"monday before start date", time.Date(2023, 12, 25, 0, 0, 0, 0, time.UTC), false},
		{"start date itself", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), true},
		{"end date not a scheduled day", time.Date(2024, 1, 31, 23, 30, 0, 0, time.UTC), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, MeetsOn(&c, tc.day))
		})
	}
}

func TestMeetsOnInclusiveEndDay(t *testing.T) {
	c := mondayClass()
	c.ScheduleDays = []string{"Wednesday"}

	// 2024-01-31 is a Wednesday; the range is inclusive and time of day ignored.
	assert.True(t, MeetsOn(&c, time.Date(2024, 1, 31, 15, 0, 0, 0, time.UTC)))
}

func TestClassesOn(t *testing.T) {
	mon := mondayClass()
	tue := mondayClass()
	tue.ID = 2
	tue.ScheduleDays = []string{"Tuesday"}

	got := ClassesOn([]Class{mon, tue}, time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC))
	assert.Len(t, got, 1)
	assert.Equal(t, int64(1), got[0].ID)

	got = ClassesOn([]Class{mon, tue}, time.Date(2024, 1, 6, 0, 0, 0, 0, time.UTC))
	assert.Empty(t, got)
}
