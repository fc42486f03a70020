package session

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportCSV(t *testing.T) {
	sess := &Session{
		ID:      7,
		ClassID: 1,
		Presence: PresenceList{
			{Email: "a@x.com", Present: true},
			{Email: "b@x.com", Present: false},
		},
		CreatedAt: time.Date(2024, 1, 8, 9, 30, 0, 0, time.UTC),
	}
	names := map[string]string{"a@x.com": "Alice"}

	out := ExportCSV(sess, names)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 3, "header plus one row per presence entry")

	assert.Equal(t, "Name,Email,Status,Date", lines[0])
	assert.Equal(t, "Alice,a@x.com,Present,2024-01-08 09:30:00", lines[1])
	assert.Equal(t, "Unknown,b@x.com,Absent,2024-01-08 09:30:00", lines[2])
}

func TestExportCSVEmptyPresence(t *testing.T) {
	sess := &Session{CreatedAt: time.Now()}
	out := ExportCSV(sess, nil)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	assert.Len(t, lines, 1, "header only")
}
