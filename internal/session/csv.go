package session

import (
	"encoding/csv"
	"strings"
)

// csvTimeLayout matches the human-readable timestamps in the report.
const csvTimeLayout = "2006-01-02 15:04:05"

// ExportCSV renders a session's presence list as a CSV report. names maps
// lowercase email to display name; unresolved identities render as "Unknown".
func ExportCSV(sess *Session, names map[string]string) string {
	var b strings.Builder
	w := csv.NewWriter(&b)

	_ = w.Write([]string{"Name", "Email", "Status", "Date"})
	for _, entry := range sess.Presence {
		name := names[strings.ToLower(entry.Email)]
		if name == "" {
			name = "Unknown"
		}
		status := "Absent"
		if entry.Present {
			status = "Present"
		}
		_ = w.Write([]string{name, entry.Email, status, sess.CreatedAt.Format(csvTimeLayout)})
	}
	w.Flush()
	return b.String()
}
