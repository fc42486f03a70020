package analytics

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"classtrack/internal/classroom"
)

// Summary is the dashboard roll-up over a teacher's classes.
type Summary struct {
	TotalClasses    int             `json:"total_classes"`
	TotalStudents   int             `json:"total_students"`
	ActiveClasses   int             `json:"active_classes"`
	AvgClassSize    int             `json:"avg_students_per_class"`
	CheckInsByClass map[int64]int64 `json:"checkins_by_class,omitempty"`
}

// Summarize computes class counts as of the given day. A class is active
// while its end date has not passed.
func Summarize(classes []classroom.Class, now time.Time) Summary {
	s := Summary{TotalClasses: len(classes)}
	for i := range classes {
		s.TotalStudents += len(classes[i].Roster)
		if !classes[i].EndDate.Before(now) {
			s.ActiveClasses++
		}
	}
	if s.TotalClasses > 0 {
		s.AvgClassSize = (s.TotalStudents + s.TotalClasses/2) / s.TotalClasses
	}
	return s
}

const counterKey = "classtrack:checkins:class:"

// Recorder keeps per-class check-in counters in Redis. The worker increments
// them as check-in events arrive; the API reads them for the analytics view.
type Recorder struct {
	client *redis.Client
}

// NewRecorder creates a recorder.
func NewRecorder(client *redis.Client) *Recorder {
	return &Recorder{client: client}
}

// RecordCheckIn increments the counter for a class.
func (r *Recorder) RecordCheckIn(ctx context.Context, classID int64) error {
	return r.client.Incr(ctx, counterKey+strconv.FormatInt(classID, 10)).Err()
}

// CheckInCounts returns the counters for the given classes. Classes with no
// recorded check-ins are absent from the result.
func (r *Recorder) CheckInCounts(ctx context.Context, classIDs []int64) (map[int64]int64, error) {
	out := make(map[int64]int64, len(classIDs))
	if len(classIDs) == 0 {
		return out, nil
	}
	keys := make([]string, len(classIDs))
	for i, id := range classIDs {
		keys[i] = counterKey + strconv.FormatInt(id, 10)
	}
	vals, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}
	for i, v := range vals {
		if v == nil {
			continue
		}
		if s, ok := v.(string); ok {
			if n, err := strconv.ParseInt(s, 10, 64); err == nil {
				out[classIDs[i]] = n
			}
		}
	}
	return out, nil
}
