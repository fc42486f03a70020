package session

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	sessionsOpened = promauto.NewCounter(prometheus.CounterOpts{
		Name: "classtrack_sessions_opened_total",
		Help: "Attendance windows opened.",
	})
	checkinsAccepted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "classtrack_checkins_accepted_total",
		Help: "Check-ins that marked a student present.",
	})
	checkinsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "classtrack_checkins_rejected_total",
		Help: "Check-ins rejected, by reason.",
	}, []string{"reason"})
)
