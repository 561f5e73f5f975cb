package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// CheckinsTotal counts accepted check-ins by classified status.
	CheckinsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "campusattend_checkins_total",
		Help: "Accepted check-ins by classified status.",
	}, []string{"status"})

	// CheckinRejections counts rejected check-ins by reason.
	CheckinRejections = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "campusattend_checkin_rejections_total",
		Help: "Rejected check-ins by reason.",
	}, []string{"reason"})

	// SessionsCreated counts sessions opened by lecturers.
	SessionsCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "campusattend_sessions_created_total",
		Help: "Sessions opened by lecturers.",
	})
)

func init() {
	prometheus.MustRegister(CheckinsTotal, CheckinRejections, SessionsCreated)
}
