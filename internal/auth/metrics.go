package auth

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	signupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "auth",
		Name:      "signups_total",
		Help:      "Signup attempts by outcome.",
	}, []string{"result"})

	loginsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "auth",
		Name:      "logins_total",
		Help:      "Login attempts by outcome.",
	}, []string{"result"})

	tokenVerificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "auth",
		Name:      "token_verifications_total",
		Help:      "Session token verifications by outcome.",
	}, []string{"result"})
)

func outcome(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}
