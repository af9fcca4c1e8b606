package accesscontrol

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var decisionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "access_control",
	Name:      "decisions_total",
	Help:      "Permission checks by resource type, action and result.",
}, []string{"resource", "action", "result"})
