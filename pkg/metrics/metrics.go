package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PermissionChecks counts authorization decisions and their outcome (allow|deny|error).
	PermissionChecks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gatehouse_permission_checks_total",
			Help: "Total number of permission checks",
		},
		[]string{"result"},
	)

	// RegistrySynced records entities reconciled into the store by registry sync.
	RegistrySynced = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gatehouse_registry_synced_total",
			Help: "Entities created by permission registry reconciliation",
		},
		[]string{"entity"},
	)

	// RegistrationsPurged counts expired self-registration rows removed by maintenance.
	RegistrationsPurged = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gatehouse_registrations_purged_total",
			Help: "Expired registration records removed by the cleanup job",
		},
	)
)
