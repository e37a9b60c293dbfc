package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Счётчики для оператора: падения журнала аудита и хранилища не прерывают
// основную операцию, поэтому видны только здесь и в логах.
var (
	AuditAppendFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "fileshare",
		Name:      "audit_append_failures_total",
		Help:      "Неудачные вставки в журнал аудита",
	})

	StorageDeleteFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "fileshare",
		Name:      "storage_delete_failures_total",
		Help:      "Неудачные удаления объектов из S3 (advisory, без отката БД)",
	})

	ShareConsumeGranted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "fileshare",
		Name:      "share_consume_granted_total",
		Help:      "Успешные погашения доступа",
	})

	ShareConsumeRejected = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "fileshare",
		Name:      "share_consume_rejected_total",
		Help:      "Отклонённые попытки погашения (срок или лимит)",
	})
)
