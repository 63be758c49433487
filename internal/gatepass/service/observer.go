package service

import "time"

// Observer receives counters for scans, deliveries and reports.  The
// Prometheus collectors in internal/metrics implement it.
type Observer interface {
	ScanResult(result string)
	Notification(kind, status string)
	ReportBuilt(reportType string)
}

type noopObserver struct{}

func (noopObserver) ScanResult(string)           {}
func (noopObserver) Notification(string, string) {}
func (noopObserver) ReportBuilt(string)          {}

func observerOrNoop(o Observer) Observer {
	if o == nil {
		return noopObserver{}
	}
	return o
}

func nowOr(now func() time.Time) func() time.Time {
	if now == nil {
		return time.Now
	}
	return now
}
