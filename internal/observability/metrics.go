package observability

import (
	"strconv"
	"sync"
	"time"
)

// Metrics provides basic in-memory counters for the submission pipeline.
type Metrics struct {
	mu              sync.Mutex
	requestCount    map[string]int64
	errorCount      map[string]int64
	submissionCount map[string]int64
	webhookCount    map[string]int64
	ticketCount     map[string]int64
	escalationCount map[string]int64
	eventCount      map[string]int64
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		requestCount:    make(map[string]int64),
		errorCount:      make(map[string]int64),
		submissionCount: make(map[string]int64),
		webhookCount:    make(map[string]int64),
		ticketCount:     make(map[string]int64),
		escalationCount: make(map[string]int64),
		eventCount:      make(map[string]int64),
	}
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	key := path + "|" + method + "|" + strconv.Itoa(status)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount[key]++
}

// RecordError increments error counters.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	key := path + "|" + method + "|" + code
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorCount[key]++
}

// RecordSubmission counts a submission attempt by category and outcome.
func (m *Metrics) RecordSubmission(category, outcome string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.submissionCount[category+"|"+outcome]++
}

// RecordWebhookDelivery counts a webhook delivery outcome.
func (m *Metrics) RecordWebhookDelivery(outcome string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.webhookCount[outcome]++
}

// RecordTicketGateway counts a ticket-gateway outcome.
func (m *Metrics) RecordTicketGateway(outcome string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ticketCount[outcome]++
}

// RecordEscalation counts an escalation event per department.
func (m *Metrics) RecordEscalation(department string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.escalationCount[department]++
}

// RecordEvent counts a published domain event by type.
func (m *Metrics) RecordEvent(eventType string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.eventCount[eventType]++
}

// Snapshot returns a copy of all counters for the stats endpoint.
func (m *Metrics) Snapshot() map[string]map[string]int64 {
	if m == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return map[string]map[string]int64{
		"requests":    copyCounters(m.requestCount),
		"errors":      copyCounters(m.errorCount),
		"submissions": copyCounters(m.submissionCount),
		"webhook":     copyCounters(m.webhookCount),
		"tickets":     copyCounters(m.ticketCount),
		"escalations": copyCounters(m.escalationCount),
		"events":      copyCounters(m.eventCount),
	}
}

func copyCounters(src map[string]int64) map[string]int64 {
	dst := make(map[string]int64, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
