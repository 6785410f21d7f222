package notifications

import (
	"log"
	"sync"
)

// LogEmitter writes intents to a logger. It is the default sink when no
// delivery collaborator is wired up.
type LogEmitter struct {
	logger *log.Logger
}

// NewLogEmitter creates a log-backed emitter.
func NewLogEmitter(logger *log.Logger) *LogEmitter {
	if logger == nil {
		logger = log.Default()
	}
	return &LogEmitter{logger: logger}
}

func (e *LogEmitter) EmitNotification(intent NotificationIntent) {
	e.logger.Printf("notification intent %s: ticket=%d recipients=%v reason=%s",
		intent.ID, intent.TicketID, intent.RecipientIDs, intent.Reason)
}

func (e *LogEmitter) EmitEmail(intent EmailIntent) {
	e.logger.Printf("email intent %s: ticket=%d recipients=%v subject=%q",
		intent.ID, intent.TicketID, intent.Recipients, intent.Subject)
}

func (e *LogEmitter) EmitAudit(event AuditEvent) {
	e.logger.Printf("audit %s: actor=%d action=%s subject=%s outcome=%s",
		event.ID, event.ActorID, event.Action, event.Subject, event.Outcome)
}

// Recorder keeps every emitted intent in memory. Used by tests and by the
// dev server to inspect what the core would have sent.
type Recorder struct {
	mu            sync.Mutex
	Notifications []NotificationIntent
	Emails        []EmailIntent
	Audits        []AuditEvent
}

// NewRecorder creates an in-memory emitter.
func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) EmitNotification(intent NotificationIntent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Notifications = append(r.Notifications, intent)
}

func (r *Recorder) EmitEmail(intent EmailIntent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Emails = append(r.Emails, intent)
}

func (r *Recorder) EmitAudit(event AuditEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Audits = append(r.Audits, event)
}

// NotificationCount returns the number of notification intents seen.
func (r *Recorder) NotificationCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.Notifications)
}

// EmailCount returns the number of email intents seen.
func (r *Recorder) EmailCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.Emails)
}
