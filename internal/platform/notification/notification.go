// Package notification holds the in-app notification types and the message
// templates used to render them.
package notification

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Type is the notification_type column value.
type Type string

const (
	TypeAppointmentCreated    Type = "appointment_created"
	TypeAppointmentResponse   Type = "appointment_response"
	TypeAppointmentAttendance Type = "appointment_attendance"
	TypeAppointmentReminder   Type = "appointment_reminder"
	TypeApprovalRequest       Type = "approval_request"
	TypeApprovalDecision      Type = "approval_decision"
	TypeCrisisAlert           Type = "crisis_alert"
	TypeClinicianMessage      Type = "clinician_message"
)

// Template defines a reusable notification message.
type Template struct {
	Type Type   `json:"type"`
	Name string `json:"name"`
	Body string `json:"body"`
}

// TemplateEngine manages notification templates and renders them with data.
type TemplateEngine struct {
	mu        sync.RWMutex
	templates map[Type]*Template
}

// NewTemplateEngine creates a TemplateEngine with the built-in templates pre-registered.
func NewTemplateEngine() *TemplateEngine {
	e := &TemplateEngine{
		templates: make(map[Type]*Template),
	}
	e.registerBuiltIn()
	return e
}

func (e *TemplateEngine) registerBuiltIn() {
	builtIn := []Template{
		{
			Type: TypeAppointmentCreated,
			Name: "Appointment Booked",
			Body: "{{clinician}} booked an appointment with you on {{date}} at {{time}} ({{duration}} minutes).",
		},
		{
			Type: TypeAppointmentResponse,
			Name: "Appointment Response",
			Body: "{{patient}} {{response}} the appointment on {{date}} at {{time}}.",
		},
		{
			Type: TypeAppointmentAttendance,
			Name: "Appointment Attendance",
			Body: "Your appointment with {{clinician}} on {{date}} was marked as {{status}}.",
		},
		{
			Type: TypeAppointmentReminder,
			Name: "Appointment Reminder",
			Body: "Reminder: you have an appointment with {{clinician}} on {{date}} at {{time}}.",
		},
		{
			Type: TypeApprovalRequest,
			Name: "Connection Request",
			Body: "{{patient}} has asked to connect with you as their clinician.",
		},
		{
			Type: TypeApprovalDecision,
			Name: "Connection Decision",
			Body: "{{clinician}} has {{decision}} your connection request.",
		},
		{
			Type: TypeCrisisAlert,
			Name: "Crisis Alert",
			Body: "Crisis alert: {{patient}} may be at risk. Please review their recent activity as soon as possible.",
		},
		{
			Type: TypeClinicianMessage,
			Name: "Clinician Message",
			Body: "New message from {{clinician}}: {{subject}}",
		},
	}
	for i := range builtIn {
		t := builtIn[i]
		e.templates[t.Type] = &t
	}
}

// RegisterTemplate adds or replaces a template in the engine.
func (e *TemplateEngine) RegisterTemplate(t Template) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.templates[t.Type] = &t
}

// Render looks up the template for typ and performs {{key}} replacement using
// data. Keys present in the template but absent from data are left as-is.
func (e *TemplateEngine) Render(typ Type, data map[string]string) (string, error) {
	e.mu.RLock()
	t, ok := e.templates[typ]
	e.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("template %q not found", typ)
	}

	body := t.Body
	for k, v := range data {
		body = strings.ReplaceAll(body, "{{"+k+"}}", v)
	}
	return body, nil
}

// Types returns the registered template types in sorted order.
func (e *TemplateEngine) Types() []Type {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]Type, 0, len(e.templates))
	for t := range e.templates {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
