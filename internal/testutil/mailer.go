package testutil

import (
	"context"
	"sync"
)

// SentMail is one message captured by RecordingMailer.
type SentMail struct {
	To       string
	Subject  string
	Template string
	Data     map[string]any
}

// RecordingMailer keeps every message instead of delivering it.
type RecordingMailer struct {
	mu   sync.Mutex
	sent []SentMail
	Err  error
}

func (m *RecordingMailer) Send(_ context.Context, to, subject, template string, data map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.sent = append(m.sent, SentMail{To: to, Subject: subject, Template: template, Data: data})
	return nil
}

func (m *RecordingMailer) Sent() []SentMail {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]SentMail(nil), m.sent...)
}

// Last returns the most recent message sent with template, if any.
func (m *RecordingMailer) Last(template string) (SentMail, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.sent) - 1; i >= 0; i-- {
		if m.sent[i].Template == template {
			return m.sent[i], true
		}
	}
	return SentMail{}, false
}

// Token returns the Token field of the last message sent with template.
func (m *RecordingMailer) Token(template string) string {
	msg, ok := m.Last(template)
	if !ok {
		return ""
	}
	tok, _ := msg.Data["Token"].(string)
	return tok
}

func (m *RecordingMailer) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = nil
}
