package email

import (
	"context"
	"log"
	"sync"
)

// ConsoleMailer logs messages instead of delivering them. Used in dev and in
// tests, which can inspect Sent.
type ConsoleMailer struct {
	mu    sync.Mutex
	quiet bool
	sent  []Message
}

func NewConsoleMailer() Mailer { return &ConsoleMailer{} }

// NewRecordingMailer is a silent console mailer for tests.
func NewRecordingMailer() *ConsoleMailer { return &ConsoleMailer{quiet: true} }

func (m *ConsoleMailer) Send(_ context.Context, msg Message) error {
	m.mu.Lock()
	m.sent = append(m.sent, msg)
	m.mu.Unlock()
	if !m.quiet {
		log.Printf("email to=%s subject=%q\n%s", msg.To, msg.Subject, msg.Text)
	}
	return nil
}

func (m *ConsoleMailer) Sent() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Message, len(m.sent))
	copy(out, m.sent)
	return out
}
