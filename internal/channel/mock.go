package channel

import (
	"context"
	"fmt"
	"log"
)

// LogMailer and LogMessenger stand in for real providers during local runs:
// they log the delivery instead of performing it.

type LogMailer struct{}

func (LogMailer) Send(ctx context.Context, to, subject, htmlBody string) error {
	log.Printf("[channel] (mock) email to=%s subject=%q", to, subject)
	return nil
}

type LogMessenger struct {
	counter int
}

func (m *LogMessenger) SendText(ctx context.Context, to, body string) (string, error) {
	m.counter++
	log.Printf("[channel] (mock) text to=%s body=%q", to, body)
	return fmt.Sprintf("mock-%d", m.counter), nil
}
