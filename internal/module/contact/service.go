package contact

import (
	"context"
	"log/slog"
	"strings"
)

// Request is the public contact form.
type Request struct {
	Name    string `json:"name" binding:"required,min=2,max=100"`
	Email   string `json:"email" binding:"required,email,max=255"`
	Phone   string `json:"phone" binding:"max=30"`
	Subject string `json:"subject" binding:"max=200"`
	Message string `json:"message" binding:"required,min=10,max=5000"`
}

// Message is a contact request addressed to the consultancy.
type Message struct {
	To      string
	Request
}

// Notifier delivers contact messages.
type Notifier interface {
	Notify(ctx context.Context, msg Message) error
}

// LogNotifier records contact messages in the application log. It stands in
// for a mail transport.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a LogNotifier.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(ctx context.Context, msg Message) error {
	n.logger.InfoContext(ctx, "contact message received",
		slog.String("to", msg.To),
		slog.String("from", msg.Email),
		slog.String("name", msg.Name),
		slog.String("subject", msg.Subject),
		slog.Int("length", len(msg.Message)),
	)
	return nil
}

// Service forwards contact requests to the configured recipient.
type Service struct {
	recipient string
	notifier  Notifier
}

// NewService creates a Service. An empty recipient keeps the form working
// but the message is only logged without an addressee.
func NewService(recipient string, notifier Notifier) *Service {
	return &Service{recipient: strings.TrimSpace(recipient), notifier: notifier}
}

// Send normalises req and hands it to the notifier.
func (s *Service) Send(ctx context.Context, req Request) error {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	req.Phone = strings.TrimSpace(req.Phone)
	req.Subject = strings.TrimSpace(req.Subject)
	req.Message = strings.TrimSpace(req.Message)
	return s.notifier.Notify(ctx, Message{To: s.recipient, Request: req})
}
