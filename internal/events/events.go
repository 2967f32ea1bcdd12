// Package events publishes build diagnostics and refreshes to NATS.
package events

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/bianoble/sassbuild/internal/diagnostic"
)

// Event types.
const (
	TypeDiagnostic = "diagnostic"
	TypeRefresh    = "refresh"
)

// Event is the JSON message published for every diagnostic and refresh.
type Event struct {
	Type      string    `json:"type"`
	Path      string    `json:"path"`
	Line      int       `json:"line,omitempty"`
	Column    int       `json:"column,omitempty"`
	Severity  string    `json:"severity,omitempty"`
	Message   string    `json:"message,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// conn is the part of *nats.Conn the publisher uses.
type conn interface {
	Publish(subject string, data []byte) error
	Flush() error
	Close()
}

// Publisher is a build host that forwards diagnostics and refreshes to a
// NATS subject. Publish failures are logged and never fail the build.
type Publisher struct {
	conn    conn
	subject string
	logger  *slog.Logger
	now     func() time.Time
}

// Connect dials url and returns a Publisher for subject.
func Connect(url, subject string, logger *slog.Logger) (*Publisher, error) {
	nc, err := nats.Connect(url, nats.Name("sassbuild"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	p := newPublisher(nc, subject, logger)
	p.logger.Info("Publishing build events", slog.String("url", url), slog.String("subject", subject))
	return p, nil
}

func newPublisher(c conn, subject string, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{conn: c, subject: subject, logger: logger, now: time.Now}
}

// AddMessage publishes a diagnostic event.
func (p *Publisher) AddMessage(d diagnostic.Diagnostic) {
	p.publish(Event{
		Type:     TypeDiagnostic,
		Path:     d.File,
		Line:     d.Line,
		Column:   d.Column,
		Severity: d.Severity.String(),
		Message:  d.Message,
	})
}

// Refresh publishes a refresh event for a written file.
func (p *Publisher) Refresh(path string) {
	p.publish(Event{Type: TypeRefresh, Path: path})
}

func (p *Publisher) publish(ev Event) {
	ev.Timestamp = p.now()
	data, err := json.Marshal(ev)
	if err != nil {
		p.logger.Warn("Failed to marshal event", slog.Any("error", err))
		return
	}
	if err := p.conn.Publish(p.subject, data); err != nil {
		p.logger.Warn("Failed to publish event", slog.String("type", ev.Type), slog.Any("error", err))
		return
	}
	p.logger.Debug("Published event", slog.String("type", ev.Type), slog.String("path", ev.Path))
}

// Close flushes pending events and closes the connection.
func (p *Publisher) Close() error {
	err := p.conn.Flush()
	p.conn.Close()
	if err != nil {
		return fmt.Errorf("flushing NATS connection: %w", err)
	}
	return nil
}
