package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/site-attendance-go/internal/domain/siteattendance"
	"github.com/segmentio/kafka-go"
)

// SpaCheckMessage is published when an employee enters a site so downstream
// consumers can remind them to submit a site photo attendance.
type SpaCheckMessage struct {
	Type       string    `json:"type"`
	TenantID   string    `json:"tenant_id"`
	EventID    string    `json:"event_id"`
	EmployeeID string    `json:"employee_id"`
	SiteID     string    `json:"site_id"`
	Date       string    `json:"date"`
	EnteredAt  time.Time `json:"entered_at"`
}

const spaCheckMessageType = "site_attendance.spa_check_requested"

func newSpaCheckMessage(event siteattendance.AttendanceEvent) SpaCheckMessage {
	return SpaCheckMessage{
		Type:       spaCheckMessageType,
		TenantID:   event.TenantID,
		EventID:    event.ID,
		EmployeeID: event.EmployeeID,
		SiteID:     event.SiteID,
		Date:       event.Timestamp.UTC().Format("2006-01-02"),
		EnteredAt:  event.Timestamp.UTC(),
	}
}

// MessageWriter is the subset of *kafka.Writer used by KafkaNotifier.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaNotifier struct {
	writer MessageWriter
	topic  string
}

// NewKafkaWriter builds a synchronous writer for the notification topic.
func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		MaxAttempts:  3,
		BatchSize:    100,
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
		Async:        false,
	}
}

func NewKafkaNotifier(writer MessageWriter, topic string) *KafkaNotifier {
	return &KafkaNotifier{writer: writer, topic: topic}
}

// NotifyMissingSpaCheck implements siteattendance.Notifier.
// Messages are keyed by tenant and employee so one employee's messages stay ordered.
func (n *KafkaNotifier) NotifyMissingSpaCheck(ctx context.Context, event siteattendance.AttendanceEvent) error {
	payload, err := json.Marshal(newSpaCheckMessage(event))
	if err != nil {
		return fmt.Errorf("failed to encode spa check message: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(event.TenantID + ":" + event.EmployeeID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(spaCheckMessageType)},
			{Key: "tenant_id", Value: []byte(event.TenantID)},
		},
	}

	if err := n.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish spa check message to %s: %w", n.topic, err)
	}

	return nil
}

func (n *KafkaNotifier) Close() error {
	return n.writer.Close()
}

// LogNotifier records the notification in the application log. Used when no broker is configured.
type LogNotifier struct{}

// NotifyMissingSpaCheck implements siteattendance.Notifier.
func (LogNotifier) NotifyMissingSpaCheck(ctx context.Context, event siteattendance.AttendanceEvent) error {
	slog.Info("SPA check requested",
		"tenant_id", event.TenantID,
		"event_id", event.ID,
		"employee_id", event.EmployeeID,
		"site_id", event.SiteID)
	return nil
}
