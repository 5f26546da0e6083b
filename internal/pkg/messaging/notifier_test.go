package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/cmlabs-hris/site-attendance-go/internal/domain/siteattendance"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	messages []kafka.Message
	err      error
	closed   bool
}

func (w *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func testEvent() siteattendance.AttendanceEvent {
	return siteattendance.AttendanceEvent{
		ID:         "evt-1",
		TenantID:   "tenant-a",
		EmployeeID: "emp-1",
		SiteID:     "site-1",
		EventType:  siteattendance.EventTypeEnter,
		Timestamp:  time.Date(2026, 3, 10, 8, 15, 0, 0, time.UTC),
	}
}

func TestKafkaNotifier_Publishes(t *testing.T) {
	writer := &fakeWriter{}
	notifier := NewKafkaNotifier(writer, "spa-check")

	require.NoError(t, notifier.NotifyMissingSpaCheck(context.Background(), testEvent()))
	require.Len(t, writer.messages, 1)

	msg := writer.messages[0]
	assert.Equal(t, "tenant-a:emp-1", string(msg.Key))

	var decoded SpaCheckMessage
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, spaCheckMessageType, decoded.Type)
	assert.Equal(t, "evt-1", decoded.EventID)
	assert.Equal(t, "2026-03-10", decoded.Date)

	require.NoError(t, notifier.Close())
	assert.True(t, writer.closed)
}

func TestKafkaNotifier_WrapsWriteError(t *testing.T) {
	cause := errors.New("leader not available")
	notifier := NewKafkaNotifier(&fakeWriter{err: cause}, "spa-check")

	err := notifier.NotifyMissingSpaCheck(context.Background(), testEvent())

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "spa-check")
}

func TestLogNotifier(t *testing.T) {
	assert.NoError(t, LogNotifier{}.NotifyMissingSpaCheck(context.Background(), testEvent()))
}
