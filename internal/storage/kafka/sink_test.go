package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/confluentinc/confluent-kafka-go/kafka"
	"github.com/stretchr/testify/require"

	"pendingScope/internal/model"
)

type fakeProducer struct {
	events  chan kafka.Event
	sent    []*kafka.Message
	failKey string
	closed  bool
}

func newFakeProducer() *fakeProducer {
	return &fakeProducer{events: make(chan kafka.Event, 1)}
}

func (f *fakeProducer) Produce(msg *kafka.Message, deliveryChan chan kafka.Event) error {
	f.sent = append(f.sent, msg)
	report := *msg
	if string(msg.Key) == f.failKey {
		report.TopicPartition.Error = errors.New("broker rejected message")
	}
	deliveryChan <- &report
	return nil
}

func (f *fakeProducer) Events() chan kafka.Event { return f.events }
func (f *fakeProducer) Flush(int) int            { return 0 }
func (f *fakeProducer) Close() {
	f.closed = true
	close(f.events)
}

func records() []model.PendingRecord {
	observed := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return []model.PendingRecord{
		model.NewPendingRecord("Bittensor", 1, model.DecodedExtrinsic{Hash: "0x01", Call: model.DecodedCall{Function: "add_stake"}}, observed),
		model.NewPendingRecord("Bittensor", 1, model.DecodedExtrinsic{Hash: "0x02", Call: model.DecodedCall{Function: "remove_stake"}}, observed),
	}
}

func TestSinkProducesKeyedMessages(t *testing.T) {
	fake := newFakeProducer()
	sink := newSink(fake, "pending", nil)

	require.NoError(t, sink.PutPending(context.Background(), records()))
	require.Len(t, fake.sent, 2)

	msg := fake.sent[1]
	require.Equal(t, "pending", *msg.TopicPartition.Topic)
	require.Equal(t, []byte("0x02"), msg.Key)
	require.Equal(t, "call_function", msg.Headers[0].Key)
	require.Equal(t, []byte("remove_stake"), msg.Headers[0].Value)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	require.Equal(t, "Bittensor", decoded["chain"])

	require.NoError(t, sink.Close())
	require.True(t, fake.closed)
}

func TestSinkReportsDeliveryFailure(t *testing.T) {
	fake := newFakeProducer()
	fake.failKey = "0x01"
	sink := newSink(fake, "pending", nil)

	err := sink.PutPending(context.Background(), records())
	require.Error(t, err)
	require.Contains(t, err.Error(), "0x01")
	require.NoError(t, sink.Close())
}

func TestNewSinkValidates(t *testing.T) {
	_, err := NewSink("", "topic", nil)
	require.Error(t, err)
	_, err = NewSink("localhost:9092", "", nil)
	require.Error(t, err)
}
