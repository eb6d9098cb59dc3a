package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/internal/application/stock"
)

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

func TestPublish_TopicoYClave(t *testing.T) {
	w := &fakeWriter{}
	p := &Publisher{writer: w}

	err := p.Publish(context.Background(), stock.TopicEntryAppended, stock.EntryAppendedEvent{EntryID: "e1", ItemID: "item-9", RunningQuantity: 7})
	require.NoError(t, err)

	require.Len(t, w.msgs, 1)
	msg := w.msgs[0]
	assert.Equal(t, stock.TopicEntryAppended, msg.Topic)
	assert.Equal(t, "item-9", string(msg.Key))

	var body map[string]any
	require.NoError(t, json.Unmarshal(msg.Value, &body))
	assert.Equal(t, "e1", body["entry_id"])
	assert.EqualValues(t, 7, body["running_quantity"])
}

func TestPublish_SinClave(t *testing.T) {
	w := &fakeWriter{}
	p := &Publisher{writer: w}
	require.NoError(t, p.Publish(context.Background(), "other", map[string]string{"a": "b"}))
	assert.Nil(t, w.msgs[0].Key)
}

func TestPublish_PropagaError(t *testing.T) {
	p := &Publisher{writer: &fakeWriter{err: errors.New("broker caído")}}
	err := p.Publish(context.Background(), stock.TopicAdjustmentApproved, stock.DocumentEvent{DocumentID: "a1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker caído")
}
