package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishJSON(t *testing.T) {
	pub := &MemoryPublisher{}
	userID := int64(9)

	err := PublishJSON(context.Background(), pub, SubjectOrderPlaced, OrderPlaced{
		OrderID:    1,
		UserID:     &userID,
		Total:      "97.00",
		Units:      3,
		VariantIDs: []int64{4},
	})
	require.NoError(t, err)

	msgs := pub.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "order.placed", msgs[0].Subject)

	var got OrderPlaced
	require.NoError(t, json.Unmarshal(msgs[0].Payload, &got))
	assert.Equal(t, "97.00", got.Total)
	assert.Equal(t, int64(9), *got.UserID)
}

func TestPublishJSON_PublisherError(t *testing.T) {
	pub := &MemoryPublisher{Err: errors.New("broker down")}
	err := PublishJSON(context.Background(), pub, SubjectOrderPlaced, OrderPlaced{OrderID: 1})
	assert.EqualError(t, err, "broker down")
	assert.Empty(t, pub.Messages())
}

func TestNATSPublisher_Subject(t *testing.T) {
	tests := []struct {
		prefix string
		want   string
	}{
		{"", "order.placed"},
		{"boutique", "boutique.order.placed"},
	}
	for _, tt := range tests {
		t.Run(tt.prefix, func(t *testing.T) {
			p := &NATSPublisher{prefix: tt.prefix}
			assert.Equal(t, tt.want, p.Subject(SubjectOrderPlaced))
		})
	}
}

func TestNoopPublisher(t *testing.T) {
	p := NewNoopPublisher(nil)
	assert.NoError(t, p.Publish(context.Background(), SubjectOrderPlaced, []byte(`{}`)))
	assert.NoError(t, p.Close())
}
