package pubsub

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"pharmaledger/internal/core/id"
	"pharmaledger/internal/infrastructure/storage/postgres"
)

func TestMessage_Attributes(t *testing.T) {
	msg := &postgres.OutboxMessage{
		ID:            id.New(),
		PharmacyID:    id.New(),
		AggregateType: "bill",
		AggregateID:   id.New(),
		EventType:     "bill.committed",
		Payload:       []byte(`{"bill_no":"BILL-2026-000001"}`),
	}

	out := Message(msg)
	assert.Equal(t, msg.Payload, out.Data)
	assert.Equal(t, "bill.committed", out.Attributes["event_type"])
	assert.Equal(t, "bill", out.Attributes["aggregate_type"])
	assert.Equal(t, msg.AggregateID.String(), out.Attributes["aggregate_id"])
	assert.Equal(t, msg.PharmacyID.String(), out.Attributes["pharmacy_id"])
}
