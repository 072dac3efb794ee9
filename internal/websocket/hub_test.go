package websocket

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatchScopedToCompany(t *testing.T) {
	hub := NewHub()
	companyA := uuid.New()
	companyB := uuid.New()

	clientA := &Client{Hub: hub, CompanyID: companyA, Send: make(chan []byte, 4)}
	clientB := &Client{Hub: hub, CompanyID: companyB, Send: make(chan []byte, 4)}
	hub.clients[clientA] = true
	hub.clients[clientB] = true

	orderID := uuid.New()
	data, err := json.Marshal(event{Type: "order_status", Payload: map[string]string{
		"order_id": orderID.String(),
		"status":   "FINALIZED",
	}})
	require.NoError(t, err)

	hub.dispatch(broadcastMessage{CompanyID: companyA, Data: data})

	require.Len(t, clientA.Send, 1)
	assert.Equal(t, data, <-clientA.Send)
	assert.Empty(t, clientB.Send, "events must not cross tenant boundaries")
}

func TestDispatchDropsStalledClient(t *testing.T) {
	hub := NewHub()
	companyID := uuid.New()

	// Unbuffered channel with nobody reading simulates a stalled peer.
	stalled := &Client{Hub: hub, CompanyID: companyID, Send: make(chan []byte)}
	hub.clients[stalled] = true

	hub.dispatch(broadcastMessage{CompanyID: companyID, Data: []byte(`{}`)})

	assert.NotContains(t, hub.clients, stalled)
}
