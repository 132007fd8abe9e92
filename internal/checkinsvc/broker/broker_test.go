package broker

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/avvvet/checkin-services/internal/checkinsvc/models"
	"github.com/avvvet/checkin-services/internal/comm"
	natscli "github.com/avvvet/checkin-services/internal/nats"
	natsserver "github.com/nats-io/nats-server/v2/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishSubscribeRoundTrip(t *testing.T) {
	srv := natsserver.RunRandClientPortServer()
	defer srv.Shutdown()

	n, err := natscli.Connect(srv.ClientURL(), "", "broker-test")
	require.NoError(t, err)
	defer n.Close()

	b := NewBroker(n.Conn, "checkin.test", "instance-1")

	got := make(chan comm.Message, 1)
	sub, err := b.Subscribe(func(msg comm.Message) { got <- msg })
	require.NoError(t, err)
	defer sub.Unsubscribe()
	require.NoError(t, n.Conn.Flush())

	c := models.Checkin{ID: "abc", Name: "Ana", Contact: "1", EventID: models.DefaultEventID}
	b.PublishCheckinEvent(comm.CheckinCreated, comm.CheckinEvent{Checkin: &c})

	select {
	case msg := <-got:
		assert.Equal(t, comm.CheckinCreated, msg.Type)
		assert.Equal(t, "instance-1", msg.Instance)

		var ev comm.CheckinEvent
		require.NoError(t, json.Unmarshal(msg.Data, &ev))
		require.NotNil(t, ev.Checkin)
		assert.Equal(t, c, *ev.Checkin)
	case <-time.After(5 * time.Second):
		t.Fatal("no event received")
	}
}
