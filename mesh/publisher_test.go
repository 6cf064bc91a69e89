package mesh

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSnapshot() Snapshot {
	return Snapshot{
		RunID:        "run-1",
		Iteration:    3,
		Displacement: 0.25,
		Points:       [][2]float64{{0.1, 0.2}, {0.5, 0.5}, {0.9, 0.8}},
		Timestamp:    1700000000,
	}
}

func TestNewPublisher(t *testing.T) {
	clearMQTTEnv(t)

	publisher := NewPublisher(nil, "")
	if publisher.publishPrefix != DefaultPublishPrefix {
		t.Errorf("Default prefix = %s, want %s", publisher.publishPrefix, DefaultPublishPrefix)
	}
	if publisher.qos != 0 {
		t.Errorf("Default QoS = %d, want 0", publisher.qos)
	}
	if !publisher.retain {
		t.Error("Default retain should be true")
	}
}

func TestNewPublisher_Prefix(t *testing.T) {
	clearMQTTEnv(t)
	t.Setenv("MQTT_PUBLISH_PREFIX", "from-env")

	assert.Equal(t, "from-env/points", NewPublisher(nil, "").PointsTopic())
	assert.Equal(t, "explicit/status", NewPublisher(nil, "explicit").StatusTopic())
}

func TestPublisher_PublishSnapshot(t *testing.T) {
	client := NewMockClient()
	client.SetConnected(true)
	publisher := NewPublisher(client, "relax")

	snap := testSnapshot()
	require.NoError(t, publisher.PublishSnapshot(snap))

	msgs := client.GetPublishedMessages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "relax/points", msgs[0].Topic)
	assert.Equal(t, "relax/status", msgs[1].Topic)
	for _, m := range msgs {
		assert.True(t, m.Retain, "%s should be retained", m.Topic)
		assert.Equal(t, byte(0), m.QoS)
	}

	var gotSnap Snapshot
	require.NoError(t, json.Unmarshal(msgs[0].Payload, &gotSnap))
	assert.Equal(t, snap, gotSnap)

	var gotStatus Status
	require.NoError(t, json.Unmarshal(msgs[1].Payload, &gotStatus))
	assert.Equal(t, Status{RunID: "run-1", Iteration: 3, Displacement: 0.25, Count: 3, Timestamp: 1700000000}, gotStatus)

	last, ok := publisher.LastSnapshot()
	require.True(t, ok)
	assert.Equal(t, snap, last)
}

func TestPublisher_PayloadKeys(t *testing.T) {
	client := NewMockClient()
	client.SetConnected(true)
	require.NoError(t, NewPublisher(client, "p").PublishSnapshot(testSnapshot()))

	msg, ok := client.LastMessage("p/points")
	require.True(t, ok)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(msg.Payload, &raw))
	for _, key := range []string{"runId", "iteration", "displacement", "points", "timestamp"} {
		assert.Contains(t, raw, key)
	}
	assert.JSONEq(t, `[[0.1,0.2],[0.5,0.5],[0.9,0.8]]`, string(raw["points"]))
}

func TestPublisher_NotConnected(t *testing.T) {
	tests := []struct {
		name      string
		publisher *Publisher
	}{
		{"nil client", NewPublisher(nil, "p")},
		{"disconnected client", NewPublisher(NewMockClient(), "p")},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.publisher.PublishSnapshot(testSnapshot())
			assert.Error(t, err)
			_, ok := tc.publisher.LastSnapshot()
			assert.False(t, ok)
		})
	}
}

func TestPublisher_PublishError(t *testing.T) {
	client := NewMockClient()
	client.SetConnected(true)
	client.SetPublishError(errors.New("broker full"))

	err := NewPublisher(client, "p").PublishSnapshot(testSnapshot())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "p/points")
	assert.Contains(t, err.Error(), "broker full")
}

func TestPublisher_SetQoSAndRetain(t *testing.T) {
	client := NewMockClient()
	client.SetConnected(true)
	publisher := NewPublisher(client, "p")

	publisher.SetQoS(1)
	publisher.SetQoS(7) // ignored
	publisher.SetRetain(false)
	require.NoError(t, publisher.PublishSnapshot(testSnapshot()))

	msg, ok := client.LastMessage("p/status")
	require.True(t, ok)
	assert.Equal(t, byte(1), msg.QoS)
	assert.False(t, msg.Retain)
}
