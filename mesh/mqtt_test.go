package mesh

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientOptions_Disabled(t *testing.T) {
	clearMQTTEnv(t)

	_, err := ClientOptions(MQTTConfig{})
	assert.ErrorIs(t, err, ErrMQTTDisabled)

	_, err = Connect(MQTTConfig{})
	assert.ErrorIs(t, err, ErrMQTTDisabled)
}

func TestClientOptions_FromConfig(t *testing.T) {
	clearMQTTEnv(t)

	opts, err := ClientOptions(MQTTConfig{
		Broker:   "tcp://broker.local:1883",
		ClientID: "relaxer",
		Username: "user",
		Password: "secret",
	})
	require.NoError(t, err)

	require.Len(t, opts.Servers, 1)
	assert.Equal(t, "broker.local:1883", opts.Servers[0].Host)
	assert.Equal(t, "relaxer", opts.ClientID)
	assert.Equal(t, "user", opts.Username)
	assert.Equal(t, "secret", opts.Password)
	assert.True(t, opts.AutoReconnect)
}

func TestClientOptions_EnvOverrides(t *testing.T) {
	clearMQTTEnv(t)
	t.Setenv("MQTT_BROKER", "tcp://env-broker:1883")
	t.Setenv("MQTT_CLIENT_ID", "env-client")

	opts, err := ClientOptions(MQTTConfig{Broker: "tcp://file-broker:1883"})
	require.NoError(t, err)

	require.Len(t, opts.Servers, 1)
	assert.Equal(t, "env-broker:1883", opts.Servers[0].Host)
	assert.Equal(t, "env-client", opts.ClientID)
	assert.Empty(t, opts.Username, "no username means no credentials")
}

func TestClientOptions_DefaultClientID(t *testing.T) {
	clearMQTTEnv(t)

	opts, err := ClientOptions(MQTTConfig{Broker: "tcp://localhost:1883"})
	require.NoError(t, err)
	assert.Equal(t, DefaultClientID, opts.ClientID)
}

func TestConnect_WithMock(t *testing.T) {
	client := NewMockClient()

	got, err := connect(client)
	require.NoError(t, err)
	assert.True(t, got.IsConnected())

	Disconnect(got)
	assert.False(t, client.IsConnected())
}

func TestConnect_WithMockError(t *testing.T) {
	client := NewMockClient()
	client.SetConnectError(errors.New("refused"))

	_, err := connect(client)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MQTT connection failed")
	assert.Contains(t, err.Error(), "refused")
}

func TestDisconnect_Nil(t *testing.T) {
	// must not panic
	Disconnect(nil)
}
