package mesh

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// ErrMQTTDisabled is returned by Connect when no broker is configured
var ErrMQTTDisabled = errors.New("MQTT disabled: no broker configured")

// connectTimeout bounds the initial connection attempt
const connectTimeout = 10 * time.Second

// ClientOptions builds paho options from cfg. MQTT_BROKER, MQTT_CLIENT_ID,
// MQTT_USERNAME and MQTT_PASSWORD override the config values.
func ClientOptions(cfg MQTTConfig) (*mqtt.ClientOptions, error) {
	broker := envOr("MQTT_BROKER", cfg.Broker)
	if broker == "" {
		return nil, ErrMQTTDisabled
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(broker)

	clientID := envOr("MQTT_CLIENT_ID", cfg.ClientID)
	if clientID == "" {
		clientID = DefaultClientID
	}
	opts.SetClientID(clientID)

	// Authentication
	if username := envOr("MQTT_USERNAME", cfg.Username); username != "" {
		opts.SetUsername(username)
		opts.SetPassword(envOr("MQTT_PASSWORD", cfg.Password))
	}

	// Connection settings
	opts.SetAutoReconnect(true)
	opts.SetConnectRetryInterval(5 * time.Second)
	opts.SetMaxReconnectInterval(60 * time.Second)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetPingTimeout(10 * time.Second)
	opts.SetCleanSession(true)
	opts.SetOrderMatters(false)

	opts.SetOnConnectHandler(func(mqtt.Client) {
		log.Info("MQTT connected", "broker", broker, "client", clientID)
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		log.Warn("MQTT connection interrupted, auto-reconnect will retry", "err", err)
	})
	opts.SetReconnectingHandler(func(mqtt.Client, *mqtt.ClientOptions) {
		log.Debug("MQTT reconnecting")
	})
	return opts, nil
}

// Connect creates a paho client from cfg and waits for the first connection.
// It returns ErrMQTTDisabled when no broker is configured.
func Connect(cfg MQTTConfig) (mqtt.Client, error) {
	opts, err := ClientOptions(cfg)
	if err != nil {
		return nil, err
	}
	return connect(mqtt.NewClient(opts))
}

// connect waits for client to connect within connectTimeout
func connect(client mqtt.Client) (mqtt.Client, error) {
	log.Debug("Connecting to MQTT broker")
	token := client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return nil, fmt.Errorf("MQTT connection timeout after %v", connectTimeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("MQTT connection failed: %w", err)
	}
	return client, nil
}

// Disconnect gracefully closes the MQTT connection
func Disconnect(client mqtt.Client) {
	if client != nil && client.IsConnected() {
		log.Debug("Disconnecting from MQTT broker")
		client.Disconnect(250) // 250ms quiesce time
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
