package mesh

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// publishTimeout bounds how long a single publish waits for its token
const publishTimeout = 2 * time.Second

// Publisher sends relaxation snapshots to MQTT
type Publisher struct {
	client        mqtt.Client
	publishPrefix string
	qos           byte
	retain        bool
	last          *Snapshot
	mu            sync.RWMutex
}

// NewPublisher creates a snapshot publisher. An empty prefix falls back to
// MQTT_PUBLISH_PREFIX and then DefaultPublishPrefix.
func NewPublisher(client mqtt.Client, prefix string) *Publisher {
	if prefix == "" {
		prefix = os.Getenv("MQTT_PUBLISH_PREFIX")
	}
	if prefix == "" {
		prefix = DefaultPublishPrefix
	}

	return &Publisher{
		client:        client,
		publishPrefix: prefix,
		qos:           0,    // snapshots supersede each other
		retain:        true, // late subscribers get the latest state
	}
}

// PointsTopic is where full snapshots are published
func (p *Publisher) PointsTopic() string {
	return p.publishPrefix + "/points"
}

// StatusTopic is where the snapshot summary is published
func (p *Publisher) StatusTopic() string {
	return p.publishPrefix + "/status"
}

// PublishSnapshot publishes s to the points topic and its summary to the
// status topic.
func (p *Publisher) PublishSnapshot(s Snapshot) error {
	if p.client == nil || !p.client.IsConnected() {
		return fmt.Errorf("MQTT client not connected")
	}

	if err := p.publishJSON(p.PointsTopic(), s); err != nil {
		return err
	}
	if err := p.publishJSON(p.StatusTopic(), s.Status()); err != nil {
		return err
	}

	p.mu.Lock()
	p.last = &s
	p.mu.Unlock()

	log.Debug("Published snapshot",
		"run", s.RunID, "iteration", s.Iteration, "points", len(s.Points))
	return nil
}

func (p *Publisher) publishJSON(topic string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshaling %s payload: %w", topic, err)
	}

	token := p.client.Publish(topic, p.qos, p.retain, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publishing to %s: timeout after %v", topic, publishTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publishing to %s: %w", topic, err)
	}
	return nil
}

// LastSnapshot returns the most recently published snapshot
func (p *Publisher) LastSnapshot() (Snapshot, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.last == nil {
		return Snapshot{}, false
	}
	return *p.last, true
}

// SetQoS sets the Quality of Service level for publishing (0, 1, or 2)
func (p *Publisher) SetQoS(qos byte) {
	if qos <= 2 {
		p.qos = qos
	}
}

// SetRetain sets whether published messages should be retained by the broker
func (p *Publisher) SetRetain(retain bool) {
	p.retain = retain
}
