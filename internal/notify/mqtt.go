// Package notify publishes transmission lifecycle events to an MQTT broker so
// that other systems on the bench (or a dashboard) can watch the transmitter
// without polling the HTTP API.
package notify

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/banshee-data/fskstream/internal/radio"
	"github.com/banshee-data/fskstream/internal/txctl"
)

var _ txctl.Recorder = (*Publisher)(nil)

const connectTimeout = 5 * time.Second

// Publisher implements txctl.Recorder over MQTT. Events are published with
// QoS 0: the history database is the durable record, this is best-effort
// live notification.
type Publisher struct {
	client paho.Client
	topic  string
	log    *log.Logger
}

// New connects to the broker at brokerURL (e.g. tcp://host:1883) and returns
// a Publisher rooted at topicPrefix.
func New(brokerURL, topicPrefix, clientID string, logger *log.Logger) (*Publisher, error) {
	if logger == nil {
		logger = log.Default()
	}
	if topicPrefix == "" {
		topicPrefix = "fskstream"
	}
	if clientID == "" {
		clientID = "fskstream-" + uuid.NewString()[:8]
	}

	opts := paho.NewClientOptions().
		AddBroker(brokerURL).
		SetClientID(clientID).
		SetConnectTimeout(connectTimeout).
		SetAutoReconnect(true)

	client := paho.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return nil, fmt.Errorf("timed out connecting to broker %s", brokerURL)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("failed to connect to broker %s: %w", brokerURL, err)
	}

	return &Publisher{client: client, topic: topicPrefix, log: logger}, nil
}

type startedEvent struct {
	ID           string  `json:"id"`
	ByteCount    int     `json:"byte_count"`
	FrequencyMHz float64 `json:"frequency_mhz"`
	PowerDBm     int     `json:"power_dbm"`
	StartCode    int     `json:"start_code"`
}

type finishedEvent struct {
	ID        string `json:"id"`
	Succeeded bool   `json:"succeeded"`
}

// TransmissionStarted implements txctl.Recorder.
func (p *Publisher) TransmissionStarted(id uuid.UUID, byteCount int, frequencyMHz float64, powerDBm int, start radio.ResultCode) {
	p.publish(p.topic+"/tx/started", startedEvent{
		ID:           id.String(),
		ByteCount:    byteCount,
		FrequencyMHz: frequencyMHz,
		PowerDBm:     powerDBm,
		StartCode:    int(start),
	})
}

// TransmissionFinished implements txctl.Recorder.
func (p *Publisher) TransmissionFinished(id uuid.UUID, succeeded bool) {
	p.publish(p.topic+"/tx/finished", finishedEvent{
		ID:        id.String(),
		Succeeded: succeeded,
	})
}

func (p *Publisher) publish(topic string, event any) {
	payload, err := json.Marshal(event)
	if err != nil {
		p.log.Error("failed to encode mqtt event", "topic", topic, "err", err)
		return
	}
	// Fire and forget; Publish queues internally and the token is not waited
	// on, so the scheduler loop is never delayed by the broker.
	p.client.Publish(topic, 0, false, payload)
}

// Close disconnects from the broker, allowing in-flight messages a short
// grace period.
func (p *Publisher) Close() {
	p.client.Disconnect(250)
}
