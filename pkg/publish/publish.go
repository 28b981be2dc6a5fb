package publish

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/itohio/airmon/pkg/acquire"
	"github.com/itohio/airmon/pkg/alert"
	"github.com/itohio/airmon/pkg/config"
	"github.com/itohio/airmon/pkg/gas"
	"github.com/itohio/airmon/pkg/history"
)

// DefaultTimeout bounds how long a publish may block the acquisition loop.
const DefaultTimeout = 500 * time.Millisecond

// Reading is the payload published on <topic>/reading after every tick.
type Reading struct {
	Sample  int                `json:"sample"`
	Time    time.Time          `json:"time"`
	Voltage float64            `json:"voltage"`
	PPM     map[string]float64 `json:"ppm"`
	Alerts  []alert.Alert      `json:"alerts,omitempty"`
}

// Summary is the retained payload on <topic>/summary describing the rolling
// window, so late subscribers get the current state immediately.
type Summary struct {
	Sample int                      `json:"sample"`
	Time   time.Time                `json:"time"`
	Window int                      `json:"window"`
	Gases  map[string]history.Stats `json:"gases"`
}

// NewReading builds the reading payload of an update.
func NewReading(upd *acquire.Update) Reading {
	return Reading{
		Sample:  upd.Sample,
		Time:    upd.Time,
		Voltage: upd.Voltage,
		PPM:     upd.Reading.Map(),
		Alerts:  upd.Alerts,
	}
}

// NewSummary builds the summary payload of an update.
func NewSummary(upd *acquire.Update) Summary {
	stats := upd.Buffers.Summary()
	gases := make(map[string]history.Stats, gas.Count)
	for _, s := range gas.All() {
		gases[s.Name()] = stats[s]
	}
	return Summary{
		Sample: upd.Sample,
		Time:   upd.Time,
		Window: upd.Buffers.Len(),
		Gases:  gases,
	}
}

// client is the subset of mqtt.Client used by Publisher.
type client interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	IsConnected() bool
	Disconnect(quiesce uint)
}

// Publisher forwards acquisition updates to an MQTT broker.
type Publisher struct {
	client  client
	topic   string
	qos     byte
	timeout time.Duration
}

// Connect dials the broker. The connection is re-established automatically;
// a retained "offline" status is left behind if the process dies.
func Connect(cfg config.MQTTConfig) (*Publisher, error) {
	status := cfg.Topic + "/status"

	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectTimeout(5 * time.Second)
	opts.SetWill(status, "offline", cfg.QoS, true)
	opts.SetOnConnectHandler(func(c mqtt.Client) {
		log.Printf("publish: connected to MQTT broker at %s", cfg.Broker)
		c.Publish(status, cfg.QoS, true, "online")
	})
	opts.SetConnectionLostHandler(func(c mqtt.Client, err error) {
		log.Printf("publish: lost connection to MQTT broker: %v", err)
	})

	c := mqtt.NewClient(opts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}

	return newPublisher(c, cfg.Topic, cfg.QoS), nil
}

func newPublisher(c client, topic string, qos byte) *Publisher {
	return &Publisher{
		client:  c,
		topic:   topic,
		qos:     qos,
		timeout: DefaultTimeout,
	}
}

// Publish sends the reading and the refreshed window summary of upd.
func (p *Publisher) Publish(upd *acquire.Update) error {
	if err := p.send(p.topic+"/reading", false, NewReading(upd)); err != nil {
		return err
	}
	return p.send(p.topic+"/summary", true, NewSummary(upd))
}

// OnUpdate is an acquire.Loop callback. Failures are logged.
func (p *Publisher) OnUpdate(upd *acquire.Update) {
	if !p.client.IsConnected() {
		return
	}
	if err := p.Publish(upd); err != nil {
		log.Printf("publish: %v", err)
	}
}

// Close disconnects from the broker.
func (p *Publisher) Close() error {
	p.client.Disconnect(250)
	return nil
}

func (p *Publisher) send(topic string, retained bool, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s payload: %w", topic, err)
	}

	token := p.client.Publish(topic, p.qos, retained, payload)
	if !token.WaitTimeout(p.timeout) {
		return fmt.Errorf("timed out publishing to %s", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("failed to publish to topic %s: %w", topic, err)
	}
	return nil
}
