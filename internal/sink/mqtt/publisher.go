// internal/sink/mqtt/publisher.go
package mqtt

import (
	"encoding/json"
	"sync/atomic"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/juju/errors"
	"github.com/sirupsen/logrus"

	cfg "github.com/tamzrod/iec104-driver/internal/config"
	"github.com/tamzrod/iec104-driver/internal/link"
)

const disconnectQuiesceMs = 250

// client is the part of paho.Client the publisher uses.
type client interface {
	IsConnected() bool
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
	Disconnect(quiesce uint)
}

// Record is the JSON document published per received object.
type Record struct {
	At         time.Time `json:"at"`
	TypeID     uint8     `json:"type_id"`
	Type       string    `json:"type"`
	Cause      string    `json:"cause"`
	CommonAddr uint16    `json:"common_address"`
	Count      int       `json:"count"`
	Sequence   bool      `json:"sequence"`
}

// Publisher forwards received objects to a broker topic.
// Publish is fire-and-forget: nothing on the receive path waits for the broker.
type Publisher struct {
	m     client
	topic string
	qos   byte
	log   logrus.FieldLogger

	dropped atomic.Uint64
}

// New connects in the background; objects received before the broker is
// reachable are dropped.
func New(c cfg.MQTTConfig, log logrus.FieldLogger) (*Publisher, error) {
	if c.Broker == "" || c.Topic == "" {
		return nil, errors.NotValidf("mqtt broker %q topic %q", c.Broker, c.Topic)
	}

	log = log.WithField("sink", "mqtt")
	paho.ERROR = log
	paho.CRITICAL = log

	opt := paho.NewClientOptions().
		AddBroker(c.Broker).
		SetClientID(c.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectTimeout(5 * time.Second).
		SetOnConnectHandler(func(paho.Client) {
			log.WithField("broker", c.Broker).Info("mqtt connected")
		}).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			log.WithError(err).Warn("mqtt connection lost")
		})

	m := paho.NewClient(opt)
	m.Connect()

	return newPublisher(m, c.Topic, c.QoS, log), nil
}

func newPublisher(m client, topic string, qos byte, log logrus.FieldLogger) *Publisher {
	return &Publisher{m: m, topic: topic, qos: qos, log: log}
}

func (p *Publisher) HandleObject(o link.Object) {
	if !p.m.IsConnected() {
		p.dropped.Add(1)
		return
	}

	payload, err := json.Marshal(Record{
		At:         o.At,
		TypeID:     o.TypeID,
		Type:       o.TypeName,
		Cause:      o.Cause,
		CommonAddr: o.CommonAddr,
		Count:      o.Count,
		Sequence:   o.Sequence,
	})
	if err != nil {
		p.log.WithError(err).Error("mqtt record encode")
		return
	}

	t := p.m.Publish(p.topic, p.qos, false, payload)

	// report an already-failed publish; never wait
	select {
	case <-t.Done():
		if err := t.Error(); err != nil {
			p.log.WithError(err).Warn("mqtt publish")
		}
	default:
	}
}

// Dropped is the number of objects not published while disconnected.
func (p *Publisher) Dropped() uint64 { return p.dropped.Load() }

func (p *Publisher) Close() error {
	p.m.Disconnect(disconnectQuiesceMs)
	if n := p.Dropped(); n > 0 {
		p.log.WithField("dropped", n).Info("mqtt publisher closed")
	}
	return nil
}
