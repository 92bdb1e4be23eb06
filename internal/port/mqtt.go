package port

import (
	"errors"
	"fmt"

	"github.com/nerrad567/midiplexer/internal/infrastructure/mqtt"
	"github.com/nerrad567/midiplexer/internal/midi"
)

// TypeMQTT is the port type for remote ports carried over the broker.
const TypeMQTT = "mqtt"

// Broker is the subset of *mqtt.Client the remote driver needs.
type Broker interface {
	Topics() mqtt.Topics
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	Unsubscribe(topic string) error
	PublishEvent(topic string, payload []byte) error
}

// Remote exchanges MIDI messages with other hosts through the broker.
// Payloads are hex signatures ("90 3C 40").
type Remote struct {
	Broker Broker
	QoS    byte
}

// OpenInput subscribes to the port's inbound topic.
func (r *Remote) OpenInput(name string) (Input, error) {
	topic := r.Broker.Topics().PortIn(name)

	q := newQueue(name, defaultInputBuffer, func() error {
		if err := r.Broker.Unsubscribe(topic); err != nil && !errors.Is(err, mqtt.ErrNotConnected) {
			return err
		}
		return nil
	})

	err := r.Broker.Subscribe(topic, r.QoS, func(_ string, payload []byte) error {
		msg, err := midi.ParseHex(string(payload))
		if err != nil {
			return err
		}
		q.offer(msg)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrOpenFailed, topic, err)
	}
	return q, nil
}

// OpenOutput publishes to the port's outbound topic.
func (r *Remote) OpenOutput(name string) (Output, error) {
	return &remoteOutput{broker: r.Broker, name: name, topic: r.Broker.Topics().PortOut(name)}, nil
}

type remoteOutput struct {
	broker Broker
	name   string
	topic  string
}

func (o *remoteOutput) Name() string { return o.name }

func (o *remoteOutput) Send(msg midi.Message) error {
	if err := o.broker.PublishEvent(o.topic, []byte(msg.Hex())); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrSendFailed, o.name, err)
	}
	return nil
}

func (o *remoteOutput) Close() error { return nil }
