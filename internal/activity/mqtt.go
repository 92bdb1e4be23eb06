package activity

import (
	"context"
	"encoding/json"

	"github.com/nerrad567/midiplexer/internal/infrastructure/logging"
	"github.com/nerrad567/midiplexer/internal/infrastructure/mqtt"
)

// Broker is the subset of the MQTT client used by MQTTPublisher.
type Broker interface {
	Topics() mqtt.Topics
	PublishRetained(topic string, payload []byte) error
	PublishEvent(topic string, payload []byte) error
}

type outgoing struct {
	topic    string
	payload  []byte
	retained bool
}

// MQTTPublisher mirrors activity onto the broker: every event under
// event/{kind}, plus retained mode, router status and per-track state so
// late subscribers see the current picture.
type MQTTPublisher struct {
	broker Broker
	topics mqtt.Topics
	queue  *queue[outgoing]
	logger *logging.Logger
}

// NewMQTTPublisher creates a publisher buffering up to size messages.
func NewMQTTPublisher(broker Broker, size int, logger *logging.Logger) *MQTTPublisher {
	if logger == nil {
		logger = logging.Discard()
	}
	return &MQTTPublisher{
		broker: broker,
		topics: broker.Topics(),
		queue:  newQueue[outgoing](size),
		logger: logger.With("component", "activity_mqtt"),
	}
}

// Observe implements Observer.
func (p *MQTTPublisher) Observe(e Event) {
	payload, err := json.Marshal(e)
	if err != nil {
		return
	}
	p.queue.offer(outgoing{topic: p.topics.Event(string(e.Kind)), payload: payload})

	switch e.Kind {
	case KindModeChanged:
		p.queue.offer(outgoing{topic: p.topics.Mode(), payload: []byte(e.Mode), retained: true})
	case KindTrackChanged:
		state := []byte("stopped")
		if e.Playing {
			state = []byte("playing")
		}
		p.queue.offer(outgoing{topic: p.topics.TrackState(e.Client, e.Track), payload: state, retained: true})
	case KindSignal, KindUnmappedSignal, KindSceneActivated, KindDispatchError:
	}
}

// PublishStatus queues v, marshalled as JSON, as the retained router status.
func (p *MQTTPublisher) PublishStatus(v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		p.logger.Warn("failed to encode router status", "error", err)
		return
	}
	p.queue.offer(outgoing{topic: p.topics.Router(), payload: payload, retained: true})
}

// Dropped reports how many messages were discarded because the queue was full.
func (p *MQTTPublisher) Dropped() uint64 {
	return p.queue.dropped.Load()
}

// Run publishes queued messages until ctx is cancelled.
func (p *MQTTPublisher) Run(ctx context.Context) {
	p.queue.drain(ctx, p.publish)
}

func (p *MQTTPublisher) publish(m outgoing) {
	var err error
	if m.retained {
		err = p.broker.PublishRetained(m.topic, m.payload)
	} else {
		err = p.broker.PublishEvent(m.topic, m.payload)
	}
	if err != nil {
		p.logger.Debug("mqtt publish failed", "topic", m.topic, "error", err)
	}
}
