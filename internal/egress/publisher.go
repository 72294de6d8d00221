package egress

import (
	"context"
	"encoding/json"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/orderflow/matchbook/internal/egress/schema"
	"github.com/orderflow/matchbook/internal/metrics"
)

// Config controls publish behaviour.
type Config struct {
	TopicPrefix string
}

// DefaultConfig returns the default publisher configuration.
func DefaultConfig() Config {
	return Config{TopicPrefix: "matchbook.events."}
}

// Publisher encodes Events to JSON and publishes them through a watermill
// message.Publisher, behind a circuit breaker so a stalled broker trips
// instead of blocking its caller.
type Publisher struct {
	pub      message.Publisher
	registry *schema.Registry
	breaker  *gobreaker.CircuitBreaker
	logger   *zap.Logger
	metrics  *metrics.Metrics
	cfg      Config
}

// NewPublisher wraps pub with schema checking and a circuit breaker. The
// registry must already have every subject in AllSubjects registered;
// publishing an unregistered subject is treated as a programmer error.
func NewPublisher(pub message.Publisher, registry *schema.Registry, logger *zap.Logger, m *metrics.Metrics, cfg Config) *Publisher {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "egress-publish",
		MaxRequests: 5,
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("egress circuit breaker state change",
				zap.String("breaker", name), zap.String("from", from.String()), zap.String("to", to.String()))
		},
	})
	return &Publisher{pub: pub, registry: registry, breaker: breaker, logger: logger, metrics: m, cfg: cfg}
}

// Publish encodes and publishes a single event. Failures are logged and
// dropped (kind 5 in the error taxonomy); they never propagate to the
// matching loop.
func (p *Publisher) Publish(ctx context.Context, ev Event) {
	if !p.registry.Known(ev.Subject) {
		p.logger.Error("publish attempted for unregistered subject", zap.String("subject", ev.Subject))
		p.metrics.EgressFailures.Inc()
		return
	}

	payload, err := json.Marshal(ev.Payload)
	if err != nil {
		p.logger.Error("failed to encode egress event", zap.String("subject", ev.Subject), zap.Error(err))
		p.metrics.EgressFailures.Inc()
		return
	}

	_, err = p.breaker.Execute(func() (interface{}, error) {
		msg := message.NewMessage(uuid.NewString(), payload)
		msg.Metadata.Set("subject", ev.Subject)
		topic := p.cfg.TopicPrefix + ev.Subject
		return nil, p.pub.Publish(topic, msg)
	})
	if err != nil {
		p.logger.Error("failed to publish egress event", zap.String("subject", ev.Subject), zap.Error(err))
		p.metrics.EgressFailures.Inc()
	}
}

// NewWatermillLogger returns watermill's standard-library logger adapter
// for the bus; it writes through the std log package, not through the
// process zap logger.
func NewWatermillLogger(debug bool) watermill.LoggerAdapter {
	return watermill.NewStdLogger(debug, false)
}
