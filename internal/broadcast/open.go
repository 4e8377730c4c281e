package broadcast

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/jonboulle/clockwork"

	"orderbell/internal/config"
	"orderbell/internal/logging"
)

// Open connects the configured broker. It returns nil when broadcasting is
// disabled.
func Open(cfg *config.Config, clock clockwork.Clock, logger *slog.Logger) (*Channel, error) {
	if cfg == nil {
		return nil, nil
	}
	b := cfg.Broker
	kind := strings.ToLower(strings.TrimSpace(b.Kind))
	var (
		pub    Publisher
		target string
		err    error
	)
	switch kind {
	case "":
		return nil, nil
	case "amqp":
		pub, err = DialAMQP(b.URL, b.Exchange)
		target = b.Exchange
	case "stan":
		pub, err = ConnectSTAN(b.URL, b.ClusterID, b.ClientID, b.Subject)
		target = b.Subject
	default:
		return nil, fmt.Errorf("broker kind %q not supported", b.Kind)
	}
	if err != nil {
		return nil, err
	}
	ch := NewChannel(pub, clock, logger)
	ch.logger.Info("broker connected",
		logging.String("kind", kind),
		logging.String("target", target),
		logging.String(logging.FieldEventType, "broker_connected"),
	)
	return ch, nil
}
