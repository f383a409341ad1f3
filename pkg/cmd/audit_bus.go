// Package cmd provides common initialization functions for command-line applications.
package cmd

import (
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"

	"github.com/AlexeyPevz/n8n-ai-sub004/pkg/channels/gochannel"
	"github.com/AlexeyPevz/n8n-ai-sub004/pkg/channels/kafka"
	"github.com/AlexeyPevz/n8n-ai-sub004/pkg/eventbus"
)

// NewAuditBus builds the audit publisher for the given provider. "memory"
// keeps events in-process, "kafka" ships them to the cluster named by
// KAFKA_BROKERS, "log" writes them to the structured log.
func NewAuditBus(provider, serviceName string, logger *slog.Logger) (eventbus.Publisher, error) {
	wmLogger := watermill.NewSlogLogger(logger)

	switch provider {
	case "log":
		return eventbus.NewSlogPublisher(logger), nil
	case "memory":
		pub, sub, err := gochannel.CreateChannel(wmLogger)
		if err != nil {
			return nil, fmt.Errorf("failed to create in-memory audit channel: %w", err)
		}

		return eventbus.NewWatermillBus(pub, sub), nil
	case "kafka":
		pub, sub, err := kafka.CreateChannel(wmLogger, serviceName)
		if err != nil {
			return nil, fmt.Errorf("failed to create Kafka audit channel: %w", err)
		}

		return eventbus.NewWatermillBus(pub, sub), nil
	default:
		return nil, fmt.Errorf("unsupported audit bus provider: %q", provider)
	}
}
