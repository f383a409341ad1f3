// Package main provides the audit trail consumer. It tails the audit topic
// and writes every batch and history event to the structured log.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	cli "github.com/urfave/cli/v3"

	"github.com/AlexeyPevz/n8n-ai-sub004/pkg/cmd"
	"github.com/AlexeyPevz/n8n-ai-sub004/pkg/eventbus"
	"github.com/AlexeyPevz/n8n-ai-sub004/pkg/events"
	"github.com/AlexeyPevz/n8n-ai-sub004/pkg/log"
)

func main() {
	command := &cli.Command{
		Name:                  "graph-audit",
		Usage:                 "Consume and log the graph mutation audit trail",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "consumer-id",
				Aliases: []string{"id"},
				Usage:   "Custom consumer ID (auto-generated if not provided)",
				Value:   "",
				Sources: cli.EnvVars("CONSUMER_ID"),
			},
			&cli.StringFlag{
				Name:    "audit-bus",
				Usage:   "Audit bus type (memory, kafka)",
				Value:   "kafka",
				Sources: cli.EnvVars("AUDIT_BUS_TYPE"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
			&cli.StringFlag{
				Name:    "log-format",
				Usage:   "Log format (text, json)",
				Value:   "text",
				Sources: cli.EnvVars("LOG_FORMAT"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"), command.String("log-format"))

			consumerID := command.String("consumer-id")
			if consumerID == "" {
				consumerID = fmt.Sprintf("audit-%s", uuid.New().String()[:8])
			}

			logger := log.WithModule("graph-audit").With("consumer_id", consumerID)
			logger.InfoContext(ctx, "Initializing audit consumer")

			publisher, err := cmd.NewAuditBus(command.String("audit-bus"), "graph-audit", logger)
			if err != nil {
				return err
			}

			bus, ok := publisher.(eventbus.Bus)
			if !ok {
				return fmt.Errorf("audit bus %q has no subscribe side", command.String("audit-bus"))
			}

			defer func() {
				if err := bus.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close audit bus", "error", err)
				}
			}()

			registerHandlers(bus, logger)

			ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if err := bus.Subscribe(ctx); err != nil {
				return err
			}

			logger.InfoContext(ctx, "Audit consumer started")
			<-ctx.Done()
			logger.Info("Audit consumer shutting down")

			return nil
		},
	}

	if err := command.Run(context.Background(), os.Args); err != nil {
		panic(err)
	}
}

func registerHandlers(bus eventbus.Bus, logger *slog.Logger) {
	batchHandler := func(ctx context.Context, event any) error {
		audit, ok := event.(*events.BatchAudit)
		if !ok {
			return fmt.Errorf("unexpected event payload %T", event)
		}

		logger.InfoContext(ctx, "batch audit",
			"event_type", string(audit.GetType()),
			"workflow_id", audit.WorkflowID,
			"status", string(audit.Status),
			"version", audit.Version,
			"operations", audit.OperationCount,
			"operation_types", audit.OperationTypes,
			"diff_hash", audit.DiffHash,
			"policy", audit.Policy,
			"error", audit.Error,
			"caller_id", audit.CallerID)

		return nil
	}

	historyHandler := func(ctx context.Context, event any) error {
		audit, ok := event.(*events.HistoryAudit)
		if !ok {
			return fmt.Errorf("unexpected event payload %T", event)
		}

		logger.InfoContext(ctx, "history audit",
			"event_type", string(audit.GetType()),
			"workflow_id", audit.WorkflowID,
			"version", audit.Version)

		return nil
	}

	bus.Handle(events.BatchAppliedEvent, batchHandler)
	bus.Handle(events.BatchRejectedEvent, batchHandler)
	bus.Handle(events.BatchFailedEvent, batchHandler)
	bus.Handle(events.GraphUndoneEvent, historyHandler)
	bus.Handle(events.GraphRedoneEvent, historyHandler)
}
