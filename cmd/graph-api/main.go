package main

import (
	"context"
	"os"

	cli "github.com/urfave/cli/v3"

	"github.com/AlexeyPevz/n8n-ai-sub004/pkg/cmd"
	"github.com/AlexeyPevz/n8n-ai-sub004/pkg/engine"
	"github.com/AlexeyPevz/n8n-ai-sub004/pkg/history"
	"github.com/AlexeyPevz/n8n-ai-sub004/pkg/log"
	"github.com/AlexeyPevz/n8n-ai-sub004/pkg/policies"
)

const defaultPort = 9091

func main() {
	command := &cli.Command{
		Name:                  "graph-api",
		Usage:                 "Apply operation batches to workflow graphs",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to run the API server on",
				Value:   defaultPort,
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:    "audit-bus",
				Usage:   "Audit bus type (memory, kafka, log)",
				Value:   "log",
				Sources: cli.EnvVars("AUDIT_BUS_TYPE"),
			},
			&cli.StringFlag{
				Name:    "policy-preset",
				Usage:   "Policy preset (default, strict, permissive)",
				Value:   "default",
				Sources: cli.EnvVars("POLICY_PRESET"),
			},
			&cli.StringSliceFlag{
				Name:    "allowed-node-types",
				Usage:   "Node types the strict preset whitelist accepts",
				Sources: cli.EnvVars("ALLOWED_NODE_TYPES"),
			},
			&cli.IntFlag{
				Name:    "history-depth",
				Usage:   "Undo/redo entries retained per workflow",
				Value:   history.DefaultDepth,
				Sources: cli.EnvVars("HISTORY_DEPTH"),
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

			logger := log.WithModule("api")
			logger.InfoContext(ctx, "Initializing Graph API")

			auditBus, err := cmd.NewAuditBus(command.String("audit-bus"), "graph-api", logger)
			if err != nil {
				return err
			}

			defer func() {
				if err := auditBus.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close audit bus", "error", err)
				}
			}()

			configs, err := cmd.NewPolicyConfigs(command.String("policy-preset"), command.StringSlice("allowed-node-types"))
			if err != nil {
				return err
			}

			policyEngine, err := policies.NewEngine(logger, configs)
			if err != nil {
				return err
			}

			graphEngine := engine.New(
				logger,
				engine.NewStore(),
				policyEngine,
				history.NewManager(command.Int("history-depth")),
				auditBus,
			)

			api, err := NewAPI(ctx, logger, graphEngine)
			if err != nil {
				return err
			}

			if err := api.Start(command.Int("port")); err != nil {
				logger.ErrorContext(ctx, "Failed to start API server", "error", err)
			}

			return nil
		},
	}

	err := command.Run(context.Background(), os.Args)
	if err != nil {
		panic(err)
	}
}
