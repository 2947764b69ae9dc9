package main

import (
	"context"

	"github.com/aws/aws-lambda-go/lambda"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/younsl/spoton/pkg/server"
)

func newLambdaCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lambda",
		Short: "Run a unit as an AWS Lambda function",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := cmd.Root().PersistentPreRunE(cmd, args); err != nil {
				return err
			}
			// CloudWatch Logs parses JSON lines
			log.SetFormatter(&log.JSONFormatter{})
			return nil
		},
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "janitor",
			Short: "Cleanup unit triggered by a schedule",
			RunE: func(cmd *cobra.Command, _ []string) error {
				if err := a.cfg.ValidateJanitor(); err != nil {
					return err
				}
				client, err := a.ec2Client(context.Background())
				if err != nil {
					return err
				}
				lambda.Start(server.ScheduledHandler(a.newJanitor(client)))
				return nil
			},
		},
		&cobra.Command{
			Use:   "starter",
			Short: "Provisioning unit behind a Lambda function URL",
			RunE: func(cmd *cobra.Command, _ []string) error {
				if err := a.cfg.ValidateStarter(); err != nil {
					return err
				}
				client, err := a.ec2Client(context.Background())
				if err != nil {
					return err
				}
				lambda.Start(server.FunctionURLHandler(a.newStarter(client)))
				return nil
			},
		},
	)
	return cmd
}
