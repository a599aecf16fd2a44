package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/smazurov/statusled/internal/logging"
	"github.com/smazurov/statusled/internal/nats"
	"github.com/spf13/cobra"
)

const defaultNATSURL = "nats://127.0.0.1:4222"

// CreateReportCmd creates the report command.
func CreateReportCmd() *cobra.Command {
	var natsURL string

	cmd := &cobra.Command{
		Use:   "report <source> <status>",
		Short: "Report a status to a running daemon over NATS",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			logging.Initialize(logging.Config{Level: "warn", Format: "text"})

			client := nats.NewClient(natsURL, "report", logging.GetLogger("nats"))
			if err := client.Connect(); err != nil {
				return err
			}
			defer client.Close()

			client.PublishStatus(args[0], args[1])
			return client.Flush()
		},
	}

	cmd.Flags().StringVar(&natsURL, "nats-url", defaultNATSURL, "NATS server URL")
	return cmd
}

// CreateLEDCmd creates the led command.
func CreateLEDCmd() *cobra.Command {
	var (
		natsURL string
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "led <name> <on|off|toggle|pattern> [pattern]",
		Short: "Send a command to an LED of a running daemon over NATS",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			logging.Initialize(logging.Config{Level: "warn", Format: "text"})

			msg := ControlFromArgs(args[1:])

			client := nats.NewClient(natsURL, "led", logging.GetLogger("nats"))
			if err := client.Connect(); err != nil {
				return err
			}
			defer client.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			reply, err := client.Control(ctx, args[0], msg)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(reply); err != nil {
				return err
			}
			if !reply.OK {
				return fmt.Errorf("%s: %s", reply.Code, reply.Error)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&natsURL, "nats-url", defaultNATSURL, "NATS server URL")
	cmd.Flags().DurationVar(&timeout, "timeout", 2*time.Second, "How long to wait for the reply")
	return cmd
}

// ControlFromArgs builds a control message from "<action> [pattern]".
func ControlFromArgs(args []string) nats.ControlMessage {
	msg := nats.ControlMessage{Action: strings.ToLower(args[0])}
	if len(args) > 1 {
		msg.Pattern = args[1]
	}
	return msg
}
