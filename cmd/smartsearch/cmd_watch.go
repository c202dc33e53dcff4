package main

import (
	"context"
	"os/signal"
	"syscall"

	"literature-search-be/internal/config"
	"literature-search-be/pkg/events"
	"literature-search-be/pkg/nats"

	"github.com/spf13/cobra"
)

func newWatchCmd(cfg *config.Config) *cobra.Command {
	var (
		natsURL string
		all     bool
	)
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print Smart Search events from the NATS stream as they arrive",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			sub, err := nats.NewSubscriber(natsURL, cliLogger())
			if err != nil {
				return err
			}
			defer sub.Close()

			subject := nats.Subject(events.TypeStageCompleted)
			if all {
				subject = nats.SubjectPrefix + ".>"
			}
			step("Watching %s", subject)
			return sub.Subscribe(ctx, subject, "", printEvent)
		},
	}
	cmd.Flags().StringVar(&natsURL, "nats", cfg.App.NatsURL, "NATS server URL")
	cmd.Flags().BoolVar(&all, "all", false, "include every event type, not only completed stages")
	return cmd
}

func printEvent(_ context.Context, event events.Event) error {
	data := event.Payload()
	at := event.Timestamp().Format("15:04:05")
	switch event.EventType() {
	case events.TypeStageCompleted:
		okColor.Printf("%s %-22v stage=%v session=%v user=%v\n", at, data["action"], data["stage"], data["session_id"], data["user_id"])
	case events.TypeWorkflowError:
		warnColor.Printf("%s %-22v %v\n", at, data["action"], data["error"])
	default:
		detail("%s %s %v", at, event.EventType(), data)
	}
	return nil
}
