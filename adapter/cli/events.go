package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/canvasbridge/internal/shared/infrastructure/eventbus"
)

var watchKeys []string

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Inspect command lifecycle events",
}

var eventsWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print command events published to RabbitMQ",
	Long: `Print the command events published to the canvas exchange as JSON lines
until interrupted. Events published by other canvas processes with
CANVAS_EVENTS_ENABLED=true show up here.

--key takes topic patterns: "*" matches one word, "#" any number, e.g.
--key canvas.command.failed --key 'canvas.command.*'.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := requireApp()
		if err != nil {
			return err
		}
		cfg := a.Container.Config
		log := a.Container.Logger
		if log == nil {
			log = slog.Default()
		}

		registry := eventbus.NewConsumerRegistry(log)
		registry.Register(eventbus.ConsumerFunc{
			Types: watchKeys,
			Fn: func(_ context.Context, event *eventbus.CommandEvent) error {
				line, err := event.Marshal()
				if err != nil {
					return err
				}
				fmt.Fprintln(out(cmd), string(line))
				return nil
			},
		})

		consumer, err := eventbus.NewRabbitMQConsumer(eventbus.RabbitMQConsumerConfig{
			URL:       cfg.RabbitMQURL,
			Transient: true,
			Logger:    log,
		}, registry)
		if err != nil {
			return err
		}
		defer consumer.Close()

		err = consumer.Start(cmd.Context())
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}

func init() {
	eventsWatchCmd.Flags().StringSliceVarP(&watchKeys, "key", "k", []string{eventbus.RoutingAll}, "routing key pattern to watch")
	eventsCmd.AddCommand(eventsWatchCmd)
	rootCmd.AddCommand(eventsCmd)
}
