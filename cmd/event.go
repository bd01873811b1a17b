package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/frahmantamala/club-management/internal/core/events"
	"github.com/frahmantamala/club-management/pkg/logger"
	"github.com/spf13/cobra"
)

var eventCmd = &cobra.Command{
	Use:   "event",
	Short: "Event bus commands",
	Long:  `Inspect the in-process event bus: publish a domain event and watch handlers run.`,
}

var publishEventCmd = &cobra.Command{
	Use:   "publish [event-type]",
	Short: "Publish a domain event",
	Long: `Publish one of the club domain events (expense.transitioned, transfer.transitioned,
payment.recorded, member.suspended, member.reactivated, activity.published).
With --live the event goes through the configured subscribers, which write notifications.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := publishEvent(args[0]); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	},
}

var (
	eventMemberID string
	eventItemID   string
	eventAmount   int64
	eventLive     bool
)

func buildEvent(eventType string) (events.Event, error) {
	switch eventType {
	case events.EventTypeExpenseTransitioned, events.EventTypeTransferTransitioned:
		return events.NewApprovalTransitionedEvent(eventType, "cli", eventItemID, "", "PENDING_TREASURER", eventMemberID, eventMemberID, eventAmount, nil), nil
	case events.EventTypePaymentRecorded:
		return events.NewPaymentRecordedEvent(eventItemID, eventMemberID, "", eventAmount, nil, nil, eventMemberID), nil
	case events.EventTypeMemberSuspended:
		return events.NewMemberSuspendedEvent(eventMemberID, 1, false), nil
	case events.EventTypeMemberReactivated:
		now := time.Now()
		return events.NewMemberReactivatedEvent(eventMemberID, now, now.Add(24*time.Hour), eventMemberID), nil
	case events.EventTypeActivityPublished:
		return events.NewActivityPublishedEvent(eventItemID, "OTHER", "cli", eventMemberID), nil
	}
	return nil, fmt.Errorf("unknown event type %q", eventType)
}

func publishEvent(eventType string) error {
	evt, err := buildEvent(eventType)
	if err != nil {
		return err
	}
	lg := logger.LoggerWrapper()
	ctx := context.Background()

	bus := events.NewEventBus(lg)
	var a *app
	if eventLive {
		cfg, err := loadConfig(configPath)
		if err != nil {
			return err
		}
		a, err = newApp(ctx, cfg, lg)
		if err != nil {
			return err
		}
		bus = a.bus
	}

	bus.Subscribe(eventType, func(ctx context.Context, event events.Event) error {
		lg.Info("event received",
			"event_id", event.EventID(),
			"event_type", event.EventType(),
			"payload", event.Payload())
		return nil
	})

	lg.Info("publishing event", "event_type", eventType, "event_id", evt.EventID(), "live", eventLive)
	if err := bus.PublishSync(ctx, evt); err != nil {
		return err
	}

	if a != nil {
		drainCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		a.close(drainCtx)
	}
	return nil
}

func init() {
	publishEventCmd.Flags().StringVar(&eventMemberID, "member", "", "member id carried by the event")
	publishEventCmd.Flags().StringVar(&eventItemID, "item", "cli-item", "expense, transfer, payment or activity id")
	publishEventCmd.Flags().Int64Var(&eventAmount, "amount", 0, "amount in FCFA")
	publishEventCmd.Flags().BoolVar(&eventLive, "live", false, "connect to the database and run the real subscribers")

	eventCmd.AddCommand(publishEventCmd)
	rootCmd.AddCommand(eventCmd)
}
