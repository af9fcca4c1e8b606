package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/Kauel-Chile/MERN-Boilerplate/internal/core/events"
	"github.com/Kauel-Chile/MERN-Boilerplate/internal/i18n"
	"github.com/Kauel-Chile/MERN-Boilerplate/internal/notification"
	"github.com/Kauel-Chile/MERN-Boilerplate/pkg/logger"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var notifyCmd = &cobra.Command{
	Use:   "notify",
	Short: "Notification commands",
	Long:  `Exercise the outbound mail pipeline without going through signup`,
}

var (
	notifyLocale string
	notifyName   string
)

var notifyTestCmd = &cobra.Command{
	Use:   "test [email]",
	Short: "Send a test verification email",
	Long:  `Publish an identity signed up event for the given address and deliver it through the configured mailer`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return sendTestVerification(args[0])
	},
}

func sendTestVerification(email string) error {
	cfg, err := setup()
	if err != nil {
		return err
	}
	lg := logger.L()

	translator, err := i18n.New(cfg.App.Locale)
	if err != nil {
		return fmt.Errorf("failed to load locales: %w", err)
	}
	mailer, err := notification.NewMailer(cfg.Mail, lg)
	if err != nil {
		return err
	}

	bus := events.NewEventBus(lg)
	notification.NewVerificationNotifier(mailer, translator, notification.VerificationConfig{
		VerifyURL:     verifyURL(cfg),
		PlatformName:  cfg.App.PlatformName,
		PlatformURL:   cfg.App.URL,
		DefaultLocale: cfg.App.Locale,
	}, lg).Register(bus)

	locale := notifyLocale
	if locale == "" {
		locale = cfg.App.Locale
	}
	event := events.NewIdentitySignedUpEvent(uuid.NewString(), email, notifyName, locale, "test-"+uuid.NewString())

	lg.Info("publishing test verification", "event_id", event.EventID(), "email", email, "locale", locale)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return bus.PublishSync(ctx, event)
}

func init() {
	notifyTestCmd.Flags().StringVar(&notifyLocale, "locale", "", "locale of the rendered mail (defaults to app.locale)")
	notifyTestCmd.Flags().StringVar(&notifyName, "name", "Test User", "full name used in the greeting")

	notifyCmd.AddCommand(notifyTestCmd)
}
