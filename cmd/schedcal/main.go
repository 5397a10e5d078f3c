// Command schedcal manages recurring events and their occupied time spans.
//
//	schedcal migrate
//	schedcal expand    -rrule R -duration M [-timezone Z] [-text]
//	schedcal calendar  -owner O -start T -end T
//	schedcal create    [-file event.json]
//	schedcal update    [-file patch.json]
//	schedcal show      -id ID
//	schedcal remove    -id ID -owner O
//	schedcal subscribe -id ID -user U [-notify]
//	schedcal unsubscribe -id ID -user U
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"schedcal/internal/application"
	"schedcal/internal/config"
	"schedcal/internal/domain"
	"schedcal/internal/infrastructure/database"
	"schedcal/internal/infrastructure/i18n"
)

var errUsage = errors.New("usage: schedcal <migrate|expand|calendar|create|update|show|remove|subscribe|unsubscribe> [flags]")

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, errUsage)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Configuration invalide: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = run(ctx, cfg, os.Args[1], os.Args[2:], os.Stdin, os.Stdout)
	stop()
	if err == nil {
		return
	}
	if errors.Is(err, errUsage) {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	tr := i18n.NewTranslator(cfg.DefaultLocale)
	if domain.KindOf(err) == "" {
		log.Printf("❌ %v", err)
	}
	log.Printf("❌ %s", application.DescribeError(tr, cfg.DefaultLocale, err))
	os.Exit(1)
}

func run(ctx context.Context, cfg *config.Config, name string, args []string, in io.Reader, out io.Writer) error {
	switch name {
	case "migrate":
		_, err := database.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath)
		return err
	case "expand":
		return runExpand(args, out)
	case "calendar", "create", "update", "show", "remove", "subscribe", "unsubscribe":
	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, name)
	}

	svc, err := openServices(ctx, cfg)
	if err != nil {
		return err
	}
	defer svc.close()

	switch name {
	case "calendar":
		return runCalendar(ctx, svc, args, out)
	case "create":
		return runCreate(ctx, svc, cfg, args, in, out)
	case "update":
		return runUpdate(ctx, svc, args, in, out)
	case "show":
		return runShow(ctx, svc, args, out)
	case "remove":
		return runRemove(ctx, svc, args)
	case "subscribe":
		return runSubscribe(ctx, svc, args, out)
	default:
		return runUnsubscribe(ctx, svc, args)
	}
}

type services struct {
	events   *application.EventService
	subs     *application.SubscriptionService
	calendar *application.CalendarService
	close    func()
}

func openServices(ctx context.Context, cfg *config.Config) (*services, error) {
	pool, err := database.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("initialisation de la base de données: %w", err)
	}
	eventRepo := database.NewEventRepository(pool)
	subscriptionRepo := database.NewSubscriptionRepository(pool)

	return &services{
		events:   application.NewEventService(eventRepo, subscriptionRepo),
		subs:     application.NewSubscriptionService(subscriptionRepo, eventRepo),
		calendar: application.NewCalendarService(eventRepo),
		close:    pool.Close,
	}, nil
}
