// caldav-check lists upcoming events and open to-dos of a calendar collection.
//
// Settings come from CALDAV_* environment variables (a .env file is read if
// present) or from the TOML file given with -config. With -demo the check
// runs against an in-process memory server instead.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/cyp0633/caldora-client/config"
	"github.com/cyp0633/caldora-client/davclient"
	"github.com/cyp0633/caldora-client/internal/davtest"
	"github.com/emersion/go-ical"
)

func main() {
	os.Exit(check())
}

func check() int {
	configPath := flag.String("config", "", "TOML configuration file (default: environment)")
	days := flag.Int("days", 7, "number of days ahead to list events for")
	verbose := flag.Bool("v", false, "log every request")
	demo := flag.Bool("demo", false, "run against an in-process memory server")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	cfg, cleanup, err := loadConfig(*configPath, *demo, logger)
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		return 1
	}
	defer cleanup()

	client, err := cfg.NewClient(logger)
	if err != nil {
		logger.Error("failed to create client", "error", err)
		return 1
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if *demo {
		if err := seed(ctx, client); err != nil {
			logger.Error("failed to seed demo calendar", "error", err)
			return 1
		}
	}

	if err := run(ctx, client, *days); err != nil {
		logger.Error("check failed", "kind", davclient.KindOf(err).String(), "error", err)
		return 1
	}
	return 0
}

func loadConfig(path string, demo bool, logger *slog.Logger) (*config.Config, func(), error) {
	if demo {
		dav := davtest.NewServer("demo", "demo", davtest.AuthDigest, logger)
		server := dav.Start()
		logger.Info("started demo server", "url", server.URL)
		return &config.Config{
			URI:           server.URL + "/demo/calendar/",
			Username:      "demo",
			Password:      "demo",
			AuthType:      string(davclient.AuthDigest),
			RetryAttempts: davclient.DefaultAttempts,
		}, server.Close, nil
	}

	var (
		cfg *config.Config
		err error
	)
	if path != "" {
		cfg, err = config.FromFile(path)
	} else {
		cfg, err = config.FromEnv()
	}
	return cfg, func() {}, err
}

func seed(ctx context.Context, client davclient.DAVClient) error {
	start := time.Now().Add(24 * time.Hour).Truncate(time.Hour).UTC()
	if _, err := client.CreateEvent(ctx, func(e *ical.Event) {
		e.Props.SetText(ical.PropSummary, "Demo meeting")
		e.Props.SetDateTime(ical.PropDateTimeStart, start)
		e.Props.SetDateTime(ical.PropDateTimeEnd, start.Add(time.Hour))
	}); err != nil {
		return err
	}
	_, err := client.CreateTodo(ctx, davclient.TodoAttributes{
		Summary:  "Try caldav-check against a real server",
		Duration: 30 * time.Minute,
		Status:   "NEEDS-ACTION",
	})
	return err
}

func run(ctx context.Context, client davclient.DAVClient, days int) error {
	now := time.Now()
	events, err := client.FindEvents(ctx, now, now.AddDate(0, 0, days))
	if err != nil {
		return fmt.Errorf("listing events: %w", err)
	}
	fmt.Printf("Events in the next %d days: %d\n", days, len(events))
	for _, event := range events {
		summary, _ := event.Props.Text(ical.PropSummary)
		start, _ := event.DateTimeStart(time.Local)
		fmt.Printf("  %s  %s\n", start.Format("2006-01-02 15:04"), summary)
	}

	todos, err := client.FindTodos(ctx)
	if err != nil {
		return fmt.Errorf("listing todos: %w", err)
	}
	fmt.Printf("To-dos: %d\n", len(todos))
	for _, todo := range todos {
		summary, _ := todo.Props.Text(ical.PropSummary)
		status, _ := todo.Props.Text(ical.PropStatus)
		if status == "" {
			status = "NEEDS-ACTION"
		}
		fmt.Printf("  [%s] %s\n", status, summary)
	}
	return nil
}
