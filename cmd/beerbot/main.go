package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"beerbot/internal/bot"
	"beerbot/pkg/attendance"
	"beerbot/pkg/broadcast"
	"beerbot/pkg/config"
	"beerbot/pkg/logging"
	"beerbot/pkg/memory"
	"beerbot/pkg/postcard"
	"beerbot/pkg/prompt"
	"beerbot/pkg/schedule"
	"beerbot/pkg/sommelier"
	"beerbot/pkg/tracker"
)

var configPath = flag.String("config", "configs/beerbot.yaml", "Path to the YAML config file")

func main() {
	flag.Parse()

	if err := run(context.Background(), *configPath); err != nil {
		fmt.Fprintf(os.Stderr, "CRITICAL ERROR: Application failed: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// A .env file is a local convenience; deployments set the environment
	// directly, so a missing file is fine.
	_ = godotenv.Load()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	cleanupLogs, err := logging.Init(&cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer cleanupLogs()

	slog.Info("BeerBot started")

	tb, err := bot.NewTelebot(cfg.Telegram.Token)
	if err != nil {
		return fmt.Errorf("failed to connect to Telegram: %w", err)
	}

	tr := tracker.New()
	sender := bot.NewSender(tb)
	polls := attendance.NewStore(sender, bot.NewNotifier(sender), tr, cfg.Poll.Threshold)

	svc := initBroadcast(cfg, sender, polls, tr)
	som := sommelier.NewClient(cfg.Groq)
	mem := memory.NewManager(memory.DefaultMaxLength)
	debug := schedule.NewRegistry(time.Duration(cfg.Triggers.DebugInterval))

	b := bot.New(tb, cfg, svc, polls, debug, som, mem)

	sched, err := setupScheduler(cfg, svc)
	if err != nil {
		return err
	}
	go sched.Start(ctx)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		slog.Info("Shutting down...")
		cancel()
	}()

	b.Start(ctx)

	logStats(tr)
	return nil
}

func initBroadcast(cfg *config.Config, sender *bot.Sender, polls *attendance.Store, tr *tracker.Tracker) *broadcast.Service {
	defaults := broadcast.Defaults{
		Prompt:         cfg.Postcard.Prompt,
		NegativePrompt: cfg.Postcard.NegativePrompt,
		Caption:        cfg.Postcard.Caption,
		PollQuestion:   cfg.Poll.Question,
		PollOptions:    cfg.Poll.Options,
		Width:          cfg.Postcard.Width,
		Height:         cfg.Postcard.Height,
		GuidanceScale:  cfg.Postcard.GuidanceScale,
		Steps:          cfg.Postcard.Steps,
	}

	remote := postcard.NewHFClient(postcard.HFOptions{
		Token:      cfg.Postcard.Token,
		BaseURL:    cfg.Postcard.BaseURL,
		Timeout:    time.Duration(cfg.Postcard.Timeout),
		MaxRetries: cfg.Postcard.MaxRetries,
	})
	pipeline := postcard.NewPipeline(remote, postcard.NewRenderer(), cfg.Postcard.PlaceholderPath)
	composer := prompt.NewComposer(cfg.Postcard.Scenarios)

	return broadcast.NewService(defaults, composer, pipeline, sender, polls, tr)
}

// setupScheduler registers the weekly postcard trigger and the monthly
// penultimate-weekday barhopping trigger. Triggers without a configured chat
// stay unregistered.
func setupScheduler(cfg *config.Config, svc *broadcast.Service) (*schedule.Scheduler, error) {
	sched := schedule.NewScheduler(0)

	if t := cfg.Triggers.Postcard; t.ChatID != 0 {
		weekday, err := config.ParseWeekday(t.Weekday)
		if err != nil {
			return nil, fmt.Errorf("invalid postcard trigger weekday: %w", err)
		}
		sched.AddJob(schedule.NewWeeklyJob("postcard", weekday, t.Hour, t.Minute, t.Timezone,
			triggerAction(svc, "postcard", t)))
	} else {
		slog.Warn("POSTCARD_CHAT_ID not set, postcard trigger disabled")
	}

	if t := cfg.Triggers.Barhopping; t.ChatID != 0 {
		weekday, err := config.ParseWeekday(t.Weekday)
		if err != nil {
			return nil, fmt.Errorf("invalid barhopping trigger weekday: %w", err)
		}
		sched.AddJob(schedule.NewMonthlyPenultimateJob("barhopping", weekday, t.Hour, t.Minute, t.Timezone,
			triggerAction(svc, "barhopping", t)))
	} else {
		slog.Warn("BARHOPPING_CHAT_ID not set, barhopping trigger disabled")
	}

	return sched, nil
}

func triggerAction(svc *broadcast.Service, feature string, t config.TriggerConfig) func(ctx context.Context) {
	return func(ctx context.Context) {
		err := svc.Send(ctx, feature, t.ChatID, broadcast.Overrides{
			Prompt:       t.Prompt,
			Caption:      t.Caption,
			PollQuestion: t.PollQuestion,
		})
		if err != nil {
			slog.Error("scheduled broadcast failed", "feature", feature, "error", err)
		}
	}
}

func logStats(tr *tracker.Tracker) {
	for feature, stats := range tr.Snapshot() {
		slog.Info("usage stats",
			"feature", feature,
			"remote_images", stats.RemoteImages,
			"local_renders", stats.LocalRenders,
			"placeholders", stats.Placeholders,
			"failures", stats.Failures,
			"polls_opened", stats.PollsOpened,
			"votes", stats.Votes,
			"notifications", stats.Notifications,
		)
	}
}
