package scheduler

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"ChartPress/internal/generator"
	"ChartPress/internal/notifier"
)

// Notifier delivers messages and charts to a chat.
type Notifier interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
	SendPhotoWithRetry(ctx context.Context, path, caption string, maxRetries int) error
}

const sendRetries = 3

// Scheduler runs batch chart generation on a cron schedule and answers
// chat commands.
type Scheduler struct {
	Cron      *cron.Cron
	Generator *generator.Generator
	Notifier  Notifier // optional
	Symbols   []string
	Logger    zerolog.Logger
	Ctx       context.Context

	mu sync.Mutex // serializes batch runs
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, gen *generator.Generator, n Notifier, symbols []string, logger zerolog.Logger) *Scheduler {
	return &Scheduler{
		Cron:      cron.New(cron.WithSeconds()),
		Generator: gen,
		Notifier:  n,
		Symbols:   symbols,
		Logger:    logger.With().Str("component", "scheduler").Logger(),
		Ctx:       ctx,
	}
}

// Register adds the batch render task under the given cron expression.
func (s *Scheduler) Register(renderCron string) error {
	if _, err := s.Cron.AddFunc(renderCron, func() { s.RunNow() }); err != nil {
		return fmt.Errorf("register render task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.Logger.Info().Int("entries", len(s.Cron.Entries())).Msg("scheduler started")
}

// Stop stops the cron scheduler and waits for a running task to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.Logger.Info().Msg("scheduler stopped")
}

// RunNow renders all configured symbols and reports the result.
func (s *Scheduler) RunNow() generator.BatchResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	res := s.Generator.Batch(s.Ctx, s.Symbols)
	s.trySend(notifier.FormatBatchSummary(res, time.Now()))
	return res
}

// HandleCommand processes a chat command and returns a text reply. Charts
// are delivered as photos, in which case the reply is empty.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return notifier.HelpText
	}
	// "/chart@BotName" addresses the bot in group chats.
	name, _, _ := strings.Cut(strings.ToLower(fields[0]), "@")

	switch name {
	case "/chart":
		if len(fields) < 2 {
			return "Bitte ein Symbol angeben, z.B. /chart SAP.DE"
		}
		return s.sendChart(ctx, fields[1])
	case "/batch":
		s.RunNow()
		return ""
	case "/symbols":
		return "Symbole: " + strings.Join(s.Symbols, ", ")
	default:
		return notifier.HelpText
	}
}

func (s *Scheduler) sendChart(ctx context.Context, symbol string) string {
	out, err := s.Generator.Generate(ctx, symbol)
	if err != nil {
		return fmt.Sprintf("❌ %s: %v", symbol, err)
	}
	if s.Notifier == nil {
		return out.Path
	}
	if err := s.Notifier.SendPhotoWithRetry(ctx, out.Path, notifier.FormatChartCaption(out), sendRetries); err != nil {
		s.Logger.Error().Err(err).Str("symbol", out.Symbol).Msg("send chart failed")
		return fmt.Sprintf("❌ %s: Chart konnte nicht gesendet werden", out.Layout.Symbol)
	}
	return ""
}

func (s *Scheduler) trySend(text string) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.SendWithRetry(s.Ctx, text, sendRetries); err != nil {
		s.Logger.Error().Err(err).Msg("send notification failed")
	}
}
