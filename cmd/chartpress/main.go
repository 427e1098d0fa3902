package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"ChartPress/internal/api"
	"ChartPress/internal/calculator"
	"ChartPress/internal/notifier"
	"ChartPress/internal/scheduler"
)

const usage = `Usage: chartpress <command> [flags] [symbols]

Commands:
  render    render charts for the given symbols, or all configured ones
  diagnose  print data coverage for one symbol
  serve     run the scheduler, Telegram bot and HTTP API

Configuration is read from $CONFIG_PATH (default configs/config.yaml).
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}

	var err error
	switch cmd, args := os.Args[1], os.Args[2:]; cmd {
	case "render":
		err = runRender(cfgPath, args)
	case "diagnose":
		err = runDiagnose(cfgPath, args)
	case "serve":
		err = runServe(cfgPath, args)
	case "-h", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", cmd, usage)
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "chartpress: %v\n", err)
		os.Exit(1)
	}
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func runRender(cfgPath string, args []string) error {
	fs := flag.NewFlagSet("render", flag.ExitOnError)
	interactive := fs.Bool("interactive", true, "ask for an ISIN, WKN or other ticker when a symbol has no data")
	outDir := fs.String("out", "", "output directory (overrides output.dir)")
	fs.Parse(args)

	a, err := newApp(cfgPath, appOptions{Interactive: *interactive, OutputDir: *outDir})
	if err != nil {
		return err
	}
	defer a.Close()

	symbols := fs.Args()
	if len(symbols) == 0 {
		symbols = a.cfg.Symbols
	}

	ctx, cancel := signalContext()
	defer cancel()

	res := a.gen.Batch(ctx, symbols)
	for _, out := range res.Succeeded {
		fmt.Printf("Chart saved as %s\n", out.Path)
		if out.Warning != nil {
			fmt.Printf("Warning: %v\n", out.Warning)
		}
	}
	for _, f := range res.Failed {
		fmt.Fprintf(os.Stderr, "%s: %s: %v\n", f.Symbol, f.Stage, f.Err)
	}
	if len(res.Failed) > 0 {
		return fmt.Errorf("%d of %d charts failed", len(res.Failed), len(symbols))
	}
	return nil
}

func runDiagnose(cfgPath string, args []string) error {
	fs := flag.NewFlagSet("diagnose", flag.ExitOnError)
	fs.Parse(args)
	if fs.NArg() != 1 {
		return errors.New("diagnose takes exactly one symbol")
	}

	a, err := newApp(cfgPath, appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := signalContext()
	defer cancel()

	res, err := a.col.Collect(ctx, fs.Arg(0))
	if err != nil {
		return err
	}
	d, err := calculator.Diagnose(res.Bars, a.cfg.Chart.GapThreshold)
	if err != nil {
		return err
	}
	printDiagnosis(os.Stdout, res.Symbol, d)
	return nil
}

func printDiagnosis(w io.Writer, symbol string, d *calculator.Diagnosis) {
	const ts = "2006-01-02 15:04 MST"
	fmt.Fprintf(w, "%s\n", strings.ToUpper(symbol))
	fmt.Fprintf(w, "  points:        %d (%d without close)\n", d.Points, d.Missing)
	fmt.Fprintf(w, "  trading days:  %d\n", d.TradingDays)
	fmt.Fprintf(w, "  first / last:  %s / %s\n", d.First.Format(ts), d.Last.Format(ts))
	fmt.Fprintf(w, "  open / close:  %.2f / %.2f\n", d.Open, d.Close)
	fmt.Fprintf(w, "  high / low:    %.2f / %.2f\n", d.High, d.Low)
	fmt.Fprintf(w, "  close range:   %.2f .. %.2f\n", d.CloseLow, d.CloseHigh)
	fmt.Fprintln(w, "  per day:")
	for _, pd := range d.PerDay {
		fmt.Fprintf(w, "    %s  %4d\n", pd.Date, pd.Points)
	}
	fmt.Fprintln(w, "  intervals:")
	for _, iv := range d.Intervals {
		fmt.Fprintf(w, "    %-8s %4d\n", iv.Interval, iv.Count)
	}
	fmt.Fprintf(w, "  gaps:          %d\n", len(d.Gaps))
	for _, g := range d.Gaps {
		fmt.Fprintf(w, "    %s -> %s (%s)\n", g.From.Format(ts), g.To.Format(ts), g.Duration)
	}
}

func runServe(cfgPath string, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	runOnStart := fs.Bool("run-on-start", os.Getenv("RUN_ON_START") == "true", "render all symbols immediately")
	fs.Parse(args)

	a, err := newApp(cfgPath, appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()
	log := a.logger

	ctx, cancel := signalContext()
	defer cancel()

	var tn *notifier.TelegramNotifier
	var n scheduler.Notifier
	if a.cfg.TelegramEnabled() {
		tn = notifier.NewTelegramNotifier(a.cfg.Telegram.BotToken, a.cfg.Telegram.ChatID, a.cfg.Proxy, log)
		n = tn
	} else {
		log.Warn().Msg("telegram not configured, notifications disabled")
	}

	sched := scheduler.NewScheduler(ctx, a.gen, n, a.cfg.Symbols, log)
	if a.cfg.Schedule.RenderCron != "" {
		if err := sched.Register(a.cfg.Schedule.RenderCron); err != nil {
			return err
		}
	}
	sched.Start()
	defer sched.Stop()

	if tn != nil {
		go tn.StartPolling(ctx, sched.HandleCommand)
		log.Info().Msg("telegram polling started")
	}

	if *runOnStart {
		log.Info().Msg("run-on-start enabled, rendering now")
		go sched.RunNow()
	}

	srv := &http.Server{
		Addr:              a.cfg.HTTP.Addr,
		Handler:           api.SetupRoutes(api.NewHandler(a.gen, a.rec, a.metrics, log)),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	log.Info().Msg("ChartPress is running. Press Ctrl+C to stop.")
	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received, stopping...")
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}

	shutdownCtx, done := context.WithTimeout(context.Background(), 10*time.Second)
	defer done()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("http shutdown")
	}
	log.Info().Msg("ChartPress stopped")
	return nil
}
