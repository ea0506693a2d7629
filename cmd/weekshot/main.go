// Command weekshot writes a PNG of one week of the trainer's calendar grid,
// rendered by a running trainerdesk server in headless Chromium.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"trainerdesk/internal/adapters/capture"
	"trainerdesk/internal/config"
)

func main() {
	baseURL := flag.String("url", "http://127.0.0.1:8080", "trainerdesk server root")
	week := flag.String("week", "", "any date in the week to capture (YYYY-MM-DD); empty for the current week")
	out := flag.String("out", "week.png", "output PNG path")
	width := flag.Int("width", capture.DefaultWidth, "viewport width in pixels")
	height := flag.Int("height", capture.DefaultHeight, "viewport height in pixels")
	timeout := flag.Duration("timeout", capture.DefaultTimeout, "overall capture timeout")
	flag.Parse()

	slog.SetDefault(config.NewLogger(os.Getenv("TRAINERDESK_ENV"), os.Getenv("TRAINERDESK_LOG_LEVEL")))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	start := time.Now()
	err := capture.WeekGridPNG(ctx, capture.Options{
		BaseURL:    *baseURL,
		Week:       *week,
		Token:      os.Getenv("TRAINERDESK_WEEKSHOT_TOKEN"),
		OutputPath: *out,
		Width:      *width,
		Height:     *height,
		Timeout:    *timeout,
	})
	if err != nil {
		slog.Error("weekshot_failed", "error", err)
		os.Exit(1)
	}
	slog.Info("weekshot_written", "path", *out, "week", *week, "duration_ms", time.Since(start).Milliseconds())
}
