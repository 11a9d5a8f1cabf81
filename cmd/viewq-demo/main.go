package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/AnatoleLucet/viewq"
)

func main() {
	configPath := flag.String("config", "", "path to a TOML config file")
	writeConfig := flag.String("write-config", "", "write the effective config to this path and exit")
	frames := flag.Int("frames", 120, "frames to run when stdout is not a terminal")
	interval := flag.Duration("interval", 400*time.Millisecond, "time between producer batches")
	flag.Parse()

	if err := run(*configPath, *writeConfig, *frames, *interval); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(configPath, writeConfig string, frames int, interval time.Duration) error {
	cfg, err := viewq.LoadConfig(configPath)
	if err != nil {
		return err
	}
	if writeConfig != "" {
		return viewq.WriteConfig(writeConfig, cfg)
	}

	logger, err := cfg.Log.NewLogger(os.Stderr)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return runHeadless(ctx, cfg, logger, frames, interval)
	}

	// the tea program sends frame requests to itself
	var program *tea.Program
	mgr, err := viewq.New(
		viewq.WithConfig(cfg),
		viewq.WithLogger(logger),
		viewq.WithFrameRequester(func() {
			if program != nil {
				go program.Send(frameRequestMsg{})
			}
		}),
	)
	if err != nil {
		return err
	}

	root := mgr.NewRootTag()
	feed := newFeed(mgr, root, logger)
	m := newModel(mgr, root)

	program = tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	go feed.run(ctx, interval)
	_, err = program.Run()
	if errors.Is(err, tea.ErrProgramKilled) {
		return nil
	}
	return err
}

// runHeadless drives frames on a ticker and prints the final tree.
func runHeadless(ctx context.Context, cfg viewq.Config, logger *slog.Logger, frames int, interval time.Duration) error {
	mgr, err := viewq.New(viewq.WithConfig(cfg), viewq.WithLogger(logger))
	if err != nil {
		return err
	}
	defer mgr.Close()

	root := mgr.NewRootTag()
	if err := mgr.AddRootView(root, viewq.NewMemoryView("RootView", root, nil)); err != nil {
		return err
	}
	feed := newFeed(mgr, root, logger)

	ticker := time.NewTicker(16 * time.Millisecond)
	defer ticker.Stop()

	lastBatch := time.Time{}
	var totals viewq.FrameStats
	for i := 0; i < frames; i++ {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			if now.Sub(lastBatch) >= interval {
				feed.step()
				lastBatch = now
			}
			stats := mgr.Frame(now)
			totals.Batches += stats.Batches
			totals.Applied += stats.Applied
			totals.Failed += stats.Failed
		}
	}

	tree, err := mgr.Tree(root)
	if err != nil {
		return err
	}
	fmt.Println(renderTree(tree))
	fmt.Println(renderStats(totals, mgr.RootViewNum(), len(mgr.Tags())))
	return nil
}
