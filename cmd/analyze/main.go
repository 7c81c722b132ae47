package main

// Analyze one blog from the terminal:
//   go run ./cmd/analyze --url https://blog.example.com --format yaml

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"blog-analyzer-backend/internal/analyses"
	"blog-analyzer-backend/internal/bootstrap"
	"blog-analyzer-backend/internal/cache"
	"blog-analyzer-backend/internal/report"
	"blog-analyzer-backend/internal/shared/config"
)

type options struct {
	URL      string
	Provider string
	Format   string
	Timeout  time.Duration
	Delay    time.Duration
}

func main() {
	app := &cli.App{
		Name:  "analyze",
		Usage: "analyze a blog and print its personality report",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "url", Aliases: []string{"u"}, Usage: "blog URL (http:// or https://)", Required: true},
			&cli.StringFlag{Name: "provider", Aliases: []string{"p"}, Usage: "mock, http or openai (defaults to ANALYSIS_PROVIDER)"},
			&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Value: "json", Usage: "json or yaml"},
			&cli.DurationFlag{Name: "timeout", Value: 2 * time.Minute, Usage: "overall analysis deadline"},
			&cli.DurationFlag{Name: "mock-delay", Value: -1, Usage: "override MOCK_DELAY for the mock provider"},
		},
		Action: func(c *cli.Context) error {
			return run(c.Context, options{
				URL:      c.String("url"),
				Provider: c.String("provider"),
				Format:   c.String("format"),
				Timeout:  c.Duration("timeout"),
				Delay:    c.Duration("mock-delay"),
			}, config.Load(), os.Stdout)
		},
	}
	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, opts options, cfg config.Config, out io.Writer) error {
	if opts.Format != "json" && opts.Format != "yaml" {
		return cli.Exit(fmt.Sprintf("unknown format %q", opts.Format), 2)
	}
	req, err := analyses.Validate(opts.URL)
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}
	if opts.Provider != "" {
		name, ok := config.NormalizeProvider(opts.Provider)
		if !ok {
			return cli.Exit(fmt.Sprintf("unknown provider %q", opts.Provider), 2)
		}
		cfg.AnalysisProvider = name
	}
	if opts.Delay >= 0 {
		cfg.MockDelay = opts.Delay
	}
	p, err := bootstrap.BuildProvider(cfg, cache.NewMemoryStore(nil))
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	lc := analyses.NewLifecycle(p, "cli")
	defer lc.Close()
	lc.Submit(ctx, req)
	st, err := lc.Await(ctx)
	if err != nil {
		return cli.Exit(fmt.Sprintf("analysis did not finish: %v", err), 1)
	}
	if kind, msg, ok := st.Failure(); ok {
		return cli.Exit(fmt.Sprintf("%s: %s", kind, msg), 1)
	}
	res, ok := st.Result()
	if !ok {
		return cli.Exit(fmt.Sprintf("unexpected state %s", st.Status()), 1)
	}
	return writeView(out, opts.Format, report.NewView(res))
}

func writeView(out io.Writer, format string, view report.View) error {
	if format == "yaml" {
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(view); err != nil {
			return err
		}
		return enc.Close()
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(view)
}
