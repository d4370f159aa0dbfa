package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/kailas-cloud/memsearch/internal/app"
	"github.com/kailas-cloud/memsearch/internal/config"
	"github.com/kailas-cloud/memsearch/internal/domain/search/query"
	logpkg "github.com/kailas-cloud/memsearch/internal/logger"
	"github.com/kailas-cloud/memsearch/internal/version"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "memsearchctl",
		Usage:   "Administer memsearch prompts and facts",
		Version: version.Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "env",
				Aliases: []string{"e"},
				Usage:   "Config environment (config/<env>.yaml)",
				EnvVars: []string{"ENV"},
				Value:   "local",
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "prompt",
				Usage: "Manage system prompts",
				Subcommands: []*cli.Command{
					{
						Name:      "set",
						Usage:     "Store a new prompt version for a feature",
						ArgsUsage: "<prompt text>",
						Flags:     []cli.Flag{featureFlag()},
						Action:    promptSetCommand,
					},
					{
						Name:   "get",
						Usage:  "Print the latest prompt for a feature",
						Flags:  []cli.Flag{featureFlag()},
						Action: promptGetCommand,
					},
				},
			},
			{
				Name:  "fact",
				Usage: "Manage facts",
				Subcommands: []*cli.Command{
					{
						Name:      "add",
						Usage:     "Embed and store one fact",
						ArgsUsage: "<text>",
						Flags:     []cli.Flag{ownerFlag()},
						Action:    factAddCommand,
					},
					{
						Name:  "import",
						Usage: "Import facts, one per line",
						Flags: []cli.Flag{
							ownerFlag(),
							&cli.StringFlag{
								Name:  "file",
								Usage: "Input file; - reads stdin",
								Value: "-",
							},
						},
						Action: factImportCommand,
					},
				},
			},
			{
				Name:      "search",
				Usage:     "Search an owner's facts",
				ArgsUsage: "<query>",
				Flags: []cli.Flag{
					ownerFlag(),
					&cli.IntFlag{Name: "limit", Usage: "Page size", Value: query.DefaultLimit},
					&cli.IntFlag{Name: "offset", Usage: "Page offset"},
					&cli.Float64Flag{Name: "threshold", Usage: "Minimum similarity (default depends on expansion)"},
					&cli.BoolFlag{Name: "expand", Usage: "Expand the query with the chat model", Value: true},
				},
				Action: searchCommand,
			},
		},
	}
}

func ownerFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     "owner",
		Aliases:  []string{"o"},
		Usage:    "Owner scope of the facts",
		Required: true,
	}
}

func featureFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     "feature",
		Aliases:  []string{"f"},
		Usage:    "Feature the system prompt applies to (e.g. search_query)",
		Required: true,
	}
}

// withServices loads config for --env, wires services and runs fn.
func withServices(c *cli.Context, fn func(ctx context.Context, a *app.App) error) error {
	env := c.String("env")
	cfg, err := config.Load(env)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	level := cfg.Logging.Level
	if level == "" || level == "debug" {
		level = "warn"
	}
	logger, err := logpkg.NewLogger(env, level)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx := c.Context
	a, err := app.New(ctx, &cfg, logger)
	if err != nil {
		return fmt.Errorf("wire services: %w", err)
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Warn("Error releasing resources", zap.Error(err))
		}
	}()

	return fn(ctx, a)
}

func joinedArgs(c *cli.Context, what string) (string, error) {
	text := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if text == "" {
		return "", fmt.Errorf("%s is required", what)
	}
	return text, nil
}

func promptSetCommand(c *cli.Context) error {
	text, err := joinedArgs(c, "prompt text")
	if err != nil {
		return err
	}
	return withServices(c, func(ctx context.Context, a *app.App) error {
		p, err := a.Prompts.Set(ctx, c.String("feature"), text)
		if err != nil {
			return fmt.Errorf("set prompt: %w", err)
		}
		fmt.Fprintf(c.App.Writer, "saved prompt for %s at %s\n", p.Feature(), p.UpdatedAt().Format(time.RFC3339))
		return nil
	})
}

func promptGetCommand(c *cli.Context) error {
	return withServices(c, func(ctx context.Context, a *app.App) error {
		p, err := a.Prompts.Get(ctx, c.String("feature"))
		if err != nil {
			return fmt.Errorf("get prompt: %w", err)
		}
		fmt.Fprintln(c.App.Writer, p.Text())
		return nil
	})
}

func factAddCommand(c *cli.Context) error {
	text, err := joinedArgs(c, "fact text")
	if err != nil {
		return err
	}
	return withServices(c, func(ctx context.Context, a *app.App) error {
		f, err := a.Facts.Add(ctx, c.String("owner"), text)
		if err != nil {
			return fmt.Errorf("add fact: %w", err)
		}
		fmt.Fprintln(c.App.Writer, f.ID())
		return nil
	})
}

func factImportCommand(c *cli.Context) error {
	texts, err := readInput(c.String("file"), c.App.Reader)
	if err != nil {
		return err
	}
	if len(texts) == 0 {
		return fmt.Errorf("no facts to import")
	}
	return withServices(c, func(ctx context.Context, a *app.App) error {
		results, err := a.Facts.Import(ctx, c.String("owner"), texts)
		if err != nil {
			return fmt.Errorf("import facts: %w", err)
		}
		failed := 0
		for _, r := range results {
			if r.Err() != nil {
				failed++
				fmt.Fprintf(c.App.Writer, "%d\terror\t%v\n", r.Index(), r.Err())
				continue
			}
			fmt.Fprintf(c.App.Writer, "%d\tok\t%s\n", r.Index(), r.ID())
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d facts failed", failed, len(results))
		}
		return nil
	})
}

func searchCommand(c *cli.Context) error {
	raw, err := joinedArgs(c, "query")
	if err != nil {
		return err
	}
	var threshold *float64
	if c.IsSet("threshold") {
		v := c.Float64("threshold")
		threshold = &v
	}
	q, err := query.New(raw, c.String("owner"), threshold, c.Int("limit"), c.Int("offset"), c.Bool("expand"))
	if err != nil {
		return fmt.Errorf("invalid search: %w", err)
	}

	return withServices(c, func(ctx context.Context, a *app.App) error {
		out, err := a.Search.Search(ctx, q)
		if err != nil {
			return fmt.Errorf("search: %w", err)
		}
		w := c.App.Writer
		fmt.Fprintf(w, "query: %s (expanded=%t, threshold=%.2f)\n", out.EffectiveQuery, out.Expanded, out.Threshold)
		items := out.Page.Items()
		for i := range items {
			fmt.Fprintf(w, "%.4f\t%s\t%s\n", items[i].Score(), items[i].ID(), items[i].Text())
		}
		if next, ok := out.Page.NextCursor(); ok {
			fmt.Fprintf(w, "next offset: %d\n", next)
		}
		return nil
	})
}

// readInput returns the non-empty trimmed lines of path, or of stdin for "-".
func readInput(path string, stdin io.Reader) ([]string, error) {
	var r io.Reader = stdin
	if path != "-" {
		f, err := os.Open(path) //nolint:gosec // operator-supplied path
		if err != nil {
			return nil, fmt.Errorf("open input: %w", err)
		}
		defer func() { _ = f.Close() }()
		r = f
	}

	var lines []string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	return lines, nil
}
