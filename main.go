package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/malone1029/nia-results-tracker-sub002/pkg/asana"
	"github.com/malone1029/nia-results-tracker-sub002/pkg/config"
	"github.com/malone1029/nia-results-tracker-sub002/pkg/reconcile"
	"github.com/malone1029/nia-results-tracker-sub002/pkg/store"
)

func main() {
	var (
		logLevel   string
		configPath string
		cfg        *config.Config
	)

	app := &cli.Command{
		Name:  "nia-tracker",
		Usage: "Sync process task lists from Asana into the local tracker",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "log level (debug, info, warn, error)",
				Sources:     cli.EnvVars("NIA_TRACKER_LOG_LEVEL"),
				Value:       "info",
				Destination: &logLevel,
			},
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "path to config file",
				Sources:     cli.EnvVars("NIA_TRACKER_CONFIG"),
				Destination: &configPath,
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			level, err := zerolog.ParseLevel(logLevel)
			if err != nil {
				return ctx, fmt.Errorf("invalid log level %q: %w", logLevel, err)
			}
			log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
				Level(level).
				With().Timestamp().Logger()

			cfg, err = config.Load(configPath)
			if err != nil {
				return ctx, fmt.Errorf("load config: %w", err)
			}
			return ctx, nil
		},
		Commands: []*cli.Command{
			{
				Name:  "sync",
				Usage: "Run one reconciliation pass for a single process",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "process",
						Usage:    "process id to sync",
						Required: true,
					},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					binding, ok := cfg.Binding(c.String("process"))
					if !ok {
						return fmt.Errorf("no project binding for process %q", c.String("process"))
					}
					results, err := runSync(ctx, cfg, []config.ProcessBinding{binding})
					if err != nil {
						return err
					}
					if results[0].Err != nil {
						return fmt.Errorf("sync failed for %s: %w", binding.Name, results[0].Err)
					}
					return nil
				},
			},
			{
				Name:  "sync-all",
				Usage: "Run reconciliation for every bound process, one at a time",
				Action: func(ctx context.Context, c *cli.Command) error {
					if len(cfg.Processes) == 0 {
						return fmt.Errorf("no process bindings configured")
					}
					results, err := runSync(ctx, cfg, cfg.Processes)
					if err != nil {
						return err
					}
					failed := 0
					for _, res := range results {
						if res.Err != nil {
							failed++
						}
					}
					if failed == len(results) {
						return fmt.Errorf("all %d syncs failed", failed)
					}
					return nil
				},
			},
			{
				Name:      "set-token",
				Usage:     "Store the Asana personal access token in the config file",
				ArgsUsage: "<token>",
				Action: func(ctx context.Context, c *cli.Command) error {
					token := c.Args().First()
					if token == "" {
						return fmt.Errorf("usage: nia-tracker set-token <token>")
					}
					cfg.Token = token
					if err := config.Save(cfg, configPath); err != nil {
						return err
					}
					fmt.Println("Token saved.")
					return nil
				},
			},
			{
				Name:  "processes",
				Usage: "List configured process bindings",
				Action: func(ctx context.Context, c *cli.Command) error {
					for _, b := range cfg.Processes {
						fmt.Printf("%s\t%s\t%s\n", b.ProcessID, b.Name, b.ProjectGID)
					}
					return nil
				},
			},
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

// runSync runs one reconciliation pass per binding, sequentially. A failed
// process never stops the batch; its result carries the error. Each pass
// writes inside a single transaction, so a mid-pass failure rolls back
// instead of leaving the store half converged.
func runSync(ctx context.Context, cfg *config.Config, bindings []config.ProcessBinding) ([]reconcile.Result, error) {
	token, err := cfg.ResolveToken()
	if err != nil {
		return nil, err
	}

	db, err := store.Open(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("open task store: %w", err)
	}
	defer db.Close()

	client := asana.NewClient(token)

	results := make([]reconcile.Result, 0, len(bindings))
	for _, binding := range bindings {
		var res reconcile.Result
		err := db.WithTx(ctx, func(repo reconcile.Repository) error {
			engine := reconcile.New(client, repo, client, nil, log.Logger)
			res = engine.Sync(ctx, binding.ProcessID, binding.Name, binding.ProjectGID)
			return res.Err
		})
		if err != nil && res.Err == nil {
			// Commit failed after a clean pass.
			res.Err = err
		}
		fmt.Println(res.String())
		results = append(results, res)
	}
	return results, nil
}
