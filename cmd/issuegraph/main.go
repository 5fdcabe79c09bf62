package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"cloud.google.com/go/compute/metadata"
	"github.com/coder/issuegraph"
	"github.com/coder/serpent"
	"github.com/google/uuid"
	"github.com/jussi-kalliokoski/slogdriver"
	"github.com/lmittmann/tint"
)

func newLogger() *slog.Logger {
	var log *slog.Logger
	gcpProjectID, err := metadata.ProjectID()
	if err != nil {
		logOpts := &tint.Options{
			AddSource:  true,
			Level:      slog.LevelDebug,
			TimeFormat: time.Kitchen + " 05.999",
		}
		log = slog.New(tint.NewHandler(os.Stderr, logOpts))
	} else {
		log = slog.New(
			slogdriver.NewHandler(
				os.Stderr,
				slogdriver.Config{
					ProjectID: gcpProjectID,
					Level:     slog.LevelDebug,
				},
			),
		)
	}
	return log.With("run", uuid.NewString())
}

type rootCmd struct {
	configFile string
	renderer   string
	format     string
	noRender   bool
	name       string
}

func (r *rootCmd) config() (*issuegraph.Config, error) {
	cfg, err := issuegraph.LoadConfig(r.configFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func main() {
	var root rootCmd
	cmd := &serpent.Command{
		Use:   "issuegraph <issues.csv> <relationships.csv> <output.dot>",
		Short: "issuegraph draws epic and blocking relationships between issues, clustered by team",
		Children: []*serpent.Command{
			root.fetchCmd(),
		},
		Middleware: serpent.RequireNArgs(3),
		Handler: func(inv *serpent.Invocation) error {
			log := newLogger()

			cfg, err := root.config()
			if err != nil {
				return err
			}

			gen := &issuegraph.Generator{
				Log:    log,
				Config: cfg,
			}
			if !root.noRender {
				gen.Renderer = &issuegraph.Renderer{
					Command: root.renderer,
					Format:  root.format,
				}
			}

			_, err = gen.Generate(inv.Context(), issuegraph.GenerateRequest{
				IssuesPath:        inv.Args[0],
				RelationshipsPath: inv.Args[1],
				OutputPath:        inv.Args[2],
				Name:              root.name,
			})
			return err
		},
		Options: []serpent.Option{
			{
				Flag:        "config",
				Env:         "ISSUEGRAPH_CONFIG",
				Description: "Path to a yaml file with palette, age thresholds and fetch mappings.",
				Value:       serpent.StringOf(&root.configFile),
			},
			{
				Flag:        "renderer",
				Default:     "fdp",
				Description: "Graphviz layout program run on the output.",
				Value:       serpent.StringOf(&root.renderer),
			},
			{
				Flag:        "format",
				Default:     "svg",
				Description: "Graphviz output format.",
				Value:       serpent.StringOf(&root.format),
			},
			{
				Flag:        "no-render",
				Description: "Only write the graph description.",
				Value:       serpent.BoolOf(&root.noRender),
			},
			{
				Flag:        "name",
				Description: "Graph name. Defaults to the output path.",
				Value:       serpent.StringOf(&root.name),
			},
		},
	}

	err := cmd.Invoke().WithOS().Run()
	if err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
}
