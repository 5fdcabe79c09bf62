package main

import (
	"crypto/rsa"
	"fmt"
	"os"

	"github.com/beatlabs/github-auth/app"
	appkey "github.com/beatlabs/github-auth/key"
	"github.com/coder/issuegraph"
	"github.com/coder/serpent"
)

type appFlags struct {
	appPEMFile string
	appPEMEnv  string
	appID      string
}

func (a *appFlags) appConfig() (*app.Config, error) {
	var (
		err    error
		appKey *rsa.PrivateKey
	)
	if a.appPEMEnv != "" {
		appKey, err = appkey.Parse([]byte(a.appPEMEnv))
		if err != nil {
			return nil, fmt.Errorf("parse app key: %w", err)
		}
	} else {
		appKey, err = appkey.FromFile(a.appPEMFile)
		if err != nil {
			return nil, fmt.Errorf("load app key: %w", err)
		}
	}

	appConfig, err := app.NewConfig(a.appID, appKey)
	if err != nil {
		return nil, fmt.Errorf("create app config: %w", err)
	}

	return appConfig, nil
}

func writeCSV(path string, write func(f *os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

func (r *rootCmd) fetchCmd() *serpent.Command {
	var (
		gh        appFlags
		installID string
		repos     []string
		state     string
		limit     int64
	)
	return &serpent.Command{
		Use:        "fetch <issues.csv> <relationships.csv>",
		Short:      "Fetch GitHub issues into the two graph input files",
		Middleware: serpent.RequireNArgs(2),
		Handler: func(inv *serpent.Invocation) error {
			log := newLogger()

			cfg, err := r.config()
			if err != nil {
				return err
			}
			if len(repos) == 0 {
				return fmt.Errorf("at least one --repo is required")
			}

			appConfig, err := gh.appConfig()
			if err != nil {
				return err
			}

			fetcher := &issuegraph.Fetcher{
				Log:       log,
				AppConfig: appConfig,
				Config:    cfg.Fetch,
			}
			fetcher.Init()

			res, err := fetcher.Fetch(inv.Context(), &issuegraph.FetchRequest{
				Repos:     repos,
				InstallID: installID,
				State:     state,
				Limit:     int(limit),
			})
			if err != nil {
				return err
			}

			err = writeCSV(inv.Args[0], func(f *os.File) error {
				return issuegraph.WriteIssues(f, res.Issues)
			})
			if err != nil {
				return err
			}
			err = writeCSV(inv.Args[1], func(f *os.File) error {
				return issuegraph.WriteRelationships(f, res.Relationships)
			})
			if err != nil {
				return err
			}

			log.Info("wrote graph inputs",
				"issues", len(res.Issues),
				"relationships", len(res.Relationships),
			)
			return nil
		},
		Options: []serpent.Option{
			{
				Flag:        "app-pem-file",
				Default:     "./app.pem",
				Description: "Path to the GitHub App PEM file.",
				Value:       serpent.StringOf(&gh.appPEMFile),
			},
			{
				Flag:        "app-id",
				Description: "GitHub App ID.",
				Required:    true,
				Value:       serpent.StringOf(&gh.appID),
			},
			{
				Flag:        "install-id",
				Description: "GitHub App installation ID. Looked up per repository when empty.",
				Value:       serpent.StringOf(&installID),
			},
			{
				Flag:        "repo",
				Description: "Repository to fetch, as owner/name. Repeatable.",
				Value:       serpent.StringArrayOf(&repos),
			},
			{
				Flag:        "state",
				Default:     "open",
				Description: "Issue state to fetch: open, closed or all.",
				Value:       serpent.EnumOf(&state, "open", "closed", "all"),
			},
			{
				Flag:        "limit",
				Description: "Maximum issues per repository. Negative means no limit.",
				Default:     "-1",
				Value:       serpent.Int64Of(&limit),
			},
			// SECRETS: only configurable via environment variables.
			{
				Env:         "GITHUB_APP_PEM",
				Description: "APP PEM in raw form.",
				Value:       serpent.StringOf(&gh.appPEMEnv),
			},
		},
	}
}
