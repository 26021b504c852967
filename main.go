package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/sadopc/planr/internal/config"
	"github.com/sadopc/planr/internal/redmine"
	"github.com/sadopc/planr/internal/store"
	"github.com/sadopc/planr/internal/syncer"
	"github.com/sadopc/planr/internal/timeline"
	"github.com/sadopc/planr/internal/tui"
	"github.com/spf13/cobra"
)

var Version = "dev"

// env is what every command needs: the merged config, the open store and
// a logger.
type env struct {
	cfg   *config.Config
	store *store.Store
	log   *log.Logger
}

func main() {
	var cfgFile string

	root := &cobra.Command{
		Use:           "planr",
		Short:         "Plan Redmine work on a Gantt timeline and track time against it",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cfgFile, true, runTUI)
		},
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: global then ./.planr.yaml)")

	root.AddCommand(
		syncCmd(&cfgFile),
		submitCmd(&cfgFile),
		treeCmd(&cfgFile),
		ganttCmd(&cfgFile),
		holidaysCmd(&cfgFile),
		linksCmd(&cfgFile),
		serveCmd(&cfgFile),
		exportCmd(&cfgFile),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// withEnv loads config, opens the store and runs fn. With logToFile the log
// goes to the configured file, since the terminal belongs to the UI.
func withEnv(cfgFile string, logToFile bool, fn func(*env) error) error {
	var (
		cfg *config.Config
		err error
	)
	if cfgFile != "" {
		cfg, err = config.LoadFrom(cfgFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}

	var w io.Writer = os.Stderr
	if logToFile {
		if cfg.Log.File == "" {
			w = io.Discard
		} else {
			if err := os.MkdirAll(filepath.Dir(cfg.Log.File), 0o755); err != nil {
				return fmt.Errorf("create log directory: %w", err)
			}
			f, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
			if err != nil {
				return fmt.Errorf("open log file: %w", err)
			}
			defer f.Close()
			w = f
		}
	}
	l := log.NewWithOptions(w, log.Options{ReportTimestamp: logToFile, Prefix: "planr"})
	if lvl, err := log.ParseLevel(cfg.Log.Level); err == nil {
		l.SetLevel(lvl)
	} else {
		l.Warn("unknown log level, using info", "level", cfg.Log.Level)
	}

	s, err := store.New(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer s.Close()

	return fn(&env{cfg: cfg, store: s, log: l})
}

// redmineCredentials prefers the config file and falls back to what the
// Settings view stored.
func (e *env) redmineCredentials() (url, apiKey string) {
	url, apiKey = e.cfg.Redmine.URL, e.cfg.Redmine.APIKey
	if url == "" {
		url, _ = e.store.GetSetting(store.KeyRedmineURL)
	}
	if apiKey == "" {
		apiKey, _ = e.store.GetSetting(store.KeyRedmineAPIKey)
	}
	return url, apiKey
}

func (e *env) syncer() (*syncer.Syncer, error) {
	url, apiKey := e.redmineCredentials()
	if url == "" || apiKey == "" {
		return nil, fmt.Errorf("redmine url and api key are not configured")
	}
	c := redmine.New(url, apiKey, redmine.WithLogger(e.log.WithPrefix("redmine")))
	sy := syncer.New(c, e.store, e.log.WithPrefix("sync"))
	sy.ActivityID = e.cfg.Redmine.ActivityID
	return sy, nil
}

func (e *env) query() redmine.Query {
	return redmine.Query{
		ProjectID:    e.cfg.Redmine.ProjectID,
		AssignedToMe: e.cfg.Redmine.AssignedToMe,
	}
}

// zoom resolves the default zoom: the Settings view wins over the file.
func (e *env) zoom() timeline.Zoom {
	name := e.cfg.Timeline.Zoom
	if v, err := e.store.GetSetting(store.KeyTimelineZoom); err == nil && v != "" {
		name = v
	}
	z, err := timeline.ParseZoom(name)
	if err != nil {
		e.log.Warn("bad timeline zoom", "zoom", name, "err", err)
	}
	return z
}

func runTUI(e *env) error {
	exportDir, err := os.Getwd()
	if err != nil {
		exportDir = "."
	}
	app := tui.NewApp(e.store, tui.Options{
		Syncer:    e.syncer,
		Query:     e.query(),
		Zoom:      e.zoom(),
		ExportDir: exportDir,
		Log:       e.log,
	})
	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithMouseCellMotion())

	e.log.Info("starting", "version", Version, "db", e.cfg.DBPath)
	_, err = p.Run()
	return err
}
