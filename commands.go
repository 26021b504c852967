package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/sadopc/planr/internal/calendar"
	"github.com/sadopc/planr/internal/export"
	"github.com/sadopc/planr/internal/hierarchy"
	"github.com/sadopc/planr/internal/server"
	"github.com/sadopc/planr/internal/store"
	"github.com/sadopc/planr/internal/task"
	"github.com/sadopc/planr/internal/timeline"
	"github.com/spf13/cobra"
)

func syncCmd(cfgFile *string) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Replace the cached Redmine tasks with the current issues",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(*cfgFile, false, func(e *env) error {
				sy, err := e.syncer()
				if err != nil {
					return err
				}
				q := e.query()
				q.Limit = limit
				res, err := sy.Run(cmd.Context(), q)
				if err != nil {
					return err
				}
				fmt.Printf("Synced %d issues (%d imported, %d removed)\n", res.Total, res.Imported, res.Removed)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "fetch at most this many issues (0 = all)")
	return cmd
}

func submitCmd(cfgFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "submit",
		Short: "Post finished time entries to Redmine",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(*cfgFile, false, func(e *env) error {
				sy, err := e.syncer()
				if err != nil {
					return err
				}
				res, err := sy.SubmitEntries(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Printf("Submitted %d entries (%.2fh), %d skipped, %d failed\n", res.Submitted, res.Hours, res.Skipped, res.Failed)
				return nil
			})
		},
	}
}

func treeCmd(cfgFile *string) *cobra.Command {
	var (
		asJSON  bool
		project string
	)
	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Print the task hierarchy",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(*cfgFile, false, func(e *env) error {
				tasks, err := e.store.ListTasks(store.TaskFilter{Project: project})
				if err != nil {
					return err
				}
				roots := hierarchy.Build(tasks)
				if asJSON {
					enc := json.NewEncoder(os.Stdout)
					enc.SetIndent("", "  ")
					if roots == nil {
						roots = []*hierarchy.Node{}
					}
					return enc.Encode(roots)
				}
				hierarchy.Walk(roots, func(n *hierarchy.Node, depth int) {
					t := n.Task
					dates := ""
					if t.StartDate.Valid() || t.DueDate.Valid() {
						dates = fmt.Sprintf("  %s → %s", t.StartDate, t.DueDate)
					}
					fmt.Printf("%s#%d %s%s  %d%%\n", strings.Repeat("  ", depth), t.ID, t.Subject, dates, t.DoneRatio)
				})
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the tree as JSON")
	cmd.Flags().StringVar(&project, "project", "", "only tasks of this project")
	return cmd
}

func ganttCmd(cfgFile *string) *cobra.Command {
	var (
		zoom     string
		pngPath  string
		from, to string
	)
	cmd := &cobra.Command{
		Use:   "gantt",
		Short: "Compute the timeline layout as JSON, or render it to PNG",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(*cfgFile, false, func(e *env) error {
				z := e.zoom()
				if zoom != "" {
					var err error
					if z, err = timeline.ParseZoom(zoom); err != nil {
						return err
					}
				}
				tasks, err := e.store.ListTasks(store.TaskFilter{})
				if err != nil {
					return err
				}
				cal, err := e.store.Calendar()
				if err != nil {
					return err
				}
				links, err := e.store.ListLinks()
				if err != nil {
					return err
				}
				opt := timeline.Options{
					Config:   timeline.DefaultConfig().Zoomed(z),
					Zoom:     z,
					Calendar: cal,
					Today:    time.Now(),
					Links:    links,
				}
				if from != "" || to != "" {
					w, err := parseWindow(from, to)
					if err != nil {
						return err
					}
					opt.Window = w
				}
				l := timeline.ComputeEntries(timeline.TreeEntries(hierarchy.Build(tasks)), opt)

				if pngPath != "" {
					if err := export.GanttToPNG(l, pngPath); err != nil {
						return err
					}
					fmt.Printf("Wrote %s\n", pngPath)
					return nil
				}
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(l)
			})
		},
	}
	cmd.Flags().StringVar(&zoom, "zoom", "", "day, week or month")
	cmd.Flags().StringVar(&pngPath, "png", "", "write a PNG image to this path")
	cmd.Flags().StringVar(&from, "from", "", "first day (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "last day (YYYY-MM-DD)")
	return cmd
}

func parseWindow(from, to string) (*timeline.Range, error) {
	start, err := time.Parse("2006-01-02", from)
	if err != nil {
		return nil, fmt.Errorf("--from: %w", err)
	}
	end, err := time.Parse("2006-01-02", to)
	if err != nil {
		return nil, fmt.Errorf("--to: %w", err)
	}
	if end.Before(start) {
		return nil, fmt.Errorf("--to %s is before --from %s", to, from)
	}
	w := timeline.Range{Start: start, End: end.AddDate(0, 0, 1)}
	if n := w.TotalDays(); n > timeline.MaxDays {
		return nil, fmt.Errorf("window spans %d days, at most %d allowed", n, timeline.MaxDays)
	}
	return &w, nil
}

func linksCmd(cfgFile *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "links",
		Short: "Manage dependencies between tasks",
	}

	var typ string
	add := &cobra.Command{
		Use:   "add <source> <target>",
		Short: "Make target wait on source",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("source: %w", err)
			}
			target, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("target: %w", err)
			}
			lt, err := task.ParseLinkType(typ)
			if err != nil {
				return err
			}
			return withEnv(*cfgFile, false, func(e *env) error {
				l, err := e.store.AddLink(task.Link{Source: source, Target: target, Type: lt})
				if err != nil {
					return err
				}
				fmt.Printf("Link %d: #%d -> #%d (%s)\n", l.ID, l.Source, l.Target, l.Type)
				return nil
			})
		},
	}
	add.Flags().StringVar(&typ, "type", "finish_to_start", "finish_to_start, start_to_start, finish_to_finish or start_to_finish")
	cmd.AddCommand(add)

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List dependencies",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(*cfgFile, false, func(e *env) error {
				links, err := e.store.ListLinks()
				if err != nil {
					return err
				}
				for _, l := range links {
					fmt.Printf("%4d  #%d -> #%d  %s\n", l.ID, l.Source, l.Target, l.Type)
				}
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "rm <id>",
		Short: "Remove a dependency",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("link id: %w", err)
			}
			return withEnv(*cfgFile, false, func(e *env) error {
				return e.store.DeleteLink(id)
			})
		},
	})

	return cmd
}

func holidaysCmd(cfgFile *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "holidays",
		Short: "Manage non-working days",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "import <file>",
		Short: "Import holidays from a YYYY-MM-DD[,name] file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(*cfgFile, false, func(e *env) error {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()

				hs, errs, err := calendar.ParseHolidays(f)
				if err != nil {
					return err
				}
				for _, msg := range errs {
					e.log.Warn("skipped line", "reason", msg)
				}
				imported, skipped, err := e.store.ImportHolidays(hs)
				if err != nil {
					return err
				}
				fmt.Printf("Imported %d holidays, %d already present, %d invalid lines\n", imported, skipped, len(errs))
				return nil
			})
		},
	})

	var year int
	list := &cobra.Command{
		Use:   "list",
		Short: "List holidays of a year",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(*cfgFile, false, func(e *env) error {
				hs, err := e.store.ListHolidays(year)
				if err != nil {
					return err
				}
				for _, h := range hs {
					fmt.Printf("%s  %s\n", h.Date, h.Name)
				}
				return nil
			})
		},
	}
	list.Flags().IntVar(&year, "year", time.Now().Year(), "calendar year")
	cmd.AddCommand(list)

	return cmd
}

func serveCmd(cfgFile *string) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the task, timeline and holiday API over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(*cfgFile, false, func(e *env) error {
				if addr == "" {
					addr = e.cfg.Server.Addr
				}
				ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
				defer stop()

				e.log.Info("listening", "addr", addr)
				return server.New(e.store, e.log.WithPrefix("http")).ListenAndServe(ctx, addr)
			})
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	return cmd
}

func exportCmd(cfgFile *string) *cobra.Command {
	var (
		format string
		what   string
		out    string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export time entries or the task tree",
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "csv" && format != "json" {
				return fmt.Errorf("unknown format %q (want csv or json)", format)
			}
			if what != "entries" && what != "tasks" {
				return fmt.Errorf("unknown export %q (want entries or tasks)", what)
			}
			if out == "" {
				out = fmt.Sprintf("planr-%s-%s.%s", what, time.Now().Format("2006-01-02"), format)
			}
			return withEnv(*cfgFile, false, func(e *env) error {
				tasks, err := e.store.ListTasks(store.TaskFilter{})
				if err != nil {
					return err
				}
				if what == "tasks" {
					roots := hierarchy.Build(tasks)
					if format == "csv" {
						err = export.TreeToCSV(roots, out)
					} else {
						err = export.TreeToJSON(roots, out)
					}
				} else {
					var entries []store.TimeEntry
					entries, err = e.store.ListEntries(store.EntryFilter{})
					if err != nil {
						return err
					}
					subjects := make(map[int64]string, len(tasks))
					for _, t := range tasks {
						subjects[t.ID] = t.Subject
					}
					if format == "csv" {
						err = export.EntriesToCSV(entries, subjects, out)
					} else {
						err = export.EntriesToJSON(entries, subjects, out)
					}
				}
				if err != nil {
					return err
				}
				fmt.Printf("Wrote %s\n", out)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&format, "format", "csv", "csv or json")
	cmd.Flags().StringVar(&what, "what", "entries", "entries or tasks")
	cmd.Flags().StringVarP(&out, "output", "o", "", "output path")
	return cmd
}
