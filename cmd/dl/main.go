package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"docketline/internal/app"
	"docketline/internal/config"
	"docketline/internal/db"
	"docketline/internal/domain"
	"docketline/internal/engine"
	"docketline/internal/migrate"
	"docketline/internal/repo"
	"docketline/internal/server"
)

var rootCmd = &cobra.Command{
	Use:   "dl",
	Short: "Docketline CLI",
	Long: `Docketline computes and tracks court deadlines for a law practice.
- Workspace: your .docketline directory with only the database; the firm config lives in the DB and is imported explicitly.
- Matters: the case files everything hangs off, one firm per workspace.
- Rules: a data table mapping (event type, court) to the deadlines the event triggers; new courts are config rows, not code.
- Calculate: expand a filed event into its deadlines; saving is idempotent, so re-running a calculation never duplicates rows.
- Lifecycle: deadlines go pending -> completed; overdue is derived from the due date, never stored.
- Event log: diary of changes, view with 'dl log tail'.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		workspace := viper.GetString("workspace")
		if _, err := db.EnsureWorkspace(workspace); err != nil {
			return err
		}
		return nil
	},
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	if err := rootCmd.Execute(); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("DOCKETLINE")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("workspace", "w", ".", "workspace directory")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	rootCmd.PersistentFlags().String("actor-id", "local-user", "actor identifier")
	_ = viper.BindPFlag("workspace", rootCmd.PersistentFlags().Lookup("workspace"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	_ = viper.BindPFlag("actor-id", rootCmd.PersistentFlags().Lookup("actor-id"))
}

func registerCommands() {
	rootCmd.AddCommand(firmCmd())
	rootCmd.AddCommand(matterCmd())
	rootCmd.AddCommand(deadlineCmd())
	rootCmd.AddCommand(summaryCmd())
	rootCmd.AddCommand(calendarCmd())
	rootCmd.AddCommand(rulesCmd())
	rootCmd.AddCommand(logCmd())
	rootCmd.AddCommand(apikeyCmd())
	rootCmd.AddCommand(serveCmd())
}

func firmCmd() *cobra.Command {
	firm := &cobra.Command{Use: "firm", Short: "Manage the workspace firm"}
	firm.AddCommand(firmShowCmd())
	firm.AddCommand(firmConfigCmd())
	return firm
}

func firmShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the firm",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e *engine.Engine) error {
				f, err := e.Repo.GetFirm(ctx, e.Config.Firm.ID)
				if err != nil {
					return err
				}
				return printJSONOrTable(f)
			})
		},
	}
	return cmd
}

func firmConfigCmd() *cobra.Command {
	cfg := &cobra.Command{
		Use:   "config",
		Short: "Manage firm config",
	}
	cfg.AddCommand(firmConfigShowCmd())
	cfg.AddCommand(firmConfigImportCmd())
	cfg.AddCommand(firmConfigGenerateCmd())
	return cfg
}

func firmConfigShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show firm config stored in DB",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e *engine.Engine) error {
				return printJSONOrTable(e.Config)
			})
		},
	}
	return cmd
}

func firmConfigImportCmd() *cobra.Command {
	var filePath string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import firm config from YAML into the DB",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.FromFile(filePath)
			if err != nil {
				return err
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e *engine.Engine) error {
				firmID := cfg.Firm.ID
				if firmID == "" {
					firmID = e.Config.Firm.ID
				}
				if firmID != e.Config.Firm.ID {
					return fmt.Errorf("config firm.id %s does not match workspace firm %s", firmID, e.Config.Firm.ID)
				}
				if err := e.Repo.UpsertFirmConfig(ctx, firmID, cfg); err != nil {
					return err
				}
				return printJSONOrTable(cfg)
			})
		},
	}
	cmd.Flags().StringVar(&filePath, "file", "", "path to YAML config")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func firmConfigGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Print a default firm config YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Print(config.GenerateDefault(uuid.NewString()))
			return nil
		},
	}
	return cmd
}

func matterCmd() *cobra.Command {
	matter := &cobra.Command{
		Use:   "matter",
		Short: "Manage matters",
		Long:  "Matters are the case files deadlines belong to. Each gets a reference code and stays open until closed.",
	}
	matter.AddCommand(matterCreateCmd())
	matter.AddCommand(matterListCmd())
	matter.AddCommand(matterShowCmd())
	return matter
}

func matterCreateCmd() *cobra.Command {
	var opts engine.CreateMatterOptions
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a matter",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.ActorID = viper.GetString("actor-id")
			return withEngine(cmd.Context(), func(ctx context.Context, e *engine.Engine) error {
				m, err := e.CreateMatter(ctx, opts)
				if err != nil {
					return err
				}
				return printJSONOrTable(m)
			})
		},
	}
	cmd.Flags().StringVar(&opts.ClientName, "client", "", "client name")
	cmd.Flags().StringVar(&opts.Title, "title", "", "matter title")
	cmd.Flags().StringVar(&opts.PracticeArea, "practice-area", "", "practice area")
	cmd.Flags().StringVar(&opts.OpenedAt, "opened-at", "", "opened date (YYYY-MM-DD, defaults to today)")
	_ = cmd.MarkFlagRequired("client")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func matterListCmd() *cobra.Command {
	var status string
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List matters",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e *engine.Engine) error {
				items, err := e.Repo.ListMatters(ctx, repo.MatterFilters{
					FirmID: e.Config.Firm.ID,
					Status: status,
					Limit:  limit,
				})
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"Reference", "Client", "Title", "Status", "Opened"})
				for _, m := range items {
					tw.AppendRow(table.Row{m.ReferenceCode, m.ClientName, m.Title, m.Status, m.OpenedAt})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "status filter (open, closed)")
	cmd.Flags().IntVar(&limit, "limit", 100, "max rows")
	return cmd
}

func matterShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a matter",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e *engine.Engine) error {
				m, err := e.Repo.GetMatter(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSONOrTable(m)
			})
		},
	}
	return cmd
}

func deadlineCmd() *cobra.Command {
	deadline := &cobra.Command{
		Use:   "deadline",
		Short: "Calculate and manage deadlines",
		Long:  "Deadlines flow pending -> completed. Calculated ones come from the rule table; manual ones are added by hand. Saving the same calculation twice never duplicates rows.",
	}
	deadline.AddCommand(deadlineCalculateCmd())
	deadline.AddCommand(deadlineListCmd())
	deadline.AddCommand(deadlineShowCmd())
	deadline.AddCommand(deadlineAddCmd())
	deadline.AddCommand(deadlineCompleteCmd())
	return deadline
}

func deadlineCalculateCmd() *cobra.Command {
	var opts engine.CalculateOptions
	cmd := &cobra.Command{
		Use:   "calculate",
		Short: "Calculate deadlines for a procedural event",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.ActorID = viper.GetString("actor-id")
			return withEngine(cmd.Context(), func(ctx context.Context, e *engine.Engine) error {
				res, err := e.Calculate(ctx, opts)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(res)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"Deadline", "Due", "Priority", "Rule"})
				for _, d := range res.Deadlines {
					tw.AppendRow(table.Row{d.Title, d.DueDate, d.Priority, d.RuleReference})
				}
				tw.Render()
				if opts.Save {
					fmt.Printf("Saved %d new, %d already on file.\n", res.Created, res.Duplicates)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&opts.EventType, "event-type", "", "procedural event type")
	cmd.Flags().StringVar(&opts.FilingDate, "filing-date", "", "filing date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&opts.Court, "court", "", "court code (e.g. ONSC)")
	cmd.Flags().StringVar(&opts.MatterID, "matter", "", "matter id (required with --save)")
	cmd.Flags().BoolVar(&opts.Save, "save", false, "persist the calculated deadlines")
	_ = cmd.MarkFlagRequired("event-type")
	_ = cmd.MarkFlagRequired("filing-date")
	_ = cmd.MarkFlagRequired("court")
	return cmd
}

func deadlineListCmd() *cobra.Command {
	var f repo.DeadlineFilters
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List deadlines",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e *engine.Engine) error {
				f.FirmID = e.Config.Firm.ID
				items, err := e.Repo.ListDeadlines(ctx, f)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Title", "Due", "Priority", "Status", "Source"})
				for _, d := range items {
					tw.AppendRow(table.Row{d.ID, d.Title, d.DueDate, d.Priority, d.Status, d.Source})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&f.MatterID, "matter", "", "matter id")
	cmd.Flags().StringVar(&f.Status, "status", "", "status filter (pending, completed)")
	cmd.Flags().StringVar(&f.Priority, "priority", "", "priority filter")
	cmd.Flags().StringVar(&f.DeadlineType, "type", "", "deadline type filter")
	cmd.Flags().IntVar(&f.Limit, "limit", 100, "max rows")
	return cmd
}

func deadlineShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a deadline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e *engine.Engine) error {
				d, err := e.Repo.GetDeadline(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSONOrTable(d)
			})
		},
	}
	return cmd
}

func deadlineAddCmd() *cobra.Command {
	var opts engine.AddDeadlineOptions
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a manual deadline",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.ActorID = viper.GetString("actor-id")
			return withEngine(cmd.Context(), func(ctx context.Context, e *engine.Engine) error {
				d, err := e.AddDeadline(ctx, opts)
				if err != nil {
					return err
				}
				return printJSONOrTable(d)
			})
		},
	}
	cmd.Flags().StringVar(&opts.MatterID, "matter", "", "matter id")
	cmd.Flags().StringVar(&opts.Title, "title", "", "deadline title")
	cmd.Flags().StringVar(&opts.DeadlineType, "type", "", "deadline type")
	cmd.Flags().StringVar(&opts.Description, "description", "", "description")
	cmd.Flags().StringVar(&opts.DueDate, "due-date", "", "due date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&opts.Priority, "priority", "", "priority (defaults from due date)")
	_ = cmd.MarkFlagRequired("matter")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("due-date")
	return cmd
}

func deadlineCompleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "complete <id>",
		Short: "Mark a deadline completed",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e *engine.Engine) error {
				d, err := e.MarkCompleted(cmd.Context(), args[0], viper.GetString("actor-id"))
				if err != nil {
					return err
				}
				return printJSONOrTable(d)
			})
		},
		Args: cobra.ExactArgs(1),
	}
	return cmd
}

func summaryCmd() *cobra.Command {
	var matterID string
	var window, limit int
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Upcoming deadlines and overdue count",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e *engine.Engine) error {
				s, err := e.Summary(ctx, engine.SummaryOptions{
					MatterID:   matterID,
					WindowDays: window,
					Limit:      limit,
				})
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(s)
				}
				fmt.Printf("As of %s (next %d days): %d upcoming, %d overdue\n", s.AsOf, s.WindowDays, len(s.Upcoming), s.OverdueCount)
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"Due", "Title", "Priority", "Matter"})
				for _, d := range s.Upcoming {
					tw.AppendRow(table.Row{d.DueDate, d.Title, d.Priority, d.MatterID})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&matterID, "matter", "", "matter id")
	cmd.Flags().IntVar(&window, "window", 30, "window in days")
	cmd.Flags().IntVar(&limit, "limit", 0, "max upcoming rows (0 = all)")
	return cmd
}

func calendarCmd() *cobra.Command {
	var start, end string
	cmd := &cobra.Command{
		Use:   "calendar",
		Short: "Deadlines grouped by day for a date range",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e *engine.Engine) error {
				days, err := e.CalendarRange(ctx, start, end)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(days)
				}
				for _, day := range days {
					fmt.Println(day.Date)
					for _, d := range day.Deadlines {
						fmt.Printf("  %-9s %-10s %s\n", d.Priority, d.Status, d.Title)
					}
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&start, "start", "", "range start (YYYY-MM-DD)")
	cmd.Flags().StringVar(&end, "end", "", "range end (YYYY-MM-DD)")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")
	return cmd
}

func rulesCmd() *cobra.Command {
	rules := &cobra.Command{
		Use:   "rules",
		Short: "Inspect the procedural rule table",
	}
	rules.AddCommand(rulesListCmd())
	rules.AddCommand(rulesEventTypesCmd())
	return rules
}

func rulesListCmd() *cobra.Command {
	var eventType, court string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List rules",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e *engine.Engine) error {
				defs := e.Catalog.All()
				filtered := make([]domain.RuleDefinition, 0, len(defs))
				for _, d := range defs {
					if eventType != "" && d.EventType != eventType {
						continue
					}
					if court != "" && !strings.EqualFold(d.Court, court) {
						continue
					}
					filtered = append(filtered, d)
				}
				if viper.GetBool("json") {
					return printJSON(filtered)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"Event", "Court", "Deadline", "Offset", "Rule"})
				for _, d := range filtered {
					tw.AppendRow(table.Row{d.EventType, d.Court, d.DeadlineName, fmt.Sprintf("%d %s", d.OffsetDays, d.OffsetUnit), d.RuleReference})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&eventType, "event-type", "", "event type filter")
	cmd.Flags().StringVar(&court, "court", "", "court filter")
	return cmd
}

func rulesEventTypesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "event-types",
		Short: "List supported event types",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e *engine.Engine) error {
				return printJSONOrTable(e.EventTypes())
			})
		},
	}
	return cmd
}

func logCmd() *cobra.Command {
	log := &cobra.Command{Use: "log", Short: "Inspect the event log"}
	log.AddCommand(logTailCmd())
	return log
}

func logTailCmd() *cobra.Command {
	var n int
	var evtType, entityKind, entityID string
	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Tail events",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e *engine.Engine) error {
				events, err := e.Repo.LatestEvents(ctx, n, e.Config.Firm.ID, evtType, entityKind, entityID)
				if err != nil {
					return err
				}
				return printJSONOrTable(events)
			})
		},
	}
	cmd.Flags().IntVar(&n, "n", 20, "number of events")
	cmd.Flags().StringVar(&evtType, "type", "", "event type filter")
	cmd.Flags().StringVar(&entityKind, "entity-kind", "", "entity kind")
	cmd.Flags().StringVar(&entityID, "entity-id", "", "entity id")
	return cmd
}

func apikeyCmd() *cobra.Command {
	key := &cobra.Command{Use: "apikey", Short: "Manage API keys"}
	key.AddCommand(apikeyCreateCmd())
	key.AddCommand(apikeyListCmd())
	key.AddCommand(apikeyDeleteCmd())
	return key
}

func apikeyCreateCmd() *cobra.Command {
	var actorID, name string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an API key (prints the raw key once)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if actorID == "" {
				actorID = viper.GetString("actor-id")
			}
			raw := "dlk_" + strings.ReplaceAll(uuid.NewString(), "-", "")
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				k := domain.APIKey{
					ID:        uuid.NewString(),
					ActorID:   actorID,
					Name:      name,
					KeyHash:   repo.HashAPIKey(raw),
					CreatedAt: time.Now().UTC().Format(time.RFC3339),
				}
				if err := r.InsertAPIKey(ctx, k); err != nil {
					return err
				}
				fmt.Printf("API key (save it now, it is not stored): %s\n", raw)
				return printJSONOrTable(k)
			})
		},
	}
	cmd.Flags().StringVar(&actorID, "actor", "", "actor the key authenticates as")
	cmd.Flags().StringVar(&name, "name", "", "key label")
	return cmd
}

func apikeyListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List API keys",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				items, err := r.ListAPIKeys(ctx)
				if err != nil {
					return err
				}
				return printJSONOrTable(items)
			})
		},
	}
	return cmd
}

func apikeyDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an API key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				return r.DeleteAPIKey(ctx, args[0])
			})
		},
	}
	return cmd
}

func serveCmd() *cobra.Command {
	var addr, basePath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			workspace := viper.GetString("workspace")
			if _, err := db.EnsureWorkspace(workspace); err != nil {
				return err
			}
			conn, err := db.Open(db.Config{Workspace: workspace})
			if err != nil {
				return err
			}
			defer conn.Close()
			if err := migrate.Migrate(conn); err != nil {
				return err
			}
			_, cfg, err := app.ResolveFirmAndConfig(cmd.Context(), conn, workspace)
			if err != nil {
				return err
			}
			e := engine.New(conn, cfg)
			authCfg := server.AuthConfig{JWTSecret: os.Getenv("DOCKETLINE_JWT_SECRET")}
			handler, err := server.New(server.Config{Engine: e, BasePath: basePath, Auth: authCfg})
			if err != nil {
				return err
			}
			srv := &http.Server{Addr: addr, Handler: handler}
			go func() {
				<-cmd.Context().Done()
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				srv.Shutdown(ctx)
			}()
			fmt.Printf("Serving Docketline API on http://%s%s (OpenAPI at %s/openapi.json, Swagger UI at /docs)\n", addr, basePath, basePath)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8080", "listen address")
	cmd.Flags().StringVar(&basePath, "base-path", "/v1", "API base path")
	return cmd
}

// --- helpers ---

func withEngine(ctx context.Context, fn func(context.Context, *engine.Engine) error) error {
	workspace := viper.GetString("workspace")
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		return err
	}
	defer conn.Close()
	if err := migrate.Migrate(conn); err != nil {
		return err
	}
	_, cfg, err := app.ResolveFirmAndConfig(ctx, conn, workspace)
	if err != nil {
		return err
	}
	e := engine.New(conn, cfg)
	return fn(ctx, e)
}

func withRepo(ctx context.Context, fn func(context.Context, repo.Repo) error) error {
	workspace := viper.GetString("workspace")
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		return err
	}
	defer conn.Close()
	if err := migrate.Migrate(conn); err != nil {
		return err
	}
	return fn(ctx, repo.Repo{DB: conn})
}

func printJSONOrTable(v any) error {
	if viper.GetBool("json") {
		return printJSON(v)
	}
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
