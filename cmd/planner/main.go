package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"schema_diff_planner/internal/apply"
	"schema_diff_planner/internal/auth"
	"schema_diff_planner/internal/config"
	"schema_diff_planner/internal/db"
	"schema_diff_planner/internal/diff"
	httpserver "schema_diff_planner/internal/http"
	"schema_diff_planner/internal/logging"
	"schema_diff_planner/internal/plan"
	"schema_diff_planner/internal/render"
	"schema_diff_planner/internal/schema"
	"schema_diff_planner/internal/sqlgen"
	"schema_diff_planner/internal/storage"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		return
	}
	cmd := os.Args[1]
	args := os.Args[2:]

	var err error
	switch cmd {
	case "diff":
		err = diffCmd(args)
	case "plan":
		err = planCmd(args)
	case "list-plans":
		err = listPlansCmd(args)
	case "apply":
		err = applyCmd(args)
	case "rollback":
		err = rollbackCmd(args)
	case "status":
		err = statusCmd(args)
	case "serve":
		err = serveCmd(args)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %s\n", cmd)
		usage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Println(`planner commands:
  diff        - compute migration operations between two snapshot files
  plan        - reflect two databases, diff them and store a plan
  list-plans  - list stored plans
  apply       - apply a stored plan to a target database
  rollback    - run a stored plan's rollback against a target database
  status      - show plan status rows recorded in a target database
  serve       - start the HTTP API`)
}

func diffCmd(args []string) error {
	fs := flag.NewFlagSet("diff", flag.ExitOnError)
	oldPath := fs.String("old", "", "path to the old snapshot file")
	newPath := fs.String("new", "", "path to the new snapshot file")
	reverse := fs.Bool("reverse", false, "generate the down direction")
	dialect := fs.String("sql", "", "emit SQL for the given dialect instead of operation text (postgres|mysql)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *oldPath == "" || *newPath == "" {
		return fmt.Errorf("-old and -new are required")
	}

	oldSnap, err := readSnapshot(*oldPath)
	if err != nil {
		return err
	}
	newSnap, err := readSnapshot(*newPath)
	if err != nil {
		return err
	}

	ops, err := diff.DiffSchema(newSnap, oldSnap, *reverse)
	if err != nil {
		return err
	}

	if *dialect != "" {
		stmts, err := sqlgen.Statements(sqlgen.Dialect(*dialect), ops)
		if err != nil {
			return err
		}
		for _, stmt := range stmts {
			fmt.Println(stmt + ";")
		}
		return nil
	}

	script, err := render.Script(ops)
	if err != nil {
		return err
	}
	fmt.Print(script)
	return nil
}

func planCmd(args []string) error {
	fs := flag.NewFlagSet("plan", flag.ExitOnError)
	name := fs.String("name", "", "plan name")
	desc := fs.String("desc", "", "plan description")
	desiredProvider := fs.String("desired-provider", "postgres", "desired database provider")
	desiredDSN := fs.String("desired-dsn", "", "desired database DSN")
	desiredSchema := fs.String("desired-schema", "", "desired database schema")
	currentProvider := fs.String("current-provider", "postgres", "current database provider")
	currentDSN := fs.String("current-dsn", "", "current database DSN")
	currentSchema := fs.String("current-schema", "", "current database schema")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *name == "" || *desiredDSN == "" || *currentDSN == "" {
		return fmt.Errorf("-name, -desired-dsn and -current-dsn are required")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := storage.EnsureBase(cfg.StorageDir); err != nil {
		return err
	}

	ctx := context.Background()
	desired, err := reflectTarget(ctx, *desiredProvider, *desiredDSN, *desiredSchema)
	if err != nil {
		return fmt.Errorf("reflect desired: %w", err)
	}
	current, err := reflectTarget(ctx, *currentProvider, *currentDSN, *currentSchema)
	if err != nil {
		return fmt.Errorf("reflect current: %w", err)
	}

	content, err := plan.BuildContent(desired, current, sqlgen.Dialect(*currentProvider))
	if err != nil {
		return err
	}
	record, err := storage.StorePlan(cfg.StorageDir, *name, *currentProvider, content, *desc)
	if err != nil {
		return err
	}
	fmt.Printf("stored plan %s (%s)\n", record.Name, record.ID)
	fmt.Print(content.Forward)
	return nil
}

func listPlansCmd(_ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	records, err := storage.ListPlanRecords(cfg.StorageDir)
	if err != nil {
		return err
	}
	for _, rec := range records {
		fmt.Printf("%s\t%s\t%s\n", rec.Name, rec.Dialect, rec.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	return nil
}

func applyCmd(args []string) error {
	fs := flag.NewFlagSet("apply", flag.ExitOnError)
	name := fs.String("name", "", "plan name")
	provider := fs.String("provider", "postgres", "target database provider")
	dsn := fs.String("dsn", "", "target database DSN")
	autoRollback := fs.Bool("auto-rollback", false, "run the rollback script when apply fails")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *name == "" || *dsn == "" {
		return fmt.Errorf("-name and -dsn are required")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	record, content, err := storage.LoadPlan(cfg.StorageDir, *name)
	if err != nil {
		return err
	}

	adapter, err := db.Open(*provider, *dsn)
	if err != nil {
		return err
	}
	defer adapter.Close()

	runner := apply.Runner{StatusTable: cfg.StatusTable}
	if err := runner.Apply(context.Background(), adapter, record, content, *autoRollback); err != nil {
		return err
	}
	fmt.Printf("applied plan %s\n", record.Name)
	return nil
}

func rollbackCmd(args []string) error {
	fs := flag.NewFlagSet("rollback", flag.ExitOnError)
	name := fs.String("name", "", "plan name")
	provider := fs.String("provider", "postgres", "target database provider")
	dsn := fs.String("dsn", "", "target database DSN")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *name == "" || *dsn == "" {
		return fmt.Errorf("-name and -dsn are required")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	record, content, err := storage.LoadPlan(cfg.StorageDir, *name)
	if err != nil {
		return err
	}

	adapter, err := db.Open(*provider, *dsn)
	if err != nil {
		return err
	}
	defer adapter.Close()

	runner := apply.Runner{StatusTable: cfg.StatusTable}
	if err := runner.Rollback(context.Background(), adapter, record, content); err != nil {
		return err
	}
	fmt.Printf("rolled back plan %s\n", record.Name)
	return nil
}

func statusCmd(args []string) error {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	provider := fs.String("provider", "postgres", "target database provider")
	dsn := fs.String("dsn", "", "target database DSN")
	limit := fs.Int("limit", 20, "number of rows to show")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *dsn == "" {
		return fmt.Errorf("-dsn is required")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	adapter, err := db.Open(*provider, *dsn)
	if err != nil {
		return err
	}
	defer adapter.Close()

	entries, err := adapter.FetchPlanStatuses(context.Background(), cfg.StatusTable, *limit)
	if err != nil {
		return err
	}
	for _, e := range entries {
		line := fmt.Sprintf("%s\t%s\t%s\t%s", e.AppliedAt.Format("2006-01-02 15:04:05"), e.PlanName, e.RunID, e.Status)
		if e.Error.Valid {
			line += "\t" + e.Error.String
		}
		fmt.Println(line)
	}
	return nil
}

func serveCmd(_ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.ValidateServe(); err != nil {
		return err
	}
	if err := storage.EnsureBase(cfg.StorageDir); err != nil {
		return err
	}

	logger := logging.NewLogger(cfg.LogLevel)

	sessions := auth.NewSessionManager(cfg.SecretKeyBytes)
	authn := auth.NewHeaderAuthenticator(cfg.DevAuth)
	runner := apply.Runner{StatusTable: cfg.StatusTable}

	server := httpserver.New(cfg, logger,
		httpserver.NewAuthMiddleware(sessions, logger),
		httpserver.NewSessionHandler(authn, sessions, logger),
		httpserver.NewDiffHandler(logger),
		httpserver.NewPlanHandler(cfg.StorageDir, runner, logger),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return server.Start(ctx)
}

func readSnapshot(path string) (schema.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return schema.Snapshot{}, fmt.Errorf("read snapshot %s: %w", path, err)
	}
	return schema.ParseSnapshot(data)
}

func reflectTarget(ctx context.Context, provider, dsn, schemaName string) (schema.Snapshot, error) {
	adapter, err := db.Open(provider, dsn)
	if err != nil {
		return schema.Snapshot{}, err
	}
	defer adapter.Close()
	return adapter.FetchSnapshot(ctx, schemaName)
}
