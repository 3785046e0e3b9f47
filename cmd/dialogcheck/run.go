package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"google.golang.org/api/option"

	"github.com/cgast/dialogcheck/internal/inspector"
	"github.com/cgast/dialogcheck/pkg/bot"
	"github.com/cgast/dialogcheck/pkg/events"
	"github.com/cgast/dialogcheck/pkg/history"
	"github.com/cgast/dialogcheck/pkg/issues"
	"github.com/cgast/dialogcheck/pkg/result"
	"github.com/cgast/dialogcheck/pkg/runner"
	"github.com/cgast/dialogcheck/pkg/suite"
	"github.com/cgast/dialogcheck/pkg/verify"
)

type runOptions struct {
	params    []string
	project   string
	surface   string
	language  string
	failFast  bool
	noHistory bool
	fileIssue bool
	jsonOut   bool
	inspect   string
}

func newRunCmd(a *app) *cobra.Command {
	var opts runOptions
	cmd := &cobra.Command{
		Use:   "run <suite.yaml>",
		Short: "Send a suite's queries to the agent and check the answers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return a.runSuite(ctx, cmd, args[0], opts)
		},
	}
	cmd.Flags().StringArrayVarP(&opts.params, "param", "p", nil, "Suite parameter as key=value (repeatable)")
	cmd.Flags().StringVar(&opts.project, "project", "", "Dialogflow project id (overrides suite and config)")
	cmd.Flags().StringVar(&opts.surface, "surface", "", "Surface to request and assert on, e.g. FACEBOOK")
	cmd.Flags().StringVar(&opts.language, "language", "", "Language code")
	cmd.Flags().BoolVar(&opts.failFast, "fail-fast", false, "Stop checking a case at its first failed assertion")
	cmd.Flags().BoolVar(&opts.noHistory, "no-history", false, "Do not record the run")
	cmd.Flags().BoolVar(&opts.fileIssue, "file-issue", false, "File a GitHub issue when the suite fails")
	cmd.Flags().BoolVar(&opts.jsonOut, "json", false, "Print the report as JSON")
	cmd.Flags().StringVar(&opts.inspect, "inspect", "", "Serve live run events on this address, e.g. localhost:7070")
	return cmd
}

// parseParams turns key=value pairs into a parameter map.
func parseParams(pairs []string) (map[string]string, error) {
	params := make(map[string]string, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid param %q, expected key=value", p)
		}
		params[k] = v
	}
	return params, nil
}

// firstNonEmpty returns the first non-empty value.
func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func loadValidSuite(path string, params map[string]string) (suite.Suite, error) {
	s, err := suite.LoadSuite(path, params)
	if err != nil {
		return suite.Suite{}, fmt.Errorf("load suite: %w", err)
	}
	if vr := suite.ValidateSuite(s); !vr.Valid() {
		return suite.Suite{}, fmt.Errorf("suite %s: %s", filepath.Base(path), vr.Error())
	}
	return s, nil
}

func (a *app) runSuite(ctx context.Context, cmd *cobra.Command, path string, opts runOptions) error {
	params, err := parseParams(opts.params)
	if err != nil {
		return err
	}
	s, err := loadValidSuite(path, params)
	if err != nil {
		return err
	}

	project := firstNonEmpty(opts.project, s.Project, a.cfg.ProjectID)
	if project == "" {
		return fmt.Errorf("no Dialogflow project: set --project, the suite's project or project_id in %s", a.configPath)
	}
	surface, err := result.ParseSurface(firstNonEmpty(opts.surface, s.Surface, a.cfg.Surface))
	if err != nil {
		return err
	}
	s.Project = project
	s.Surface = string(surface)
	s.Language = firstNonEmpty(opts.language, s.Language, a.cfg.Language)

	var clientOpts []option.ClientOption
	if a.cfg.CredentialsFile != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(a.cfg.CredentialsFile))
	}
	b, err := bot.New(ctx, project, surface, s.LanguageOrDefault(), clientOpts, bot.WithLogger(a.logger))
	if err != nil {
		return err
	}
	defer b.Close()

	bus := events.NewMemoryBus()
	engine := verify.NewEngine(
		verify.WithFailFast(opts.failFast || a.cfg.Verify.FailFast),
		verify.WithColor(a.cfg.Color),
		verify.WithSurface(surface),
	)
	runOpts := []runner.Option{
		runner.WithEngine(engine),
		runner.WithEventBus(bus),
		runner.WithLogger(a.logger),
		runner.WithProject(project),
	}

	var store history.Store
	if a.cfg.History.Persist && !opts.noHistory {
		bs, err := openHistory(a.cfg.History.Path, a.cfg.History.MaxEntries)
		if err != nil {
			return err
		}
		defer bs.Close()
		store = bs
		runOpts = append(runOpts, runner.WithRecorder(bs))
	}

	if addr := firstNonEmpty(opts.inspect, a.cfg.Inspector.Addr); addr != "" {
		srv := inspector.New(bus, store, a.logger)
		bound, err := srv.Start(addr)
		if err != nil {
			return fmt.Errorf("start inspector: %w", err)
		}
		a.logger.Info("inspector listening", "url", "http://"+bound)
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			srv.Shutdown(sctx)
		}()
	}

	pal := newPalette(a.cfg.Color)
	stopProgress := func() {}
	if !opts.jsonOut {
		stopProgress = printProgress(cmd.OutOrStdout(), pal, bus)
	}

	report, err := runner.New(b, runOpts...).Run(ctx, s)
	stopProgress()
	if err != nil {
		return err
	}

	if opts.fileIssue && !report.Passed {
		if err := a.fileIssue(ctx, bus, report); err != nil {
			a.logger.Error("filing issue failed", "error", err)
		}
	}

	if opts.jsonOut {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return fmt.Errorf("encode report: %w", err)
		}
	} else {
		printReport(cmd.OutOrStdout(), pal, report)
	}

	if !report.Passed {
		return errFailed
	}
	return nil
}

// printProgress prints a line per finished case until the returned stop
// function is called.
func printProgress(w io.Writer, pal palette, bus *events.MemoryBus) (stop func()) {
	ch := bus.Subscribe(events.EventCaseEnd)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for e := range ch {
			passed, _ := e.Data.(bool)
			printCaseLine(w, pal, e.Case, passed, e.Duration)
		}
	}()
	return func() {
		bus.Unsubscribe(ch)
		<-done
	}
}

func openHistory(path string, maxEntries int) (*history.BoltStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create history dir: %w", err)
		}
	}
	store, err := history.NewBoltStore(path, history.WithMaxEntries(maxEntries))
	if err != nil {
		return nil, fmt.Errorf("open history %s: %w", path, err)
	}
	return store, nil
}

func (a *app) fileIssue(ctx context.Context, bus events.EventBus, report runner.Report) error {
	if !a.cfg.GitHub.Enabled() {
		return fmt.Errorf("github token and repo must be configured to file issues")
	}
	client, err := issues.NewClient(a.cfg.GitHub.Token)
	if err != nil {
		return err
	}
	reporter, err := issues.NewReporter(client, a.cfg.GitHub.Repo, a.cfg.GitHub.Labels)
	if err != nil {
		return err
	}
	issue, err := reporter.Report(ctx, report)
	if err != nil {
		return err
	}
	if issue != nil {
		bus.Publish(events.NewEvent(events.EventIssueFiled, issue))
		a.logger.Info("issue filed", "number", issue.Number, "url", issue.URL, "comment", issue.Comment)
	}
	return nil
}
