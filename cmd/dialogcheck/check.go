package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/cgast/dialogcheck/pkg/result"
	"github.com/cgast/dialogcheck/pkg/verify"
)

type checkOptions struct {
	intent       string
	text         string
	oneOf        []string
	quickReplies []string
	context      string
	card         string
	expectFile   string
	surface      string
	failFast     bool
}

func newCheckCmd(a *app) *cobra.Command {
	var opts checkOptions
	cmd := &cobra.Command{
		Use:   "check <result.json|->",
		Short: "Check a recorded detectIntent response without calling the agent",
		Long: `check reads a detectIntent response (or its queryResult) as JSON and
evaluates the assertions given as flags or in an --expect file.

Inline --context and --card values are YAML or JSON, for example
  --context '{name: order, lifespanCount: 2, parameters: {size: large}}'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.check(cmd, args[0], opts)
		},
	}
	cmd.Flags().StringVar(&opts.intent, "intent", "", "Expected intent display name")
	cmd.Flags().StringVar(&opts.text, "text", "", "Expected text message")
	cmd.Flags().StringArrayVar(&opts.oneOf, "one-of", nil, "Acceptable text message (repeatable)")
	cmd.Flags().StringArrayVar(&opts.quickReplies, "quick-replies", nil, "Expected quick reply (repeatable, in order)")
	cmd.Flags().StringVar(&opts.context, "context", "", "Expected output context (YAML/JSON)")
	cmd.Flags().StringVar(&opts.card, "card", "", "Expected card (YAML/JSON)")
	cmd.Flags().StringVarP(&opts.expectFile, "expect", "e", "", "YAML file with a list of assertions")
	cmd.Flags().StringVar(&opts.surface, "surface", "", "Surface whose messages are checked")
	cmd.Flags().BoolVar(&opts.failFast, "fail-fast", false, "Stop at the first failed assertion")
	return cmd
}

// assertions builds the assertion list from flags, file entries first.
func (o checkOptions) assertions() ([]verify.Assertion, error) {
	var out []verify.Assertion

	if o.expectFile != "" {
		data, err := os.ReadFile(o.expectFile)
		if err != nil {
			return nil, fmt.Errorf("read expectations: %w", err)
		}
		var fromFile []verify.Assertion
		if err := yaml.Unmarshal(data, &fromFile); err != nil {
			return nil, fmt.Errorf("parse expectations %s: %w", o.expectFile, err)
		}
		out = append(out, fromFile...)
	}

	if o.intent != "" {
		out = append(out, verify.Assertion{Type: verify.TypeIntent, Expected: o.intent})
	}
	if o.context != "" {
		v, err := parseInline(o.context)
		if err != nil {
			return nil, fmt.Errorf("--context: %w", err)
		}
		out = append(out, verify.Assertion{Type: verify.TypeContext, Expected: v})
	}
	if o.text != "" {
		out = append(out, verify.Assertion{Type: verify.TypeText, Expected: o.text})
	}
	if len(o.oneOf) > 0 {
		out = append(out, verify.Assertion{Type: verify.TypeOneOfTexts, Expected: o.oneOf})
	}
	if len(o.quickReplies) > 0 {
		out = append(out, verify.Assertion{Type: verify.TypeQuickReplies, Expected: o.quickReplies})
	}
	if o.card != "" {
		v, err := parseInline(o.card)
		if err != nil {
			return nil, fmt.Errorf("--card: %w", err)
		}
		out = append(out, verify.Assertion{Type: verify.TypeCard, Expected: v})
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("no assertions given")
	}
	return out, nil
}

func parseInline(s string) (any, error) {
	var v any
	if err := yaml.Unmarshal([]byte(s), &v); err != nil {
		return nil, err
	}
	return v, nil
}

func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(path)
}

func (a *app) check(cmd *cobra.Command, path string, opts checkOptions) error {
	assertions, err := opts.assertions()
	if err != nil {
		return err
	}

	data, err := readInput(cmd, path)
	if err != nil {
		return fmt.Errorf("read result: %w", err)
	}
	qr, err := result.ParseJSON(data)
	if err != nil {
		return err
	}

	surface, err := result.ParseSurface(firstNonEmpty(opts.surface, a.cfg.Surface))
	if err != nil {
		return err
	}
	engine := verify.NewEngine(
		verify.WithFailFast(opts.failFast || a.cfg.Verify.FailFast),
		verify.WithColor(a.cfg.Color),
		verify.WithSurface(surface),
	)
	vr, err := engine.Verify(qr, verify.Expectation{Description: path, Assertions: assertions})
	if err != nil {
		return fmt.Errorf("verify: %w", err)
	}

	printVerification(cmd.OutOrStdout(), newPalette(a.cfg.Color), vr)
	if !vr.Passed {
		return errFailed
	}
	return nil
}
