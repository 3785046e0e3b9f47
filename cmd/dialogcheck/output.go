package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/cgast/dialogcheck/pkg/history"
	"github.com/cgast/dialogcheck/pkg/runner"
	"github.com/cgast/dialogcheck/pkg/suite"
	"github.com/cgast/dialogcheck/pkg/verify"
)

// palette colours the CLI summary. Like the diagnostics, it is enabled
// explicitly rather than by terminal detection.
type palette struct {
	pass *color.Color
	fail *color.Color
	dim  *color.Color
}

func newPalette(colored bool) palette {
	p := palette{
		pass: color.New(color.FgGreen, color.Bold),
		fail: color.New(color.FgRed, color.Bold),
		dim:  color.New(color.Faint),
	}
	for _, c := range []*color.Color{p.pass, p.fail, p.dim} {
		if colored {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p palette) verdict(ok bool) string {
	if ok {
		return p.pass.Sprint("PASS")
	}
	return p.fail.Sprint("FAIL")
}

func indent(s, prefix string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i, l := range lines {
		if l != "" {
			lines[i] = prefix + l
		}
	}
	return strings.Join(lines, "\n")
}

func printCaseLine(w io.Writer, p palette, name string, passed bool, d time.Duration) {
	fmt.Fprintf(w, "%s %s %s\n", p.verdict(passed), name, p.dim.Sprintf("(%s)", d.Round(time.Millisecond)))
}

func printReport(w io.Writer, p palette, r runner.Report) {
	for _, c := range r.FailedCases() {
		fmt.Fprintf(w, "\n%s %s\n  query: %q\n", p.fail.Sprint("●"), c.Name, c.Query)
		if c.Error != "" {
			fmt.Fprintf(w, "  request failed: %s\n", c.Error)
			continue
		}
		for _, f := range c.Failures {
			fmt.Fprintf(w, "\n  %s\n%s\n", f.Type, indent(f.Explanation, "    "))
		}
	}

	passed, failed := r.Counts()
	fmt.Fprintf(w, "\nSuite %s: %s, %d passed, %d failed, %s\n",
		r.Suite, p.verdict(r.Passed), passed, failed, r.Duration().Round(time.Millisecond))
	if r.ID != "" {
		fmt.Fprintf(w, "Run id: %s\n", r.ID)
	}
}

func printVerification(w io.Writer, p palette, vr verify.VerificationResult) {
	for _, ar := range vr.Results {
		fmt.Fprintf(w, "%s %s\n", p.verdict(ar.Pass), ar.Assertion.Type)
		if !ar.Pass {
			fmt.Fprintf(w, "%s\n\n", indent(ar.Explain(), "    "))
		}
	}
	passed := len(vr.Results) - len(vr.Failures())
	fmt.Fprintf(w, "%d of %d assertions passed\n", passed, len(vr.Results))
}

func printValidation(w io.Writer, path string, vr suite.ValidationResult) {
	fmt.Fprintf(w, "%s has %d error(s):\n", path, len(vr.Errors))
	for _, e := range vr.Errors {
		fmt.Fprintf(w, "  - %s: %s\n", e.Field, e.Message)
	}
}

func printEntries(w io.Writer, p palette, entries []history.Entry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return
	}
	for _, e := range entries {
		fmt.Fprintf(w, "%s  %s  %-20s %s  %d/%d  %s\n",
			e.ID, e.StartedAt.Local().Format("2006-01-02 15:04:05"), e.Suite,
			p.verdict(e.Failed == 0), e.Passed, e.Passed+e.Failed, e.Duration.Round(time.Millisecond))
	}
}

func printChanges(w io.Writer, p palette, a, b runner.Report, changes []history.Change) {
	fmt.Fprintf(w, "%s (%s) -> %s (%s)\n", a.ID, a.StartedAt.Local().Format(time.DateTime), b.ID, b.StartedAt.Local().Format(time.DateTime))
	if len(changes) == 0 {
		fmt.Fprintln(w, "No changes.")
		return
	}
	for _, c := range changes {
		line := c.String()
		switch c.Type {
		case history.ChangeRegressed:
			line = p.fail.Sprint(line)
		case history.ChangeFixed:
			line = p.pass.Sprint(line)
		}
		fmt.Fprintln(w, line)
		if c.Detail != "" {
			fmt.Fprintf(w, "    %s\n", c.Detail)
		}
	}
}
