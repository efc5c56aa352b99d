// Package presenter provides consistent CLI output for diagnostics and
// user-facing messages, with color support and quiet mode.
package presenter

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/CorentinLumineau/x-devsecops-sub003/pkg/diagnostics"
	"github.com/fatih/color"
	"github.com/pkg/errors"
)

// Presenter defines the interface for consistent CLI output
type Presenter interface {
	Error(err error, context string)
	Success(message string)
	Warning(message string)
	Info(message string)
	Section(title string)
	Separator()
	Diagnostic(d diagnostics.Diagnostic)
	OK(unit string)
	Summary(s diagnostics.Summary)
	Verdict(passed bool)
	SetQuiet(quiet bool)
	IsQuiet() bool
}

// TerminalPresenter implements Presenter for terminal output
type TerminalPresenter struct {
	output      io.Writer
	errorOutput io.Writer
	colorMode   ColorMode
	quiet       bool
}

// ColorMode represents different color output modes
type ColorMode int

const (
	// ColorAuto automatically detects whether to use colored output based on terminal capabilities
	ColorAuto ColorMode = iota
	// ColorAlways forces colored output regardless of terminal capabilities
	ColorAlways
	// ColorNever disables colored output regardless of terminal capabilities
	ColorNever
)

// OKTag prefixes units without diagnostics.
const OKTag = "OK"

// New creates a new TerminalPresenter with default settings
func New() *TerminalPresenter {
	return NewWithOptions(os.Stdout, os.Stderr, detectColorMode())
}

// NewWithOptions creates a TerminalPresenter with custom settings
func NewWithOptions(output, errorOutput io.Writer, colorMode ColorMode) *TerminalPresenter {
	presenter := &TerminalPresenter{
		output:      output,
		errorOutput: errorOutput,
		colorMode:   colorMode,
	}

	switch colorMode {
	case ColorAlways:
		color.NoColor = false
	case ColorNever:
		color.NoColor = true
	case ColorAuto:
		// Let color package auto-detect
	}

	return presenter
}

// detectColorMode determines the appropriate color mode based on environment
func detectColorMode() ColorMode {
	if os.Getenv("NO_COLOR") != "" {
		return ColorNever
	}

	switch os.Getenv("SKILLCHECK_COLOR") {
	case "always", "force":
		return ColorAlways
	case "never", "off":
		return ColorNever
	default:
		return ColorAuto
	}
}

// ParseColorMode maps a --color flag value to a ColorMode.
func ParseColorMode(s string) (ColorMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return ColorAuto, nil
	case "always", "force":
		return ColorAlways, nil
	case "never", "off":
		return ColorNever, nil
	}
	return ColorAuto, errors.Errorf("invalid color mode %q (expected auto, always or never)", s)
}

func severityColor(s diagnostics.Severity) *color.Color {
	switch s {
	case diagnostics.Error:
		return color.New(color.FgRed, color.Bold)
	case diagnostics.Warning:
		return color.New(color.FgYellow, color.Bold)
	default:
		return color.New(color.FgCyan)
	}
}

// Error displays an error message to stderr
func (p *TerminalPresenter) Error(err error, context string) {
	if err == nil {
		return
	}

	errorColor := color.New(color.FgRed, color.Bold)
	if context != "" {
		errorColor.Fprintf(p.errorOutput, "[ERROR] %s: %v\n", context, err)
	} else {
		errorColor.Fprintf(p.errorOutput, "[ERROR] %v\n", err)
	}
}

// Success displays a success message
func (p *TerminalPresenter) Success(message string) {
	if p.quiet {
		return
	}

	successColor := color.New(color.FgGreen, color.Bold)
	successColor.Fprintf(p.output, "✓ %s\n", message)
}

// Warning displays a warning message
func (p *TerminalPresenter) Warning(message string) {
	if p.quiet {
		return
	}

	warningColor := color.New(color.FgYellow, color.Bold)
	warningColor.Fprintf(p.output, "⚠ %s\n", message)
}

// Info displays an informational message
func (p *TerminalPresenter) Info(message string) {
	if p.quiet {
		return
	}

	fmt.Fprintf(p.output, "%s\n", message)
}

// Section displays a section header with consistent formatting
func (p *TerminalPresenter) Section(title string) {
	if p.quiet {
		return
	}
	p.section(title)
}

func (p *TerminalPresenter) section(title string) {
	headerColor := color.New(color.Bold)
	headerColor.Fprintf(p.output, "%s\n", title)
	headerColor.Fprintf(p.output, "%s\n", strings.Repeat("-", len(title)))
}

// Separator displays a visual separator
func (p *TerminalPresenter) Separator() {
	if p.quiet {
		return
	}

	separatorColor := color.New(color.Faint)
	separatorColor.Fprintf(p.output, "%s\n", strings.Repeat("-", 60))
}

// Diagnostic prints one diagnostic line prefixed with its colored severity
// tag. Diagnostics are printed in quiet mode too.
func (p *TerminalPresenter) Diagnostic(d diagnostics.Diagnostic) {
	severityColor(d.Severity).Fprintf(p.output, "%s:", d.Severity)
	fmt.Fprintf(p.output, " %s\n", d.Text())
}

// OK prints the line for a unit without diagnostics.
func (p *TerminalPresenter) OK(unit string) {
	if p.quiet {
		return
	}

	color.New(color.FgGreen, color.Bold).Fprintf(p.output, "%s:", OKTag)
	fmt.Fprintf(p.output, " %s\n", unit)
}

// Summary prints the run counters.
func (p *TerminalPresenter) Summary(s diagnostics.Summary) {
	fmt.Fprintln(p.output)
	p.section("Summary")
	fmt.Fprintf(p.output, "Units checked: %d\n", s.Units)
	fmt.Fprintf(p.output, "Errors:        %d\n", s.Errors)
	fmt.Fprintf(p.output, "Warnings:      %d\n", s.Warnings)
	fmt.Fprintf(p.output, "Infos:         %d\n", s.Infos)
	if s.Suppressed > 0 {
		fmt.Fprintf(p.output, "Suppressed:    %d\n", s.Suppressed)
	}
}

// Verdict prints the final PASSED or FAILED line.
func (p *TerminalPresenter) Verdict(passed bool) {
	if passed {
		color.New(color.FgGreen, color.Bold).Fprintln(p.output, "PASSED")
		return
	}
	color.New(color.FgRed, color.Bold).Fprintln(p.output, "FAILED")
}

// SetQuiet enables or disables quiet mode
func (p *TerminalPresenter) SetQuiet(quiet bool) {
	p.quiet = quiet
}

// IsQuiet returns whether quiet mode is enabled
func (p *TerminalPresenter) IsQuiet() bool {
	return p.quiet
}

// Global presenter instance for convenience
var defaultPresenter = New()

// Default returns the shared presenter writing to stdout and stderr.
func Default() *TerminalPresenter {
	return defaultPresenter
}

// Error displays an error message using the default presenter instance.
func Error(err error, context string) {
	defaultPresenter.Error(err, context)
}

// Warning displays a warning message using the default presenter instance.
func Warning(message string) {
	defaultPresenter.Warning(message)
}

// SetQuiet enables or disables quiet mode for the default presenter instance.
func SetQuiet(quiet bool) {
	defaultPresenter.SetQuiet(quiet)
}

// SetColorMode reconfigures color output of the default presenter instance.
func SetColorMode(mode ColorMode) {
	quiet := defaultPresenter.quiet
	defaultPresenter = NewWithOptions(defaultPresenter.output, defaultPresenter.errorOutput, mode)
	defaultPresenter.quiet = quiet
}
