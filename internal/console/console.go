// Package console runs the interactive terminal session: one prompt-driven
// form per record kind plus a few read-only commands.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"tracker/internal/core"
	"tracker/internal/log"
	"tracker/internal/services"
	"tracker/internal/sheets"
)

const (
	msgInvalidAmount = "Invalid amount. Please enter a valid number."
	msgNoExporter    = "Export is not configured. Set GOOGLE_SPREADSHEET_ID to enable it."
)

const helpText = `Commands:
  expense                 add an expense
  task                    add a task
  summary                 show totals
  report [all|week|month|year] spending by category
  list [expenses|tasks]   show recorded entries
  export                  copy expenses to Google Sheets
  help                    show this help
  quit                    save and exit`

// errQuit ends the session normally.
var errQuit = errors.New("quit")

type Session struct {
	tracker  *services.Tracker
	exporter sheets.ExpenseExporter
	in       *bufio.Scanner
	out      io.Writer
	logger   *log.Logger
}

type Option func(*Session)

// WithExporter enables the export command.
func WithExporter(e sheets.ExpenseExporter) Option {
	return func(s *Session) { s.exporter = e }
}

func WithLogger(l *log.Logger) Option {
	return func(s *Session) { s.logger = l.WithComponent(log.ComponentConsole) }
}

func New(tracker *services.Tracker, in io.Reader, out io.Writer, opts ...Option) *Session {
	s := &Session{
		tracker: tracker,
		in:      bufio.NewScanner(in),
		out:     out,
		logger:  log.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run reads commands until quit, end of input or ctx is done. Reaching the
// end of input is treated like quit.
func (s *Session) Run(ctx context.Context) error {
	s.println("Expense tracker. Type 'help' for commands.")
	s.println(s.tracker.Summarize().String())

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		line, err := s.prompt("> ")
		if err != nil {
			return s.endOfInput(err)
		}

		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		if err := s.dispatch(ctx, strings.ToLower(fields[0]), fields[1:]); err != nil {
			if errors.Is(err, errQuit) {
				return nil
			}
			return s.endOfInput(err)
		}
	}
}

func (s *Session) dispatch(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "expense", "e":
		return s.addExpense()
	case "task", "t":
		return s.addTask()
	case "summary", "s":
		s.println(s.tracker.Summarize().String())
	case "report", "r":
		s.report(args)
	case "list", "ls":
		s.list(args)
	case "export":
		s.export(ctx)
	case "help", "?":
		s.println(helpText)
	case "quit", "exit", "q":
		return errQuit
	default:
		s.printf("Unknown command: %s. Type 'help' for commands.\n", cmd)
	}
	return nil
}

// addExpense keeps the entered fields when the amount is rejected and asks
// only for the amount again.
func (s *Session) addExpense() error {
	title, err := s.prompt("Title: ")
	if err != nil {
		return err
	}
	description, err := s.prompt("Description: ")
	if err != nil {
		return err
	}

	var amount string
	for {
		amount, err = s.prompt("Amount: ")
		if err != nil {
			return err
		}
		if _, perr := core.ParseAmount(amount); perr == nil {
			break
		}
		s.println(msgInvalidAmount)
	}

	category, err := s.prompt("Category: ")
	if err != nil {
		return err
	}

	e, err := s.tracker.AddExpense(title, description, amount, category)
	if err != nil {
		s.println(msgInvalidAmount)
		return nil
	}
	s.println("Added Expense: " + e.Details())
	s.println(s.tracker.Summarize().String())
	return nil
}

func (s *Session) addTask() error {
	title, err := s.prompt("Title: ")
	if err != nil {
		return err
	}
	description, err := s.prompt("Description: ")
	if err != nil {
		return err
	}
	priority, err := s.prompt("Priority (Low/Medium/High): ")
	if err != nil {
		return err
	}

	t := s.tracker.AddTask(title, description, core.ParsePriority(priority))
	s.println("Added Task: " + t.Details())
	return nil
}

func (s *Session) report(args []string) {
	period := core.PeriodAll
	if len(args) > 0 {
		period = core.ParsePeriod(args[0])
	}

	r, err := s.tracker.Report(period)
	if errors.Is(err, core.ErrUnknownPeriod) {
		s.printf("Unknown period %q. Use one of: %s.\n", period, strings.Join(core.ReportPeriods(), ", "))
		return
	}
	if err != nil {
		s.printf("Report failed: %v\n", err)
		return
	}

	if r.Period == core.PeriodAll {
		s.println("Spending by category (all time):")
	} else {
		s.printf("Spending by category since %s:\n", r.Since.Format("Mon Jan 02 2006"))
	}
	if len(r.ByCategory) == 0 {
		s.println("  no expenses")
	}
	for _, c := range r.ByCategory {
		name := c.Name
		if name == "" {
			name = "(uncategorised)"
		}
		s.printf("  %s: %s\n", name, core.FormatAmount(c.Amount))
	}
	s.printf("Total: %s\n", core.FormatAmount(r.Total))
}

func (s *Session) list(args []string) {
	what := ""
	if len(args) > 0 {
		what = strings.ToLower(args[0])
	}

	if what == "" || what == "expenses" {
		expenses := s.tracker.Expenses()
		s.printf("Expenses (%d):\n", len(expenses))
		for i, e := range expenses {
			s.printf("  %d. %s\n", i+1, e.Details())
		}
	}
	if what == "" || what == "tasks" {
		tasks := s.tracker.Tasks()
		s.printf("Tasks (%d):\n", len(tasks))
		for i, t := range tasks {
			s.printf("  %d. %s\n", i+1, t.Details())
		}
	}
	if what != "" && what != "expenses" && what != "tasks" {
		s.println("Use 'list expenses' or 'list tasks'.")
	}
}

func (s *Session) export(ctx context.Context) {
	if s.exporter == nil {
		s.println(msgNoExporter)
		return
	}
	n, err := s.exporter.ExportExpenses(ctx, s.tracker.Expenses())
	if err != nil {
		s.logger.Error("Export failed", log.Operation(log.OpExport), zap.Error(err))
		s.printf("Export failed: %v\n", err)
		return
	}
	s.printf("Exported %d expenses.\n", n)
}

// prompt writes label and returns the next input line without its trailing
// newline. At end of input it returns io.EOF.
func (s *Session) prompt(label string) (string, error) {
	fmt.Fprint(s.out, label)
	if !s.in.Scan() {
		if err := s.in.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return strings.TrimRight(s.in.Text(), "\r"), nil
}

func (s *Session) endOfInput(err error) error {
	if errors.Is(err, io.EOF) {
		s.println("")
		return nil
	}
	return fmt.Errorf("read input: %w", err)
}

func (s *Session) println(line string) {
	fmt.Fprintln(s.out, line)
}

func (s *Session) printf(format string, args ...any) {
	fmt.Fprintf(s.out, format, args...)
}
