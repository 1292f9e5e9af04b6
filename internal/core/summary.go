package core

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jinzhu/now"
)

const (
	PeriodAll   = ""
	PeriodWeek  = "week"
	PeriodMonth = "month"
	PeriodYear  = "year"
)

var ErrUnknownPeriod = errors.New("unknown report period")

// Summary is recomputed from the current sequences on every call.
type Summary struct {
	TotalSpent   float64
	ExpenseCount int
	TaskCount    int
}

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name   string
	Amount float64
}

// Report groups expenses created since Since by category.
type Report struct {
	Period     string
	Since      time.Time
	Total      float64
	ByCategory []CategoryAmount
}

// Summarize folds the expense amounts and counts both sequences.
func Summarize(expenses []Expense, tasks []Task) Summary {
	s := Summary{ExpenseCount: len(expenses), TaskCount: len(tasks)}
	for _, e := range expenses {
		s.TotalSpent += e.Amount
	}
	return s
}

func (s Summary) String() string {
	return fmt.Sprintf("Total Expenses: $%s | Expenses: %d | Tasks: %d",
		FormatAmount(s.TotalSpent), s.ExpenseCount, s.TaskCount)
}

// periodAllName is how users spell PeriodAll.
const periodAllName = "all"

// ReportPeriods lists the period names users can type, PeriodAll as "all".
func ReportPeriods() []string {
	return []string{periodAllName, PeriodWeek, PeriodMonth, PeriodYear}
}

// ParsePeriod normalises user input to a period value. Blank input and "all"
// select PeriodAll; anything else is lowercased and left for PeriodStart to
// accept or reject.
func ParsePeriod(in string) string {
	p := strings.ToLower(strings.TrimSpace(in))
	if p == periodAllName {
		return PeriodAll
	}
	return p
}

// PeriodName is the inverse of ParsePeriod for display.
func PeriodName(period string) string {
	if period == PeriodAll {
		return periodAllName
	}
	return period
}

// PeriodStart returns the first instant of the period containing ref.
// PeriodAll yields the zero time.
func PeriodStart(period string, ref time.Time) (time.Time, error) {
	n := now.With(ref)
	switch period {
	case PeriodAll:
		return time.Time{}, nil
	case PeriodWeek:
		return n.BeginningOfWeek(), nil
	case PeriodMonth:
		return n.BeginningOfMonth(), nil
	case PeriodYear:
		return n.BeginningOfYear(), nil
	default:
		return time.Time{}, fmt.Errorf("%w: %q, use one of: %s", ErrUnknownPeriod, period, strings.Join(ReportPeriods(), ", "))
	}
}

// BuildReport aggregates expenses created in the period containing ref.
// Categories are ordered by amount, largest first; ties by name.
func BuildReport(expenses []Expense, period string, ref time.Time) (Report, error) {
	since, err := PeriodStart(period, ref)
	if err != nil {
		return Report{}, err
	}

	totals := make(map[string]float64)
	report := Report{Period: period, Since: since}
	for _, e := range expenses {
		if e.CreatedAt.Before(since) {
			continue
		}
		totals[e.Category] += e.Amount
		report.Total += e.Amount
	}

	report.ByCategory = make([]CategoryAmount, 0, len(totals))
	for name, amount := range totals {
		report.ByCategory = append(report.ByCategory, CategoryAmount{Name: name, Amount: amount})
	}
	sort.Slice(report.ByCategory, func(i, j int) bool {
		a, b := report.ByCategory[i], report.ByCategory[j]
		if a.Amount != b.Amount {
			return a.Amount > b.Amount
		}
		return a.Name < b.Name
	})
	return report, nil
}
