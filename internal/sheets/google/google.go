package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"tracker/internal/core"
	"tracker/internal/log"
	ports "tracker/internal/sheets"
)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	expensesSheet string
	logger        *log.Logger
}

// Ensure interface conformance
var _ ports.ExpenseExporter = (*Client)(nil)

// Config selects the target spreadsheet and credentials.
type Config struct {
	SpreadsheetID string
	SheetName     string
	// ServiceAccountFile is optional; Application Default Credentials are
	// used when empty.
	ServiceAccountFile string
}

// New creates a Sheets client. Extra options are appended after the
// credential options.
func New(ctx context.Context, cfg Config, logger *log.Logger, opts ...goption.ClientOption) (*Client, error) {
	spreadsheetID := strings.TrimSpace(cfg.SpreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing spreadsheet ID")
	}
	sheetName := strings.TrimSpace(cfg.SheetName)
	if sheetName == "" {
		sheetName = "Expenses"
	}
	if logger == nil {
		logger = log.Nop()
	}
	logger = logger.WithComponent(log.ComponentSheets)

	svc, err := newSheetsService(ctx, cfg.ServiceAccountFile, logger, opts...)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		expensesSheet: sheetName,
		logger:        logger,
	}, nil
}

// newSheetsService initializes a Sheets Service using Service Account
// credentials when a file is given, ADC otherwise.
func newSheetsService(ctx context.Context, serviceAccountFile string, logger *log.Logger, extra ...goption.ClientOption) (*gsheet.Service, error) {
	opts := []goption.ClientOption{goption.WithScopes(gsheet.SpreadsheetsScope)}

	serviceAccountFile = strings.TrimSpace(serviceAccountFile)
	if serviceAccountFile != "" {
		logger.Info("Reading credentials from file", zap.String(log.FieldFile, serviceAccountFile))
		credentialsJSON, err := os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		opts = append(opts, goption.WithCredentialsJSON(credentialsJSON))
	} else {
		logger.Info("Using Application Default Credentials")
	}
	opts = append(opts, extra...)

	service, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

// ExportExpenses clears the expenses sheet and writes a header row followed
// by one row per expense starting at A1. It returns the number of expense rows.
func (c *Client) ExportExpenses(ctx context.Context, expenses []core.Expense) (int, error) {
	if c.svc == nil {
		return 0, errors.New("sheets service not initialized")
	}

	clearRange := fmt.Sprintf("%s!A:E", c.expensesSheet)
	_, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, clearRange, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("failed to clear %s: %w", clearRange, err)
	}

	dataRange := fmt.Sprintf("%s!A1", c.expensesSheet)
	vr := &gsheet.ValueRange{Values: expenseRows(expenses)}
	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, dataRange, vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("failed to update %s: %w", dataRange, err)
	}

	c.logger.Info("Exported expenses",
		log.Operation(log.OpExport),
		zap.Int(log.FieldCount, len(expenses)),
		zap.String("sheet", c.expensesSheet))
	return len(expenses), nil
}
