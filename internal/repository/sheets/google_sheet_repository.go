// Package sheets stores each table in its own tab of a Google spreadsheet.
// The values API omits trailing rows whose cells are all empty, so those rows
// are lost on a round trip, as with the workbook driver.
package sheets

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/mamadbah2/medshop/internal/config"
	"github.com/mamadbah2/medshop/internal/domain/models"
	"github.com/mamadbah2/medshop/internal/repository"
)

// GoogleSheetRepository stores every table in its own tab of one Google spreadsheet.
type GoogleSheetRepository struct {
	service       *sheetsapi.Service
	spreadsheetID string
	logger        *zap.Logger
}

// Verify interface compliance
var _ repository.TableRepository = (*GoogleSheetRepository)(nil)

// NewGoogleSheetRepository builds a Google Sheets backed repository instance.
// Extra client options are appended after the credentials, which lets tests
// point the client at a local endpoint.
func NewGoogleSheetRepository(ctx context.Context, cfg config.SheetsConfig, logger *zap.Logger, opts ...option.ClientOption) (*GoogleSheetRepository, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	clientOpts := []option.ClientOption{option.WithScopes(sheetsapi.SpreadsheetsScope)}
	if cfg.CredentialsPath != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(cfg.CredentialsPath))
	}
	clientOpts = append(clientOpts, opts...)

	service, err := sheetsapi.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize sheets client: %w", err)
	}

	return &GoogleSheetRepository{
		service:       service,
		spreadsheetID: cfg.SpreadsheetID,
		logger:        logger,
	}, nil
}

// Exists reports whether the spreadsheet has a tab named after the store.
func (r *GoogleSheetRepository) Exists(ctx context.Context, id models.StoreID) (bool, error) {
	titles, err := r.sheetTitles(ctx)
	if err != nil {
		return false, err
	}
	_, ok := titles[string(id)]
	return ok, nil
}

// ReadTable fetches the whole tab; the first row is the header.
func (r *GoogleSheetRepository) ReadTable(ctx context.Context, id models.StoreID) (models.Table, error) {
	resp, err := r.service.Spreadsheets.Values.Get(r.spreadsheetID, tabRange(id)).
		ValueRenderOption("FORMATTED_VALUE").
		Context(ctx).
		Do()
	if err != nil {
		return models.Table{}, fmt.Errorf("read range %s: %w", tabRange(id), err)
	}

	if len(resp.Values) == 0 {
		return models.NewTable(), nil
	}

	table := models.NewTable(toStrings(resp.Values[0])...)
	for _, raw := range resp.Values[1:] {
		table.Rows = append(table.Rows, toStrings(raw))
		table.Normalize(len(table.Rows) - 1)
	}
	return table, nil
}

// WriteTable clears the tab and writes the table from A1. Missing tabs are
// created first. Values are sent RAW so cells round-trip as typed.
func (r *GoogleSheetRepository) WriteTable(ctx context.Context, id models.StoreID, table models.Table) error {
	ok, err := r.Exists(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		if err := r.addSheet(ctx, id); err != nil {
			return err
		}
	}

	if _, err := r.service.Spreadsheets.Values.Clear(r.spreadsheetID, tabRange(id), &sheetsapi.ClearValuesRequest{}).Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear range %s: %w", tabRange(id), err)
	}

	values := make([][]interface{}, 0, len(table.Rows)+1)
	values = append(values, toCells(table.Fields))
	for _, row := range table.Rows {
		values = append(values, toCells(row))
	}

	payload := &sheetsapi.ValueRange{Values: values}
	call := r.service.Spreadsheets.Values.Update(r.spreadsheetID, tabRange(id)+"!A1", payload).
		ValueInputOption("RAW").
		Context(ctx)
	if _, err := call.Do(); err != nil {
		return fmt.Errorf("update range %s: %w", tabRange(id), err)
	}

	r.logger.Debug("table written to sheet", zap.String("store", string(id)), zap.Int("rows", len(table.Rows)))
	return nil
}

func (r *GoogleSheetRepository) sheetTitles(ctx context.Context) (map[string]struct{}, error) {
	resp, err := r.service.Spreadsheets.Get(r.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("list sheets: %w", err)
	}
	titles := make(map[string]struct{}, len(resp.Sheets))
	for _, s := range resp.Sheets {
		if s.Properties != nil {
			titles[s.Properties.Title] = struct{}{}
		}
	}
	return titles, nil
}

func (r *GoogleSheetRepository) addSheet(ctx context.Context, id models.StoreID) error {
	req := &sheetsapi.BatchUpdateSpreadsheetRequest{
		Requests: []*sheetsapi.Request{{
			AddSheet: &sheetsapi.AddSheetRequest{Properties: &sheetsapi.SheetProperties{Title: string(id)}},
		}},
	}
	if _, err := r.service.Spreadsheets.BatchUpdate(r.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("add sheet %s: %w", id, err)
	}
	r.logger.Info("sheet created", zap.String("store", string(id)))
	return nil
}

func tabRange(id models.StoreID) string {
	return "'" + string(id) + "'"
}

func toStrings(row []interface{}) []string {
	out := make([]string, len(row))
	for i, v := range row {
		if v == nil {
			continue
		}
		out[i] = fmt.Sprint(v)
	}
	return out
}

func toCells(row []string) []interface{} {
	out := make([]interface{}, len(row))
	for i, v := range row {
		out[i] = v
	}
	return out
}
