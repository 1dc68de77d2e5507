// Package workbook stores each table as an .xlsx workbook on the local
// filesystem, one file per store, header row first.
//
// Spreadsheet readers drop trailing rows whose cells are all empty, so such
// rows do not survive a round trip. Rows with at least one value, and empty
// rows followed by one, are kept in place.
package workbook

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/mamadbah2/medshop/internal/domain/models"
	"github.com/mamadbah2/medshop/internal/repository"
)

const fileExt = ".xlsx"

// Repository implements repository.TableRepository over a directory of workbooks.
type Repository struct {
	dir    string
	logger *zap.Logger
}

// Verify interface compliance
var _ repository.TableRepository = (*Repository)(nil)

// NewRepository returns a workbook repository rooted at dir, creating it if needed.
func NewRepository(dir string, logger *zap.Logger) (*Repository, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if dir == "" {
		dir = "./data"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir %s: %w", dir, err)
	}
	return &Repository{dir: dir, logger: logger}, nil
}

// Path returns the workbook file backing a store.
func (r *Repository) Path(id models.StoreID) string {
	return filepath.Join(r.dir, string(id)+fileExt)
}

// Exists reports whether the store's workbook is present.
func (r *Repository) Exists(_ context.Context, id models.StoreID) (bool, error) {
	_, err := os.Stat(r.Path(id))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, os.ErrNotExist):
		return false, nil
	default:
		return false, fmt.Errorf("stat %s: %w", r.Path(id), err)
	}
}

// ReadTable loads the first sheet of the store's workbook.
func (r *Repository) ReadTable(_ context.Context, id models.StoreID) (models.Table, error) {
	f, err := excelize.OpenFile(r.Path(id))
	if err != nil {
		return models.Table{}, fmt.Errorf("open workbook %s: %w", r.Path(id), err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return models.Table{}, fmt.Errorf("workbook %s has no sheets", r.Path(id))
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return models.Table{}, fmt.Errorf("read rows of %s: %w", r.Path(id), err)
	}
	if len(rows) == 0 {
		return models.NewTable(), nil
	}

	table := models.NewTable(rows[0]...)
	for _, row := range rows[1:] {
		table.Rows = append(table.Rows, row)
		table.Normalize(len(table.Rows) - 1)
	}
	return table, nil
}

// WriteTable rewrites the whole workbook. The new file is written next to the
// old one and renamed into place so readers never see a half-written file.
func (r *Repository) WriteTable(_ context.Context, id models.StoreID, table models.Table) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetList()[0]
	if err := writeRow(f, sheet, 1, table.Fields); err != nil {
		return err
	}
	for i, row := range table.Rows {
		if err := writeRow(f, sheet, i+2, row); err != nil {
			return err
		}
	}

	tmp, err := os.CreateTemp(r.dir, ".tmp-"+string(id)+"-*"+fileExt)
	if err != nil {
		return fmt.Errorf("create temp workbook: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := f.WriteTo(tmp); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("encode workbook %s: %w", id, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync workbook %s: %w", id, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close workbook %s: %w", id, err)
	}
	if err := os.Rename(tmp.Name(), r.Path(id)); err != nil {
		return fmt.Errorf("replace workbook %s: %w", r.Path(id), err)
	}

	r.logger.Debug("workbook written", zap.String("store", string(id)), zap.Int("rows", len(table.Rows)))
	return nil
}

func writeRow(f *excelize.File, sheet string, rowNum int, values []string) error {
	if len(values) == 0 {
		return nil
	}
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	axis, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return fmt.Errorf("cell name for row %d: %w", rowNum, err)
	}
	if err := f.SetSheetRow(sheet, axis, &cells); err != nil {
		return fmt.Errorf("write row %d: %w", rowNum, err)
	}
	return nil
}
