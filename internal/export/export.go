// Package export renders stored ads as downloadable CSV, JSON or Excel files.
package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/maltedev/classifieds-dashboard/internal/adstore"
	"github.com/maltedev/classifieds-dashboard/internal/models"
)

const sheetName = "Annonces"

// Exporter produces a downloadable file of every stored ad.
type Exporter interface {
	Export(ctx context.Context, format models.ExportFormat) (*models.Blob, error)
}

// Local builds exports from the ad store instead of asking the scraper backend.
type Local struct {
	store  adstore.Store
	logger *slog.Logger
}

func NewLocal(store adstore.Store, logger *slog.Logger) *Local {
	return &Local{
		store:  store,
		logger: logger.With("component", "local_exporter"),
	}
}

func (l *Local) Export(ctx context.Context, format models.ExportFormat) (*models.Blob, error) {
	ads, err := l.store.List(ctx, adstore.Query{})
	if err != nil {
		return nil, fmt.Errorf("failed to list ads: %w", err)
	}

	blob, err := Encode(format, ads)
	if err != nil {
		return nil, err
	}

	l.logger.Info("export built", "format", format, "ads", len(ads), "bytes", len(blob.Data))
	return blob, nil
}

// Encode renders ads in format.
func Encode(format models.ExportFormat, ads []models.Ad) (*models.Blob, error) {
	var buf bytes.Buffer
	var err error

	switch format {
	case models.FormatCSV:
		err = WriteCSV(&buf, ads)
	case models.FormatJSON:
		err = WriteJSON(&buf, ads)
	case models.FormatExcel:
		err = WriteExcel(&buf, ads)
	default:
		return nil, fmt.Errorf("%w: %q", models.ErrInvalidFormat, format)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s export: %w", format, err)
	}

	return &models.Blob{
		Data:        buf.Bytes(),
		ContentType: format.ContentType(),
		Filename:    format.Filename(),
	}, nil
}

// WriteCSV writes a header row of models.CSVColumns followed by one row per
// ad. Unknown values are written as empty cells.
func WriteCSV(w io.Writer, ads []models.Ad) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(models.CSVColumns); err != nil {
		return err
	}
	for i := range ads {
		if err := cw.Write(record(&ads[i])); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func WriteJSON(w io.Writer, ads []models.Ad) error {
	if ads == nil {
		ads = []models.Ad{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(ads)
}

// WriteExcel writes a single-sheet workbook. Numeric columns are stored as
// numbers so spreadsheet formulas work on them.
func WriteExcel(w io.Writer, ads []models.Ad) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return err
	}

	for i, h := range models.CSVColumns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheetName, cell, h); err != nil {
			return err
		}
	}

	for r := range ads {
		for c, v := range cellValues(&ads[r]) {
			if v == nil {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheetName, cell, v); err != nil {
				return err
			}
		}
	}

	if err := f.SetPanes(sheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return err
	}

	_, err := f.WriteTo(w)
	return err
}

// record is the CSV row for ad, in models.CSVColumns order.
func record(ad *models.Ad) []string {
	row := make([]string, 0, len(models.CSVColumns))
	for _, v := range cellValues(ad) {
		switch v := v.(type) {
		case nil:
			row = append(row, "")
		case float64:
			row = append(row, strconv.FormatFloat(v, 'f', -1, 64))
		case string:
			row = append(row, v)
		}
	}
	return row
}

// cellValues returns ad's fields in models.CSVColumns order. Unknown values
// are nil, numbers are float64 and everything else is a string.
func cellValues(ad *models.Ad) []any {
	var createdAt any
	if !ad.CreatedAt.IsZero() {
		createdAt = ad.CreatedAt.UTC().Format(time.RFC3339)
	}
	return []any{
		ad.ID,
		ad.Title,
		floatValue(ad.Price),
		ad.Category,
		stringValue(ad.PropertyType),
		stringValue(ad.Location),
		floatValue(ad.Surface),
		stringValue(ad.Description),
		stringValue(ad.Contact),
		timeValue(ad.PublicationDate),
		ad.URL,
		ad.SourceWebsite,
		createdAt,
	}
}

func floatValue(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}

func stringValue(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func timeValue(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}
