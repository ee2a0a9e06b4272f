package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"catalog-service/internal/apperror"
	"catalog-service/internal/authz"
	"catalog-service/internal/metrics"
	"catalog-service/internal/model"
	"catalog-service/internal/store"
	"catalog-service/pkg/logger"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CSV columns, matched against the header row
const (
	ColumnCategory            = "Category"
	ColumnCategoryDescription = "Category Description"
	ColumnProductName         = "Product Name"
	ColumnProductDescription  = "Product Description"
	ColumnProductPrice        = "Product Price"
	ColumnAvailableUnits      = "Available Units"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Numeric cells are read up to the first character that cannot continue a
// number, so "12.50 USD" is 12.50 and "10.0" units is 10.
var (
	leadingDecimal = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)
	leadingInteger = regexp.MustCompile(`^[+-]?\d+`)
)

// ImportSummary reports what an upload did
type ImportSummary struct {
	Rows              int          `json:"rows"`
	CategoriesCreated int          `json:"categories_created"`
	ProductsCreated   int          `json:"products_created"`
	ProductsExisting  int          `json:"products_existing"`
	Skipped           []SkippedRow `json:"skipped"`
}

// SkippedRow is an invalid row left out of the import. Line is the 1-based line in the file.
type SkippedRow struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

// csvRow is one record keyed by column name
type csvRow struct {
	line   int
	fields map[string]string
}

func (r csvRow) get(column string) string {
	return strings.TrimSpace(r.fields[column])
}

// importRow is a validated row
type importRow struct {
	category            string
	categoryDescription string
	productName         string
	productDescription  string
	price               float64
	units               int
}

// ImportService reconciles uploaded CSV files into categories, products and inventory rows.
type ImportService struct {
	catalog *CatalogService
	metrics *metrics.Metrics
}

// NewImportService creates an import service on top of the catalog
func NewImportService(catalog *CatalogService, m *metrics.Metrics) *ImportService {
	return &ImportService{catalog: catalog, metrics: m}
}

// Import reads the whole file, then applies its rows one at a time in file order.
//
// Invalid rows are skipped and reported. A category is found or created by
// (caller, name). A product is created only when caller has none with that
// name; existing products are never modified. A store failure stops the
// import; rows applied before it stay applied.
func (s *ImportService) Import(ctx context.Context, caller model.Identity, r io.Reader) (*ImportSummary, error) {
	res := authz.Resource{Kind: authz.KindProduct, New: true}
	if err := authz.Authorize(s.catalog.authz, caller, authz.ActionWrite, res); err != nil {
		return nil, err
	}

	rows, err := readCSV(r)
	if err != nil {
		return nil, err
	}

	log := logger.FromCtx(ctx)
	summary := &ImportSummary{Rows: len(rows), Skipped: []SkippedRow{}}
	defer s.metrics.TrackDBOperation("csv_import")(time.Now())

	for _, raw := range rows {
		row, reason := parseRow(raw)
		if reason != "" {
			log.Warn("Skipping invalid CSV row", zap.Int("line", raw.line), zap.String("reason", reason))
			summary.Skipped = append(summary.Skipped, SkippedRow{Line: raw.line, Reason: reason})
			s.metrics.RecordCSVRow("skipped")
			continue
		}

		outcome, err := s.applyRow(ctx, caller, row, summary)
		if err != nil {
			log.Error("CSV import aborted",
				zap.Int("line", raw.line),
				zap.Int("products_created", summary.ProductsCreated),
				zap.Error(err))
			s.metrics.RecordCSVRow("failed")
			return summary, apperror.Internal("Failed to process CSV", err)
		}
		s.metrics.RecordCSVRow(outcome)
	}

	s.metrics.RecordOperation("csv", "import")
	log.Info("CSV import finished",
		zap.Int("rows", summary.Rows),
		zap.Int("categories_created", summary.CategoriesCreated),
		zap.Int("products_created", summary.ProductsCreated),
		zap.Int("products_existing", summary.ProductsExisting),
		zap.Int("skipped", len(summary.Skipped)))
	return summary, nil
}

func (s *ImportService) applyRow(ctx context.Context, caller model.Identity, row importRow, summary *ImportSummary) (string, error) {
	st := s.catalog.store

	category, created, err := s.findOrCreateCategory(ctx, caller.UserID, row)
	if err != nil {
		return "", err
	}
	if created {
		summary.CategoriesCreated++
	}

	_, err = st.Products().FindByName(ctx, caller.UserID, row.productName)
	if err == nil {
		summary.ProductsExisting++
		return "existing", nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return "", err
	}

	prod := &model.Product{
		Name:        row.productName,
		Description: row.productDescription,
		Price:       row.price,
		Stock:       row.units,
		Categories:  []string{category.ID},
		CreatedBy:   caller.UserID,
	}
	if err := s.catalog.insertProduct(ctx, prod, row.units, 0); err != nil {
		return "", err
	}
	summary.ProductsCreated++
	return "created", nil
}

func (s *ImportService) findOrCreateCategory(ctx context.Context, ownerID string, row importRow) (*model.Category, bool, error) {
	categories := s.catalog.store.Categories()

	cat, err := categories.FindByName(ctx, ownerID, row.category)
	if err == nil {
		return cat, false, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, false, err
	}

	cat = &model.Category{
		Name:        row.category,
		Description: row.categoryDescription,
		Products:    []string{},
		CreatedBy:   ownerID,
	}
	err = categories.Insert(ctx, cat)
	if errors.Is(err, store.ErrDuplicate) {
		// created concurrently by another request
		cat, err = categories.FindByName(ctx, ownerID, row.category)
		return cat, false, err
	}
	if err != nil {
		return nil, false, err
	}
	return cat, true, nil
}

// readCSV buffers every record of r. The first record is the header.
func readCSV(r io.Reader) ([]csvRow, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, apperror.Internal("Failed to read CSV", err)
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, apperror.Validation("Invalid CSV file")
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	var rows []csvRow
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, apperror.Validation("Invalid CSV file")
		}
		if blank(record) {
			continue
		}

		line, _ := reader.FieldPos(0)
		row := csvRow{line: line, fields: make(map[string]string, len(header))}
		for i, name := range header {
			if i < len(record) {
				row.fields[name] = record[i]
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func blank(record []string) bool {
	for _, field := range record {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}

// parseRow validates a record. A non-empty reason means the row is skipped.
func parseRow(raw csvRow) (importRow, string) {
	row := importRow{
		category:            raw.get(ColumnCategory),
		categoryDescription: raw.get(ColumnCategoryDescription),
		productName:         raw.get(ColumnProductName),
		productDescription:  raw.get(ColumnProductDescription),
	}
	if row.category == "" {
		return row, "category is required"
	}
	if row.productName == "" {
		return row, "product name is required"
	}

	price, err := parsePrice(raw.get(ColumnProductPrice))
	if err != nil {
		return row, "invalid product price"
	}
	if price.IsNegative() {
		return row, "product price must not be negative"
	}
	row.price = price.InexactFloat64()

	units, err := parseUnits(raw.get(ColumnAvailableUnits))
	if err != nil {
		return row, "invalid available units"
	}
	if units < 0 {
		return row, "available units must not be negative"
	}
	row.units = units

	return row, ""
}

var errNoNumber = errors.New("no leading number")

func parsePrice(cell string) (decimal.Decimal, error) {
	prefix := leadingDecimal.FindString(cell)
	if prefix == "" {
		return decimal.Decimal{}, errNoNumber
	}
	return decimal.NewFromString(prefix)
}

// parseUnits reads the leading integer; a fractional part is truncated.
func parseUnits(cell string) (int, error) {
	prefix := leadingInteger.FindString(cell)
	if prefix == "" {
		return 0, errNoNumber
	}
	return strconv.Atoi(prefix)
}
