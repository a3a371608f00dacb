package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/thriftshop/storefront/internal/app/model"
	"github.com/thriftshop/storefront/internal/app/repository"
	"github.com/thriftshop/storefront/internal/app/service"
	"github.com/thriftshop/storefront/pkg/util"
	"github.com/xuri/excelize/v2"
)

// Columns are matched by header name, case-insensitively, so the sheet may
// order them freely. title and price are required.
var catalogColumns = []string{
	"title", "description", "brand", "category", "size", "color", "material",
	"era", "gender", "condition", "price", "original_price", "quantity",
	"tags", "image", "featured",
}

type catalogRow struct {
	Line     int
	Brand    string
	Category string
	Product  model.Product
}

type readReport struct {
	TotalRows int
	Valid     int
	Skipped   []string
}

func (r readReport) print(w io.Writer) {
	fmt.Fprintf(w, "\nSummary:\n")
	fmt.Fprintf(w, "  Total rows:   %d\n", r.TotalRows)
	fmt.Fprintf(w, "  Valid rows:   %d\n", r.Valid)
	fmt.Fprintf(w, "  Skipped rows: %d\n", len(r.Skipped))
	for _, reason := range r.Skipped {
		fmt.Fprintf(w, "    %s\n", reason)
	}
}

func readCatalog(filePath string) ([]catalogRow, readReport, error) {
	var report readReport

	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, report, fmt.Errorf("failed to open XLSX file: %w", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, report, fmt.Errorf("no sheets found in XLSX file")
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, report, fmt.Errorf("failed to read rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, report, fmt.Errorf("no data found in XLSX file")
	}

	index := headerIndex(rows[0])
	if _, ok := index["title"]; !ok {
		return nil, report, fmt.Errorf("missing required column %q", "title")
	}
	if _, ok := index["price"]; !ok {
		return nil, report, fmt.Errorf("missing required column %q", "price")
	}

	var out []catalogRow
	for i, row := range rows[1:] {
		line := i + 2
		if isBlank(row) {
			continue
		}
		report.TotalRows++

		parsed, err := parseCatalogRow(index, row)
		if err != nil {
			report.Skipped = append(report.Skipped, fmt.Sprintf("row %d: %v", line, err))
			continue
		}
		parsed.Line = line
		out = append(out, parsed)
	}
	report.Valid = len(out)
	return out, report, nil
}

func headerIndex(header []string) map[string]int {
	index := make(map[string]int, len(header))
	for i, name := range header {
		key := strings.ToLower(strings.TrimSpace(name))
		key = strings.ReplaceAll(key, " ", "_")
		for _, col := range catalogColumns {
			if key == col {
				index[key] = i
			}
		}
	}
	return index
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func parseCatalogRow(index map[string]int, row []string) (catalogRow, error) {
	cell := func(col string) string {
		i, ok := index[col]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	title := cell("title")
	if title == "" {
		return catalogRow{}, fmt.Errorf("title is empty")
	}

	price, err := strconv.ParseFloat(cell("price"), 64)
	if err != nil || price <= 0 {
		return catalogRow{}, fmt.Errorf("invalid price %q", cell("price"))
	}

	var originalPrice float64
	if s := cell("original_price"); s != "" {
		if originalPrice, err = strconv.ParseFloat(s, 64); err != nil {
			return catalogRow{}, fmt.Errorf("invalid original_price %q", s)
		}
	}

	quantity := 1
	if s := cell("quantity"); s != "" {
		if quantity, err = strconv.Atoi(s); err != nil || quantity < 0 {
			return catalogRow{}, fmt.Errorf("invalid quantity %q", s)
		}
	}

	condition, err := parseCondition(cell("condition"))
	if err != nil {
		return catalogRow{}, err
	}
	gender, err := parseGender(cell("gender"))
	if err != nil {
		return catalogRow{}, err
	}

	var tags model.StringList
	for _, tag := range strings.Split(cell("tags"), ",") {
		if tag = strings.ToLower(strings.TrimSpace(tag)); tag != "" {
			tags = append(tags, tag)
		}
	}

	featured, _ := strconv.ParseBool(cell("featured"))

	return catalogRow{
		Brand:    cell("brand"),
		Category: cell("category"),
		Product: model.Product{
			Title:         title,
			Description:   cell("description"),
			Size:          cell("size"),
			Color:         cell("color"),
			Material:      cell("material"),
			Era:           strings.ToLower(cell("era")),
			Gender:        gender,
			Condition:     condition,
			Price:         price,
			OriginalPrice: originalPrice,
			Quantity:      quantity,
			Tags:          tags,
			PrimaryImage:  cell("image"),
			IsFeatured:    featured,
		},
	}, nil
}

func parseCondition(s string) (model.ProductCondition, error) {
	switch c := model.ProductCondition(strings.ReplaceAll(strings.ToLower(s), " ", "_")); c {
	case "":
		return model.ConditionGood, nil
	case model.ConditionNewWithTags, model.ConditionExcellent, model.ConditionGood, model.ConditionFair:
		return c, nil
	default:
		return "", fmt.Errorf("unknown condition %q", s)
	}
}

func parseGender(s string) (model.ProductGender, error) {
	switch g := model.ProductGender(strings.ToLower(s)); g {
	case "":
		return model.GenderUnisex, nil
	case model.GenderMen, model.GenderWomen, model.GenderUnisex:
		return g, nil
	default:
		return "", fmt.Errorf("unknown gender %q", s)
	}
}

type catalogImporter struct {
	taxonomy repository.TaxonomyRepository
	products service.ProductService
}

// importRows creates brands and categories on first sight and one product
// per row. A failing row is reported and skipped.
func (imp *catalogImporter) importRows(rows []catalogRow) (created, failed int) {
	for _, r := range rows {
		p := r.Product

		if r.Brand != "" {
			brand, err := imp.taxonomy.FirstOrCreateBrand(r.Brand, util.Slugify(r.Brand))
			if err != nil {
				fmt.Printf("  row %d: brand %q: %v\n", r.Line, r.Brand, err)
				failed++
				continue
			}
			p.BrandID = &brand.ID
		}
		if r.Category != "" {
			category, err := imp.taxonomy.FirstOrCreateCategory(r.Category, util.Slugify(r.Category))
			if err != nil {
				fmt.Printf("  row %d: category %q: %v\n", r.Line, r.Category, err)
				failed++
				continue
			}
			p.CategoryID = &category.ID
		}

		if err := imp.products.CreateProduct(&p); err != nil {
			fmt.Printf("  row %d: %v\n", r.Line, err)
			failed++
			continue
		}
		created++

		if created%100 == 0 {
			fmt.Printf("Imported %d products...\n", created)
		}
	}
	return created, failed
}
