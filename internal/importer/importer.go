// Package importer populates the ledger from external historical records.
// It runs once at startup, before the service accepts traffic; the
// emptiness-check-then-seed sequence is not safe against concurrent seeding
// by multiple processes.
package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/diewo77/icash/internal/models"
)

// ImportError reports a malformed bootstrap source or a storage failure
// during seeding. It is fatal to the startup sequence.
type ImportError struct {
	Source string
	Msg    string
	Err    error
}

func (e *ImportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("import %s: %s: %v", e.Source, e.Msg, e.Err)
	}
	return fmt.Sprintf("import %s: %s", e.Source, e.Msg)
}

func (e *ImportError) Unwrap() error { return e.Err }

// timestamp layouts accepted in historical records
var historyLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

type Importer struct {
	DB *gorm.DB
}

func New(conn *gorm.DB) *Importer { return &Importer{DB: conn} }

// SeedIfEmpty loads the product catalog and the historical purchases, each
// only when its relation is empty. The two emptiness checks are independent,
// so a partially-seeded store (products present, purchases absent) resumes
// cleanly. Re-invocation against a populated store performs no writes.
func (im *Importer) SeedIfEmpty(products, history io.Reader) error {
	if err := im.seedProducts(products); err != nil {
		return err
	}
	nameToID, err := im.productIDsByName()
	if err != nil {
		return err
	}
	return im.seedPurchases(history, nameToID)
}

func (im *Importer) seedProducts(src io.Reader) error {
	var count int64
	if err := im.DB.Model(&models.Product{}).Count(&count).Error; err != nil {
		return &ImportError{Source: "products", Msg: "counting existing rows", Err: err}
	}
	if count > 0 {
		log.Printf("[import] products table already has %d rows; skipping catalog load", count)
		return nil
	}

	rows, err := readAll(src, "products")
	if err != nil {
		return err
	}
	cols, err := columnIndex(rows, "products", "product_name", "unit_price")
	if err != nil {
		return err
	}

	seen := make(map[string]struct{}, len(rows))
	catalog := make([]models.Product, 0, len(rows))
	for i, row := range rows[1:] {
		name := strings.TrimSpace(row[cols["product_name"]])
		if name == "" {
			return &ImportError{Source: "products", Msg: fmt.Sprintf("row %d: empty product_name", i+2)}
		}
		if _, dup := seen[name]; dup {
			return &ImportError{Source: "products", Msg: fmt.Sprintf("row %d: duplicate product_name %q", i+2, name)}
		}
		seen[name] = struct{}{}
		price, err := decimal.NewFromString(strings.TrimSpace(row[cols["unit_price"]]))
		if err != nil {
			return &ImportError{Source: "products", Msg: fmt.Sprintf("row %d: bad unit_price", i+2), Err: err}
		}
		if price.IsNegative() {
			return &ImportError{Source: "products", Msg: fmt.Sprintf("row %d: negative unit_price", i+2)}
		}
		catalog = append(catalog, models.Product{Name: name, UnitPrice: price})
	}
	if len(catalog) == 0 {
		log.Printf("[import] product source carries no rows; nothing to load")
		return nil
	}

	if err := im.DB.Transaction(func(tx *gorm.DB) error {
		return tx.Create(&catalog).Error
	}); err != nil {
		return &ImportError{Source: "products", Msg: "inserting catalog", Err: err}
	}
	log.Printf("[import] loaded %d products", len(catalog))
	return nil
}

// productIDsByName reads the catalog back so historical records can be
// cross-referenced by natural key regardless of whether this run seeded it.
func (im *Importer) productIDsByName() (map[string]uint, error) {
	var catalog []models.Product
	if err := im.DB.Select("product_id", "product_name").Find(&catalog).Error; err != nil {
		return nil, &ImportError{Source: "products", Msg: "reading name map", Err: err}
	}
	nameToID := make(map[string]uint, len(catalog))
	for _, p := range catalog {
		nameToID[p.Name] = p.ID
	}
	return nameToID, nil
}

func (im *Importer) seedPurchases(src io.Reader, nameToID map[string]uint) error {
	var count int64
	if err := im.DB.Model(&models.Purchase{}).Count(&count).Error; err != nil {
		return &ImportError{Source: "purchases", Msg: "counting existing rows", Err: err}
	}
	if count > 0 {
		log.Printf("[import] purchases table already has %d rows; skipping history replay", count)
		return nil
	}

	rows, err := readAll(src, "purchases")
	if err != nil {
		return err
	}
	cols, err := columnIndex(rows, "purchases", "supermarket_id", "timestamp", "user_id", "items_list")
	if err != nil {
		return err
	}

	// One transaction for the whole replay: a mid-import failure leaves the
	// purchases table empty so the emptiness check holds on retry.
	replayed := 0
	err = im.DB.Transaction(func(tx *gorm.DB) error {
		for i, row := range rows[1:] {
			ts, err := parseHistoryTime(strings.TrimSpace(row[cols["timestamp"]]))
			if err != nil {
				return &ImportError{Source: "purchases", Msg: fmt.Sprintf("row %d: bad timestamp", i+2), Err: err}
			}
			purchase := models.Purchase{
				SupermarketID: strings.TrimSpace(row[cols["supermarket_id"]]),
				Timestamp:     ts,
				UserID:        strings.TrimSpace(row[cols["user_id"]]),
			}
			if purchase.SupermarketID == "" || purchase.UserID == "" {
				return &ImportError{Source: "purchases", Msg: fmt.Sprintf("row %d: empty supermarket_id or user_id", i+2)}
			}
			if err := tx.Create(&purchase).Error; err != nil {
				return &ImportError{Source: "purchases", Msg: fmt.Sprintf("row %d: inserting purchase", i+2), Err: err}
			}
			linked := make(map[uint]struct{})
			for _, raw := range strings.Split(row[cols["items_list"]], ",") {
				name := strings.TrimSpace(raw)
				if name == "" {
					continue
				}
				pid, ok := nameToID[name]
				if !ok {
					// Historical data may reference discontinued or misspelled
					// products; skip the line item, keep the purchase.
					log.Printf("[import] warning: product %q (row %d) not in catalog; line item skipped", name, i+2)
					continue
				}
				if _, dup := linked[pid]; dup {
					log.Printf("[import] warning: product %q repeated in row %d; line item skipped", name, i+2)
					continue
				}
				linked[pid] = struct{}{}
				item := models.PurchaseItem{PurchaseID: purchase.ID, ProductID: pid}
				if err := tx.Create(&item).Error; err != nil {
					return &ImportError{Source: "purchases", Msg: fmt.Sprintf("row %d: inserting line item", i+2), Err: err}
				}
			}
			replayed++
		}
		return nil
	})
	if err != nil {
		if ie, ok := err.(*ImportError); ok {
			return ie
		}
		return &ImportError{Source: "purchases", Msg: "replay transaction", Err: err}
	}
	log.Printf("[import] replayed %d historical purchases", replayed)
	return nil
}

func readAll(src io.Reader, source string) ([][]string, error) {
	rows, err := csv.NewReader(src).ReadAll()
	if err != nil {
		return nil, &ImportError{Source: source, Msg: "reading csv", Err: err}
	}
	if len(rows) == 0 {
		return nil, &ImportError{Source: source, Msg: "empty source, header row required"}
	}
	return rows, nil
}

// columnIndex maps required column names to their positions in the header
// row, failing fast on a mismatch instead of on first downstream use.
func columnIndex(rows [][]string, source string, required ...string) (map[string]int, error) {
	header := rows[0]
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.TrimSpace(strings.ToLower(name))] = i
	}
	out := make(map[string]int, len(required))
	for _, name := range required {
		i, ok := idx[name]
		if !ok {
			return nil, &ImportError{Source: source, Msg: fmt.Sprintf("missing column %q", name)}
		}
		out[name] = i
	}
	return out, nil
}

func parseHistoryTime(s string) (time.Time, error) {
	var lastErr error
	for _, layout := range historyLayouts {
		ts, err := time.Parse(layout, s)
		if err == nil {
			return ts, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
