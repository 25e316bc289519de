package db

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/diewo77/icash/internal/models"
)

// EnsureSchema creates the three ledger relations if absent, parents first so
// the line-item foreign keys can be established. Safe to invoke on every
// process start; touches DDL only, never data rows.
func EnsureSchema(conn *gorm.DB) error {
	for _, m := range []interface{}{&models.Product{}, &models.Purchase{}, &models.PurchaseItem{}} {
		if err := conn.AutoMigrate(m); err != nil {
			return fmt.Errorf("automigrate %T: %w", m, err)
		}
	}
	for _, table := range []string{"products", "purchases", "purchase_items"} {
		if !conn.Migrator().HasTable(table) {
			return errors.New("missing table after migration: " + table)
		}
	}
	return nil
}
