package ledger

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/diewo77/icash/internal/models"
)

// Submission is one checkout as received from the register.
type Submission struct {
	SupermarketID string
	UserID        string
	IsNewCustomer bool
	ProductIDs    []uint
}

// Receipt acknowledges a recorded purchase.
type Receipt struct {
	PurchaseID uint   `json:"purchase_id"`
	CustomerID string `json:"user_id"`
}

// Writer persists purchases. Each call is one transaction: the header row and
// all of its line items commit together or not at all.
type Writer struct {
	DB *gorm.DB
}

func NewWriter(conn *gorm.DB) *Writer { return &Writer{DB: conn} }

// RecordPurchase resolves the acting customer identity, validates the
// submission and atomically persists the purchase header plus one line item
// per product id.
//
// A product id repeated in the submission violates the line items' composite
// key inside the transaction; the whole purchase rolls back and the caller
// gets ErrTransactionFailed. The model has no quantity column, so one unit
// per product per checkout is the rule.
//
// The operation is deliberately not idempotent: two identical calls record
// two distinct purchases.
func (w *Writer) RecordPurchase(ctx context.Context, sub Submission) (Receipt, error) {
	customerID := resolveCustomerID(sub)

	if err := w.validate(sub); err != nil {
		return Receipt{}, err
	}

	purchase := models.Purchase{
		SupermarketID: sub.SupermarketID,
		Timestamp:     time.Now(),
		UserID:        customerID,
	}
	err := w.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&purchase).Error; err != nil {
			return err
		}
		items := make([]models.PurchaseItem, 0, len(sub.ProductIDs))
		for _, pid := range sub.ProductIDs {
			items = append(items, models.PurchaseItem{PurchaseID: purchase.ID, ProductID: pid})
		}
		return tx.Create(&items).Error
	})
	if err != nil {
		return Receipt{}, fmt.Errorf("%w: %v", ErrTransactionFailed, err)
	}
	return Receipt{PurchaseID: purchase.ID, CustomerID: customerID}, nil
}

// resolveCustomerID keeps a returning customer's id verbatim and mints a
// fresh one for new or anonymous customers.
func resolveCustomerID(sub Submission) string {
	if sub.IsNewCustomer || strings.TrimSpace(sub.UserID) == "" {
		return uuid.NewString()
	}
	return sub.UserID
}

func (w *Writer) validate(sub Submission) error {
	if strings.TrimSpace(sub.SupermarketID) == "" {
		return &ValidationError{Field: "supermarket_id", Reason: "required"}
	}
	if len(sub.ProductIDs) == 0 {
		return &ValidationError{Field: "items", Reason: "required"}
	}
	distinct := make(map[uint]struct{}, len(sub.ProductIDs))
	for _, pid := range sub.ProductIDs {
		if pid == 0 {
			return &ValidationError{Field: "items", Reason: "invalid product id"}
		}
		distinct[pid] = struct{}{}
	}
	ids := make([]uint, 0, len(distinct))
	for pid := range distinct {
		ids = append(ids, pid)
	}
	var count int64
	if err := w.DB.Model(&models.Product{}).Where("product_id IN ?", ids).Count(&count).Error; err != nil {
		return fmt.Errorf("%w: %v", ErrTransactionFailed, err)
	}
	if count != int64(len(ids)) {
		return &ValidationError{Field: "items", Reason: "unknown product"}
	}
	return nil
}
