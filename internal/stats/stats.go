package stats

import (
	"gorm.io/gorm"

	"github.com/diewo77/icash/internal/models"
)

// LoyalThreshold is the minimum purchase count for the loyalty cohort.
const LoyalThreshold = 3

type LoyalShopper struct {
	UserID        string `json:"user_id"`
	PurchaseCount int64  `json:"purchase_count"`
}

type ProductSales struct {
	Name  string `json:"name"`
	Sales int64  `json:"sales"`
}

// Stats is the dashboard snapshot payload.
type Stats struct {
	UniqueShoppers int64          `json:"unique_shoppers"`
	LoyalShoppers  []LoyalShopper `json:"loyal_shoppers"`
	TopProducts    []ProductSales `json:"top_products"`
}

// Aggregator computes read-only dashboard aggregates. It holds no state
// beyond the store handle and may run concurrently with ledger writes; it
// relies on the engine's read-committed isolation.
type Aggregator struct {
	DB *gorm.DB
}

func NewAggregator(conn *gorm.DB) *Aggregator { return &Aggregator{DB: conn} }

// ComputeStats returns the unique shopper count, the loyalty cohort and the
// best-selling products with the inclusive tie rule at the third place.
func (a *Aggregator) ComputeStats() (Stats, error) {
	stats := Stats{
		LoyalShoppers: make([]LoyalShopper, 0),
		TopProducts:   make([]ProductSales, 0),
	}

	if err := a.DB.Model(&models.Purchase{}).
		Distinct("user_id").
		Count(&stats.UniqueShoppers).Error; err != nil {
		return Stats{}, err
	}

	if err := a.DB.Model(&models.Purchase{}).
		Select("user_id, COUNT(purchase_id) AS purchase_count").
		Group("user_id").
		Having("COUNT(purchase_id) >= ?", LoyalThreshold).
		Order("purchase_count DESC, user_id ASC").
		Scan(&stats.LoyalShoppers).Error; err != nil {
		return Stats{}, err
	}

	ranked := make([]ProductSales, 0)
	if err := a.DB.Table("purchase_items").
		Select("products.product_name AS name, COUNT(purchase_items.product_id) AS sales").
		Joins("JOIN products ON products.product_id = purchase_items.product_id").
		Group("products.product_name").
		Order("sales DESC, products.product_name ASC").
		Scan(&ranked).Error; err != nil {
		return Stats{}, err
	}
	stats.TopProducts = topWithTies(ranked, 3)

	return stats, nil
}

// topWithTies selects the first n entries of a descending ranking plus every
// further entry tied with the n-th one. A strict cutoff would arbitrarily
// drop a product selling exactly as well as the last ranked one.
func topWithTies(ranked []ProductSales, n int) []ProductSales {
	top := make([]ProductSales, 0, n)
	if len(ranked) == 0 {
		return top
	}
	var boundary int64
	if len(ranked) >= n {
		boundary = ranked[n-1].Sales
	}
	for _, p := range ranked {
		if len(top) < n || p.Sales >= boundary {
			top = append(top, p)
			continue
		}
		break
	}
	return top
}
