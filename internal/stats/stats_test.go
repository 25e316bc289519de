package stats

import (
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/diewo77/icash/internal/models"
)

func setupStatsDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&models.Product{}, &models.Purchase{}, &models.PurchaseItem{}))
	return conn
}

// addProduct creates a catalog entry and records `sold` single-item purchases
// of it, each under its own anonymous customer.
func addProductWithSales(t *testing.T, conn *gorm.DB, name string, sold int) {
	t.Helper()
	p := models.Product{Name: name, UnitPrice: decimal.NewFromFloat(1.00)}
	require.NoError(t, conn.Create(&p).Error)
	for i := 0; i < sold; i++ {
		purchase := models.Purchase{
			SupermarketID: "SMKT001",
			Timestamp:     time.Now(),
			UserID:        fmt.Sprintf("%s-buyer-%d", name, i),
		}
		require.NoError(t, conn.Create(&purchase).Error)
		require.NoError(t, conn.Create(&models.PurchaseItem{PurchaseID: purchase.ID, ProductID: p.ID}).Error)
	}
}

func addPurchases(t *testing.T, conn *gorm.DB, userID string, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		require.NoError(t, conn.Create(&models.Purchase{
			SupermarketID: "SMKT002",
			Timestamp:     time.Now(),
			UserID:        userID,
		}).Error)
	}
}

func topNames(s Stats) []string {
	names := make([]string, 0, len(s.TopProducts))
	for _, p := range s.TopProducts {
		names = append(names, p.Name)
	}
	return names
}

func TestComputeStatsEmptyStore(t *testing.T) {
	conn := setupStatsDB(t)
	s, err := NewAggregator(conn).ComputeStats()
	require.NoError(t, err)
	require.EqualValues(t, 0, s.UniqueShoppers)
	require.Empty(t, s.LoyalShoppers)
	require.Empty(t, s.TopProducts)
	// empty aggregates must serialize as [] rather than null
	require.NotNil(t, s.LoyalShoppers)
	require.NotNil(t, s.TopProducts)
}

func TestTopProductsTieBelowBoundaryExcluded(t *testing.T) {
	conn := setupStatsDB(t)
	addProductWithSales(t, conn, "A", 5)
	addProductWithSales(t, conn, "B", 4)
	addProductWithSales(t, conn, "C", 4)
	addProductWithSales(t, conn, "D", 2)

	s, err := NewAggregator(conn).ComputeStats()
	require.NoError(t, err)
	require.Equal(t, []string{"A", "B", "C"}, topNames(s))
	require.EqualValues(t, 5, s.TopProducts[0].Sales)
	require.EqualValues(t, 4, s.TopProducts[2].Sales)
}

func TestTopProductsTieAtBoundaryIncluded(t *testing.T) {
	conn := setupStatsDB(t)
	addProductWithSales(t, conn, "A", 5)
	addProductWithSales(t, conn, "B", 4)
	addProductWithSales(t, conn, "C", 3)
	addProductWithSales(t, conn, "D", 3)

	s, err := NewAggregator(conn).ComputeStats()
	require.NoError(t, err)
	require.Equal(t, []string{"A", "B", "C", "D"}, topNames(s))
}

func TestTopProductsFewerThanThree(t *testing.T) {
	conn := setupStatsDB(t)
	addProductWithSales(t, conn, "A", 2)
	addProductWithSales(t, conn, "B", 1)
	// a product with no sales never appears
	require.NoError(t, conn.Create(&models.Product{Name: "Unsold", UnitPrice: decimal.NewFromFloat(9.99)}).Error)

	s, err := NewAggregator(conn).ComputeStats()
	require.NoError(t, err)
	require.Equal(t, []string{"A", "B"}, topNames(s))
}

func TestLoyalShoppersThreshold(t *testing.T) {
	conn := setupStatsDB(t)
	agg := NewAggregator(conn)

	addPurchases(t, conn, "edging", 1)
	s, err := agg.ComputeStats()
	require.NoError(t, err)
	require.Empty(t, s.LoyalShoppers)

	addPurchases(t, conn, "edging", 1)
	s, err = agg.ComputeStats()
	require.NoError(t, err)
	require.Empty(t, s.LoyalShoppers)

	addPurchases(t, conn, "edging", 1)
	s, err = agg.ComputeStats()
	require.NoError(t, err)
	require.Len(t, s.LoyalShoppers, 1)
	require.Equal(t, "edging", s.LoyalShoppers[0].UserID)
	require.EqualValues(t, 3, s.LoyalShoppers[0].PurchaseCount)
}

func TestLoyalShoppersOrderedByCount(t *testing.T) {
	conn := setupStatsDB(t)
	addPurchases(t, conn, "heavy", 5)
	addPurchases(t, conn, "medium", 3)
	addPurchases(t, conn, "light", 2)

	s, err := NewAggregator(conn).ComputeStats()
	require.NoError(t, err)
	require.Len(t, s.LoyalShoppers, 2)
	require.Equal(t, "heavy", s.LoyalShoppers[0].UserID)
	require.Equal(t, "medium", s.LoyalShoppers[1].UserID)
	require.EqualValues(t, 3, s.UniqueShoppers)
}
