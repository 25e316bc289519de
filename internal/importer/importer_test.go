package importer

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/diewo77/icash/internal/models"
)

const productCSV = `product_name,unit_price
Milk,1.20
Bread,2.50
Eggs,3.10
`

const historyCSV = `supermarket_id,timestamp,user_id,items_list
SMKT001,2024-01-05 09:30:00,user-a,"Milk, Bread"
SMKT002,2024-01-06 17:45:00,user-b,Eggs
SMKT001,2024-01-07 12:00:00,user-a,"Milk, Caviar"
`

func setupImportDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&models.Product{}, &models.Purchase{}, &models.PurchaseItem{}))
	return conn
}

func seed(t *testing.T, conn *gorm.DB, products, history string) error {
	t.Helper()
	return New(conn).SeedIfEmpty(strings.NewReader(products), strings.NewReader(history))
}

func tableCounts(t *testing.T, conn *gorm.DB) (products, purchases, items int64) {
	t.Helper()
	require.NoError(t, conn.Model(&models.Product{}).Count(&products).Error)
	require.NoError(t, conn.Model(&models.Purchase{}).Count(&purchases).Error)
	require.NoError(t, conn.Model(&models.PurchaseItem{}).Count(&items).Error)
	return
}

func TestSeedFromScratch(t *testing.T) {
	conn := setupImportDB(t)
	require.NoError(t, seed(t, conn, productCSV, historyCSV))

	products, purchases, items := tableCounts(t, conn)
	require.EqualValues(t, 3, products)
	require.EqualValues(t, 3, purchases)
	// "Caviar" is not in the catalog: its line item is skipped, the purchase kept
	require.EqualValues(t, 4, items)

	var p models.Product
	require.NoError(t, conn.Where("product_name = ?", "Bread").First(&p).Error)
	require.True(t, decimal.RequireFromString("2.50").Equal(p.UnitPrice))

	var orphan models.Purchase
	require.NoError(t, conn.Where("user_id = ?", "user-a").Order("purchase_id DESC").First(&orphan).Error)
	var orphanItems int64
	require.NoError(t, conn.Model(&models.PurchaseItem{}).Where("purchase_id = ?", orphan.ID).Count(&orphanItems).Error)
	require.EqualValues(t, 1, orphanItems)
}

func TestSeedIsIdempotent(t *testing.T) {
	conn := setupImportDB(t)
	require.NoError(t, seed(t, conn, productCSV, historyCSV))
	p1, pu1, it1 := tableCounts(t, conn)

	require.NoError(t, seed(t, conn, productCSV, historyCSV))
	p2, pu2, it2 := tableCounts(t, conn)
	require.Equal(t, p1, p2)
	require.Equal(t, pu1, pu2)
	require.Equal(t, it1, it2)
}

func TestSeedResumesFromPartialState(t *testing.T) {
	conn := setupImportDB(t)
	// products already seeded, purchases absent: only the replay should run
	require.NoError(t, conn.Create(&models.Product{Name: "Milk"}).Error)
	require.NoError(t, conn.Create(&models.Product{Name: "Bread"}).Error)
	require.NoError(t, conn.Create(&models.Product{Name: "Eggs"}).Error)

	require.NoError(t, seed(t, conn, productCSV, historyCSV))
	products, purchases, _ := tableCounts(t, conn)
	require.EqualValues(t, 3, products)
	require.EqualValues(t, 3, purchases)
}

func TestSeedRejectsMissingColumn(t *testing.T) {
	conn := setupImportDB(t)
	bad := "name,price\nMilk,1.20\n"
	err := seed(t, conn, bad, historyCSV)
	var ierr *ImportError
	require.ErrorAs(t, err, &ierr)
	require.Equal(t, "products", ierr.Source)

	products, _, _ := tableCounts(t, conn)
	require.EqualValues(t, 0, products)
}

func TestSeedRejectsBadPrice(t *testing.T) {
	conn := setupImportDB(t)
	bad := "product_name,unit_price\nMilk,free\n"
	err := seed(t, conn, bad, historyCSV)
	var ierr *ImportError
	require.ErrorAs(t, err, &ierr)
	require.Equal(t, "products", ierr.Source)
}

func TestHistoryFailureRollsBackWholeReplay(t *testing.T) {
	conn := setupImportDB(t)
	// second record is malformed; the first must not survive the rollback
	bad := `supermarket_id,timestamp,user_id,items_list
SMKT001,2024-01-05 09:30:00,user-a,Milk
SMKT002,not-a-timestamp,user-b,Eggs
`
	err := seed(t, conn, productCSV, bad)
	var ierr *ImportError
	require.ErrorAs(t, err, &ierr)
	require.Equal(t, "purchases", ierr.Source)

	products, purchases, items := tableCounts(t, conn)
	require.EqualValues(t, 3, products) // catalog step already committed
	require.EqualValues(t, 0, purchases)
	require.EqualValues(t, 0, items)

	// the empty purchases table is a valid resumption point
	require.NoError(t, seed(t, conn, productCSV, historyCSV))
	_, purchases, _ = tableCounts(t, conn)
	require.EqualValues(t, 3, purchases)
}

func TestHistoryDuplicateItemSkipped(t *testing.T) {
	conn := setupImportDB(t)
	dup := `supermarket_id,timestamp,user_id,items_list
SMKT001,2024-01-05 09:30:00,user-a,"Milk, Milk, Bread"
`
	require.NoError(t, seed(t, conn, productCSV, dup))
	_, purchases, items := tableCounts(t, conn)
	require.EqualValues(t, 1, purchases)
	require.EqualValues(t, 2, items)
}
