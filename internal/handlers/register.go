package handlers

import (
	"net/http"

	"gorm.io/gorm"

	"github.com/diewo77/icash/internal/httpx"
	"github.com/diewo77/icash/internal/models"
)

// Supermarkets served by the register UI.
var Supermarkets = []string{"SMKT001", "SMKT002", "SMKT003"}

// RegisterHandler exposes what the cash register front end needs to render a
// checkout: the product catalog and the supermarket list.
type RegisterHandler struct {
	DB *gorm.DB
}

func NewRegisterHandler(conn *gorm.DB) *RegisterHandler { return &RegisterHandler{DB: conn} }

// Get: GET /api/register
func (h *RegisterHandler) Get(w http.ResponseWriter, r *http.Request) {
	var products []models.Product
	if err := h.DB.Order("product_id").Find(&products).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_list_products", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"products":     products,
		"supermarkets": Supermarkets,
	})
}
