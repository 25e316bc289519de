package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/diewo77/icash/internal/httpx"
	"github.com/diewo77/icash/internal/ledger"
)

// PurchaseHandler accepts checkout submissions from the register, as JSON or
// as a classic HTML form post.
type PurchaseHandler struct {
	Ledger *ledger.Writer
}

func NewPurchaseHandler(w *ledger.Writer) *PurchaseHandler { return &PurchaseHandler{Ledger: w} }

// Submit: POST /submit_purchase
func (h *PurchaseHandler) Submit(w http.ResponseWriter, r *http.Request) {
	sub, err := parseSubmission(r)
	if err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	receipt, err := h.Ledger.RecordPurchase(r.Context(), sub)
	if err != nil {
		var verr *ledger.ValidationError
		switch {
		case errors.As(err, &verr):
			httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{verr.Field: verr.Reason})
		case errors.Is(err, ledger.ErrTransactionFailed):
			httpx.JSONError(w, http.StatusInternalServerError, "transaction_failed", nil)
		default:
			httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
		}
		return
	}
	httpx.JSON(w, http.StatusCreated, receipt)
}

func parseSubmission(r *http.Request) (ledger.Submission, error) {
	ct := r.Header.Get("Content-Type")
	if strings.HasPrefix(ct, "application/json") {
		var req struct {
			SupermarketID string `json:"supermarket_id"`
			UserID        string `json:"user_id"`
			IsNewCustomer bool   `json:"is_new_customer"`
			Items         []uint `json:"items"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return ledger.Submission{}, errors.New("invalid json body")
		}
		return ledger.Submission{
			SupermarketID: req.SupermarketID,
			UserID:        req.UserID,
			IsNewCustomer: req.IsNewCustomer,
			ProductIDs:    req.Items,
		}, nil
	}

	if err := r.ParseForm(); err != nil {
		return ledger.Submission{}, errors.New("invalid form body")
	}
	sub := ledger.Submission{
		SupermarketID: r.Form.Get("supermarket_id"),
		UserID:        r.Form.Get("user_id"),
	}
	if v := r.Form.Get("is_new_customer"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil && v == "on" { // checkbox value
			b = true
			err = nil
		}
		if err != nil {
			return ledger.Submission{}, errors.New("invalid is_new_customer value")
		}
		sub.IsNewCustomer = b
	}
	for _, raw := range r.Form["items"] {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			return ledger.Submission{}, errors.New("invalid item id: " + raw)
		}
		sub.ProductIDs = append(sub.ProductIDs, uint(id))
	}
	return sub, nil
}
