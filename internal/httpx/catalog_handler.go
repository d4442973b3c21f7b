package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/ariefcatur/go-shop-reserve.git/internal/shop"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type CatalogHandler struct {
	Repo  *shop.CatalogRepo
	Rules *shop.RuleRepo
}

type CreateProductReq struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	BasePrice   decimal.Decimal `json:"base_price"`
}

type CreateVariantReq struct {
	ProductID     string `json:"product_id"`
	SKU           string `json:"sku"`
	StockQuantity int    `json:"stock_quantity"`
}

func (h *CatalogHandler) Register(r chi.Router) {
	r.Post("/products", h.createProduct)
	r.Get("/products", h.listProducts)
	r.Post("/variants", h.createVariant)
	r.Get("/variants/{id}/price", h.previewPrice)
}

func (h *CatalogHandler) createProduct(w http.ResponseWriter, r *http.Request) {
	var req CreateProductReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if req.Name == "" || !req.BasePrice.IsPositive() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing fields"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	id, err := h.Repo.CreateProduct(ctx, req.Name, req.Description, req.BasePrice)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (h *CatalogHandler) listProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	ps, err := h.Repo.ListProducts(ctx)
	if err != nil {
		writeErr(w, err)
		return
	}
	out := make([]map[string]any, 0, len(ps))
	for _, p := range ps {
		out = append(out, map[string]any{
			"id":         p.ID,
			"name":       p.Name,
			"base_price": p.BasePrice.StringFixed(2),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *CatalogHandler) createVariant(w http.ResponseWriter, r *http.Request) {
	var req CreateVariantReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if req.ProductID == "" || req.SKU == "" || req.StockQuantity < 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing fields"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	id, err := h.Repo.CreateVariant(ctx, req.ProductID, req.SKU, req.StockQuantity)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

// previewPrice evaluasi pricing engine tanpa lock & tanpa reservasi.
func (h *CatalogHandler) previewPrice(w http.ResponseWriter, r *http.Request) {
	variantID := chi.URLParam(r, "id")
	qty, err := strconv.Atoi(r.URL.Query().Get("quantity"))
	if err != nil || qty <= 0 {
		writeErr(w, shop.ErrInvalidQuantity)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	v, basePrice, err := h.Repo.GetVariant(ctx, variantID)
	if err != nil {
		writeErr(w, err)
		return
	}
	rules, err := h.Rules.ActiveRules(ctx)
	if err != nil {
		writeErr(w, err)
		return
	}

	user := shop.UserContext{Tier: r.URL.Query().Get("user_tier")}
	price := shop.CalculatePrice(v, basePrice, qty, user, r.URL.Query().Get("promo_code"), rules, time.Now().UTC())
	writeJSON(w, http.StatusOK, price)
}
