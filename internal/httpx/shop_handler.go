package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	kafkax "github.com/ariefcatur/go-shop-reserve.git/internal/kafka"
	"github.com/ariefcatur/go-shop-reserve.git/internal/redisx"
	"github.com/ariefcatur/go-shop-reserve.git/internal/shop"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
)

type ShopHandler struct {
	Carts    *shop.CartRepo
	Checkout *shop.CheckoutRepo
	Catalog  *shop.CatalogRepo
	Producer *kafkax.Producer // publish order.created
	Redis    *redis.Client
	Service  string
}

type AddItemReq struct {
	VariantID string `json:"variant_id"`
	Quantity  int    `json:"quantity"`
	UserTier  string `json:"user_tier,omitempty"`
	PromoCode string `json:"promo_code,omitempty"`
}

type CheckoutReq struct {
	CartID string `json:"cart_id"`
	UserID string `json:"user_id,omitempty"`
}

func (h *ShopHandler) Register(r chi.Router) {
	r.Post("/carts", h.createCart)
	r.Post("/carts/{id}/items", h.addOrUpdateItem)
	r.Post("/checkout", h.checkout)
	r.Get("/orders/{id}", h.getOrder)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// errStatus memetakan error taxonomy domain ke kode HTTP.
func errStatus(err error) int {
	switch {
	case errors.Is(err, shop.ErrInvalidQuantity),
		errors.Is(err, shop.ErrEmptyCart),
		errors.Is(err, shop.ErrReservationExpired):
		return http.StatusBadRequest
	case errors.Is(err, shop.ErrCartNotFound),
		errors.Is(err, shop.ErrVariantNotFound),
		errors.Is(err, shop.ErrProductNotFound),
		errors.Is(err, shop.ErrOrderNotFound):
		return http.StatusNotFound
	case errors.Is(err, shop.ErrInsufficientStock),
		errors.Is(err, shop.ErrReservedMismatch):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeErr(w http.ResponseWriter, err error) {
	writeJSON(w, errStatus(err), map[string]string{"error": err.Error()})
}

func (h *ShopHandler) createCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	var body struct {
		UserID string `json:"user_id,omitempty"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body) // body opsional

	id, err := h.Carts.CreateCart(ctx, body.UserID)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"cart_id": id})
}

func (h *ShopHandler) addOrUpdateItem(w http.ResponseWriter, r *http.Request) {
	cartID := chi.URLParam(r, "id")
	var req AddItemReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if cartID == "" || req.VariantID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing fields"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	item, price, err := h.Carts.AddOrUpdateItem(ctx, cartID, req.VariantID, req.Quantity,
		shop.UserContext{Tier: req.UserTier}, req.PromoCode)
	if err != nil {
		writeErr(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"cart_id":        item.CartID,
		"variant_id":     item.VariantID,
		"quantity":       item.Quantity,
		"reserved_until": item.ReservedUntil,
		"unit_price":     item.UnitPriceSnapshot,
		"discount":       item.DiscountSnapshot,
		"final_price":    item.FinalPriceSnapshot,
		"applied_rules":  price.Applied,
	})
}

func (h *ShopHandler) checkout(w http.ResponseWriter, r *http.Request) {
	var req CheckoutReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if req.CartID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing cart_id"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	res, err := h.Checkout.Checkout(ctx, req.CartID, req.UserID)
	if err != nil {
		writeErr(w, err)
		return
	}

	// cache status supaya GET langsung kejawab
	body, _ := json.Marshal(map[string]string{
		"status": shop.OrderStatusConfirmed,
		"total":  res.Total.StringFixed(2),
	})
	statusKey := fmt.Sprintf(redisx.KeyOrderStatus, res.OrderID)
	_ = h.Redis.Set(ctx, statusKey, body, redisx.TTLStatusCache).Err()

	// publish event (envelope v1) setelah commit DB
	ev := shop.Envelope{
		EventID:       uuid.NewString(),
		EventType:     shop.EventOrderCreated,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      h.Service,
		TraceID:       r.Header.Get("X-Request-Id"),
		CorrelationID: res.OrderID,
	}
	ev.Payload = kafkax.MustMarshal(shop.OrderCreatedPayload{
		OrderID: res.OrderID,
		CartID:  req.CartID,
		UserID:  req.UserID,
		Total:   res.Total.StringFixed(2),
		Status:  shop.OrderStatusConfirmed,
	})
	h.Producer.Publish(shop.PartitionKey(res.OrderID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(shop.EventOrderCreated)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)

	writeJSON(w, http.StatusOK, map[string]string{
		"order_id": res.OrderID,
		"total":    res.Total.StringFixed(2),
	})
}

func (h *ShopHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")
	if orderID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing id"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	// 1) coba cache
	key := fmt.Sprintf(redisx.KeyOrderStatus, orderID)
	if s, err := h.Redis.Get(ctx, key).Result(); err == nil && s != "" {
		writeJSON(w, http.StatusOK, json.RawMessage(s))
		return
	}

	// 2) fallback DB
	o, err := h.Catalog.GetOrder(ctx, orderID)
	if err != nil {
		writeErr(w, err)
		return
	}
	b, _ := json.Marshal(map[string]string{"status": o.Status, "total": o.TotalAmount.StringFixed(2)})
	_ = h.Redis.Set(ctx, key, b, redisx.TTLStatusCache).Err()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(b)
}
