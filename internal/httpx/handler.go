package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/ariefcatur/go-barista-dispatch/internal/orders"
	"github.com/ariefcatur/go-barista-dispatch/internal/scenario"
	"github.com/ariefcatur/go-barista-dispatch/internal/shop"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

type SubmitOrderReq struct {
	Customer string   `json:"customer_name"`
	Drinks   []string `json:"drinks"`
	Loyal    bool     `json:"is_loyal"`
}

type SubmitOrderResp struct {
	OrderID string `json:"order_id"`
}

type Handler struct {
	Shop *shop.Service
	Log  zerolog.Logger
}

func (h *Handler) Register(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Post("/orders", h.submitOrder)
		r.Get("/queue", h.queue)
		r.Get("/baristas", h.baristas)
		r.Get("/stats", h.stats)

		r.Route("/simulation", func(r chi.Router) {
			r.Post("/run", h.runScenario)
			r.Get("/scenarios", h.scenarios)
			r.Get("/history", h.history)
			r.Get("/history/{testId}/export.csv", h.exportCSV)
		})
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var verr *orders.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": verr.Error(), "field": verr.Field})
	case shop.IsNotFound(err):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, context.DeadlineExceeded):
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "timed out"})
	default:
		h.Log.Error().Err(err).Msg("request failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func (h *Handler) submitOrder(w http.ResponseWriter, r *http.Request) {
	var req SubmitOrderReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	id, err := h.Shop.SubmitOrder(ctx, shop.SubmitRequest{
		Customer:       req.Customer,
		Drinks:         req.Drinks,
		Loyal:          req.Loyal,
		IdempotencyKey: r.Header.Get("Idempotency-Key"),
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, SubmitOrderResp{OrderID: id})
}

func (h *Handler) queue(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Shop.SnapshotQueue())
}

func (h *Handler) baristas(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Shop.SnapshotBaristas())
}

func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Shop.SnapshotStats())
}

// testID reads a scenario number; def applies when the value is absent.
func testID(raw string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &orders.ValidationError{Field: "testId", Reason: fmt.Sprintf("%q is not a number", raw)}
	}
	return n, nil
}

func (h *Handler) runScenario(w http.ResponseWriter, r *http.Request) {
	n, err := testID(r.URL.Query().Get("testId"), 1)
	if err != nil {
		h.writeError(w, err)
		return
	}
	rec, err := h.Shop.RunScenario(r.Context(), n)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *Handler) scenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Shop.Scenarios())
}

func (h *Handler) history(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	recs, err := h.Shop.ScenarioHistory(ctx)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if recs == nil {
		recs = []scenario.Record{}
	}
	writeJSON(w, http.StatusOK, recs)
}

func (h *Handler) exportCSV(w http.ResponseWriter, r *http.Request) {
	n, err := testID(chi.URLParam(r, "testId"), 0)
	if err != nil {
		h.writeError(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var buf bytes.Buffer
	if err := h.Shop.ExportCSV(ctx, n, &buf); err != nil {
		h.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="scenario_%d.csv"`, n))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
