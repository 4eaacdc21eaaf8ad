package admin

import (
	"net/http"

	"github.com/dukerupert/boutique/internal/handler"
	"github.com/dukerupert/boutique/internal/service"
)

// ListVariants handles GET /admin/products/{id}/variants
func (h *ProductHandler) ListVariants(w http.ResponseWriter, r *http.Request) {
	productID, err := handler.PathID(r, "id")
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	variants, err := h.catalog.ListVariants(r.Context(), productID)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	out := make([]handler.VariantView, 0, len(variants))
	for _, v := range variants {
		out = append(out, handler.NewVariantView(v))
	}
	handler.JSON(w, http.StatusOK, map[string]any{"variants": out})
}

// CreateVariant handles POST /admin/products/{id}/variants
func (h *ProductHandler) CreateVariant(w http.ResponseWriter, r *http.Request) {
	productID, err := handler.PathID(r, "id")
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	var in service.VariantInput
	if err := handler.DecodeJSON(r, &in); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	v, err := h.catalog.CreateVariant(r.Context(), productID, in)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.JSON(w, http.StatusCreated, handler.NewVariantView(*v))
}

// UpdateVariant handles PUT /admin/products/{id}/variants/{variant_id}
func (h *ProductHandler) UpdateVariant(w http.ResponseWriter, r *http.Request) {
	productID, variantID, ok := variantPath(w, r)
	if !ok {
		return
	}

	var in service.VariantInput
	if err := handler.DecodeJSON(r, &in); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	v, err := h.catalog.UpdateVariant(r.Context(), productID, variantID, in)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.JSON(w, http.StatusOK, handler.NewVariantView(*v))
}

// DeleteVariant handles DELETE /admin/products/{id}/variants/{variant_id}
func (h *ProductHandler) DeleteVariant(w http.ResponseWriter, r *http.Request) {
	productID, variantID, ok := variantPath(w, r)
	if !ok {
		return
	}

	if err := h.catalog.DeleteVariant(r.Context(), productID, variantID); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func variantPath(w http.ResponseWriter, r *http.Request) (productID, variantID int64, ok bool) {
	productID, err := handler.PathID(r, "id")
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return 0, 0, false
	}
	variantID, err = handler.PathID(r, "variant_id")
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return 0, 0, false
	}
	return productID, variantID, true
}
