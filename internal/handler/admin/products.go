package admin

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/dukerupert/boutique/internal/domain"
	"github.com/dukerupert/boutique/internal/handler"
	"github.com/dukerupert/boutique/internal/middleware"
	"github.com/dukerupert/boutique/internal/service"
)

// maxImageSize bounds a single uploaded image.
const maxImageSize = 5 << 20

// ProductHandler handles all product-related admin routes
type ProductHandler struct {
	catalog service.CatalogService
}

// NewProductHandler creates a new product handler
func NewProductHandler(catalog service.CatalogService) *ProductHandler {
	return &ProductHandler{catalog: catalog}
}

// List handles GET /admin/products?category=&q=
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	var categoryID *int64
	if raw := r.URL.Query().Get("category"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id < 1 {
			handler.BadRequestResponse(w, r, "Invalid category filter")
			return
		}
		categoryID = &id
	}

	products, err := h.catalog.ListAdminProducts(r.Context(), categoryID, r.URL.Query().Get("q"))
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	handler.JSON(w, http.StatusOK, map[string]any{
		"products": handler.NewProductViews(products, h.catalog.ImageURL),
	})
}

// Detail handles GET /admin/products/{id}
func (h *ProductHandler) Detail(w http.ResponseWriter, r *http.Request) {
	id, err := handler.PathID(r, "id")
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	p, err := h.catalog.GetProduct(r.Context(), id)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.JSON(w, http.StatusOK, handler.NewProductView(p, h.catalog.ImageURL))
}

// Create handles POST /admin/products
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in service.ProductInput
	if err := handler.DecodeJSON(r, &in); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	p, err := h.catalog.CreateProduct(r.Context(), in)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.JSON(w, http.StatusCreated, handler.NewProductView(p, h.catalog.ImageURL))
}

// Update handles PUT /admin/products/{id}
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := handler.PathID(r, "id")
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	var in service.ProductInput
	if err := handler.DecodeJSON(r, &in); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	p, err := h.catalog.UpdateProduct(r.Context(), id, in)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.JSON(w, http.StatusOK, handler.NewProductView(p, h.catalog.ImageURL))
}

// Delete handles DELETE /admin/products/{id}
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := handler.PathID(r, "id")
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	if err := h.catalog.DeleteProduct(r.Context(), id); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UploadImage handles POST /admin/products/{id}/image. The multipart field
// is "image"; its content type is sniffed rather than trusted.
func (h *ProductHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	id, err := handler.PathID(r, "id")
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	if err := r.ParseMultipartForm(maxImageSize); err != nil {
		handler.ErrorResponse(w, r, domain.Errorf(domain.EINVALID, "", "Invalid form data"))
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		handler.ValidationErrorResponse(w, r, domain.NewValidationError("admin.upload_image", "image", "No image file provided"))
		return
	}
	defer file.Close()

	if header.Size > maxImageSize {
		handler.ValidationErrorResponse(w, r, domain.NewValidationError("admin.upload_image", "image", "Image must be smaller than 5MB"))
		return
	}

	buf := make([]byte, 512)
	n, _ := io.ReadFull(file, buf)
	contentType := http.DetectContentType(buf[:n])
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		handler.InternalErrorResponse(w, r, err)
		return
	}

	p, err := h.catalog.SetProductImage(r.Context(), id, header.Filename, contentType, file)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	middleware.GetLogger(r.Context()).Info("product image uploaded",
		"product_id", id,
		"size", header.Size,
		"content_type", strings.Split(contentType, ";")[0],
	)
	handler.JSON(w, http.StatusOK, handler.NewProductView(p, h.catalog.ImageURL))
}
