package handler

import (
	"time"

	"github.com/dukerupert/boutique/internal/domain"
)

// ImageURLFunc derives a public URL from a stored image key.
type ImageURLFunc func(key string) string

type CategoryView struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

func NewCategoryView(c domain.Category) CategoryView {
	return CategoryView{ID: c.ID, Name: c.Name, Slug: c.Slug}
}

func NewCategoryViews(categories []domain.Category) []CategoryView {
	out := make([]CategoryView, 0, len(categories))
	for _, c := range categories {
		out = append(out, NewCategoryView(c))
	}
	return out
}

type VariantView struct {
	ID        int64  `json:"id"`
	Size      string `json:"size"`
	Stock     int    `json:"stock"`
	Available bool   `json:"available"`
}

func NewVariantView(v domain.ProductVariant) VariantView {
	return VariantView{ID: v.ID, Size: v.Size, Stock: v.Stock, Available: v.Stock > 0}
}

type ProductView struct {
	ID          int64         `json:"id"`
	CategoryID  *int64        `json:"category_id"`
	Name        string        `json:"name"`
	Slug        string        `json:"slug"`
	Description string        `json:"description"`
	Price       string        `json:"price"`
	ImageURL    string        `json:"image_url,omitempty"`
	IsActive    bool          `json:"is_active"`
	TotalStock  int           `json:"total_stock"`
	IsAvailable bool          `json:"is_available"`
	Variants    []VariantView `json:"variants,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
}

// NewProductView renders p. Variants are included only when loaded.
func NewProductView(p *domain.Product, imageURL ImageURLFunc) ProductView {
	v := ProductView{
		ID:          p.ID,
		CategoryID:  p.CategoryID,
		Name:        p.Name,
		Slug:        p.Slug,
		Description: p.Description,
		Price:       Money(p.Price),
		IsActive:    p.IsActive,
		TotalStock:  p.TotalStock,
		IsAvailable: p.IsAvailable(),
		CreatedAt:   p.CreatedAt,
	}
	if imageURL != nil && p.ImageKey != "" {
		v.ImageURL = imageURL(p.ImageKey)
	}
	for _, variant := range p.Variants {
		v.Variants = append(v.Variants, NewVariantView(variant))
	}
	return v
}

func NewProductViews(products []domain.Product, imageURL ImageURLFunc) []ProductView {
	out := make([]ProductView, 0, len(products))
	for i := range products {
		out = append(out, NewProductView(&products[i], imageURL))
	}
	return out
}

type OrderItemView struct {
	ProductID   *int64 `json:"product_id"`
	VariantID   *int64 `json:"variant_id"`
	ProductName string `json:"product_name"`
	Size        string `json:"size"`
	Color       string `json:"color,omitempty"`
	Quantity    int    `json:"quantity"`
	Price       string `json:"price"`
	LineTotal   string `json:"line_total"`
}

type OrderView struct {
	ID            int64           `json:"id"`
	UserID        *int64          `json:"user_id"`
	Status        string          `json:"status"`
	FullName      string          `json:"full_name"`
	Email         string          `json:"email"`
	Phone         string          `json:"phone"`
	Address       string          `json:"address"`
	City          string          `json:"city"`
	PostalCode    string          `json:"postal_code"`
	Country       string          `json:"country"`
	Subtotal      string          `json:"subtotal"`
	ShippingCost  string          `json:"shipping_cost"`
	Tax           string          `json:"tax"`
	Total         string          `json:"total"`
	PaymentMethod string          `json:"payment_method"`
	PaymentID     string          `json:"payment_id,omitempty"`
	Items         []OrderItemView `json:"items,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

func NewOrderView(o *domain.Order) OrderView {
	v := OrderView{
		ID:            o.ID,
		UserID:        o.UserID,
		Status:        string(o.Status),
		FullName:      o.FullName,
		Email:         o.Email,
		Phone:         o.Phone,
		Address:       o.Address,
		City:          o.City,
		PostalCode:    o.PostalCode,
		Country:       o.Country,
		Subtotal:      Money(o.TotalPrice),
		ShippingCost:  Money(o.ShippingCost),
		Tax:           Money(o.Tax),
		Total:         Money(o.Total()),
		PaymentMethod: o.PaymentMethod,
		PaymentID:     o.PaymentID,
		CreatedAt:     o.CreatedAt,
	}
	for _, item := range o.Items {
		v.Items = append(v.Items, OrderItemView{
			ProductID:   item.ProductID,
			VariantID:   item.VariantID,
			ProductName: item.ProductName,
			Size:        item.Size,
			Color:       item.Color,
			Quantity:    item.Quantity,
			Price:       Money(item.Price),
			LineTotal:   Money(item.LineTotal()),
		})
	}
	return v
}

type UserView struct {
	ID       int64  `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	IsStaff  bool   `json:"is_staff"`
}

func NewUserView(u *domain.User) UserView {
	return UserView{ID: u.ID, Email: u.Email, FullName: u.FullName, IsStaff: u.IsStaff}
}
