package models

import (
	"time"

	"github.com/google/uuid"
)

// Product is one herbal remedy in the storefront catalog.
type Product struct {
	ID          uuid.UUID     `json:"id"`
	Name        LocalizedText `json:"name"`
	Description LocalizedText `json:"description"`
	PriceTHB    float64       `json:"price_thb"`
	InStock     bool          `json:"in_stock"`
	CreatedAt   time.Time     `json:"created_at"`
}

// Article is a published storefront article (remedy guides, usage notes).
type Article struct {
	ID          uuid.UUID     `json:"id"`
	Title       LocalizedText `json:"title"`
	Excerpt     LocalizedText `json:"excerpt"`
	PublishedAt time.Time     `json:"published_at"`
}

// FAQ is one frequently-asked question entry.
type FAQ struct {
	ID       uuid.UUID     `json:"id"`
	Question LocalizedText `json:"question"`
	Answer   LocalizedText `json:"answer"`
}

// Contact holds the shop's contact details shown to customers.
type Contact struct {
	ID      uuid.UUID     `json:"id"`
	Label   LocalizedText `json:"label"`
	Value   string        `json:"value"`
	Channel string        `json:"channel"` // "phone" | "email" | "line" | "address"
}

// FeaturedItem is one entry of the currently promoted content set.
type FeaturedItem struct {
	ID       uuid.UUID     `json:"id"`
	Headline LocalizedText `json:"headline"`
	Body     LocalizedText `json:"body"`
	StartsAt time.Time     `json:"starts_at"`
	EndsAt   *time.Time    `json:"ends_at"`
}
