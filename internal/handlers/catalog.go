package handlers

import (
	"context"
	"log"
	"net/http"
	"strconv"

	"github.com/natteepao-collab/jwherbal-roots-and-remedies-sub000/internal/models"
)

const (
	defaultListLimit = 20
	maxListLimit     = 50
)

type catalogReader interface {
	TopProducts(ctx context.Context, limit int) ([]models.Product, error)
	RecentArticles(ctx context.Context, limit int) ([]models.Article, error)
	FAQs(ctx context.Context, limit int) ([]models.FAQ, error)
	Contacts(ctx context.Context) ([]models.Contact, error)
}

// CatalogHandler serves the bounded localized reads the storefront widget
// shows next to the chat.
type CatalogHandler struct {
	catalog catalogReader
}

func NewCatalogHandler(catalog catalogReader) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

type localizedProduct struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	PriceTHB    float64 `json:"price_thb"`
	InStock     bool    `json:"in_stock"`
}

func (h *CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	lang, ok := requestLanguage(w, r)
	if !ok {
		return
	}

	products, err := h.catalog.TopProducts(r.Context(), listLimit(r))
	if err != nil {
		log.Printf("ERROR: failed to list products: %v", err)
		writeChatError(w, http.StatusInternalServerError, "failed to load products")
		return
	}

	out := make([]localizedProduct, 0, len(products))
	for _, p := range products {
		out = append(out, localizedProduct{
			ID:          p.ID.String(),
			Name:        p.Name.In(lang),
			Description: p.Description.In(lang),
			PriceTHB:    p.PriceTHB,
			InStock:     p.InStock,
		})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"products": out})
}

type localizedArticle struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Excerpt     string `json:"excerpt"`
	PublishedAt string `json:"published_at"`
}

func (h *CatalogHandler) ListArticles(w http.ResponseWriter, r *http.Request) {
	lang, ok := requestLanguage(w, r)
	if !ok {
		return
	}

	articles, err := h.catalog.RecentArticles(r.Context(), listLimit(r))
	if err != nil {
		log.Printf("ERROR: failed to list articles: %v", err)
		writeChatError(w, http.StatusInternalServerError, "failed to load articles")
		return
	}

	out := make([]localizedArticle, 0, len(articles))
	for _, a := range articles {
		out = append(out, localizedArticle{
			ID:          a.ID.String(),
			Title:       a.Title.In(lang),
			Excerpt:     a.Excerpt.In(lang),
			PublishedAt: a.PublishedAt.Format("2006-01-02"),
		})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"articles": out})
}

type localizedFAQ struct {
	ID       string `json:"id"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

func (h *CatalogHandler) ListFAQs(w http.ResponseWriter, r *http.Request) {
	lang, ok := requestLanguage(w, r)
	if !ok {
		return
	}

	faqs, err := h.catalog.FAQs(r.Context(), listLimit(r))
	if err != nil {
		log.Printf("ERROR: failed to list faqs: %v", err)
		writeChatError(w, http.StatusInternalServerError, "failed to load faqs")
		return
	}

	out := make([]localizedFAQ, 0, len(faqs))
	for _, f := range faqs {
		out = append(out, localizedFAQ{
			ID:       f.ID.String(),
			Question: f.Question.In(lang),
			Answer:   f.Answer.In(lang),
		})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"faqs": out})
}

type localizedContact struct {
	Label   string `json:"label"`
	Value   string `json:"value"`
	Channel string `json:"channel"`
}

func (h *CatalogHandler) GetContact(w http.ResponseWriter, r *http.Request) {
	lang, ok := requestLanguage(w, r)
	if !ok {
		return
	}

	contacts, err := h.catalog.Contacts(r.Context())
	if err != nil {
		log.Printf("ERROR: failed to load contacts: %v", err)
		writeChatError(w, http.StatusInternalServerError, "failed to load contact details")
		return
	}

	out := make([]localizedContact, 0, len(contacts))
	for _, c := range contacts {
		out = append(out, localizedContact{
			Label:   c.Label.In(lang),
			Value:   c.Value,
			Channel: c.Channel,
		})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"contacts": out})
}

func requestLanguage(w http.ResponseWriter, r *http.Request) (models.Language, bool) {
	raw := r.URL.Query().Get("lang")
	if raw == "" {
		return models.LanguageEnglish, true
	}
	lang, err := models.ParseLanguage(raw)
	if err != nil {
		writeChatError(w, http.StatusBadRequest, "lang must be one of th, en, zh")
		return "", false
	}
	return lang, true
}

func listLimit(r *http.Request) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return defaultListLimit
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return defaultListLimit
	}
	if n > maxListLimit {
		return maxListLimit
	}
	return n
}
