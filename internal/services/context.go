package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/natteepao-collab/jwherbal-roots-and-remedies-sub000/internal/models"
)

// Per-source bounds keep the assembled prompt size predictable.
const (
	contextProductLimit  = 10
	contextArticleLimit  = 5
	contextFAQLimit      = 10
	contextFeaturedLimit = 3
)

type catalogSource interface {
	TopProducts(ctx context.Context, limit int) ([]models.Product, error)
	RecentArticles(ctx context.Context, limit int) ([]models.Article, error)
	FAQs(ctx context.Context, limit int) ([]models.FAQ, error)
	Contacts(ctx context.Context) ([]models.Contact, error)
	Featured(ctx context.Context, limit int) ([]models.FeaturedItem, error)
}

// ContextService assembles the storefront snapshot injected into the system
// instruction of every chat turn. Assembled blocks are cached in Redis per
// language so chat volume does not hammer the catalog tables.
type ContextService struct {
	catalog catalogSource
	redis   *redis.Client
	ttl     time.Duration
}

// NewContextService creates the service. redisClient may be nil, in which
// case every call assembles live.
func NewContextService(catalog catalogSource, redisClient *redis.Client, ttl time.Duration) *ContextService {
	return &ContextService{catalog: catalog, redis: redisClient, ttl: ttl}
}

// Assemble returns the context block for lang. Every source fetch is
// independent: a failed or empty source yields an empty section and the
// block degrades gracefully instead of blocking the chat turn.
func (s *ContextService) Assemble(ctx context.Context, lang models.Language) string {
	cacheKey := "chatctx:" + string(lang)

	if s.redis != nil {
		if cached, err := s.redis.Get(ctx, cacheKey).Result(); err == nil && cached != "" {
			return cached
		}
	}

	products, err := s.catalog.TopProducts(ctx, contextProductLimit)
	if err != nil {
		log.Printf("WARN: context products fetch failed: %v", err)
	}
	articles, err := s.catalog.RecentArticles(ctx, contextArticleLimit)
	if err != nil {
		log.Printf("WARN: context articles fetch failed: %v", err)
	}
	faqs, err := s.catalog.FAQs(ctx, contextFAQLimit)
	if err != nil {
		log.Printf("WARN: context faqs fetch failed: %v", err)
	}
	contacts, err := s.catalog.Contacts(ctx)
	if err != nil {
		log.Printf("WARN: context contacts fetch failed: %v", err)
	}
	featured, err := s.catalog.Featured(ctx, contextFeaturedLimit)
	if err != nil {
		log.Printf("WARN: context featured fetch failed: %v", err)
	}

	block := buildContext(lang, products, articles, faqs, contacts, featured)

	if s.redis != nil && block != "" {
		if err := s.redis.Set(ctx, cacheKey, block, s.ttl).Err(); err != nil {
			log.Printf("WARN: context cache write failed: %v", err)
		}
	}
	return block
}

// buildContext is the pure formatting step: already-fetched storefront data
// in, one bounded text block out.
func buildContext(
	lang models.Language,
	products []models.Product,
	articles []models.Article,
	faqs []models.FAQ,
	contacts []models.Contact,
	featured []models.FeaturedItem,
) string {
	var b strings.Builder

	if len(products) > 0 {
		b.WriteString("AVAILABLE PRODUCTS:\n")
		for _, p := range products {
			fmt.Fprintf(&b, "- %s (%.0f THB): %s\n", p.Name.In(lang), p.PriceTHB, p.Description.In(lang))
		}
		b.WriteString("\n")
	}

	if len(featured) > 0 {
		b.WriteString("CURRENTLY FEATURED:\n")
		for _, f := range featured {
			fmt.Fprintf(&b, "- %s: %s\n", f.Headline.In(lang), f.Body.In(lang))
		}
		b.WriteString("\n")
	}

	if len(articles) > 0 {
		b.WriteString("RECENT ARTICLES:\n")
		for _, a := range articles {
			fmt.Fprintf(&b, "- %s: %s\n", a.Title.In(lang), a.Excerpt.In(lang))
		}
		b.WriteString("\n")
	}

	if len(faqs) > 0 {
		b.WriteString("FAQ:\n")
		for _, f := range faqs {
			fmt.Fprintf(&b, "Q: %s\nA: %s\n", f.Question.In(lang), f.Answer.In(lang))
		}
		b.WriteString("\n")
	}

	if len(contacts) > 0 {
		b.WriteString("CONTACT:\n")
		for _, c := range contacts {
			fmt.Fprintf(&b, "- %s: %s\n", c.Label.In(lang), c.Value)
		}
	}

	return strings.TrimRight(b.String(), "\n")
}

// SystemPrompt builds the single system instruction sent upstream ahead of
// the message history.
func SystemPrompt(lang models.Language, contextBlock string) string {
	var langName string
	switch lang {
	case models.LanguageThai:
		langName = "Thai"
	case models.LanguageChinese:
		langName = "Chinese"
	default:
		langName = "English"
	}

	var b strings.Builder
	b.WriteString("You are the shopping assistant for Roots & Remedies, a Thai herbal remedy store. ")
	b.WriteString("Answer customer questions about products, remedies, ordering and the shop itself. ")
	fmt.Fprintf(&b, "Reply in %s. Be warm and concise. ", langName)
	b.WriteString("If a question is outside the store's scope, say so politely.")
	if contextBlock != "" {
		b.WriteString("\n\nStore information you can rely on:\n\n")
		b.WriteString(contextBlock)
	}
	return b.String()
}
