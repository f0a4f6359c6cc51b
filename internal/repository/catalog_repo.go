package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/natteepao-collab/jwherbal-roots-and-remedies-sub000/internal/models"
)

// CatalogRepo reads the storefront content the chat context is built from.
// Every query is bounded so prompt size stays predictable.
type CatalogRepo struct {
	pool *pgxpool.Pool
}

func NewCatalogRepo(pool *pgxpool.Pool) *CatalogRepo {
	return &CatalogRepo{pool: pool}
}

func (r *CatalogRepo) TopProducts(ctx context.Context, limit int) ([]models.Product, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name_th, name_en, name_zh, description_th, description_en, description_zh,
			price_thb, in_stock, created_at
		 FROM products WHERE in_stock = TRUE ORDER BY created_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []models.Product
	for rows.Next() {
		var p models.Product
		err := rows.Scan(&p.ID,
			&p.Name.TH, &p.Name.EN, &p.Name.ZH,
			&p.Description.TH, &p.Description.EN, &p.Description.ZH,
			&p.PriceTHB, &p.InStock, &p.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (r *CatalogRepo) RecentArticles(ctx context.Context, limit int) ([]models.Article, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, title_th, title_en, title_zh, excerpt_th, excerpt_en, excerpt_zh, published_at
		 FROM articles WHERE published_at <= NOW() ORDER BY published_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var articles []models.Article
	for rows.Next() {
		var a models.Article
		err := rows.Scan(&a.ID,
			&a.Title.TH, &a.Title.EN, &a.Title.ZH,
			&a.Excerpt.TH, &a.Excerpt.EN, &a.Excerpt.ZH,
			&a.PublishedAt,
		)
		if err != nil {
			return nil, err
		}
		articles = append(articles, a)
	}
	return articles, rows.Err()
}

func (r *CatalogRepo) FAQs(ctx context.Context, limit int) ([]models.FAQ, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, question_th, question_en, question_zh, answer_th, answer_en, answer_zh
		 FROM faqs ORDER BY sort_order ASC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var faqs []models.FAQ
	for rows.Next() {
		var f models.FAQ
		err := rows.Scan(&f.ID,
			&f.Question.TH, &f.Question.EN, &f.Question.ZH,
			&f.Answer.TH, &f.Answer.EN, &f.Answer.ZH,
		)
		if err != nil {
			return nil, err
		}
		faqs = append(faqs, f)
	}
	return faqs, rows.Err()
}

func (r *CatalogRepo) Contacts(ctx context.Context) ([]models.Contact, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, label_th, label_en, label_zh, value, channel FROM contacts ORDER BY channel ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var contacts []models.Contact
	for rows.Next() {
		var c models.Contact
		err := rows.Scan(&c.ID, &c.Label.TH, &c.Label.EN, &c.Label.ZH, &c.Value, &c.Channel)
		if err != nil {
			return nil, err
		}
		contacts = append(contacts, c)
	}
	return contacts, rows.Err()
}

// Featured returns the currently running promoted content set.
func (r *CatalogRepo) Featured(ctx context.Context, limit int) ([]models.FeaturedItem, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, headline_th, headline_en, headline_zh, body_th, body_en, body_zh, starts_at, ends_at
		 FROM featured_items
		 WHERE starts_at <= NOW() AND (ends_at IS NULL OR ends_at > NOW())
		 ORDER BY starts_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []models.FeaturedItem
	for rows.Next() {
		var f models.FeaturedItem
		err := rows.Scan(&f.ID,
			&f.Headline.TH, &f.Headline.EN, &f.Headline.ZH,
			&f.Body.TH, &f.Body.EN, &f.Body.ZH,
			&f.StartsAt, &f.EndsAt,
		)
		if err != nil {
			return nil, err
		}
		items = append(items, f)
	}
	return items, rows.Err()
}
