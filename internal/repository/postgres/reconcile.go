package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/ignite/publisher-inbox/internal/domain"
	"github.com/ignite/publisher-inbox/internal/service/reconcile"
)

// ReconcileRepo implements reconcile.Repository against PostgreSQL. Every
// create targets a natural-key unique constraint with ON CONFLICT DO
// NOTHING so a concurrent duplicate insert degrades to a no-op.
type ReconcileRepo struct{ db *sql.DB }

// NewReconcileRepo creates a Postgres-backed reconciliation repository.
func NewReconcileRepo(db *sql.DB) *ReconcileRepo { return &ReconcileRepo{db: db} }

func (r *ReconcileRepo) FindWebsiteByDomain(ctx context.Context, dom string) (*domain.Website, error) {
	w := &domain.Website{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, domain, COALESCE(status,''), COALESCE(source,''), created_at, updated_at
		FROM websites
		WHERE domain = $1
	`, dom).Scan(&w.ID, &w.Domain, &w.Status, &w.Source, &w.CreatedAt, &w.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, reconcile.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find website: %w", err)
	}
	return w, nil
}

func (r *ReconcileRepo) CreateWebsite(ctx context.Context, w *domain.Website) (string, error) {
	if w.ID == "" {
		w.ID = uuid.New().String()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO websites (id, domain, status, source, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		ON CONFLICT (domain) DO NOTHING
	`, w.ID, w.Domain, w.Status, w.Source)
	if err != nil {
		return "", fmt.Errorf("create website: %w", err)
	}

	// A conflict means another writer got there first; resolve to the row
	// that actually owns the domain.
	var id string
	if err := r.db.QueryRowContext(ctx,
		`SELECT id FROM websites WHERE domain = $1`, w.Domain).Scan(&id); err != nil {
		return "", fmt.Errorf("resolve website id: %w", err)
	}
	return id, nil
}

func (r *ReconcileRepo) HasPublisherWebsite(ctx context.Context, publisherID, websiteID string) (bool, error) {
	return r.exists(ctx, `
		SELECT 1 FROM publisher_websites WHERE publisher_id = $1 AND website_id = $2
	`, publisherID, websiteID)
}

func (r *ReconcileRepo) CreatePublisherWebsite(ctx context.Context, l *domain.PublisherWebsite) error {
	if l.ID == "" {
		l.ID = uuid.New().String()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO publisher_websites (id, publisher_id, website_id, relationship, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (publisher_id, website_id) DO NOTHING
	`, l.ID, l.PublisherID, l.WebsiteID, l.Relationship)
	if err != nil {
		return fmt.Errorf("create publisher website: %w", err)
	}
	return nil
}

func (r *ReconcileRepo) HasShadowPublisherWebsite(ctx context.Context, publisherID, websiteID string) (bool, error) {
	return r.exists(ctx, `
		SELECT 1 FROM shadow_publisher_websites WHERE publisher_id = $1 AND website_id = $2
	`, publisherID, websiteID)
}

func (r *ReconcileRepo) CreateShadowPublisherWebsite(ctx context.Context, l *domain.ShadowPublisherWebsite) error {
	if l.ID == "" {
		l.ID = uuid.New().String()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO shadow_publisher_websites
			(id, publisher_id, website_id, confidence, extraction_method, verified, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (publisher_id, website_id) DO NOTHING
	`, l.ID, l.PublisherID, l.WebsiteID, l.Confidence, l.ExtractionMethod, l.Verified)
	if err != nil {
		return fmt.Errorf("create shadow publisher website: %w", err)
	}
	return nil
}

func (r *ReconcileRepo) FindOffering(ctx context.Context, publisherID string, offeringType domain.OfferingType, offeringName string) (*domain.Offering, error) {
	q := `
		SELECT id, publisher_id, offering_type, COALESCE(offering_name,''),
		       base_price, COALESCE(currency,''), turnaround_days, availability,
		       express_available, express_price, express_days,
		       min_word_count, max_word_count, niches, languages,
		       COALESCE(attributes,'{}'), is_active, created_at, updated_at
		FROM publisher_offerings
		WHERE publisher_id = $1 AND offering_type = $2`
	args := []interface{}{publisherID, offeringType}
	if offeringName != "" {
		q += ` AND offering_name = $3`
		args = append(args, offeringName)
	}
	q += ` ORDER BY created_at ASC LIMIT 1`

	o := &domain.Offering{}
	var attrs []byte
	err := r.db.QueryRowContext(ctx, q, args...).Scan(
		&o.ID, &o.PublisherID, &o.OfferingType, &o.OfferingName,
		&o.BasePrice, &o.Currency, &o.TurnaroundDays, &o.Availability,
		&o.ExpressAvailable, &o.ExpressPrice, &o.ExpressDays,
		&o.MinWordCount, &o.MaxWordCount, pq.Array(&o.Niches), pq.Array(&o.Languages),
		&attrs, &o.IsActive, &o.CreatedAt, &o.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, reconcile.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find offering: %w", err)
	}
	if len(attrs) > 0 {
		if err := json.Unmarshal(attrs, &o.Attributes); err != nil {
			return nil, fmt.Errorf("decode offering attributes: %w", err)
		}
	}
	return o, nil
}

func (r *ReconcileRepo) CreateOffering(ctx context.Context, o *domain.Offering) (string, error) {
	if o.ID == "" {
		o.ID = uuid.New().String()
	}
	attrs, err := json.Marshal(o.Attributes)
	if err != nil {
		return "", fmt.Errorf("encode offering attributes: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO publisher_offerings
			(id, publisher_id, offering_type, offering_name, base_price, currency,
			 turnaround_days, availability, express_available, express_price,
			 express_days, min_word_count, max_word_count, niches, languages,
			 attributes, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, NOW(), NOW())
		ON CONFLICT (publisher_id, offering_type, offering_name) DO NOTHING
	`, o.ID, o.PublisherID, o.OfferingType, o.OfferingName, o.BasePrice, o.Currency,
		o.TurnaroundDays, o.Availability, o.ExpressAvailable, o.ExpressPrice,
		o.ExpressDays, o.MinWordCount, o.MaxWordCount, pq.Array(o.Niches),
		pq.Array(o.Languages), attrs, o.IsActive)
	if err != nil {
		return "", fmt.Errorf("create offering: %w", err)
	}

	// On conflict the insert is a no-op; resolve to the row that owns the
	// natural key so the caller never links rules or websites to a phantom id.
	var id string
	err = r.db.QueryRowContext(ctx, `
		SELECT id FROM publisher_offerings
		WHERE publisher_id = $1 AND offering_type = $2 AND offering_name = $3
	`, o.PublisherID, o.OfferingType, o.OfferingName).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("resolve offering id: %w", err)
	}
	return id, nil
}

func (r *ReconcileRepo) UpdateOfferingFields(ctx context.Context, id string, u reconcile.OfferingUpdate) error {
	sets := []string{}
	args := []interface{}{}
	idx := 1
	add := func(col string, val interface{}) {
		sets = append(sets, fmt.Sprintf("%s = $%d", col, idx))
		args = append(args, val)
		idx++
	}

	if u.BasePrice != nil {
		add("base_price", *u.BasePrice)
	}
	if u.Currency != nil {
		add("currency", *u.Currency)
	}
	if u.TurnaroundDays != nil {
		add("turnaround_days", *u.TurnaroundDays)
	}
	if u.MinWordCount != nil {
		add("min_word_count", *u.MinWordCount)
	}
	if u.MaxWordCount != nil {
		add("max_word_count", *u.MaxWordCount)
	}
	if u.Niches != nil {
		add("niches", pq.Array(u.Niches))
	}
	if u.Attributes != nil {
		attrs, err := json.Marshal(u.Attributes)
		if err != nil {
			return fmt.Errorf("encode attributes: %w", err)
		}
		add("attributes", attrs)
	}

	if len(sets) == 0 {
		return nil
	}

	sets = append(sets, "updated_at = NOW()")
	q := fmt.Sprintf("UPDATE publisher_offerings SET %s WHERE id = $%d", joinComma(sets), idx)
	args = append(args, id)

	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("update offering: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return reconcile.ErrNotFound
	}
	return nil
}

func (r *ReconcileRepo) HasOfferingWebsite(ctx context.Context, offeringID, websiteID string) (bool, error) {
	return r.exists(ctx, `
		SELECT 1 FROM offering_websites WHERE offering_id = $1 AND website_id = $2
	`, offeringID, websiteID)
}

func (r *ReconcileRepo) CreateOfferingWebsite(ctx context.Context, rel *domain.OfferingWebsite) error {
	if rel.ID == "" {
		rel.ID = uuid.New().String()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO offering_websites (id, offering_id, website_id, is_primary, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (offering_id, website_id) DO NOTHING
	`, rel.ID, rel.OfferingID, rel.WebsiteID, rel.IsPrimary, rel.IsActive)
	if err != nil {
		return fmt.Errorf("create offering website: %w", err)
	}
	return nil
}

func (r *ReconcileRepo) HasPricingRule(ctx context.Context, offeringID string, ruleType domain.PricingRuleType, ruleName string) (bool, error) {
	return r.exists(ctx, `
		SELECT 1 FROM pricing_rules WHERE offering_id = $1 AND rule_type = $2 AND rule_name = $3
	`, offeringID, ruleType, ruleName)
}

func (r *ReconcileRepo) CreatePricingRule(ctx context.Context, rule *domain.PricingRule) error {
	if rule.ID == "" {
		rule.ID = uuid.New().String()
	}
	conditions, err := json.Marshal(rule.Conditions)
	if err != nil {
		return fmt.Errorf("encode rule conditions: %w", err)
	}
	actions, err := json.Marshal(rule.Actions)
	if err != nil {
		return fmt.Errorf("encode rule actions: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO pricing_rules
			(id, offering_id, rule_type, rule_name, description, conditions,
			 actions, priority, is_cumulative, auto_apply, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW())
		ON CONFLICT (offering_id, rule_type, rule_name) DO NOTHING
	`, rule.ID, rule.OfferingID, rule.RuleType, rule.RuleName, rule.Description,
		conditions, actions, rule.Priority, rule.IsCumulative, rule.AutoApply, rule.IsActive)
	if err != nil {
		return fmt.Errorf("create pricing rule: %w", err)
	}
	return nil
}

func joinComma(parts []string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += ", "
		}
		out += p
	}
	return out
}

func (r *ReconcileRepo) exists(ctx context.Context, q string, args ...interface{}) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, q, args...).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("existence check: %w", err)
	}
	return true, nil
}
