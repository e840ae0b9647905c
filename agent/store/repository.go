package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/uptrace/bun"
)

var (
	ErrNotFound       = errors.New("record not found")
	ErrNilInteraction = errors.New("interaction is nil")
	ErrEmptyHCPName   = errors.New("hcp name is empty")
)

// identityConflict must match the unique index created by the init migration.
const identityConflict = "CONFLICT (name, (COALESCE(specialty, ''))) DO NOTHING"

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Repository persists HCP profiles and interactions with bun.
type Repository struct {
	db *bun.DB
}

func NewRepository(db *bun.DB) *Repository {
	return &Repository{db: db}
}

// LogInteraction resolves the HCP identified by (name, specialty), creating it
// when absent, and inserts it bound to that profile. Both writes share one
// transaction.
func (r *Repository) LogInteraction(
	ctx context.Context,
	hcpName string,
	specialty *string,
	it *Interaction,
) (*HCPProfile, error) {
	if it == nil {
		return nil, ErrNilInteraction
	}
	name := strings.TrimSpace(hcpName)
	if name == "" {
		return nil, ErrEmptyHCPName
	}

	var hcp *HCPProfile
	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		found, err := findOrCreateHCP(ctx, tx, name, specialty)
		if err != nil {
			return err
		}

		it.HCPID = found.ID
		if _, err := tx.NewInsert().Model(it).Returning("id").Exec(ctx); err != nil {
			return fmt.Errorf("insert interaction: %w", err)
		}
		hcp = found
		return nil
	})
	if err != nil {
		return nil, err
	}

	it.HCP = hcp
	return hcp, nil
}

func findOrCreateHCP(ctx context.Context, db bun.IDB, name string, specialty *string) (*HCPProfile, error) {
	hcp, err := findHCPByIdentity(ctx, db, name, specialty)
	if err == nil {
		return hcp, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	created := &HCPProfile{Name: name, Specialty: specialty}
	_, err = db.NewInsert().
		Model(created).
		On(identityConflict).
		Returning("id").
		Exec(ctx)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("insert hcp profile: %w", err)
	}
	if created.ID != 0 {
		return created, nil
	}

	// Lost the race to a concurrent creator; use the row it committed.
	return findHCPByIdentity(ctx, db, name, specialty)
}

func findHCPByIdentity(ctx context.Context, db bun.IDB, name string, specialty *string) (*HCPProfile, error) {
	hcp := new(HCPProfile)
	q := db.NewSelect().Model(hcp).Where("h.name = ?", name)
	if specialty == nil {
		q = q.Where("h.specialty IS NULL")
	} else {
		q = q.Where("h.specialty = ?", *specialty)
	}

	if err := q.OrderExpr("h.id ASC").Limit(1).Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select hcp profile: %w", err)
	}
	return hcp, nil
}

// GetInteraction loads an interaction together with its HCP profile.
func (r *Repository) GetInteraction(ctx context.Context, id int64) (*Interaction, error) {
	it := new(Interaction)
	err := r.db.NewSelect().
		Model(it).
		Relation("HCP").
		Where("i.id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: interaction id=%d", ErrNotFound, id)
		}
		return nil, fmt.Errorf("select interaction: %w", err)
	}
	return it, nil
}

// ListInteractions returns every interaction, newest first.
func (r *Repository) ListInteractions(ctx context.Context) ([]Interaction, error) {
	var items []Interaction
	err := r.db.NewSelect().
		Model(&items).
		Relation("HCP").
		OrderExpr("i.interaction_date DESC").
		OrderExpr("i.id DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list interactions: %w", err)
	}
	return items, nil
}

// UpdateInteraction writes the named columns of it in a single statement.
func (r *Repository) UpdateInteraction(ctx context.Context, it *Interaction, columns ...string) error {
	if it == nil {
		return ErrNilInteraction
	}
	if len(columns) == 0 {
		return nil
	}

	res, err := r.db.NewUpdate().
		Model(it).
		Column(columns...).
		WherePK().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("update interaction: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: interaction id=%d", ErrNotFound, it.ID)
	}
	return nil
}

func (r *Repository) GetHCP(ctx context.Context, id int64) (*HCPProfile, error) {
	hcp := new(HCPProfile)
	if err := r.db.NewSelect().Model(hcp).Where("h.id = ?", id).Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: hcp id=%d", ErrNotFound, id)
		}
		return nil, fmt.Errorf("select hcp profile: %w", err)
	}
	return hcp, nil
}

// FindHCPByName returns the first profile whose name contains name, ignoring case.
func (r *Repository) FindHCPByName(ctx context.Context, name string) (*HCPProfile, error) {
	pattern := "%" + likeEscaper.Replace(name) + "%"

	hcp := new(HCPProfile)
	err := r.db.NewSelect().
		Model(hcp).
		Where("h.name ILIKE ?", pattern).
		OrderExpr("h.id ASC").
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: hcp name=%q", ErrNotFound, name)
		}
		return nil, fmt.Errorf("select hcp profile: %w", err)
	}
	return hcp, nil
}

// RecentInteractions returns at most limit interactions for an HCP, newest first.
func (r *Repository) RecentInteractions(ctx context.Context, hcpID int64, limit int) ([]Interaction, error) {
	if limit <= 0 {
		return nil, nil
	}

	var items []Interaction
	err := r.db.NewSelect().
		Model(&items).
		Where("i.hcp_id = ?", hcpID).
		OrderExpr("i.interaction_date DESC").
		OrderExpr("i.id DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("select recent interactions: %w", err)
	}
	return items, nil
}
