// Package professionals reads agent and agency candidates from Postgres.
package professionals

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"estate-workers/internal/models"
	"estate-workers/internal/ranking"
)

// Store implements ranking.Store on top of database/sql.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Count(ctx context.Context, filter ranking.Filter) (int, error) {
	query, args := buildCountQuery(filter)

	var count int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count professionals: %w", err)
	}
	return count, nil
}

func (s *Store) Find(ctx context.Context, q ranking.FindQuery) ([]ranking.Candidate, error) {
	query, args := buildFindQuery(q)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("find professionals: %w", err)
	}
	defer rows.Close()

	candidates := []ranking.Candidate{}
	index := make(map[string]int)
	for rows.Next() {
		var (
			c                                    ranking.Candidate
			role                                 string
			phone, whatsapp, email, contactEmail sql.NullString
		)
		if err := rows.Scan(
			&c.ID, &c.Name, &c.CompanyName, &role,
			&c.Location, &c.Bio, &c.Image, &c.CreatedAt,
			&phone, &whatsapp, &email, &contactEmail,
			&c.PropertyCount,
		); err != nil {
			return nil, fmt.Errorf("scan professional: %w", err)
		}
		c.Role = models.Role(role)
		if q.IncludeContact {
			c.Contact = &models.ContactDetails{
				Phone:        phone.String,
				WhatsApp:     whatsapp.String,
				Email:        email.String,
				ContactEmail: contactEmail.String,
			}
		}
		index[c.ID] = len(candidates)
		candidates = append(candidates, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate professionals: %w", err)
	}

	if len(candidates) == 0 {
		return candidates, nil
	}
	if err := s.attachRecentViews(ctx, candidates, index, q); err != nil {
		return nil, err
	}
	return candidates, nil
}

// attachRecentViews loads per-listing view counts since q.ViewsSince for the
// fetched owners in one grouped query.
func (s *Store) attachRecentViews(ctx context.Context, candidates []ranking.Candidate, index map[string]int, q ranking.FindQuery) error {
	ownerIDs := make([]string, len(candidates))
	for i, c := range candidates {
		ownerIDs[i] = c.ID
	}

	rows, err := s.db.QueryContext(ctx, recentViewsQuery, pq.Array(ownerIDs), q.ViewsSince)
	if err != nil {
		return fmt.Errorf("load recent views: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var ownerID string
		var activity ranking.ListingActivity
		if err := rows.Scan(&ownerID, &activity.ListingID, &activity.Views); err != nil {
			return fmt.Errorf("scan recent views: %w", err)
		}
		if i, ok := index[ownerID]; ok {
			candidates[i].Listings = append(candidates[i].Listings, activity)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate recent views: %w", err)
	}
	return nil
}
