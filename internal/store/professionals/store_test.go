package professionals

import (
	"context"
	"database/sql/driver"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"estate-workers/internal/models"
	"estate-workers/internal/ranking"
)

var allRoles = []models.Role{models.RoleAgent, models.RoleAgency}

const baseCountQuery = "SELECT COUNT(*) FROM users u WHERE u.role = ANY($1) AND " +
	"EXISTS (SELECT 1 FROM properties p WHERE p.owner_id = u.id AND p.status = 'ACTIVE')"

var professionalColumns = []string{
	"id", "name", "company_name", "role", "location", "bio", "image", "created_at",
	"phone", "whatsapp", "email", "contact_email", "property_count",
}

func setupMockDB(t *testing.T) (*Store, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewStore(db), mock
}

func TestStore_Count(t *testing.T) {
	tests := []struct {
		name     string
		filter   ranking.Filter
		query    string
		args     []driver.Value
		expected int
	}{
		{
			name:     "all professional roles",
			filter:   ranking.Filter{Roles: allRoles},
			query:    baseCountQuery,
			args:     []driver.Value{pq.Array([]string{"AGENT", "AGENCY"})},
			expected: 42,
		},
		{
			name:   "single role with search",
			filter: ranking.Filter{Roles: []models.Role{models.RoleAgency}, Search: "Costa"},
			query: baseCountQuery + " AND (u.name ILIKE $2 OR u.company_name ILIKE $2 " +
				"OR u.location ILIKE $2 OR u.bio ILIKE $2)",
			args:     []driver.Value{pq.Array([]string{"AGENCY"}), "%Costa%"},
			expected: 3,
		},
		{
			name:   "search wildcards are escaped",
			filter: ranking.Filter{Roles: allRoles, Search: `50%_off\`},
			query: baseCountQuery + " AND (u.name ILIKE $2 OR u.company_name ILIKE $2 " +
				"OR u.location ILIKE $2 OR u.bio ILIKE $2)",
			args:     []driver.Value{pq.Array([]string{"AGENT", "AGENCY"}), `%50\%\_off\\%`},
			expected: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, mock := setupMockDB(t)

			mock.ExpectQuery("^" + regexp.QuoteMeta(tt.query) + "$").
				WithArgs(tt.args...).
				WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(tt.expected))

			count, err := store.Count(context.Background(), tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, count)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestStore_Count_Error(t *testing.T) {
	store, mock := setupMockDB(t)
	dbErr := errors.New("connection reset by peer")

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM users u")).WillReturnError(dbErr)

	_, err := store.Count(context.Background(), ranking.Filter{Roles: allRoles})
	assert.ErrorIs(t, err, dbErr)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_Find_Anonymous(t *testing.T) {
	store, mock := setupMockDB(t)
	since := time.Date(2026, 10, 5, 12, 0, 0, 0, time.UTC)
	created := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("NULL::text, NULL::text, NULL::text, NULL::text") + ".+" +
		regexp.QuoteMeta("ORDER BY property_count DESC, u.id ASC") + "$").
		WithArgs(pq.Array([]string{"AGENT", "AGENCY"})).
		WillReturnRows(sqlmock.NewRows(professionalColumns).
			AddRow("u1", "Ana Sousa", "", "AGENT", "Lisbon", "Seaside homes", "", created, nil, nil, nil, nil, 4).
			AddRow("u2", "Casa Porto", "Casa Porto Lda", "AGENCY", "Porto", "", "logo.png", created, nil, nil, nil, nil, 2))

	mock.ExpectQuery(regexp.QuoteMeta(recentViewsQuery)).
		WithArgs(pq.Array([]string{"u1", "u2"}), since).
		WillReturnRows(sqlmock.NewRows([]string{"owner_id", "id", "count"}).
			AddRow("u1", "prop-1", 5).
			AddRow("u1", "prop-2", 3))

	candidates, err := store.Find(context.Background(), ranking.FindQuery{
		Filter:     ranking.Filter{Roles: allRoles},
		Order:      ranking.Order{Field: ranking.OrderByListingCount, Descending: true},
		ViewsSince: since,
	})
	require.NoError(t, err)
	require.Len(t, candidates, 2)

	assert.Equal(t, "u1", candidates[0].ID)
	assert.Equal(t, models.RoleAgent, candidates[0].Role)
	assert.Equal(t, 4, candidates[0].PropertyCount)
	assert.Nil(t, candidates[0].Contact)
	assert.Equal(t, []ranking.ListingActivity{
		{ListingID: "prop-1", Views: 5},
		{ListingID: "prop-2", Views: 3},
	}, candidates[0].Listings)

	assert.Equal(t, "Casa Porto Lda", candidates[1].CompanyName)
	assert.Equal(t, models.RoleAgency, candidates[1].Role)
	assert.Empty(t, candidates[1].Listings)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_Find_AuthenticatedNewestWithLimit(t *testing.T) {
	store, mock := setupMockDB(t)
	since := time.Date(2026, 10, 5, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("u.phone, u.whatsapp, u.email, u.contact_email")+".+"+
		regexp.QuoteMeta("ORDER BY u.created_at DESC, u.id ASC LIMIT $2")+"$").
		WithArgs(pq.Array([]string{"AGENT"}), 9).
		WillReturnRows(sqlmock.NewRows(professionalColumns).
			AddRow("u1", "Ana Sousa", "", "AGENT", "", "", "", time.Now(), "+351900000000", "+351911111111", "ana@example.com", nil, 1))

	mock.ExpectQuery(regexp.QuoteMeta(recentViewsQuery)).
		WithArgs(pq.Array([]string{"u1"}), since).
		WillReturnRows(sqlmock.NewRows([]string{"owner_id", "id", "count"}))

	candidates, err := store.Find(context.Background(), ranking.FindQuery{
		Filter:         ranking.Filter{Roles: []models.Role{models.RoleAgent}},
		Order:          ranking.Order{Field: ranking.OrderByCreatedAt, Descending: true},
		Limit:          9,
		ViewsSince:     since,
		IncludeContact: true,
	})
	require.NoError(t, err)
	require.Len(t, candidates, 1)

	require.NotNil(t, candidates[0].Contact)
	assert.Equal(t, "+351900000000", candidates[0].Contact.Phone)
	assert.Equal(t, "+351911111111", candidates[0].Contact.WhatsApp)
	assert.Equal(t, "ana@example.com", candidates[0].Contact.Email)
	assert.Empty(t, candidates[0].Contact.ContactEmail)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_Find_EmptySkipsViewQuery(t *testing.T) {
	store, mock := setupMockDB(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM users u WHERE")).
		WillReturnRows(sqlmock.NewRows(professionalColumns))

	candidates, err := store.Find(context.Background(), ranking.FindQuery{Filter: ranking.Filter{Roles: allRoles}})
	require.NoError(t, err)
	assert.NotNil(t, candidates)
	assert.Empty(t, candidates)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_Find_Errors(t *testing.T) {
	dbErr := errors.New("canceling statement due to statement timeout")

	t.Run("candidate query", func(t *testing.T) {
		store, mock := setupMockDB(t)
		mock.ExpectQuery(regexp.QuoteMeta("FROM users u WHERE")).WillReturnError(dbErr)

		_, err := store.Find(context.Background(), ranking.FindQuery{Filter: ranking.Filter{Roles: allRoles}})
		assert.ErrorIs(t, err, dbErr)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("recent views query", func(t *testing.T) {
		store, mock := setupMockDB(t)
		mock.ExpectQuery(regexp.QuoteMeta("FROM users u WHERE")).
			WillReturnRows(sqlmock.NewRows(professionalColumns).
				AddRow("u1", "Ana", "", "AGENT", "", "", "", time.Now(), nil, nil, nil, nil, 1))
		mock.ExpectQuery(regexp.QuoteMeta(recentViewsQuery)).WillReturnError(dbErr)

		_, err := store.Find(context.Background(), ranking.FindQuery{Filter: ranking.Filter{Roles: allRoles}})
		assert.ErrorIs(t, err, dbErr)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestBuildFindQuery(t *testing.T) {
	query, args := buildFindQuery(ranking.FindQuery{
		Filter: ranking.Filter{Roles: allRoles, Search: "lisbon"},
		Order:  ranking.Order{Field: ranking.OrderByListingCount, Descending: true},
		Limit:  6,
	})

	assert.Contains(t, query, "u.name ILIKE $2 OR u.company_name ILIKE $2 OR u.location ILIKE $2 OR u.bio ILIKE $2")
	assert.Contains(t, query, "AS property_count")
	assert.Contains(t, query, "NULL::text")
	assert.Contains(t, query, "LIMIT $3")
	require.Len(t, args, 3)
	assert.Equal(t, "%lisbon%", args[1])
	assert.Equal(t, 6, args[2])
}
