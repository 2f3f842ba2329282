package professionals

import (
	"fmt"
	"strings"

	"github.com/lib/pq"

	"estate-workers/internal/models"
	"estate-workers/internal/ranking"
)

const activeListingStatus = "ACTIVE"

// queryBuilder accumulates positional arguments for a single statement.
type queryBuilder struct {
	args []interface{}
}

func (b *queryBuilder) bind(v interface{}) string {
	b.args = append(b.args, v)
	return fmt.Sprintf("$%d", len(b.args))
}

// where renders the shared candidate predicate: role in set, at least one
// active listing, optional case-insensitive search over four text columns.
func (b *queryBuilder) where(f ranking.Filter) string {
	clauses := []string{
		"u.role = ANY(" + b.bind(pq.Array(roleStrings(f.Roles))) + ")",
		"EXISTS (SELECT 1 FROM properties p WHERE p.owner_id = u.id AND p.status = '" + activeListingStatus + "')",
	}

	if f.Search != "" {
		ph := b.bind("%" + escapeLike(f.Search) + "%")
		clauses = append(clauses, fmt.Sprintf(
			"(u.name ILIKE %[1]s OR u.company_name ILIKE %[1]s OR u.location ILIKE %[1]s OR u.bio ILIKE %[1]s)", ph))
	}

	return "WHERE " + strings.Join(clauses, " AND ")
}

func orderClause(o ranking.Order) string {
	dir := "ASC"
	if o.Descending {
		dir = "DESC"
	}
	switch o.Field {
	case ranking.OrderByCreatedAt:
		return "ORDER BY u.created_at " + dir + ", u.id ASC"
	default:
		return "ORDER BY property_count " + dir + ", u.id ASC"
	}
}

func contactColumns(include bool) string {
	if include {
		return "u.phone, u.whatsapp, u.email, u.contact_email"
	}
	return "NULL::text, NULL::text, NULL::text, NULL::text"
}

func buildCountQuery(f ranking.Filter) (string, []interface{}) {
	var b queryBuilder
	query := "SELECT COUNT(*) FROM users u " + b.where(f)
	return query, b.args
}

func buildFindQuery(q ranking.FindQuery) (string, []interface{}) {
	var b queryBuilder
	query := `SELECT u.id, u.name, COALESCE(u.company_name, ''), u.role,
		COALESCE(u.location, ''), COALESCE(u.bio, ''), COALESCE(u.image, ''), u.created_at, ` +
		contactColumns(q.IncludeContact) + `,
		(SELECT COUNT(*) FROM properties p WHERE p.owner_id = u.id AND p.status = '` + activeListingStatus + `') AS property_count
		FROM users u ` + b.where(q.Filter) + " " + orderClause(q.Order)

	if q.Limit > 0 {
		query += " LIMIT " + b.bind(q.Limit)
	}
	return query, b.args
}

const recentViewsQuery = `SELECT p.owner_id, p.id, COUNT(v.id)
	FROM properties p
	JOIN property_views v ON v.property_id = p.id
	WHERE p.owner_id = ANY($1) AND p.status = '` + activeListingStatus + `' AND v.viewed_at >= $2
	GROUP BY p.owner_id, p.id
	ORDER BY p.owner_id, p.id`

func roleStrings(roles []models.Role) []string {
	out := make([]string, len(roles))
	for i, r := range roles {
		out[i] = string(r)
	}
	return out
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes s match literally inside an ILIKE pattern.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
