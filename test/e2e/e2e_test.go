// test/e2e/e2e_test.go
package e2e

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"estate-workers/internal/common/config"
	"estate-workers/internal/common/database"
	"estate-workers/internal/common/logger"
	"estate-workers/internal/models"
	"estate-workers/internal/ranking"
	"estate-workers/internal/session"
	"estate-workers/internal/store/professionals"

	listprofessionals "estate-workers/internal/workers/professionals/list-professionals"
	listtopprofessionals "estate-workers/internal/workers/professionals/list-top-professionals"
)

// The suite talks to real Postgres, Redis and Zeebe instances and only runs
// when E2E_TESTS=1.
var (
	cfg   *config.Config
	db    *sql.DB
	rdb   *redis.Client
	runID string
)

func TestMain(m *testing.M) {
	if os.Getenv("E2E_TESTS") != "1" {
		fmt.Println("skipping e2e suite: set E2E_TESTS=1 to run against live services")
		os.Exit(0)
	}

	var err error
	cfg, err = config.Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	pg, err := database.NewPostgres(cfg.Database.Postgres)
	if err != nil {
		panic(fmt.Sprintf("failed to connect to PostgreSQL: %v", err))
	}
	redisClient, err := database.NewRedis(cfg.Database.Redis)
	if err != nil {
		panic(fmt.Sprintf("failed to connect to Redis: %v", err))
	}
	db, rdb = pg.DB, redisClient.Client

	runID = uuid.NewString()[:8]
	if err := createSchema(context.Background()); err != nil {
		panic(fmt.Sprintf("failed to create schema: %v", err))
	}

	code := m.Run()

	cleanup(context.Background())
	redisClient.Close()
	pg.Close()
	os.Exit(code)
}

func createSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			company_name TEXT,
			role TEXT NOT NULL,
			location TEXT,
			bio TEXT,
			image TEXT,
			phone TEXT,
			whatsapp TEXT,
			email TEXT,
			contact_email TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS properties (
			id TEXT PRIMARY KEY,
			owner_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			status TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS property_views (
			id TEXT PRIMARY KEY,
			property_id TEXT NOT NULL REFERENCES properties(id) ON DELETE CASCADE,
			viewed_at TIMESTAMPTZ NOT NULL
		)`,
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func cleanup(ctx context.Context) {
	db.ExecContext(ctx, `DELETE FROM users WHERE id LIKE $1`, runID+"-%")
	rdb.Del(ctx, session.DefaultKeyPrefix+runID)
}

type fixture struct {
	role     models.Role
	active   int
	inactive int
	views    int
}

// seed inserts one professional per fixture. Every row carries runID in its
// bio so searches stay scoped to this run.
func seed(t *testing.T, fixtures []fixture) []string {
	t.Helper()
	ctx := context.Background()
	ids := make([]string, 0, len(fixtures))

	for i, f := range fixtures {
		id := fmt.Sprintf("%s-%s-%d", runID, t.Name(), i)
		_, err := db.ExecContext(ctx,
			`INSERT INTO users (id, name, role, bio, phone, email, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			id, fmt.Sprintf("Professional %d", i), string(f.role), "serving "+runID,
			"+1555000"+fmt.Sprint(i), id+"@example.com", time.Now().Add(-time.Duration(i)*time.Hour))
		require.NoError(t, err)

		for p := 0; p < f.active+f.inactive; p++ {
			status := "ACTIVE"
			if p >= f.active {
				status = "SOLD"
			}
			propertyID := fmt.Sprintf("%s-p%d", id, p)
			_, err := db.ExecContext(ctx, `INSERT INTO properties (id, owner_id, status) VALUES ($1, $2, $3)`, propertyID, id, status)
			require.NoError(t, err)

			if p == 0 {
				for v := 0; v < f.views; v++ {
					_, err := db.ExecContext(ctx, `INSERT INTO property_views (id, property_id, viewed_at) VALUES ($1, $2, $3)`,
						fmt.Sprintf("%s-v%d", propertyID, v), propertyID, time.Now().Add(-time.Hour))
					require.NoError(t, err)
				}
			}
		}
		ids = append(ids, id)
	}
	return ids
}

func newRanker() *ranking.Ranker {
	log := logger.NewNoOpLogger()
	return ranking.NewRanker(
		professionals.NewStore(db),
		session.NewRedisProvider(rdb, session.DefaultKeyPrefix, log),
		ranking.Options{},
	)
}

func intPtr(v int) *int { return &v }

func TestListProfessionals_E2E(t *testing.T) {
	ids := seed(t, []fixture{
		{role: models.RoleAgent, active: 3, views: 1},
		{role: models.RoleAgency, active: 1, views: 7},
		{role: models.RoleAgent, active: 2, views: 4},
		{role: models.RoleAgent, active: 0, inactive: 2},
	})
	handler := listprofessionals.NewHandler(listprofessionals.LoadConfig(), newRanker(), logger.NewNoOpLogger())
	ctx := context.Background()

	t.Run("anonymous listing hides contact details", func(t *testing.T) {
		out, err := handler.Execute(ctx, &listprofessionals.Input{Search: runID, SortBy: "properties"})
		require.NoError(t, err)

		assert.Equal(t, 3, out.TotalCount)
		require.Len(t, out.Professionals, 3)
		assert.Equal(t, []string{ids[0], ids[2], ids[1]}, []string{
			out.Professionals[0].ID, out.Professionals[1].ID, out.Professionals[2].ID,
		})
		for _, p := range out.Professionals {
			assert.Nil(t, p.Contact)
		}
	})

	t.Run("views sort uses recent views", func(t *testing.T) {
		out, err := handler.Execute(ctx, &listprofessionals.Input{Search: runID, SortBy: "views"})
		require.NoError(t, err)
		require.Len(t, out.Professionals, 3)
		assert.Equal(t, ids[1], out.Professionals[0].ID)
		assert.Equal(t, 7, out.Professionals[0].RecentViewCount)
	})

	t.Run("role filter", func(t *testing.T) {
		out, err := handler.Execute(ctx, &listprofessionals.Input{Search: runID, Role: "agency"})
		require.NoError(t, err)
		require.Len(t, out.Professionals, 1)
		assert.Equal(t, ids[1], out.Professionals[0].ID)
	})

	t.Run("random order is stable for the same seed", func(t *testing.T) {
		seed := int64(42)
		first, err := handler.Execute(ctx, &listprofessionals.Input{Search: runID, Limit: intPtr(2), RefreshSeed: &seed})
		require.NoError(t, err)
		second, err := handler.Execute(ctx, &listprofessionals.Input{Search: runID, Limit: intPtr(2), RefreshSeed: &seed})
		require.NoError(t, err)

		assert.Equal(t, first.Professionals, second.Professionals)
		assert.Equal(t, 2, first.TotalPages)
		assert.False(t, first.HasMore)
	})

	t.Run("authenticated caller sees contact details", func(t *testing.T) {
		s := models.Session{UserID: "viewer-" + runID, IsActive: true, ExpiresAt: time.Now().Add(time.Hour)}
		raw, err := json.Marshal(s)
		require.NoError(t, err)
		require.NoError(t, rdb.Set(ctx, session.DefaultKeyPrefix+runID, raw, time.Minute).Err())

		out, err := handler.Execute(ctx, &listprofessionals.Input{Search: runID, SessionToken: runID})
		require.NoError(t, err)
		require.NotEmpty(t, out.Professionals)
		for _, p := range out.Professionals {
			require.NotNil(t, p.Contact)
			assert.Equal(t, p.ID+"@example.com", p.Contact.Email)
		}
	})
}

func TestListTopProfessionals_E2E(t *testing.T) {
	seed(t, []fixture{
		{role: models.RoleAgent, active: 1},
		{role: models.RoleAgency, active: 2},
	})
	handler := listtopprofessionals.NewHandler(listtopprofessionals.LoadConfig(), newRanker(), logger.NewNoOpLogger())

	refresh := int64(7)
	first, err := handler.Execute(context.Background(), &listtopprofessionals.Input{Limit: intPtr(3), RefreshSeed: &refresh})
	require.NoError(t, err)
	second, err := handler.Execute(context.Background(), &listtopprofessionals.Input{Limit: intPtr(3), RefreshSeed: &refresh})
	require.NoError(t, err)

	assert.LessOrEqual(t, len(first.Professionals), 3)
	assert.NotEmpty(t, first.Professionals)
	assert.Equal(t, first.Professionals, second.Professionals)
}

func TestZeebeConnectivity_E2E(t *testing.T) {
	client, err := zbc.NewClient(&zbc.ClientConfig{
		GatewayAddress:         cfg.Camunda.BrokerAddress,
		UsePlaintextConnection: true,
	})
	require.NoError(t, err)
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_, err = client.NewTopologyCommand().Send(ctx)
	assert.NoError(t, err)
}

func BenchmarkListProfessionals(b *testing.B) {
	handler := listprofessionals.NewHandler(listprofessionals.LoadConfig(), newRanker(), logger.NewNoOpLogger())
	input := &listprofessionals.Input{Search: runID}
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := handler.Execute(ctx, input); err != nil {
			b.Fatal(err)
		}
	}
}
