package store_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"ventspace/database"
	"ventspace/logger"
	"ventspace/models"
	"ventspace/store"
	"ventspace/store/storetest"
)

var (
	pgOnce   sync.Once
	pgDSN    string
	pgSetErr error
)

// setupPostgres starts one PostgreSQL container for the whole test run,
// applies the migrations and returns a pool connected to it.
func setupPostgres(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping PostgreSQL container test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	pgOnce.Do(func() {
		pgDSN, pgSetErr = startPostgres()
	})
	require.NoError(t, pgSetErr)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, pgDSN)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}

func startPostgres() (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:17-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "testuser",
				"POSTGRES_PASSWORD": "testpass",
				"POSTGRES_DB":       "testdb",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		return "", fmt.Errorf("start container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		return "", fmt.Errorf("get container host: %w", err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		return "", fmt.Errorf("get mapped port: %w", err)
	}

	dsn := fmt.Sprintf("postgres://testuser:testpass@%s:%s/testdb?sslmode=disable", host, port.Port())
	if err := database.Migrate(ctx, dsn, logger.Discard()); err != nil {
		return "", err
	}
	return dsn, nil
}

// The subtests share one database, so they run sequentially and each one
// starts from empty tables.
func TestPostgres(t *testing.T) {
	pool := setupPostgres(t)

	storetest.Run(t, func(t *testing.T) store.TopicStore {
		_, err := pool.Exec(context.Background(), "TRUNCATE topics CASCADE")
		require.NoError(t, err)
		return store.NewPostgres(pool, 5*time.Second)
	}, uuid.NewString)
}

func TestPostgres_CascadeDelete(t *testing.T) {
	pool := setupPostgres(t)
	ctx := context.Background()
	s := store.NewPostgres(pool, 5*time.Second)

	topic, err := s.Insert(ctx, &models.Topic{Content: "cascade", Mood: models.MoodNeutral, Mode: models.ModeVent, UserID: "o", CreatedAt: time.Now()})
	require.NoError(t, err)
	_, err = s.ToggleVote(ctx, topic.ID, "v", models.VoteAgree)
	require.NoError(t, err)
	_, err = s.AppendComment(ctx, topic.ID, models.Comment{Text: "c", UserID: "v", Timestamp: time.Now()})
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, topic.ID))

	var votes, comments int
	require.NoError(t, pool.QueryRow(ctx, "SELECT count(*) FROM topic_votes WHERE topic_id = $1", topic.ID).Scan(&votes))
	require.NoError(t, pool.QueryRow(ctx, "SELECT count(*) FROM topic_comments WHERE topic_id = $1", topic.ID).Scan(&comments))
	assert.Zero(t, votes)
	assert.Zero(t, comments)
}

func TestPostgres_MigrateIsIdempotent(t *testing.T) {
	setupPostgres(t)
	require.NoError(t, database.Migrate(context.Background(), pgDSN, logger.Discard()))
}

func TestPostgres_OpTimeout(t *testing.T) {
	pool := setupPostgres(t)
	s := store.NewPostgres(pool, time.Nanosecond)

	_, err := s.Insert(context.Background(), &models.Topic{Content: "slow", Mood: models.MoodNeutral, Mode: models.ModeVent, UserID: "o", CreatedAt: time.Now()})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	_, err = s.FindRecent(context.Background(), 10)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
