package store_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"ventspace/models"
	"ventspace/store"
	"ventspace/store/storetest"
)

var (
	mongoOnce   sync.Once
	mongoURI    string
	mongoSetErr error
)

// setupMongo starts one MongoDB container for the whole test run and returns
// a client connected to it.
func setupMongo(t *testing.T) *mongo.Client {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping MongoDB container test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	mongoOnce.Do(func() {
		mongoURI, mongoSetErr = startMongo()
	})
	require.NoError(t, mongoSetErr)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI))
	require.NoError(t, err)
	require.NoError(t, client.Ping(ctx, nil))

	t.Cleanup(func() {
		_ = client.Disconnect(context.Background())
	})
	return client
}

func startMongo() (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "mongo:7",
			ExposedPorts: []string{"27017/tcp"},
			WaitingFor: wait.ForListeningPort("27017/tcp").
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
	port, err := container.MappedPort(ctx, "27017")
	if err != nil {
		return "", fmt.Errorf("get mapped port: %w", err)
	}
	return fmt.Sprintf("mongodb://%s:%s", host, port.Port()), nil
}

func TestMongo(t *testing.T) {
	client := setupMongo(t)
	db := client.Database("ventspace_test")

	storetest.Run(t, func(t *testing.T) store.TopicStore {
		coll := db.Collection("topics_" + uuid.NewString()[:8])
		t.Cleanup(func() { _ = coll.Drop(context.Background()) })

		s := store.NewMongo(coll, 10*time.Second)
		require.NoError(t, s.EnsureIndexes(context.Background()))
		return s
	}, func() string { return primitive.NewObjectID().Hex() })
}

func TestMongo_VoterIDIsLiteral(t *testing.T) {
	client := setupMongo(t)
	coll := client.Database("ventspace_test").Collection("topics_" + uuid.NewString()[:8])
	t.Cleanup(func() { _ = coll.Drop(context.Background()) })

	ctx := context.Background()
	s := store.NewMongo(coll, 10*time.Second)
	topic, err := s.Insert(ctx, &models.Topic{Content: "field paths", UserID: "owner", CreatedAt: time.Now()})
	require.NoError(t, err)

	got, err := s.ToggleVote(ctx, topic.ID, "$content", models.VoteAgree)
	require.NoError(t, err)
	require.Len(t, got.Votes, 1)
	assert.Equal(t, "$content", got.Votes[0].UserID)

	got, err = s.ToggleVote(ctx, topic.ID, "$content", models.VoteAgree)
	require.NoError(t, err)
	assert.Empty(t, got.Votes)
}

func TestMongo_DocumentLayout(t *testing.T) {
	client := setupMongo(t)
	coll := client.Database("ventspace_test").Collection("topics_" + uuid.NewString()[:8])
	t.Cleanup(func() { _ = coll.Drop(context.Background()) })

	ctx := context.Background()
	s := store.NewMongo(coll, 10*time.Second)
	topic, err := s.Insert(ctx, &models.Topic{
		Content:   "stored as one document",
		Mood:      models.MoodHappy,
		Mode:      models.ModeAdvice,
		UserID:    "owner",
		CreatedAt: time.Date(2025, 1, 2, 3, 4, 5, 6_789_000, time.UTC),
	})
	require.NoError(t, err)
	_, err = s.ToggleVote(ctx, topic.ID, "v", models.VoteDisagree)
	require.NoError(t, err)

	oid, err := primitive.ObjectIDFromHex(topic.ID)
	require.NoError(t, err)

	var raw struct {
		Content     string    `bson:"content"`
		Mood        string    `bson:"mood"`
		Mode        string    `bson:"mode"`
		UserID      string    `bson:"userId"`
		CreatedAt   time.Time `bson:"createdAt"`
		ReportCount int       `bson:"reportCount"`
		Votes       []struct {
			UserID string `bson:"userId"`
			Type   string `bson:"type"`
		} `bson:"votes"`
	}
	require.NoError(t, coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&raw))
	assert.Equal(t, "stored as one document", raw.Content)
	assert.Equal(t, "happy", raw.Mood)
	assert.Equal(t, "advice", raw.Mode)
	assert.Equal(t, "owner", raw.UserID)
	assert.Zero(t, raw.ReportCount)
	assert.Equal(t, time.Date(2025, 1, 2, 3, 4, 5, 6_000_000, time.UTC), raw.CreatedAt.UTC())
	require.Len(t, raw.Votes, 1)
	assert.Equal(t, "v", raw.Votes[0].UserID)
	assert.Equal(t, "disagree", raw.Votes[0].Type)
}
