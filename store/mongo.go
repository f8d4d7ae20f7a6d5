package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"ventspace/models"
)

// topicDocument is the persisted layout of a topic in the topics collection.
type topicDocument struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Content     string             `bson:"content"`
	Mood        models.Mood        `bson:"mood"`
	Mode        models.PostMode    `bson:"mode"`
	UserID      string             `bson:"userId"`
	Votes       []models.Vote      `bson:"votes"`
	Comments    []models.Comment   `bson:"comments"`
	CreatedAt   time.Time          `bson:"createdAt"`
	ReportCount int                `bson:"reportCount"`
}

func (d *topicDocument) topic() *models.Topic {
	t := &models.Topic{
		ID:          d.ID.Hex(),
		Content:     d.Content,
		Mood:        d.Mood,
		Mode:        d.Mode,
		UserID:      d.UserID,
		Votes:       d.Votes,
		Comments:    d.Comments,
		CreatedAt:   d.CreatedAt,
		ReportCount: d.ReportCount,
	}
	if t.Votes == nil {
		t.Votes = []models.Vote{}
	}
	if t.Comments == nil {
		t.Comments = []models.Comment{}
	}
	return t
}

// Mongo stores topics as one document each. Mutations are single
// server-side updates ($push, $inc, pipeline $set) so no write is based on a
// stale read.
type Mongo struct {
	coll    *mongo.Collection
	timeout time.Duration
}

func NewMongo(coll *mongo.Collection, timeout time.Duration) *Mongo {
	if timeout <= 0 {
		timeout = defaultOpTimeout
	}
	return &Mongo{coll: coll, timeout: timeout}
}

func (m *Mongo) Insert(ctx context.Context, t *models.Topic) (*models.Topic, error) {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	doc := topicDocument{
		ID:          primitive.NewObjectID(),
		Content:     t.Content,
		Mood:        t.Mood,
		Mode:        t.Mode,
		UserID:      t.UserID,
		Votes:       []models.Vote{},
		Comments:    []models.Comment{},
		CreatedAt:   t.CreatedAt.UTC().Truncate(time.Millisecond),
		ReportCount: t.ReportCount,
	}
	if _, err := m.coll.InsertOne(ctx, doc); err != nil {
		return nil, fmt.Errorf("insert topic: %w", err)
	}
	return doc.topic(), nil
}

func (m *Mongo) FindByID(ctx context.Context, id string) (*models.Topic, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, notFound(id)
	}

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	var doc topicDocument
	if err := m.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return nil, m.mapError(err, id)
	}
	return doc.topic(), nil
}

func (m *Mongo) FindRecent(ctx context.Context, limit int) ([]*models.Topic, error) {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cursor, err := m.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("find recent topics: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []topicDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode recent topics: %w", err)
	}

	topics := make([]*models.Topic, len(docs))
	for i := range docs {
		topics[i] = docs[i].topic()
	}
	return topics, nil
}

func (m *Mongo) ToggleVote(ctx context.Context, id, voterID string, voteType models.VoteType) (*models.Topic, error) {
	return m.findAndUpdate(ctx, id, togglePipeline(voterID, voteType))
}

func (m *Mongo) AppendComment(ctx context.Context, id string, c models.Comment) (*models.Topic, error) {
	c.Timestamp = c.Timestamp.UTC().Truncate(time.Millisecond)
	return m.findAndUpdate(ctx, id, bson.M{"$push": bson.M{"comments": c}})
}

func (m *Mongo) IncrementReports(ctx context.Context, id string) (*models.Topic, error) {
	return m.findAndUpdate(ctx, id, bson.M{"$inc": bson.M{"reportCount": 1}})
}

func (m *Mongo) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return notFound(id)
	}

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	res, err := m.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete topic %q: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return notFound(id)
	}
	return nil
}

// EnsureIndexes creates the feed index (createdAt desc) and the owner index.
func (m *Mongo) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	_, err := m.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "userId", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("create topic indexes: %w", err)
	}
	return nil
}

func (m *Mongo) findAndUpdate(ctx context.Context, id string, update interface{}) (*models.Topic, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, notFound(id)
	}

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc topicDocument
	err = m.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid}, update, opts).Decode(&doc)
	if err != nil {
		return nil, m.mapError(err, id)
	}
	return doc.topic(), nil
}

func (m *Mongo) mapError(err error, id string) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return notFound(id)
	}
	return fmt.Errorf("topic %q: %w", id, err)
}

// togglePipeline builds an update pipeline that toggles one voter's vote
// inside the server, so concurrent voters never lose each other's entries.
//
//	no vote        -> append {userId, type}
//	same type      -> remove the vote
//	different type -> rewrite the vote's type in place
func togglePipeline(voterID string, voteType models.VoteType) mongo.Pipeline {
	voter := bson.D{{Key: "$literal", Value: voterID}}
	kind := bson.D{{Key: "$literal", Value: string(voteType)}}
	votes := bson.D{{Key: "$ifNull", Value: bson.A{"$votes", bson.A{}}}}
	isVoter := bson.D{{Key: "$eq", Value: bson.A{"$$this.userId", voter}}}

	mine := bson.D{{Key: "$filter", Value: bson.D{
		{Key: "input", Value: votes},
		{Key: "cond", Value: isVoter},
	}}}
	others := bson.D{{Key: "$filter", Value: bson.D{
		{Key: "input", Value: votes},
		{Key: "cond", Value: bson.D{{Key: "$ne", Value: bson.A{"$$this.userId", voter}}}},
	}}}
	switched := bson.D{{Key: "$map", Value: bson.D{
		{Key: "input", Value: votes},
		{Key: "in", Value: bson.D{{Key: "$cond", Value: bson.A{
			isVoter,
			bson.D{{Key: "userId", Value: "$$this.userId"}, {Key: "type", Value: kind}},
			"$$this",
		}}}},
	}}}
	appended := bson.D{{Key: "$concatArrays", Value: bson.A{
		votes,
		bson.A{bson.D{{Key: "userId", Value: voter}, {Key: "type", Value: kind}}},
	}}}

	next := bson.D{{Key: "$let", Value: bson.D{
		{Key: "vars", Value: bson.D{{Key: "mine", Value: mine}}},
		{Key: "in", Value: bson.D{{Key: "$cond", Value: bson.A{
			bson.D{{Key: "$eq", Value: bson.A{bson.D{{Key: "$size", Value: "$$mine"}}, 0}}},
			appended,
			bson.D{{Key: "$cond", Value: bson.A{
				bson.D{{Key: "$eq", Value: bson.A{bson.D{{Key: "$arrayElemAt", Value: bson.A{"$$mine.type", 0}}}, kind}}},
				others,
				switched,
			}}},
		}}}},
	}}}

	return mongo.Pipeline{
		{{Key: "$set", Value: bson.D{{Key: "votes", Value: next}}}},
	}
}
