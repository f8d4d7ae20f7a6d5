package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"ventspace/models"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var topicColumns = []string{"id", "content", "mood", "mode", "user_id", "created_at", "report_count"}

// Postgres stores topics in three tables: topics, topic_votes and
// topic_comments. Every mutation runs in one transaction that locks the
// topic row first, which serializes writers per topic only.
type Postgres struct {
	pool    *pgxpool.Pool
	timeout time.Duration
}

// NewPostgres bounds every call, including a whole mutation transaction, by
// timeout.
func NewPostgres(pool *pgxpool.Pool, timeout time.Duration) *Postgres {
	if timeout <= 0 {
		timeout = defaultOpTimeout
	}
	return &Postgres{pool: pool, timeout: timeout}
}

func (p *Postgres) Insert(ctx context.Context, t *models.Topic) (*models.Topic, error) {
	stored := t.Clone()
	stored.ID = uuid.NewString()
	stored.CreatedAt = stored.CreatedAt.UTC().Truncate(time.Microsecond)
	stored.Votes = []models.Vote{}
	stored.Comments = []models.Comment{}

	query, args, err := psql.Insert("topics").
		Columns(topicColumns...).
		Values(stored.ID, stored.Content, string(stored.Mood), string(stored.Mode), stored.UserID, stored.CreatedAt, stored.ReportCount).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build insert topic: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	if _, err := p.pool.Exec(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("insert topic: %w", err)
	}
	return stored, nil
}

func (p *Postgres) FindByID(ctx context.Context, id string) (*models.Topic, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, notFound(id)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	return p.snapshot(ctx, p.pool, id)
}

func (p *Postgres) FindRecent(ctx context.Context, limit int) ([]*models.Topic, error) {
	b := psql.Select(topicColumns...).From("topics").OrderBy("created_at DESC", "id DESC")
	if limit > 0 {
		b = b.Limit(uint64(limit))
	}
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build recent topics: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query recent topics: %w", err)
	}
	topics, err := scanTopics(rows)
	if err != nil {
		return nil, fmt.Errorf("scan recent topics: %w", err)
	}
	if len(topics) == 0 {
		return topics, nil
	}

	byID := make(map[string]*models.Topic, len(topics))
	ids := make([]string, len(topics))
	for i, t := range topics {
		byID[t.ID] = t
		ids[i] = t.ID
	}
	if err := p.loadVotes(ctx, p.pool, ids, byID); err != nil {
		return nil, err
	}
	if err := p.loadComments(ctx, p.pool, ids, byID); err != nil {
		return nil, err
	}
	return topics, nil
}

func (p *Postgres) ToggleVote(ctx context.Context, id, voterID string, voteType models.VoteType) (*models.Topic, error) {
	return p.mutate(ctx, id, func(q querier) error {
		query, args, err := psql.Select("type").From("topic_votes").
			Where(sq.Eq{"topic_id": id, "user_id": voterID}).ToSql()
		if err != nil {
			return err
		}

		var current string
		err = q.QueryRow(ctx, query, args...).Scan(&current)
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			query, args, err = psql.Insert("topic_votes").
				Columns("topic_id", "user_id", "type").
				Values(id, voterID, string(voteType)).ToSql()
		case err != nil:
			return fmt.Errorf("read vote: %w", err)
		case models.VoteType(current) == voteType:
			query, args, err = psql.Delete("topic_votes").
				Where(sq.Eq{"topic_id": id, "user_id": voterID}).ToSql()
		default:
			query, args, err = psql.Update("topic_votes").
				Set("type", string(voteType)).
				Where(sq.Eq{"topic_id": id, "user_id": voterID}).ToSql()
		}
		if err != nil {
			return err
		}
		if _, err := q.Exec(ctx, query, args...); err != nil {
			return fmt.Errorf("write vote: %w", err)
		}
		return nil
	})
}

func (p *Postgres) AppendComment(ctx context.Context, id string, c models.Comment) (*models.Topic, error) {
	return p.mutate(ctx, id, func(q querier) error {
		query, args, err := psql.Insert("topic_comments").
			Columns("topic_id", "text", "user_id", "created_at").
			Values(id, c.Text, c.UserID, c.Timestamp.UTC()).ToSql()
		if err != nil {
			return err
		}
		if _, err := q.Exec(ctx, query, args...); err != nil {
			return fmt.Errorf("insert comment: %w", err)
		}
		return nil
	})
}

func (p *Postgres) IncrementReports(ctx context.Context, id string) (*models.Topic, error) {
	return p.mutate(ctx, id, func(q querier) error {
		query, args, err := psql.Update("topics").
			Set("report_count", sq.Expr("report_count + 1")).
			Where(sq.Eq{"id": id}).ToSql()
		if err != nil {
			return err
		}
		if _, err := q.Exec(ctx, query, args...); err != nil {
			return fmt.Errorf("increment reports: %w", err)
		}
		return nil
	})
}

// Delete removes the topic; votes and comments go with it via ON DELETE CASCADE.
func (p *Postgres) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return notFound(id)
	}
	query, args, err := psql.Delete("topics").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("build delete topic: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	tag, err := p.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete topic %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return notFound(id)
	}
	return nil
}

// EnsureIndexes is a no-op: indexes ship with the migrations.
func (p *Postgres) EnsureIndexes(context.Context) error { return nil }

// mutate locks the topic row, applies fn and returns the new snapshot, all in
// one transaction.
func (p *Postgres) mutate(ctx context.Context, id string, fn func(q querier) error) (_ *models.Topic, err error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, notFound(id)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	query, args, err := psql.Select("id").From("topics").Where(sq.Eq{"id": id}).Suffix("FOR UPDATE").ToSql()
	if err != nil {
		return nil, err
	}
	var locked string
	if err = tx.QueryRow(ctx, query, args...).Scan(&locked); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFound(id)
		}
		return nil, fmt.Errorf("lock topic %q: %w", id, err)
	}

	if err = fn(tx); err != nil {
		return nil, err
	}

	t, err := p.snapshot(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return t, nil
}

func (p *Postgres) snapshot(ctx context.Context, q querier, id string) (*models.Topic, error) {
	query, args, err := psql.Select(topicColumns...).From("topics").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query topic %q: %w", id, err)
	}
	topics, err := scanTopics(rows)
	if err != nil {
		return nil, fmt.Errorf("scan topic %q: %w", id, err)
	}
	if len(topics) == 0 {
		return nil, notFound(id)
	}

	t := topics[0]
	byID := map[string]*models.Topic{t.ID: t}
	if err := p.loadVotes(ctx, q, []string{id}, byID); err != nil {
		return nil, err
	}
	if err := p.loadComments(ctx, q, []string{id}, byID); err != nil {
		return nil, err
	}
	return t, nil
}

func (p *Postgres) loadVotes(ctx context.Context, q querier, ids []string, byID map[string]*models.Topic) error {
	query, args, err := psql.Select("topic_id", "user_id", "type").From("topic_votes").
		Where(sq.Eq{"topic_id": ids}).OrderBy("seq").ToSql()
	if err != nil {
		return err
	}
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("query votes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var topicID, userID, kind string
		if err := rows.Scan(&topicID, &userID, &kind); err != nil {
			return fmt.Errorf("scan vote: %w", err)
		}
		if t, ok := byID[topicID]; ok {
			t.Votes = append(t.Votes, models.Vote{UserID: userID, Type: models.VoteType(kind)})
		}
	}
	return rows.Err()
}

func (p *Postgres) loadComments(ctx context.Context, q querier, ids []string, byID map[string]*models.Topic) error {
	query, args, err := psql.Select("topic_id", "text", "user_id", "created_at").From("topic_comments").
		Where(sq.Eq{"topic_id": ids}).OrderBy("id").ToSql()
	if err != nil {
		return err
	}
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("query comments: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			topicID string
			c       models.Comment
		)
		if err := rows.Scan(&topicID, &c.Text, &c.UserID, &c.Timestamp); err != nil {
			return fmt.Errorf("scan comment: %w", err)
		}
		c.Timestamp = c.Timestamp.UTC()
		if t, ok := byID[topicID]; ok {
			t.Comments = append(t.Comments, c)
		}
	}
	return rows.Err()
}

func scanTopics(rows pgx.Rows) ([]*models.Topic, error) {
	defer rows.Close()

	var topics []*models.Topic
	for rows.Next() {
		var (
			t          models.Topic
			mood, mode string
		)
		if err := rows.Scan(&t.ID, &t.Content, &mood, &mode, &t.UserID, &t.CreatedAt, &t.ReportCount); err != nil {
			return nil, err
		}
		t.Mood = models.Mood(mood)
		t.Mode = models.PostMode(mode)
		t.CreatedAt = t.CreatedAt.UTC()
		t.Votes = []models.Vote{}
		t.Comments = []models.Comment{}
		topics = append(topics, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if topics == nil {
		topics = []*models.Topic{}
	}
	return topics, nil
}
