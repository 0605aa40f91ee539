package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"checkin/internal/activity"
)

// Activity persists the activity feed in Postgres.
type Activity struct {
	db *sql.DB
}

// NewActivity creates a Postgres activity log.
func NewActivity(db *sql.DB) *Activity {
	return &Activity{db: db}
}

// Append writes an entry.
func (a *Activity) Append(ctx context.Context, e activity.Entry) (activity.Entry, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}
	_, err := a.db.ExecContext(ctx, `
		INSERT INTO activity (id, kind, student_id, student_name, class, actor, occurred_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, e.ID, e.Kind, e.StudentID, e.StudentName, e.Class, e.Actor, e.OccurredAt)
	if err != nil {
		return activity.Entry{}, err
	}
	return e, nil
}

// Recent returns the newest entries first.
func (a *Activity) Recent(ctx context.Context, limit int) ([]activity.Entry, error) {
	limit = activity.Limit(limit)
	rows, err := a.db.QueryContext(ctx, `
		SELECT id, kind, student_id, student_name, class, actor, occurred_at
		FROM activity
		ORDER BY occurred_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []activity.Entry
	for rows.Next() {
		var e activity.Entry
		if err := rows.Scan(&e.ID, &e.Kind, &e.StudentID, &e.StudentName, &e.Class, &e.Actor, &e.OccurredAt); err != nil {
			return nil, err
		}
		res = append(res, e)
	}
	return res, rows.Err()
}

// MemoryActivity is a bounded in-memory activity log.
type MemoryActivity struct {
	mu      sync.Mutex
	entries []activity.Entry
	max     int
}

// NewMemoryActivity keeps at most max entries.
func NewMemoryActivity(max int) *MemoryActivity {
	if max <= 0 {
		max = 500
	}
	return &MemoryActivity{max: max}
}

func (m *MemoryActivity) Append(_ context.Context, e activity.Entry) (activity.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	m.entries = append(m.entries, e)
	if len(m.entries) > m.max {
		m.entries = m.entries[len(m.entries)-m.max:]
	}
	return e, nil
}

func (m *MemoryActivity) Recent(_ context.Context, limit int) ([]activity.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	limit = activity.Limit(limit)
	out := make([]activity.Entry, 0, limit)
	for i := len(m.entries) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.entries[i])
	}
	return out, nil
}

const activityKey = "checkin:activity"

// RedisActivity keeps the newest entries in a capped redis list so the API
// and the worker share one feed when students live in Firestore.
type RedisActivity struct {
	client *redis.Client
	max    int64
}

// NewRedisActivity keeps at most max entries.
func NewRedisActivity(client *redis.Client, max int) *RedisActivity {
	if max <= 0 {
		max = 500
	}
	return &RedisActivity{client: client, max: int64(max)}
}

func (r *RedisActivity) Append(ctx context.Context, e activity.Entry) (activity.Entry, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}
	raw, err := json.Marshal(e)
	if err != nil {
		return activity.Entry{}, err
	}
	pipe := r.client.TxPipeline()
	pipe.LPush(ctx, activityKey, raw)
	pipe.LTrim(ctx, activityKey, 0, r.max-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return activity.Entry{}, err
	}
	return e, nil
}

// Recent returns the newest entries first.
func (r *RedisActivity) Recent(ctx context.Context, limit int) ([]activity.Entry, error) {
	limit = activity.Limit(limit)
	items, err := r.client.LRange(ctx, activityKey, 0, int64(limit)-1).Result()
	if err != nil {
		return nil, err
	}
	out := make([]activity.Entry, 0, len(items))
	for _, raw := range items {
		var e activity.Entry
		if err := json.Unmarshal([]byte(raw), &e); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}
