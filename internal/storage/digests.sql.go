package storage

import "context"

const weeklyDigestColumns = `id, user_id, week_start, week_end, total_spent_cents, category_breakdown, message, created_at`

func scanWeeklyDigest(s interface{ Scan(...any) error }) (WeeklyDigest, error) {
	var i WeeklyDigest
	err := s.Scan(
		&i.ID,
		&i.UserID,
		&i.WeekStart,
		&i.WeekEnd,
		&i.TotalSpentCents,
		&i.CategoryBreakdown,
		&i.Message,
		&i.CreatedAt,
	)
	return i, err
}

const createWeeklyDigest = `
INSERT INTO weekly_digests (id, user_id, week_start, week_end, total_spent_cents, category_breakdown, message, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
RETURNING ` + weeklyDigestColumns

type CreateWeeklyDigestParams struct {
	ID                string
	UserID            string
	WeekStart         string
	WeekEnd           string
	TotalSpentCents   int64
	CategoryBreakdown string
	Message           string
	CreatedAt         string
}

func (q *Queries) CreateWeeklyDigest(ctx context.Context, arg CreateWeeklyDigestParams) (WeeklyDigest, error) {
	row := q.db.QueryRowContext(ctx, createWeeklyDigest,
		arg.ID,
		arg.UserID,
		arg.WeekStart,
		arg.WeekEnd,
		arg.TotalSpentCents,
		arg.CategoryBreakdown,
		arg.Message,
		arg.CreatedAt,
	)
	return scanWeeklyDigest(row)
}

const listWeeklyDigests = `
SELECT ` + weeklyDigestColumns + ` FROM weekly_digests
WHERE user_id = ?
ORDER BY created_at DESC
LIMIT ?
`

type ListWeeklyDigestsParams struct {
	UserID string
	Limit  int64
}

func (q *Queries) ListWeeklyDigests(ctx context.Context, arg ListWeeklyDigestsParams) ([]WeeklyDigest, error) {
	rows, err := q.db.QueryContext(ctx, listWeeklyDigests, arg.UserID, arg.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []WeeklyDigest
	for rows.Next() {
		i, err := scanWeeklyDigest(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getWeeklyDigest = `
SELECT ` + weeklyDigestColumns + ` FROM weekly_digests WHERE id = ?
`

func (q *Queries) GetWeeklyDigest(ctx context.Context, id string) (WeeklyDigest, error) {
	row := q.db.QueryRowContext(ctx, getWeeklyDigest, id)
	return scanWeeklyDigest(row)
}
