// Package store owns the persisted photo records. All SQL lives here;
// callers work with Photo values and sentinel errors.
package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

var ErrNotFound = errors.New("not found")

const (
	DefaultPageSize = 24
	MaxPageSize     = 100
)

const photoColumns = "id, title, description, category, tags, url, thumbnail_url, public_id, width, height, aspect_ratio, featured, uploaded_at, created_at, updated_at"

type Store struct {
	db *sqlx.DB
}

func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// List returns one page of photos plus the total matching the filter.
// Count and page run inside one transaction so they describe the same
// snapshot even under concurrent writes.
func (s *Store) List(ctx context.Context, params ListParams) ([]Photo, int, error) {
	page := ClampPage(params.Page)
	limit := ClampLimit(params.Limit)
	offset := (page - 1) * limit

	where := []string{"1=1"}
	args := []any{}
	if params.Category != "" {
		where = append(where, "category = ?")
		args = append(args, params.Category)
	}
	if params.FeaturedOnly {
		where = append(where, "featured = 1")
	}
	whereSQL := strings.Join(where, " AND ")

	tx, err := s.db.BeginTxx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, 0, err
	}
	defer tx.Rollback()

	var total int
	if err := tx.GetContext(ctx, &total, "SELECT COUNT(*) FROM photo WHERE "+whereSQL, args...); err != nil {
		return nil, 0, err
	}

	query := "SELECT " + photoColumns + " FROM photo WHERE " + whereSQL +
		" ORDER BY uploaded_at DESC, id ASC LIMIT ? OFFSET ?"
	listArgs := append(append([]any{}, args...), limit, offset)
	var photos []Photo
	if err := tx.SelectContext(ctx, &photos, query, listArgs...); err != nil {
		return nil, 0, err
	}

	if err := tx.Commit(); err != nil {
		return nil, 0, err
	}
	return photos, total, nil
}

func (s *Store) Get(ctx context.Context, id string) (*Photo, error) {
	return s.get(ctx, nil, id)
}

func (s *Store) get(ctx context.Context, tx *sqlx.Tx, id string) (*Photo, error) {
	query := "SELECT " + photoColumns + " FROM photo WHERE id = ?"
	var p Photo
	var err error
	if tx != nil {
		err = tx.GetContext(ctx, &p, query, id)
	} else {
		err = s.db.GetContext(ctx, &p, query, id)
	}
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Create assigns the id and timestamps, persists the given fields verbatim,
// and returns the stored row.
func (s *Store) Create(ctx context.Context, in PhotoCreate) (*Photo, error) {
	id := uuid.NewString()
	now := time.Now().UTC()

	query := `INSERT INTO photo (` + photoColumns + `)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, query,
		id, in.Title, in.Description, in.Category, TagList(in.Tags),
		in.URL, in.ThumbnailURL, in.PublicID,
		in.Width, in.Height, in.AspectRatio, in.Featured,
		now, now, now,
	)
	if err != nil {
		return nil, err
	}
	return s.get(ctx, nil, id)
}

// Update applies a partial edit and refreshes updated_at. A missing id
// surfaces as ErrNotFound, never as a database error.
func (s *Store) Update(ctx context.Context, id string, upd PhotoUpdate) (*Photo, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	setParts := []string{"updated_at = ?"}
	args := []any{time.Now().UTC()}
	if upd.Title != nil {
		setParts = append(setParts, "title = ?")
		args = append(args, *upd.Title)
	}
	if upd.Description != nil {
		setParts = append(setParts, "description = ?")
		args = append(args, *upd.Description)
	}
	if upd.Category != nil {
		setParts = append(setParts, "category = ?")
		args = append(args, *upd.Category)
	}
	if upd.Tags != nil {
		setParts = append(setParts, "tags = ?")
		args = append(args, TagList(*upd.Tags))
	}
	if upd.Featured != nil {
		setParts = append(setParts, "featured = ?")
		args = append(args, *upd.Featured)
	}

	query := "UPDATE photo SET " + strings.Join(setParts, ", ") + " WHERE id = ?"
	args = append(args, id)
	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return nil, ErrNotFound
	}

	photo, err := s.get(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return photo, nil
}

// Delete removes the record and returns its last state, which the caller
// needs for the remote-asset cleanup.
func (s *Store) Delete(ctx context.Context, id string) (*Photo, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	photo, err := s.get(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM photo WHERE id = ?", id); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return photo, nil
}

// CategoryCounts groups the catalog by category, ordered by category name.
func (s *Store) CategoryCounts(ctx context.Context) ([]CategoryCount, error) {
	var counts []CategoryCount
	query := "SELECT category, COUNT(*) AS count FROM photo GROUP BY category ORDER BY category ASC"
	if err := s.db.SelectContext(ctx, &counts, query); err != nil {
		return nil, err
	}
	return counts, nil
}

// CategoryCovers picks one thumbnail per category: the most recent upload,
// ties broken by smallest id so the choice is deterministic.
func (s *Store) CategoryCovers(ctx context.Context) (map[string]string, error) {
	query := `SELECT category, thumbnail_url FROM (
		SELECT category, thumbnail_url,
			ROW_NUMBER() OVER (PARTITION BY category ORDER BY uploaded_at DESC, id ASC) AS rn
		FROM photo
	) ranked WHERE rn = 1`
	rows, err := s.db.QueryxContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	covers := make(map[string]string)
	for rows.Next() {
		var category, thumb string
		if err := rows.Scan(&category, &thumb); err != nil {
			return nil, err
		}
		covers[category] = thumb
	}
	return covers, rows.Err()
}

// ClampPage and ClampLimit define the pagination bounds shared by the
// repository and its callers: pages are 1-indexed, page size is [1,100].
func ClampPage(page int) int {
	if page < 1 {
		return 1
	}
	return page
}

func ClampLimit(limit int) int {
	switch {
	case limit < 1:
		return 1
	case limit > MaxPageSize:
		return MaxPageSize
	default:
		return limit
	}
}
