package store

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// TagList is an ordered list of display tags persisted as a JSON array.
// Order is kept as given; the store never queries by tag.
type TagList []string

func (t TagList) Value() (driver.Value, error) {
	if t == nil {
		t = TagList{}
	}
	return json.Marshal(t)
}

func (t *TagList) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*t = TagList{}
		return nil
	case []byte:
		return json.Unmarshal(v, t)
	case string:
		return json.Unmarshal([]byte(v), t)
	default:
		return fmt.Errorf("scan tags: unsupported type %T", src)
	}
}

type Photo struct {
	ID           string    `db:"id" json:"id"`
	Title        string    `db:"title" json:"title"`
	Description  string    `db:"description" json:"description"`
	Category     string    `db:"category" json:"category"`
	Tags         TagList   `db:"tags" json:"tags"`
	URL          string    `db:"url" json:"url"`
	ThumbnailURL string    `db:"thumbnail_url" json:"thumbnailUrl"`
	PublicID     string    `db:"public_id" json:"publicId"`
	Width        int       `db:"width" json:"width"`
	Height       int       `db:"height" json:"height"`
	AspectRatio  float64   `db:"aspect_ratio" json:"aspectRatio"`
	Featured     bool      `db:"featured" json:"featured"`
	UploadedAt   time.Time `db:"uploaded_at" json:"uploadedAt"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `db:"updated_at" json:"updatedAt"`
}

// PhotoCreate carries the fields persisted at creation. The store writes
// them as given; normalization happens in the catalog service.
type PhotoCreate struct {
	Title        string
	Description  string
	Category     string
	Tags         []string
	URL          string
	ThumbnailURL string
	PublicID     string
	Width        int
	Height       int
	AspectRatio  float64
	Featured     bool
}

// PhotoUpdate is a partial metadata edit. Nil fields are left untouched.
// Media-derived fields (url, publicId, dimensions, aspect ratio) have no
// update path at all.
type PhotoUpdate struct {
	Title       *string
	Description *string
	Category    *string
	Tags        *[]string
	Featured    *bool
}

// Empty reports whether the update carries no fields.
func (u PhotoUpdate) Empty() bool {
	return u.Title == nil && u.Description == nil && u.Category == nil && u.Tags == nil && u.Featured == nil
}

type ListParams struct {
	Category     string
	FeaturedOnly bool
	Page         int
	Limit        int
}

type CategoryCount struct {
	Category string `db:"category"`
	Count    int    `db:"count"`
}
