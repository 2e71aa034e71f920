// Package catalog orchestrates the photo repository and the media store:
// payload validation, field normalization, and the create/delete sequencing
// that keeps catalog records and remote assets in step.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"unicode"

	"github.com/Jerowaree/photospage/internal/mediastore"
	"github.com/Jerowaree/photospage/internal/store"
)

// Repository is the slice of the store the catalog needs. *store.Store
// satisfies it; tests substitute fakes.
type Repository interface {
	List(ctx context.Context, params store.ListParams) ([]store.Photo, int, error)
	Get(ctx context.Context, id string) (*store.Photo, error)
	Create(ctx context.Context, in store.PhotoCreate) (*store.Photo, error)
	Update(ctx context.Context, id string, upd store.PhotoUpdate) (*store.Photo, error)
	Delete(ctx context.Context, id string) (*store.Photo, error)
	CategoryCounts(ctx context.Context) ([]store.CategoryCount, error)
	CategoryCovers(ctx context.Context) (map[string]string, error)
}

type Service struct {
	repo   Repository
	media  mediastore.Uploader
	folder string
	logger *slog.Logger
}

func New(repo Repository, media mediastore.Uploader, folder string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, media: media, folder: folder, logger: logger}
}

// UploadInput carries the multipart upload payload as received: tags as a
// comma-separated string, featured as the literal "true"/"false".
type UploadInput struct {
	Title       string
	Category    string
	Description string
	Tags        string
	Featured    string
	File        []byte
}

// UpdateInput is a partial metadata edit. Tags arrive already split here;
// the comma-string form is a multipart concern the JSON path never had.
type UpdateInput struct {
	Title       *string
	Description *string
	Category    *string
	Tags        *[]string
	Featured    *bool
}

type ListInput struct {
	Category     string
	FeaturedOnly bool
	Page         int
	Limit        int
}

type ListResult struct {
	Photos []store.Photo
	Total  int
	Page   int
	Pages  int
}

type Category struct {
	Slug     string `json:"slug"`
	Label    string `json:"label"`
	Count    int    `json:"count"`
	CoverURL string `json:"coverUrl"`
}

// Upload validates the payload, ships the bytes to the media store, and
// persists the record. Validation failures never reach the provider, and a
// provider failure never leaves a catalog record behind; the accepted crash
// window is an orphaned remote asset, never a phantom record.
func (s *Service) Upload(ctx context.Context, in UploadInput) (*store.Photo, error) {
	if err := validateUpload(in); err != nil {
		return nil, err
	}

	category := strings.ToLower(in.Category)
	res, err := s.media.Upload(ctx, in.File, s.folder+"/"+category)
	if err != nil {
		return nil, fmt.Errorf("media store: %w", err)
	}
	if res.Height <= 0 || res.Width <= 0 {
		return nil, fmt.Errorf("media store: reported dimensions %dx%d", res.Width, res.Height)
	}

	photo, err := s.repo.Create(ctx, store.PhotoCreate{
		Title:        in.Title,
		Description:  in.Description,
		Category:     category,
		Tags:         SplitTags(in.Tags),
		URL:          res.URL,
		ThumbnailURL: res.ThumbnailURL,
		PublicID:     res.PublicID,
		Width:        res.Width,
		Height:       res.Height,
		AspectRatio:  aspectRatio(res.Width, res.Height),
		Featured:     in.Featured == "true",
	})
	if err != nil {
		return nil, fmt.Errorf("create photo: %w", err)
	}
	return photo, nil
}

// Update edits metadata only. The remote asset and the media-derived fields
// are never touched.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (*store.Photo, error) {
	if err := validateUpdate(in); err != nil {
		return nil, err
	}

	upd := store.PhotoUpdate{
		Title:       in.Title,
		Description: in.Description,
		Featured:    in.Featured,
	}
	if in.Category != nil {
		c := strings.ToLower(*in.Category)
		upd.Category = &c
	}
	if in.Tags != nil {
		t := CleanTags(*in.Tags)
		upd.Tags = &t
	}
	return s.repo.Update(ctx, id, upd)
}

// Delete removes the catalog record first, then the remote asset. The
// record is authoritatively gone once the repository delete succeeds; a
// failed remote cleanup is logged and swallowed.
func (s *Service) Delete(ctx context.Context, id string) error {
	photo, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if err := s.media.Delete(ctx, photo.PublicID); err != nil {
		s.logger.Warn("remote asset cleanup failed", "publicId", photo.PublicID, "error", err)
	}
	return nil
}

func (s *Service) Get(ctx context.Context, id string) (*store.Photo, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, in ListInput) (*ListResult, error) {
	page := store.ClampPage(in.Page)
	limit := store.ClampLimit(in.Limit)

	photos, total, err := s.repo.List(ctx, store.ListParams{
		Category:     strings.ToLower(in.Category),
		FeaturedOnly: in.FeaturedOnly,
		Page:         page,
		Limit:        limit,
	})
	if err != nil {
		return nil, err
	}
	if photos == nil {
		photos = []store.Photo{}
	}
	return &ListResult{
		Photos: photos,
		Total:  total,
		Page:   page,
		Pages:  int(math.Ceil(float64(total) / float64(limit))),
	}, nil
}

// Categories joins the per-category counts with the cover thumbnails.
func (s *Service) Categories(ctx context.Context) ([]Category, error) {
	counts, err := s.repo.CategoryCounts(ctx)
	if err != nil {
		return nil, err
	}
	covers, err := s.repo.CategoryCovers(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]Category, 0, len(counts))
	for _, c := range counts {
		out = append(out, Category{
			Slug:     c.Category,
			Label:    label(c.Category),
			Count:    c.Count,
			CoverURL: covers[c.Category],
		})
	}
	return out, nil
}

// IsNotFound reports whether err means the photo does not exist, which the
// HTTP layer maps to 404 rather than a server fault.
func IsNotFound(err error) bool {
	return errors.Is(err, store.ErrNotFound)
}

// aspectRatio is width/height rounded to 4 decimal places, computed once at
// creation and never again.
func aspectRatio(width, height int) float64 {
	return math.Round(float64(width)/float64(height)*10000) / 10000
}

// label upper-cases only the first rune of the slug.
func label(slug string) string {
	r := []rune(slug)
	if len(r) == 0 {
		return slug
	}
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}
