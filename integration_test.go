//go:build integration

package photospage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/Jerowaree/photospage/internal/catalog"
	"github.com/Jerowaree/photospage/internal/config"
	"github.com/Jerowaree/photospage/internal/httpapi"
	"github.com/Jerowaree/photospage/internal/mediastore"
	"github.com/Jerowaree/photospage/internal/store"
	"github.com/Jerowaree/photospage/migrations"
)

const adminToken = "integration-secret"

// stubUploader stands in for Cloudinary so the test never leaves the host.
// Delete can be told to fail to prove the catalog swallows cleanup faults.
type stubUploader struct {
	mu        sync.Mutex
	n         int
	deletes   []string
	deleteErr error
}

func (s *stubUploader) Upload(_ context.Context, data []byte, folder string) (*mediastore.UploadResult, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.n++
	id := fmt.Sprintf("%s/asset-%d", folder, s.n)
	s.mu.Unlock()
	return &mediastore.UploadResult{
		URL:          "https://cdn.test/" + id + ".jpg",
		ThumbnailURL: "https://cdn.test/c_limit,h_800,w_800/" + id + ".jpg",
		PublicID:     id,
		Width:        cfg.Width,
		Height:       cfg.Height,
	}, nil
}

func (s *stubUploader) Delete(_ context.Context, publicID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deletes = append(s.deletes, publicID)
	return s.deleteErr
}

func startMaria(t *testing.T, ctx context.Context) (testcontainers.Container, string) {
	req := testcontainers.ContainerRequest{
		Image:        "mariadb:11.4",
		Env:          map[string]string{"MARIADB_ROOT_PASSWORD": "root", "MARIADB_DATABASE": "photos", "MARIADB_USER": "photos", "MARIADB_PASSWORD": "photos"},
		ExposedPorts: []string{"3306/tcp"},
		WaitingFor:   wait.ForListeningPort("3306/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{ContainerRequest: req, Started: true})
	if err != nil {
		t.Fatalf("start mariadb: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("container host: %v", err)
	}
	port, err := container.MappedPort(ctx, "3306/tcp")
	if err != nil {
		t.Fatalf("mapped port: %v", err)
	}
	dsn := fmt.Sprintf("photos:photos@tcp(%s:%s)/photos?parseTime=true&multiStatements=true", host, port.Port())
	return container, dsn
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type pageData struct {
	Photos []store.Photo `json:"photos"`
	Total  int           `json:"total"`
	Page   int           `json:"page"`
	Pages  int           `json:"pages"`
}

func TestEndToEnd(t *testing.T) {
	ctx := context.Background()

	container, dsn := startMaria(t, ctx)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	if err := migrations.Up(dsn); err != nil {
		t.Fatalf("migrations failed: %v", err)
	}

	db, err := sqlx.Connect("mysql", dsn)
	if err != nil {
		t.Fatalf("db connect: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	cfg := &config.Config{
		Environment:    "development",
		Bind:           ":0",
		DBDSN:          dsn,
		AdminToken:     adminToken,
		MaxUploadBytes: config.DefaultMaxUploadBytes,
		SwaggerUIPath:  "/swagger",
		OpenAPIPath:    "/openapi.yaml",
	}

	uploader := &stubUploader{deleteErr: fmt.Errorf("provider unreachable")}
	photoStore := store.New(db)
	svc := catalog.New(photoStore, uploader, "aldryck", nil)
	ts := httptest.NewServer(httpapi.NewRouter(cfg, svc, photoStore, nil))
	t.Cleanup(ts.Close)

	first := upload(t, ts.URL, "Old Growth", "Nature", "forest, moss", "")
	time.Sleep(20 * time.Millisecond) // uploaded_at has millisecond precision
	second := upload(t, ts.URL, "Ridge Line", "Nature", "", "true")
	time.Sleep(20 * time.Millisecond)
	upload(t, ts.URL, "Night Tram", "Urban", "", "")

	if first.Category != "nature" {
		t.Fatalf("category not lower-cased: %q", first.Category)
	}
	if first.AspectRatio != 1.5 {
		t.Fatalf("aspect ratio for 12x8 expected 1.5 got %v", first.AspectRatio)
	}
	if len(first.Tags) != 2 || first.Tags[0] != "forest" {
		t.Fatalf("tags not split: %#v", first.Tags)
	}

	uploadUnauthorized(t, ts.URL)
	uploadMissingTitle(t, ts.URL, uploader)

	listSecondPage(t, ts.URL, first.ID)
	listFeatured(t, ts.URL, second.ID)
	categories(t, ts.URL)
	getPhoto(t, ts.URL, first.ID)
	patchPhoto(t, ts.URL, first.ID)
	deletePhoto(t, ts.URL, second.ID, uploader)
	getMissing(t, ts.URL, second.ID)
	readyz(t, ts.URL)
}

func authed(req *http.Request) *http.Request {
	req.Header.Set("Authorization", "Bearer "+adminToken)
	return req
}

func uploadRequest(t *testing.T, base, title, category, tags, featured string, withToken bool) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "sample.png")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	img := image.NewRGBA(image.Rect(0, 0, 12, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 12; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 100, B: 50, A: 255})
		}
	}
	if err := png.Encode(fw, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	if title != "" {
		_ = mw.WriteField("title", title)
	}
	_ = mw.WriteField("category", category)
	if tags != "" {
		_ = mw.WriteField("tags", tags)
	}
	if featured != "" {
		_ = mw.WriteField("featured", featured)
	}
	mw.Close()

	req, _ := http.NewRequest(http.MethodPost, base+"/api/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if withToken {
		authed(req)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("upload request: %v", err)
	}
	return resp
}

func upload(t *testing.T, base, title, category, tags, featured string) store.Photo {
	t.Helper()
	resp := uploadRequest(t, base, title, category, tags, featured, true)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("upload status %d body %s", resp.StatusCode, string(body))
	}
	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("decode upload response: %v", err)
	}
	var photo store.Photo
	if err := json.Unmarshal(env.Data, &photo); err != nil {
		t.Fatalf("decode photo: %v", err)
	}
	if photo.ID == "" {
		t.Fatalf("missing photo id")
	}
	return photo
}

func uploadUnauthorized(t *testing.T, base string) {
	resp := uploadRequest(t, base, "Sneaky", "nature", "", "", false)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", resp.StatusCode)
	}
}

func uploadMissingTitle(t *testing.T, base string, uploader *stubUploader) {
	uploader.mu.Lock()
	before := uploader.n
	uploader.mu.Unlock()

	resp := uploadRequest(t, base, "", "nature", "", "", true)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnprocessableEntity {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("expected 422, got %d body %s", resp.StatusCode, string(body))
	}

	uploader.mu.Lock()
	after := uploader.n
	uploader.mu.Unlock()
	if after != before {
		t.Fatalf("media store must not be called for an invalid payload")
	}
}

func listSecondPage(t *testing.T, base, wantID string) {
	resp, err := http.Get(base + "/api/photos?category=Nature&page=2&limit=1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	defer resp.Body.Close()
	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	var data pageData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("decode page: %v", err)
	}
	if data.Total != 2 || data.Pages != 2 || len(data.Photos) != 1 {
		t.Fatalf("unexpected page: %+v", data)
	}
	// Newest-first: page 2 of size 1 holds the older nature photo.
	if data.Photos[0].ID != wantID {
		t.Fatalf("expected photo %s on page 2, got %s", wantID, data.Photos[0].ID)
	}
}

func listFeatured(t *testing.T, base, wantID string) {
	resp, err := http.Get(base + "/api/photos?featured=true")
	if err != nil {
		t.Fatalf("list featured: %v", err)
	}
	defer resp.Body.Close()
	var env envelope
	_ = json.NewDecoder(resp.Body).Decode(&env)
	var data pageData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("decode page: %v", err)
	}
	if data.Total != 1 || data.Photos[0].ID != wantID {
		t.Fatalf("featured filter wrong: %+v", data)
	}
}

func categories(t *testing.T, base string) {
	resp, err := http.Get(base + "/api/photos/categories")
	if err != nil {
		t.Fatalf("categories: %v", err)
	}
	defer resp.Body.Close()
	var env envelope
	_ = json.NewDecoder(resp.Body).Decode(&env)
	var cats []catalog.Category
	if err := json.Unmarshal(env.Data, &cats); err != nil {
		t.Fatalf("decode categories: %v", err)
	}
	if len(cats) != 2 {
		t.Fatalf("expected 2 categories, got %+v", cats)
	}
	if cats[0].Slug != "nature" || cats[0].Label != "Nature" || cats[0].Count != 2 {
		t.Fatalf("unexpected first category: %+v", cats[0])
	}
	if cats[0].CoverURL == "" {
		t.Fatalf("nature category missing cover")
	}
}

func getPhoto(t *testing.T, base, id string) {
	resp, err := http.Get(base + "/api/photos/" + id)
	if err != nil {
		t.Fatalf("get photo: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get photo status %d", resp.StatusCode)
	}
}

func patchPhoto(t *testing.T, base, id string) {
	body := bytes.NewReader([]byte(`{"title":"Old Growth II","tags":["forest","fern"],"featured":true}`))
	req, _ := http.NewRequest(http.MethodPatch, base+"/api/photos/"+id, body)
	req.Header.Set("Content-Type", "application/json")
	authed(req)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("patch: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		t.Fatalf("patch status %d body %s", resp.StatusCode, string(b))
	}
	var env envelope
	_ = json.NewDecoder(resp.Body).Decode(&env)
	var photo store.Photo
	if err := json.Unmarshal(env.Data, &photo); err != nil {
		t.Fatalf("decode patched photo: %v", err)
	}
	if photo.Title != "Old Growth II" || !photo.Featured {
		t.Fatalf("patch not applied: %+v", photo)
	}
	if photo.URL == "" || photo.PublicID == "" {
		t.Fatalf("media fields must survive a patch: %+v", photo)
	}
}

func deletePhoto(t *testing.T, base, id string, uploader *stubUploader) {
	req, _ := http.NewRequest(http.MethodDelete, base+"/api/photos/"+id, nil)
	authed(req)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	defer resp.Body.Close()
	// The stub's remote delete fails; the catalog delete must still win.
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		t.Fatalf("delete status %d body %s", resp.StatusCode, string(b))
	}
	uploader.mu.Lock()
	defer uploader.mu.Unlock()
	if len(uploader.deletes) == 0 {
		t.Fatalf("remote delete was never attempted")
	}
}

func getMissing(t *testing.T, base, id string) {
	resp, err := http.Get(base + "/api/photos/" + id)
	if err != nil {
		t.Fatalf("get deleted: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", resp.StatusCode)
	}
}

func readyz(t *testing.T, base string) {
	resp, err := http.Get(base + "/readyz")
	if err != nil {
		t.Fatalf("readyz: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("readyz status %d", resp.StatusCode)
	}
}
