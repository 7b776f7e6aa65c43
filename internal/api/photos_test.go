package api

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"image"
	"image/jpeg"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yongikim/photolio-lambda-functions/internal/api/respond"
	"github.com/yongikim/photolio-lambda-functions/internal/model"
	objmem "github.com/yongikim/photolio-lambda-functions/internal/objectstore/memstore"
	"github.com/yongikim/photolio-lambda-functions/internal/photoid"
	"github.com/yongikim/photolio-lambda-functions/internal/services"
	"github.com/yongikim/photolio-lambda-functions/internal/store/memstore"
)

// flakyObjects fails Delete for the listed keys.
type flakyObjects struct {
	*objmem.Store
	failDelete map[string]bool
}

func (f *flakyObjects) Delete(ctx context.Context, key string) error {
	if f.failDelete[key] {
		return errors.New("s3 unavailable")
	}
	return f.Store.Delete(ctx, key)
}

// brokenStore fails every key query.
type brokenStore struct{ *memstore.Store }

func (brokenStore) QueryKeys(context.Context, string, []string) ([]model.KeyRow, error) {
	return nil, errors.New("ResourceNotFoundException: table photolio-prod not found")
}

// incompleteStore returns a second key row without ItemCreatedAt.
type incompleteStore struct{ *memstore.Store }

func (incompleteStore) QueryKeys(context.Context, string, []string) ([]model.KeyRow, error) {
	album, id, created := "all", "p1", int64(1)
	return []model.KeyRow{
		{AlbumID: &album, ItemCreatedAt: &created, PhotoID: &id},
		{AlbumID: &album, PhotoID: &id},
	}, nil
}

type fixture struct {
	rows    *memstore.Store
	objects *flakyObjects
	handler http.Handler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		rows:    memstore.New(),
		objects: &flakyObjects{Store: objmem.New("https://photos.example.test")},
	}
	for i, id := range []string{"p1", "p2", "p3"} {
		p := &model.Photo{AlbumID: "all", ItemCreatedAt: int64(100 + i), PhotoID: id, PhotoURL: f.objects.URL(id + ".jpeg")}
		require.NoError(t, f.rows.Put(context.Background(), p))
		require.NoError(t, f.objects.Put(context.Background(), id+".jpeg", []byte("jpeg"), "image/jpeg"))
	}
	svc := services.NewPhotoService(f.rows, f.objects, photoid.NewULID(), services.Options{DefaultAlbumID: "all", ListLimit: 10}, zerolog.Nop())
	f.handler = NewRouter(svc, func() bool { return true }, zerolog.Nop())
	return f
}

func (f *fixture) do(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	f.handler.ServeHTTP(rr, req)
	return rr
}

func assertCORS(t *testing.T, rr *httptest.ResponseRecorder) {
	t.Helper()
	assert.Equal(t, "Content-Type", rr.Header().Get("Access-Control-Allow-Headers"))
	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "OPTIONS,POST,GET,DELETE", rr.Header().Get("Access-Control-Allow-Methods"))
}

func TestDeletePhotos_BothExist(t *testing.T) {
	f := newFixture(t)

	rr := f.do(http.MethodDelete, "/photos", `{"albumId":"all","photoIds":["p1","p2"]}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `[{"success":true},{"success":true}]`, rr.Body.String())
	assertCORS(t, rr)

	assert.Equal(t, 1, f.rows.Len())
	assert.False(t, f.objects.Has("p1.jpeg"))
	assert.False(t, f.objects.Has("p2.jpeg"))
	assert.True(t, f.objects.Has("p3.jpeg"))
}

func TestDeletePhotos_PostAlias(t *testing.T) {
	f := newFixture(t)
	rr := f.do(http.MethodPost, "/photos/delete", `{"albumId":"all","photoIds":["p3"]}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `[{"success":true}]`, rr.Body.String())
}

func TestDeletePhotos_NoMatchIsNotFound(t *testing.T) {
	f := newFixture(t)

	rr := f.do(http.MethodDelete, "/photos", `{"albumId":"all","photoIds":["ghost"]}`)
	require.Equal(t, http.StatusNotFound, rr.Code)
	assertCORS(t, rr)
	var body respond.ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, http.StatusNotFound, body.Code)
	assert.Equal(t, 3, f.rows.Len())
}

func TestDeletePhotos_ObjectFailureReported(t *testing.T) {
	f := newFixture(t)
	f.objects.failDelete = map[string]bool{"p2.jpeg": true}

	rr := f.do(http.MethodDelete, "/photos", `{"albumId":"all","photoIds":["p1","p2"]}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `[{"success":true},{"success":false}]`, rr.Body.String())

	_, ok := f.rows.Get("all", 100)
	assert.False(t, ok, "p1 row")
	assert.False(t, f.objects.Has("p1.jpeg"), "p1 object")
	_, ok = f.rows.Get("all", 101)
	assert.False(t, ok, "p2 row is deleted before its object")
	assert.True(t, f.objects.Has("p2.jpeg"))
}

func TestDeletePhotos_BadRequests(t *testing.T) {
	f := newFixture(t)
	cases := map[string]string{
		"malformed json":    `{"albumId":`,
		"missing album":     `{"photoIds":["p1"]}`,
		"empty photo ids":   `{"albumId":"all","photoIds":[]}`,
		"missing photo ids": `{"albumId":"all"}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			rr := f.do(http.MethodDelete, "/photos", body)
			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assertCORS(t, rr)
		})
	}
	assert.Equal(t, 3, f.rows.Len())
}

func TestDeletePhotos_StoreFailureIsGeneric500(t *testing.T) {
	rows := memstore.New()
	svc := services.NewPhotoService(brokenStore{rows}, objmem.New(""), photoid.NewULID(), services.Options{}, zerolog.Nop())
	h := NewRouter(svc, nil, zerolog.Nop())

	req := httptest.NewRequest(http.MethodDelete, "/photos", strings.NewReader(`{"albumId":"all","photoIds":["p1"]}`))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	require.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.NotContains(t, rr.Body.String(), "photolio-prod")
	assertCORS(t, rr)
}

func TestDeletePhotos_MalformedRowNamedIn500(t *testing.T) {
	svc := services.NewPhotoService(incompleteStore{memstore.New()}, objmem.New(""), photoid.NewULID(), services.Options{}, zerolog.Nop())
	h := NewRouter(svc, nil, zerolog.Nop())

	req := httptest.NewRequest(http.MethodDelete, "/photos", strings.NewReader(`{"albumId":"all","photoIds":["p1"]}`))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	require.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Contains(t, rr.Body.String(), "row 2 is missing ItemCreatedAt")
	assertCORS(t, rr)
}

func TestUploadPhotos(t *testing.T) {
	f := newFixture(t)
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 6, 4)), nil))
	body := `{"photos":[{"imageBase64":"` + base64.StdEncoding.EncodeToString(buf.Bytes()) + `","title":"sunset"},{"imageBase64":"AAAA"}]}`

	rr := f.do(http.MethodPost, "/photos", body)
	require.Equal(t, http.StatusOK, rr.Code)

	var out struct {
		Photos []model.UploadResult `json:"photos"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	require.Len(t, out.Photos, 2)
	assert.True(t, out.Photos[0].Success)
	assert.Equal(t, "sunset", out.Photos[0].Title)
	assert.Equal(t, 6, out.Photos[0].Width)
	assert.Equal(t, 4, out.Photos[0].Height)
	assert.Equal(t, "https://photos.example.test/"+out.Photos[0].ID+".jpeg", out.Photos[0].URL)
	assert.False(t, out.Photos[1].Success)

	_, contentType, err := f.objects.Get(out.Photos[0].ID + ".jpeg")
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", contentType)
	assert.Equal(t, 4, f.rows.Len())

	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodPost, "/photos", `not json`).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodPost, "/photos", `{"photos":[]}`).Code)
}

func TestListPhotos(t *testing.T) {
	f := newFixture(t)

	rr := f.do(http.MethodGet, "/photos?limit=2", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assertCORS(t, rr)
	var page model.PhotoPage
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &page))
	require.Len(t, page.Photos, 2)
	assert.Equal(t, "p3", page.Photos[0].PhotoID)
	assert.Equal(t, "p2", page.Photos[1].PhotoID)
	assert.Equal(t, 2, page.Meta.Limit)
	require.NotEmpty(t, page.Meta.Cursor)

	rr = f.do(http.MethodGet, "/photos?limit=2&cursor="+page.Meta.Cursor, "")
	require.Equal(t, http.StatusOK, rr.Code)
	page = model.PhotoPage{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &page))
	require.Len(t, page.Photos, 1)
	assert.Equal(t, "p1", page.Photos[0].PhotoID)

	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodGet, "/photos?limit=abc", "").Code)
	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodGet, "/photos?cursor=***", "").Code)
}

func TestGetPhoto(t *testing.T) {
	f := newFixture(t)

	rr := f.do(http.MethodGet, "/photos/p2", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var page model.PhotoPage
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &page))
	require.Len(t, page.Photos, 1)
	assert.Equal(t, "https://photos.example.test/p2.jpeg", page.Photos[0].PhotoURL)

	rr = f.do(http.MethodGet, "/photos/unknown", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"photos":[],"meta":{"total":0,"limit":10}}`, rr.Body.String())
}

func TestPreflightAndUnknownRoutes(t *testing.T) {
	f := newFixture(t)

	for _, path := range []string{"/photos", "/photos/delete", "/photos/p1", "/anything"} {
		rr := f.do(http.MethodOptions, path, "")
		assert.Equal(t, http.StatusNoContent, rr.Code, path)
		assertCORS(t, rr)
	}

	rr := f.do(http.MethodGet, "/api/health", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assertCORS(t, rr)

	rr = f.do(http.MethodGet, "/nope", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assertCORS(t, rr)

	rr = f.do(http.MethodPut, "/photos", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
	assertCORS(t, rr)
	assert.NotEmpty(t, rr.Header().Get("X-Request-Id"))
}
