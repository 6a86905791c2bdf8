package entries

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/nvelas/wanderlog/backend/internal/httperr"
	"github.com/nvelas/wanderlog/backend/internal/models"
	"github.com/nvelas/wanderlog/backend/internal/store"
)

type entryStoreStub struct {
	byID      map[string]*models.Entry
	order     []string
	getErr    error
	listErr   error
	insertErr error
	saveErr   error
	deleteErr error
}

func newEntryStoreStub() *entryStoreStub {
	return &entryStoreStub{byID: map[string]*models.Entry{}}
}

func (s *entryStoreStub) Insert(_ context.Context, e *models.Entry) (*models.Entry, error) {
	if s.insertErr != nil {
		return nil, s.insertErr
	}
	e.ID = primitive.NewObjectID()
	stored := *e
	s.byID[e.ID.Hex()] = &stored
	s.order = append(s.order, e.ID.Hex())
	return e, nil
}

func (s *entryStoreStub) ListByAuthor(_ context.Context, userID string) ([]models.Entry, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	var list []models.Entry
	for _, id := range s.order {
		if e := s.byID[id]; e != nil && e.Author == userID {
			list = append(list, *e)
		}
	}
	return list, nil
}

func (s *entryStoreStub) GetByID(_ context.Context, id string) (*models.Entry, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	e, ok := s.byID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (s *entryStoreStub) Save(_ context.Context, e *models.Entry) (*models.Entry, error) {
	if s.saveErr != nil {
		return nil, s.saveErr
	}
	existing, ok := s.byID[e.ID.Hex()]
	if !ok {
		return nil, store.ErrNotFound
	}
	existing.Headline = e.Headline
	existing.JournalText = e.JournalText
	existing.Photo = e.Photo
	cp := *existing
	return &cp, nil
}

func (s *entryStoreStub) Delete(_ context.Context, id string) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	delete(s.byID, id)
	return nil
}

type geocoderStub struct {
	coords models.Coordinates
	err    error
	calls  []string
}

func (g *geocoderStub) Resolve(_ context.Context, name string) (models.Coordinates, error) {
	g.calls = append(g.calls, name)
	if g.err != nil {
		return models.Coordinates{}, g.err
	}
	return g.coords, nil
}

type fileStoreStub struct {
	objects map[string][]byte
	types   map[string]string
	removed []string
}

func newFileStoreStub() *fileStoreStub {
	return &fileStoreStub{objects: map[string][]byte{}, types: map[string]string{}}
}

func (f *fileStoreStub) Upload(_ context.Context, key string, data []byte, contentType string) error {
	f.objects[key] = data
	f.types[key] = contentType
	return nil
}

func (f *fileStoreStub) Download(_ context.Context, key string) ([]byte, string, error) {
	data, ok := f.objects[key]
	if !ok {
		return nil, "", errors.New("no such object")
	}
	return data, f.types[key], nil
}

func (f *fileStoreStub) Remove(_ context.Context, key string) error {
	f.removed = append(f.removed, key)
	delete(f.objects, key)
	return nil
}

type fixture struct {
	entries  *entryStoreStub
	photos   *fileStoreStub
	geocoder *geocoderStub
	router   chi.Router
}

func newFixture() *fixture {
	f := &fixture{
		entries:  newEntryStoreStub(),
		photos:   newFileStoreStub(),
		geocoder: &geocoderStub{coords: models.Coordinates{Latitude: 48.8584, Longitude: 2.2945}},
	}
	h := NewHandler(f.entries, f.photos, f.geocoder, zerolog.Nop())
	r := chi.NewRouter()
	r.Post("/api/entries", h.Create)
	r.Get("/api/entries/user/{uid}", h.ListByUser)
	r.Get("/api/entries/{id}", h.Get)
	r.Patch("/api/entries/{id}", h.Update)
	r.Delete("/api/entries/{id}", h.Delete)
	r.Put("/api/entries/{id}/photo", h.UploadPhoto)
	r.Get("/api/entries/{id}/photo", h.DownloadPhoto)
	f.router = r
	return f
}

func (f *fixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)
	return rr
}

func (f *fixture) createEntry(t *testing.T, author string) models.Entry {
	t.Helper()
	rr := f.do(t, http.MethodPost, "/api/entries", models.CreateEntryRequest{
		Headline:     "Morning at the tower",
		JournalText:  "Climbed all the stairs before the queue formed.",
		LocationName: "Eiffel Tower",
		Author:       author,
	})
	require.Equal(t, http.StatusCreated, rr.Code)
	var e models.Entry
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &e))
	return e
}

func TestCreateEntryAttachesGeocodedCoordinates(t *testing.T) {
	f := newFixture()
	e := f.createEntry(t, "user-1")

	assert.Equal(t, f.geocoder.coords, e.Coordinates)
	assert.Equal(t, []string{"Eiffel Tower"}, f.geocoder.calls)
	assert.Equal(t, placeholderPhoto, e.Photo)
	assert.Equal(t, "user-1", e.Author)
	assert.False(t, e.ID.IsZero())

	other := f.createEntry(t, "user-1")
	assert.NotEqual(t, e.ID, other.ID)
}

func TestCreateEntryGeocodeFailurePersistsNothing(t *testing.T) {
	f := newFixture()
	f.geocoder.err = httperr.New(http.StatusUnprocessableEntity, "Could not find location for the specified address.")

	rr := f.do(t, http.MethodPost, "/api/entries", models.CreateEntryRequest{
		Headline:     "Nowhere in particular",
		JournalText:  "This place does not exist.",
		LocationName: "Xyzzyville",
		Author:       "user-1",
	})
	// The geocoder's own classification comes through untouched.
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Contains(t, rr.Body.String(), "Could not find location")

	list := f.do(t, http.MethodGet, "/api/entries/user/user-1", nil)
	assert.JSONEq(t, "[]", list.Body.String())
}

func TestCreateEntryValidation(t *testing.T) {
	cases := []struct {
		name string
		req  models.CreateEntryRequest
	}{
		{"short headline", models.CreateEntryRequest{Headline: "Hey", JournalText: "text", LocationName: "Paris", Author: "u"}},
		{"missing text", models.CreateEntryRequest{Headline: "A fine day", LocationName: "Paris", Author: "u"}},
		{"missing location", models.CreateEntryRequest{Headline: "A fine day", JournalText: "text", Author: "u"}},
		{"missing author", models.CreateEntryRequest{Headline: "A fine day", JournalText: "text", LocationName: "Paris"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture()
			rr := f.do(t, http.MethodPost, "/api/entries", tc.req)
			assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
			assert.Empty(t, f.geocoder.calls, "validation failure must short-circuit before geocoding")
			assert.Empty(t, f.entries.byID)
		})
	}
}

func TestCreateEntryInsertFailure(t *testing.T) {
	f := newFixture()
	f.entries.insertErr = errors.New("mongo down")
	rr := f.do(t, http.MethodPost, "/api/entries", models.CreateEntryRequest{
		Headline: "A fine day", JournalText: "text", LocationName: "Paris", Author: "u",
	})
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestGetEntryNotFound(t *testing.T) {
	f := newFixture()
	rr := f.do(t, http.MethodGet, "/api/entries/"+primitive.NewObjectID().Hex(), nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestGetEntryStoreFailure(t *testing.T) {
	f := newFixture()
	f.entries.getErr = errors.New("mongo down")
	rr := f.do(t, http.MethodGet, "/api/entries/"+primitive.NewObjectID().Hex(), nil)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestListByUserReturnsOwnEntriesInCreationOrder(t *testing.T) {
	f := newFixture()
	first := f.createEntry(t, "user-1")
	f.createEntry(t, "user-2")
	second := f.createEntry(t, "user-1")

	rr := f.do(t, http.MethodGet, "/api/entries/user/user-1", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var list []models.Entry
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &list))
	require.Len(t, list, 2)
	assert.Equal(t, first.ID, list[0].ID)
	assert.Equal(t, second.ID, list[1].ID)
}

func TestListByUserStoreFailure(t *testing.T) {
	f := newFixture()
	f.entries.listErr = errors.New("mongo down")
	rr := f.do(t, http.MethodGet, "/api/entries/user/user-1", nil)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestUpdateEntryChangesOnlyHeadlineAndText(t *testing.T) {
	f := newFixture()
	created := f.createEntry(t, "user-1")

	rr := f.do(t, http.MethodPatch, "/api/entries/"+created.ID.Hex(), models.UpdateEntryRequest{
		Headline:    "Evening at the tower",
		JournalText: "Came back for the lights.",
	})
	require.Equal(t, http.StatusOK, rr.Code)

	var updated models.Entry
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &updated))
	assert.Equal(t, "Evening at the tower", updated.Headline)
	assert.Equal(t, "Came back for the lights.", updated.JournalText)
	assert.Equal(t, created.Coordinates, updated.Coordinates)
	assert.Equal(t, created.LocationName, updated.LocationName)
	assert.Equal(t, created.Author, updated.Author)
	assert.Equal(t, created.Photo, updated.Photo)
}

func TestUpdateEntrySeparatesAbsentFromStoreFailure(t *testing.T) {
	f := newFixture()
	req := models.UpdateEntryRequest{Headline: "Something new", JournalText: "text"}

	absent := f.do(t, http.MethodPatch, "/api/entries/"+primitive.NewObjectID().Hex(), req)
	assert.Equal(t, http.StatusNotFound, absent.Code)

	f.entries.getErr = errors.New("mongo down")
	failing := f.do(t, http.MethodPatch, "/api/entries/"+primitive.NewObjectID().Hex(), req)
	assert.Equal(t, http.StatusInternalServerError, failing.Code)
}

func TestUpdateEntryValidation(t *testing.T) {
	f := newFixture()
	created := f.createEntry(t, "user-1")

	rr := f.do(t, http.MethodPatch, "/api/entries/"+created.ID.Hex(), models.UpdateEntryRequest{
		Headline: "Hey",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	stored := f.entries.byID[created.ID.Hex()]
	assert.Equal(t, created.Headline, stored.Headline)
}

func TestDeleteEntryThenGetIsNotFound(t *testing.T) {
	f := newFixture()
	created := f.createEntry(t, "user-1")

	rr := f.do(t, http.MethodDelete, "/api/entries/"+created.ID.Hex(), nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Deleted entry.")

	rr = f.do(t, http.MethodGet, "/api/entries/"+created.ID.Hex(), nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestDeleteEntryAbsent(t *testing.T) {
	f := newFixture()
	rr := f.do(t, http.MethodDelete, "/api/entries/"+primitive.NewObjectID().Hex(), nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestDeleteEntryCleansUpUploadedPhoto(t *testing.T) {
	f := newFixture()
	created := f.createEntry(t, "user-1")

	up := httptest.NewRequest(http.MethodPut, "/api/entries/"+created.ID.Hex()+"/photo",
		strings.NewReader("fake-jpeg-bytes"))
	up.Header.Set("Content-Type", "image/jpeg")
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, up)
	require.Equal(t, http.StatusOK, rr.Code)

	del := f.do(t, http.MethodDelete, "/api/entries/"+created.ID.Hex(), nil)
	require.Equal(t, http.StatusOK, del.Code)
	require.Len(t, f.photos.removed, 1)
	assert.True(t, strings.HasPrefix(f.photos.removed[0], "user-1/"))
}

func TestDeleteEntryFailureLeavesPhotoAlone(t *testing.T) {
	f := newFixture()
	created := f.createEntry(t, "user-1")

	up := httptest.NewRequest(http.MethodPut, "/api/entries/"+created.ID.Hex()+"/photo",
		strings.NewReader("fake-jpeg-bytes"))
	up.Header.Set("Content-Type", "image/jpeg")
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, up)
	require.Equal(t, http.StatusOK, rr.Code)

	f.entries.deleteErr = errors.New("mongo down")
	del := f.do(t, http.MethodDelete, "/api/entries/"+created.ID.Hex(), nil)
	assert.Equal(t, http.StatusInternalServerError, del.Code)

	// The entry survived, so its photo must too.
	assert.Empty(t, f.photos.removed)
	assert.Len(t, f.photos.objects, 1)
}

func TestUploadPhotoReplacesPreviousObject(t *testing.T) {
	f := newFixture()
	created := f.createEntry(t, "user-1")

	upload := func(body string) models.Entry {
		req := httptest.NewRequest(http.MethodPut, "/api/entries/"+created.ID.Hex()+"/photo",
			strings.NewReader(body))
		req.Header.Set("Content-Type", "image/jpeg")
		rr := httptest.NewRecorder()
		f.router.ServeHTTP(rr, req)
		require.Equal(t, http.StatusOK, rr.Code)
		var e models.Entry
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &e))
		return e
	}

	first := upload("first-photo")
	second := upload("second-photo")
	require.NotEqual(t, first.Photo, second.Photo)

	assert.Equal(t, []string{first.Photo}, f.photos.removed)
	require.Len(t, f.photos.objects, 1)
	assert.Equal(t, []byte("second-photo"), f.photos.objects[second.Photo])
}

func TestUploadAndDownloadPhoto(t *testing.T) {
	f := newFixture()
	created := f.createEntry(t, "user-1")

	up := httptest.NewRequest(http.MethodPut, "/api/entries/"+created.ID.Hex()+"/photo",
		strings.NewReader("fake-jpeg-bytes"))
	up.Header.Set("Content-Type", "image/jpeg")
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, up)
	require.Equal(t, http.StatusOK, rr.Code)

	var updated models.Entry
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &updated))
	assert.True(t, strings.HasPrefix(updated.Photo, "user-1/"))

	down := f.do(t, http.MethodGet, "/api/entries/"+created.ID.Hex()+"/photo", nil)
	require.Equal(t, http.StatusOK, down.Code)
	assert.Equal(t, "fake-jpeg-bytes", down.Body.String())
	assert.Equal(t, "image/jpeg", down.Header().Get("Content-Type"))
}

func TestDownloadPhotoRedirectsForExternalURL(t *testing.T) {
	f := newFixture()
	created := f.createEntry(t, "user-1")

	rr := f.do(t, http.MethodGet, "/api/entries/"+created.ID.Hex()+"/photo", nil)
	assert.Equal(t, http.StatusFound, rr.Code)
	assert.Equal(t, placeholderPhoto, rr.Header().Get("Location"))
}
