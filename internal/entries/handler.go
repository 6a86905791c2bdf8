package entries

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nvelas/wanderlog/backend/internal/httperr"
	"github.com/nvelas/wanderlog/backend/internal/models"
	"github.com/nvelas/wanderlog/backend/internal/store"
)

// placeholderPhoto is attached to every new entry until a photo is uploaded.
const placeholderPhoto = "https://encrypted-tbn0.gstatic.com/images?q=tbn:ANd9GcSpPkm3Hhfm2fa7zZFgK0HQrD8yvwSBmnm_Gw&s"

const maxPhotoBytes = 10 << 20

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// EntryStore defines the interface for entry persistence.
type EntryStore interface {
	Insert(ctx context.Context, entry *models.Entry) (*models.Entry, error)
	ListByAuthor(ctx context.Context, userID string) ([]models.Entry, error)
	GetByID(ctx context.Context, id string) (*models.Entry, error)
	Save(ctx context.Context, entry *models.Entry) (*models.Entry, error)
	Delete(ctx context.Context, id string) error
}

// FileStore defines the interface for photo storage.
type FileStore interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) error
	Download(ctx context.Context, key string) ([]byte, string, error)
	Remove(ctx context.Context, key string) error
}

// Geocoder resolves a location name to coordinates.
type Geocoder interface {
	Resolve(ctx context.Context, locationName string) (models.Coordinates, error)
}

// Handler holds entry HTTP handlers.
type Handler struct {
	entries  EntryStore
	photos   FileStore
	geocoder Geocoder
	validate *validator.Validate
	log      zerolog.Logger
}

func NewHandler(entries EntryStore, photos FileStore, geocoder Geocoder, log zerolog.Logger) *Handler {
	return &Handler{
		entries:  entries,
		photos:   photos,
		geocoder: geocoder,
		validate: validator.New(),
		log:      log,
	}
}

// Get returns a single entry by id.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	entry, err := h.entries.GetByID(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		httperr.Write(w, httperr.NotFound("Could not find an entry for the provided id."))
		return
	}
	if err != nil {
		h.log.Error().Err(err).Str("entry_id", id).Msg("entry lookup failed")
		httperr.Write(w, httperr.StoreUnavailable("Something went wrong, could not find an entry."))
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// ListByUser returns all entries authored by the given user, oldest first.
// No entries is an empty array, not an error.
func (h *Handler) ListByUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "uid")
	list, err := h.entries.ListByAuthor(r.Context(), userID)
	if err != nil {
		h.log.Error().Err(err).Str("user_id", userID).Msg("entry list failed")
		httperr.Write(w, httperr.StoreUnavailable("Fetching entries failed, please try again later."))
		return
	}
	if list == nil {
		list = []models.Entry{}
	}
	writeJSON(w, http.StatusOK, list)
}

// Create geocodes the location, then persists a new entry. A geocoding
// failure is passed through untouched and nothing is persisted.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperr.Write(w, httperr.UnprocessableInput())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httperr.Write(w, httperr.UnprocessableInput())
		return
	}

	coords, err := h.geocoder.Resolve(r.Context(), req.LocationName)
	if err != nil {
		httperr.Write(w, err)
		return
	}

	entry := &models.Entry{
		Headline:     req.Headline,
		JournalText:  req.JournalText,
		Photo:        placeholderPhoto,
		LocationName: req.LocationName,
		Coordinates:  coords,
		Author:       req.Author,
	}
	created, err := h.entries.Insert(r.Context(), entry)
	if err != nil {
		h.log.Error().Err(err).Msg("entry insert failed")
		httperr.Write(w, httperr.StoreUnavailable("Creating entry failed, please try again."))
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// Update overwrites headline and journal text only. Coordinates, location,
// author and photo stay as they were.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperr.Write(w, httperr.UnprocessableInput())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httperr.Write(w, httperr.UnprocessableInput())
		return
	}

	id := chi.URLParam(r, "id")
	entry, err := h.entries.GetByID(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		httperr.Write(w, httperr.NotFound("Could not find entry for this id."))
		return
	}
	if err != nil {
		h.log.Error().Err(err).Str("entry_id", id).Msg("entry lookup failed")
		httperr.Write(w, httperr.StoreUnavailable("Something went wrong, could not update entry."))
		return
	}

	entry.Headline = req.Headline
	entry.JournalText = req.JournalText

	updated, err := h.entries.Save(r.Context(), entry)
	if err != nil {
		h.log.Error().Err(err).Str("entry_id", id).Msg("entry save failed")
		httperr.Write(w, httperr.StoreUnavailable("Something went wrong, could not update entry."))
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// Delete removes an entry and, when one was uploaded, its stored photo.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	entry, err := h.entries.GetByID(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		httperr.Write(w, httperr.NotFound("Could not find entry for this id."))
		return
	}
	if err != nil {
		h.log.Error().Err(err).Str("entry_id", id).Msg("entry lookup failed")
		httperr.Write(w, httperr.StoreUnavailable("Something went wrong, could not delete entry."))
		return
	}

	if err := h.entries.Delete(r.Context(), id); err != nil {
		h.log.Error().Err(err).Str("entry_id", id).Msg("entry delete failed")
		httperr.Write(w, httperr.StoreUnavailable("Something went wrong, could not delete entry."))
		return
	}

	// Photo cleanup only after the entry is gone: an orphaned object is
	// harmless, a surviving entry pointing at a deleted object is not.
	// Uploaded photos live in the object store under a key; the placeholder
	// and anything else http-ish is external and not ours to delete.
	if key := entry.Photo; key != "" && !strings.HasPrefix(key, "http") {
		if err := h.photos.Remove(r.Context(), key); err != nil {
			h.log.Warn().Err(err).Str("photo_key", key).Msg("photo cleanup failed")
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Deleted entry."})
}

// UploadPhoto replaces the entry's photo with the uploaded bytes.
func (h *Handler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	entry, err := h.entries.GetByID(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		httperr.Write(w, httperr.NotFound("Could not find entry for this id."))
		return
	}
	if err != nil {
		h.log.Error().Err(err).Str("entry_id", id).Msg("entry lookup failed")
		httperr.Write(w, httperr.StoreUnavailable("Something went wrong, could not update entry."))
		return
	}

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxPhotoBytes))
	if err != nil {
		httperr.Write(w, httperr.UnprocessableInput())
		return
	}
	if len(data) == 0 {
		httperr.Write(w, httperr.UnprocessableInput())
		return
	}

	contentType := r.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	key := fmt.Sprintf("%s/%s", entry.Author, uuid.New().String())
	if err := h.photos.Upload(r.Context(), key, data, contentType); err != nil {
		h.log.Error().Err(err).Str("photo_key", key).Msg("photo upload failed")
		httperr.Write(w, httperr.StoreUnavailable("Uploading photo failed, please try again."))
		return
	}

	oldKey := entry.Photo
	entry.Photo = key
	updated, err := h.entries.Save(r.Context(), entry)
	if err != nil {
		h.log.Error().Err(err).Str("entry_id", id).Msg("entry save failed")
		httperr.Write(w, httperr.StoreUnavailable("Something went wrong, could not update entry."))
		return
	}

	// The replaced photo would otherwise linger in the bucket forever.
	if oldKey != "" && oldKey != key && !strings.HasPrefix(oldKey, "http") {
		if err := h.photos.Remove(r.Context(), oldKey); err != nil {
			h.log.Warn().Err(err).Str("photo_key", oldKey).Msg("photo cleanup failed")
		}
	}
	writeJSON(w, http.StatusOK, updated)
}

// DownloadPhoto streams an uploaded photo, or redirects when the entry still
// points at an external URL.
func (h *Handler) DownloadPhoto(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	entry, err := h.entries.GetByID(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		httperr.Write(w, httperr.NotFound("Could not find entry for this id."))
		return
	}
	if err != nil {
		h.log.Error().Err(err).Str("entry_id", id).Msg("entry lookup failed")
		httperr.Write(w, httperr.StoreUnavailable("Something went wrong, could not find an entry."))
		return
	}

	if entry.Photo == "" {
		httperr.Write(w, httperr.NotFound("No photo for this entry."))
		return
	}
	if strings.HasPrefix(entry.Photo, "http") {
		http.Redirect(w, r, entry.Photo, http.StatusFound)
		return
	}

	data, contentType, err := h.photos.Download(r.Context(), entry.Photo)
	if err != nil {
		h.log.Error().Err(err).Str("photo_key", entry.Photo).Msg("photo download failed")
		httperr.Write(w, httperr.StoreUnavailable("Downloading photo failed, please try again."))
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Write(data)
}
