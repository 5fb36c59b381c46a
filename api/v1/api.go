package v1

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/10001111/File-upload-conponent/storage"
)

type Options struct {
	// MaxUploadSize bounds the whole multipart request body.
	MaxUploadSize int64
}

type Option func(*Options)

func WithMaxUploadSize(size int64) Option {
	return func(o *Options) {
		o.MaxUploadSize = size
	}
}

func NewController(files *storage.Service, opts ...Option) Controller {
	o := Options{
		// two attachments plus form field overhead
		MaxUploadSize: MaxAttachments*MaxAttachmentSize + 1<<20,
	}
	for _, opt := range opts {
		opt(&o)
	}

	c := Controller{
		files:         files,
		maxUploadSize: o.MaxUploadSize,
		hub:           newHub(),
	}
	go c.watchFiles()
	return c
}

// Controller serves the intake form API. All state lives in the storage
// facade; the controller only validates input and shapes responses.
type Controller struct {
	files         *storage.Service
	maxUploadSize int64
	hub           *hub
}

// SubmitApplication accepts one multipart submission: applicant fields plus
// up to two attachments. Field and file validation failures are rejected
// up front; once validation passes, persistence always succeeds from the
// caller's point of view, even when the blob store is down.
func (c *Controller) SubmitApplication() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, c.maxUploadSize)
		if err := r.ParseMultipartForm(5 << 20); err != nil {
			log.Error().Err(err).Msg("Error Parsing the Form")
			writeError(w, http.StatusBadRequest, errors.New("invalid multipart form"))
			return
		}
		defer r.MultipartForm.RemoveAll()

		app := Application{
			Name:          r.FormValue("name"),
			Email:         r.FormValue("email"),
			Phone:         r.FormValue("phone"),
			AvailableFrom: r.FormValue("available_from"),
		}
		if errs := app.Validate(); len(errs) > 0 {
			writeJSON(w, http.StatusBadRequest, map[string]any{
				"success": false,
				"errors":  errs,
			})
			return
		}

		attachments := r.MultipartForm.File["attachments"]
		if len(attachments) == 0 {
			writeError(w, http.StatusBadRequest, errors.New("no file provided"))
			return
		}
		if len(attachments) > MaxAttachments {
			writeError(w, http.StatusBadRequest, fmt.Errorf("at most %d attachments allowed", MaxAttachments))
			return
		}
		for _, fh := range attachments {
			if err := validateAttachment(fh); err != nil {
				writeError(w, http.StatusBadRequest, err)
				return
			}
		}

		records := make([]storage.FileRecord, 0, len(attachments))
		for _, fh := range attachments {
			f, err := fh.Open()
			if err != nil {
				log.Error().Err(err).Msg("Error Retrieving the File")
				writeError(w, http.StatusBadRequest, errors.New("error retrieving the file"))
				return
			}
			content, err := io.ReadAll(f)
			f.Close()
			if err != nil {
				log.Error().Err(err).Msg("Error Reading the File")
				writeError(w, http.StatusInternalServerError, errors.New("error reading the file"))
				return
			}

			rec := c.files.Save(r.Context(), fh.Filename, fh.Header.Get("Content-Type"), content)
			log.Info().
				Str("file_name", rec.Name).
				Int64("file_size", rec.Size).
				Str("id", rec.ID).
				Msg("File Uploaded")
			records = append(records, rec)
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"data":    records,
		})
	}
}

// ListFiles returns the recent-files list, most recent first.
func (c *Controller) ListFiles() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := 10
		if v := r.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				writeError(w, http.StatusBadRequest, errors.New("invalid limit"))
				return
			}
			limit = n
		}

		records := c.files.Recent(limit)
		if records == nil {
			records = []storage.FileRecord{}
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"data":    records,
		})
	}
}

// DownloadFile streams the stored content as an attachment. A listed record
// whose content is gone (degraded save, unavailable store) comes back 404.
func (c *Controller) DownloadFile() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["file_id"]

		content, ok := c.files.Retrieve(r.Context(), id)
		if !ok {
			writeError(w, http.StatusNotFound, errors.New("file not found"))
			return
		}

		name, mimeType := id, "application/octet-stream"
		for _, rec := range c.files.Recent(storage.RetentionCap) {
			if rec.ID == id {
				name = rec.Name
				if rec.MimeType != "" {
					mimeType = rec.MimeType
				}
				break
			}
		}

		w.Header().Set("Content-Type", mimeType)
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Write(content)
	}
}

// CreateLink mints an ephemeral view link for a stored file. The link is
// process-local and lives until revoked.
func (c *Controller) CreateLink() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["file_id"]

		url, ok := c.files.EphemeralURL(r.Context(), id)
		if !ok {
			writeError(w, http.StatusNotFound, errors.New("file not found"))
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{
			"success": true,
			"url":     url,
		})
	}
}

// ResolveLink serves the content behind a minted link inline.
func (c *Controller) ResolveLink() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := mux.Vars(r)["token"]

		h, ok := c.files.ResolveLink(token)
		if !ok {
			writeError(w, http.StatusNotFound, errors.New("link expired or unknown"))
			return
		}

		w.Header().Set("Content-Type", h.MimeType)
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Write(h.Content)
	}
}

// RevokeLink releases a minted link. Revoking an unknown token succeeds.
func (c *Controller) RevokeLink() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c.files.ReleaseLink(mux.Vars(r)["token"])
		w.WriteHeader(http.StatusNoContent)
	}
}

// DeleteFile removes a file from both stores. Idempotent.
func (c *Controller) DeleteFile() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c.files.Remove(r.Context(), mux.Vars(r)["file_id"])
		w.WriteHeader(http.StatusNoContent)
	}
}

// Health reports the upload limits the form should enforce client-side.
func (c *Controller) Health() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mimeTypes := make([]string, 0, len(allowedMimeTypes))
		for mt := range allowedMimeTypes {
			mimeTypes = append(mimeTypes, mt)
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"status":             "ok",
			"timestamp":          time.Now().Format(time.RFC3339),
			"max_file_size":      fmt.Sprintf("%dMB", MaxAttachmentSize>>20),
			"max_attachments":    MaxAttachments,
			"allowed_extensions": allowedExtensions(),
			"allowed_mime_types": mimeTypes,
		})
	}
}

type cError struct {
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]any{
		"success": false,
		"error":   cError{Message: err.Error()},
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}
