// files.go implements upload, URL signing and deletion of user files such as
// organisation logos, avatars and task attachments.
package handlers

import (
	"errors"
	"net/http"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/worknest/worknest/internal/api/response"
	"github.com/worknest/worknest/internal/services"
	"github.com/worknest/worknest/internal/storage"
)

// DefaultMaxUploadBytes applies when storage.max_upload_bytes is unset.
const DefaultMaxUploadBytes = 10 << 20

const fileURLTTL = 15 * time.Minute

var uploadFolders = map[string]bool{
	"logos":       true,
	"attachments": true,
	"avatars":     true,
}

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// FileHandlers handles the /files endpoints
type FileHandlers struct {
	store    storage.Storage
	out      response.Writer
	maxBytes int64
}

// NewFileHandlers creates a new FileHandlers instance
func NewFileHandlers(store storage.Storage, out response.Writer, maxBytes int64) *FileHandlers {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadBytes
	}
	return &FileHandlers{store: store, out: out, maxBytes: maxBytes}
}

// objectKey namespaces an upload as {folder}/{userID}/{uuid}-{filename}.
func objectKey(folder, userID, filename string) string {
	name := unsafeFileChars.ReplaceAllString(path.Base(filename), "_")
	if name == "" || name == "." || name == "/" {
		name = "file"
	}
	return path.Join(folder, userID, uuid.New().String()+"-"+name)
}

// validKey accepts clean relative keys under one of the upload folders.
func validKey(key string) bool {
	if key == "" || path.Clean(key) != key || path.IsAbs(key) {
		return false
	}
	folder, rest, ok := strings.Cut(key, "/")
	return ok && uploadFolders[folder] && rest != ""
}

// ownedBy reports whether key lies inside userID's namespace.
func ownedBy(key, userID string) bool {
	if !validKey(key) {
		return false
	}
	parts := strings.SplitN(key, "/", 3)
	return len(parts) == 3 && uploadFolders[parts[0]] && parts[1] == userID && parts[2] != ""
}

// @Summary      Upload file
// @Tags         Files
// @Security     Bearer
// @Accept       multipart/form-data
// @Produce      json
// @Param        file    formData  file    true   "File (max 10MB)"
// @Param        folder  formData  string  false  "logos, attachments or avatars (default attachments)"
// @Success      201  {object}  response.Envelope  "path, url, size, checksum"
// @Failure      400  {object}  response.Envelope
// @Failure      413  {object}  response.Envelope
// @Router       /api/v1/files/upload [post]
// UploadHandler stores a file in the caller's namespace
// POST /api/v1/files/upload
func (h *FileHandlers) UploadHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		// leave room for the multipart framing around the file
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBytes+(1<<20))

		file, header, err := c.Request.FormFile("file")
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				h.out.Error(c, http.StatusRequestEntityTooLarge, "File is too large", nil)
				return
			}
			h.out.Error(c, http.StatusBadRequest, "file: required", nil)
			return
		}
		defer file.Close()

		if header.Size > h.maxBytes {
			h.out.Error(c, http.StatusRequestEntityTooLarge, "File is too large", nil)
			return
		}

		folder := c.DefaultPostForm("folder", "attachments")
		if !uploadFolders[folder] {
			h.out.Error(c, http.StatusBadRequest, "folder: oneof=logos attachments avatars", nil)
			return
		}

		ctx := c.Request.Context()
		key := objectKey(folder, actorID(c), header.Filename)
		result, err := h.store.Upload(ctx, key, file, header.Size)
		if err != nil {
			h.out.Error(c, http.StatusInternalServerError, "", err)
			return
		}
		url, err := h.store.GetURL(ctx, result.Path, fileURLTTL)
		if err != nil {
			h.out.Error(c, http.StatusInternalServerError, "", err)
			return
		}

		h.out.Success(c, http.StatusCreated, services.MsgSuccess, gin.H{
			"path":     result.Path,
			"url":      url,
			"size":     result.Size,
			"checksum": result.Checksum,
		})
	}
}

// URLHandler returns a short-lived download URL
// GET /api/v1/files/url?path=
func (h *FileHandlers) URLHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.Query("path")
		if !validKey(key) {
			h.out.Error(c, http.StatusBadRequest, "path: invalid", nil)
			return
		}
		ctx := c.Request.Context()
		exists, err := h.store.Exists(ctx, key)
		if err != nil {
			h.out.Error(c, http.StatusInternalServerError, "", err)
			return
		}
		if !exists {
			h.out.Error(c, http.StatusNotFound, services.NotFound("File"), nil)
			return
		}
		url, err := h.store.GetURL(ctx, key, fileURLTTL)
		if err != nil {
			h.out.Error(c, http.StatusInternalServerError, "", err)
			return
		}
		h.out.Success(c, http.StatusOK, services.MsgSuccess, gin.H{"url": url})
	}
}

// DeleteHandler removes a file the caller uploaded
// DELETE /api/v1/files?path=
func (h *FileHandlers) DeleteHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.Query("path")
		if key == "" {
			h.out.Error(c, http.StatusBadRequest, "path: required", nil)
			return
		}
		if !ownedBy(key, actorID(c)) {
			h.out.Error(c, http.StatusUnauthorized, services.MsgUnauthorized, nil)
			return
		}
		ctx := c.Request.Context()
		exists, err := h.store.Exists(ctx, key)
		if err != nil {
			h.out.Error(c, http.StatusInternalServerError, "", err)
			return
		}
		if !exists {
			h.out.Error(c, http.StatusNotFound, services.NotFound("File"), nil)
			return
		}
		if err := h.store.Delete(ctx, key); err != nil {
			h.out.Error(c, http.StatusInternalServerError, "", err)
			return
		}
		h.out.Success(c, http.StatusOK, services.MsgSuccess, nil)
	}
}
