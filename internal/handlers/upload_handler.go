package handlers

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// maxUploadBytes caps item image uploads.
const maxUploadBytes = 5 << 20

// UploadFile handles POST /api/uploads.
// It sniffs the content, stores images under UploadDir and returns the URL.
func (h *Handlers) UploadFile(c *gin.Context) {
	// 1. Get the file from the request
	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
		return
	}
	if header.Size > maxUploadBytes {
		c.JSON(http.StatusBadRequest, gin.H{"error": "File is too large (max 5 MB)"})
		return
	}

	src, err := header.Open()
	if err != nil {
		respondError(c, err, "Failed to read file")
		return
	}
	defer src.Close()

	// 2. Detect the real type; the client-supplied name and header are not trusted
	mtype, err := mimetype.DetectReader(src)
	if err != nil {
		respondError(c, err, "Failed to read file")
		return
	}
	if !strings.HasPrefix(mtype.String(), "image/") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Only image files are allowed"})
		return
	}
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		respondError(c, err, "Failed to read file")
		return
	}

	// 3. Save under a uuid name with the detected extension
	if err := os.MkdirAll(h.Config.UploadDir, 0o755); err != nil {
		respondError(c, err, "Failed to save file")
		return
	}
	newFilename := uuid.NewString() + mtype.Extension()
	dst, err := os.Create(filepath.Join(h.Config.UploadDir, newFilename))
	if err != nil {
		respondError(c, err, "Failed to save file")
		return
	}
	defer dst.Close()
	if _, err := io.Copy(dst, src); err != nil {
		respondError(c, err, "Failed to save file")
		return
	}

	// 4. Return the public URL
	publicURL := fmt.Sprintf("%s/uploads/%s", strings.TrimRight(h.Config.BaseURL, "/"), newFilename)
	c.JSON(http.StatusCreated, gin.H{"url": publicURL})
}
