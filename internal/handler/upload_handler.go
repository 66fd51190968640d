package handler

import (
	"io"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/LokalDeals/lokaldeals_api/internal/service"
	"github.com/LokalDeals/lokaldeals_api/internal/utils"
)

// maxUploadBytes caps a single image upload at 5 MB.
const maxUploadBytes = 5 << 20

var allowedFolders = map[string]bool{
	service.FolderCompanyLogos:   true,
	service.FolderCompanyBanners: true,
	service.FolderOfferImages:    true,
}

var allowedContentTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

type UploadHandler struct {
	storageService *service.StorageService
}

func NewUploadHandler(storageService *service.StorageService) *UploadHandler {
	return &UploadHandler{storageService: storageService}
}

// Upload handles POST /v1/upload: a multipart form with a "file" part and a
// "folder" field naming the destination namespace.
func (h *UploadHandler) Upload(c *gin.Context) {
	if h.storageService == nil {
		utils.Error(c, 503, "UPLOADS_DISABLED", "File uploads are not configured")
		return
	}

	folder := c.PostForm("folder")
	if !allowedFolders[folder] {
		utils.Error(c, 400, "INVALID_REQUEST", "Unknown upload folder")
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "Missing file")
		return
	}
	defer file.Close()

	if header.Size > maxUploadBytes {
		utils.Error(c, 400, "FILE_TOO_LARGE", "File exceeds the 5MB limit")
		return
	}

	contentType := header.Header.Get("Content-Type")
	if !allowedContentTypes[contentType] {
		utils.Error(c, 400, "UNSUPPORTED_TYPE", "Only JPEG, PNG and WebP images are accepted")
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "Failed to read file")
		return
	}

	filename, err := utils.GenerateUniqueFilename(header.Filename)
	if err != nil {
		respondError(c, err)
		return
	}

	url, err := h.storageService.Put(c.Request.Context(), folder, filename, data, contentType)
	if err != nil {
		log.Error().Err(err).Str("folder", folder).Msg("upload failed")
		utils.Error(c, 502, "UPLOAD_FAILED", "Failed to store file")
		return
	}

	utils.Success(c, 201, "File uploaded", gin.H{
		"url": url,
	})
}
