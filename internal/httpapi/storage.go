package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/docrelay/docrelay/internal/registry"
	"github.com/docrelay/docrelay/internal/store"
)

const defaultStoragePort = 8002

// StorageServer is the upload relay's HTTP surface: multipart uploads into
// the object store and presigned download URLs out of it.
type StorageServer struct {
	store    *store.Client
	registry *registry.Registry
	logger   zerolog.Logger
	opts     Options
}

func NewStorageServer(st *store.Client, reg *registry.Registry, logger zerolog.Logger, opts Options) *StorageServer {
	return &StorageServer{
		store:    st,
		registry: reg,
		logger:   logger,
		opts:     opts.withDefaults(defaultStoragePort),
	}
}

func (s *StorageServer) Start(ctx context.Context) error {
	e := newEcho(s.logger)
	s.routes(e)
	return serve(ctx, e, s.opts, s.logger, "storage relay server")
}

func (s *StorageServer) routes(e *echo.Echo) {
	e.GET("/", s.handleRoot)
	e.POST("/upload/", s.handleUpload)
	e.GET("/presigned-url/*", s.handlePresignedURL)
	e.POST("/retry-connections", retryConnectionsHandler(s.registry))
}

func (s *StorageServer) handleRoot(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"message":           "storage relay is running",
		"store_configured":  s.store.Configured(),
		"bucket_accessible": s.registry.IsConnected(registry.ComponentObjectStore),
		"dependencies":      s.registry.Status(),
	})
}

func (s *StorageServer) handleUpload(c echo.Context) error {
	if !s.registry.IsConnected(registry.ComponentObjectStore) {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "Object storage is not available"})
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "A file upload is required"})
	}

	src, err := fileHeader.Open()
	if err != nil {
		s.logger.Error().Err(err).Str("filename", fileHeader.Filename).Msg("opening uploaded file failed")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Could not read uploaded file"})
	}
	defer src.Close()

	key := store.ObjectKey(fileHeader.Filename)
	contentType := store.ResolveContentType(fileHeader.Header.Get("Content-Type"), fileHeader.Filename)

	if err := s.store.Upload(c.Request().Context(), key, contentType, src); err != nil {
		s.logger.Error().
			Err(err).
			Str("filename", fileHeader.Filename).
			Str("key", key).
			Msg("upload to object store failed")

		switch store.ErrorCode(err) {
		case "NoSuchBucket":
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Configuration error: storage bucket not found"})
		case "AccessDenied":
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Configuration error: access denied to storage bucket"})
		default:
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Could not upload file to object storage"})
		}
	}

	s.logger.Info().
		Str("filename", fileHeader.Filename).
		Str("key", key).
		Str("content_type", contentType).
		Int64("size", fileHeader.Size).
		Msg("file uploaded")

	return c.JSON(http.StatusOK, map[string]any{
		"message":      "File uploaded successfully",
		"s3_key":       key,
		"filename":     fileHeader.Filename,
		"content_type": contentType,
		"size":         fileHeader.Size,
	})
}

func (s *StorageServer) handlePresignedURL(c echo.Context) error {
	key := strings.TrimSpace(c.Param("*"))
	if key == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "An object key is required"})
	}

	if !s.registry.IsConnected(registry.ComponentObjectStore) {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "Object storage is not available"})
	}

	url, err := s.store.PresignDownloadURL(c.Request().Context(), key)
	if err != nil {
		if errors.Is(err, store.ErrKeyNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": fmt.Sprintf("File not found with key: %s", key)})
		}
		s.logger.Error().Err(err).Str("key", key).Msg("presigned URL generation failed")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Could not generate download URL"})
	}

	return c.JSON(http.StatusOK, map[string]string{"url": url})
}
