// Package handlers contains the HTTP control-plane and SSE push-plane
// handlers of the sync server.
package handlers

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"gearledger/domain"
	"gearledger/service"

	"github.com/go-kit/log"
	"github.com/labstack/echo/v4"
)

// HTTPServer exposes the sync service over HTTP.
type HTTPServer struct {
	sync      *service.Sync
	roster    *service.Roster
	name      string
	keepalive time.Duration
	logger    log.Logger
}

// NewHTTPServer creates a new HTTPServer. name is the display identity
// reported by the status probe.
func NewHTTPServer(sync *service.Sync, roster *service.Roster, name string, logger log.Logger) *HTTPServer {
	logger = log.WithPrefix(logger, "component", "HTTPServer")
	return &HTTPServer{
		sync:   sync,
		roster: roster,
		name:   name,
		logger: logger,
	}
}

// Register attaches all routes under /api.
func (h *HTTPServer) Register(e *echo.Echo) {
	api := e.Group("/api")
	api.GET("/status", h.Status)
	api.GET("/sync/version", h.SyncVersion)
	api.GET("/events", h.Events)
	api.GET("/results", h.ListResults)
	api.POST("/results", h.SubmitResult)
	api.GET("/results/:id", h.GetResult)
	api.PUT("/results/:id", h.UpdateResult)
	api.DELETE("/results/:id", h.DeleteResult)
	api.POST("/results/clear", h.ClearResults)
	api.GET("/clients", h.ListClients)
	api.GET("/clients/count", h.ClientsCount)
	api.GET("/catalog/info", h.CatalogInfo)
	api.GET("/catalog", h.DownloadCatalog)
	api.POST("/catalog", h.UploadCatalog)
}

// Status (GET /api/status) always succeeds and has no side effects.
func (h *HTTPServer) Status(ectx echo.Context) error {
	return ectx.JSON(http.StatusOK, domain.ServerStatus{Status: "ok", Name: h.name})
}

// SyncVersion (GET /api/sync/version) returns the current version and
// registers the caller as a connected client.
func (h *HTTPServer) SyncVersion(ectx echo.Context) error {
	h.roster.Touch(ectx.RealIP())
	return ectx.JSON(http.StatusOK, VersionResponse{Version: h.sync.Version()})
}

// ListResults (GET /api/results) returns all rows, optionally filtered by
// the `client` query parameter.
func (h *HTTPServer) ListResults(ectx echo.Context) error {
	h.roster.Touch(ectx.RealIP())

	results, err := h.sync.ListResults(ectx.Request().Context(), ectx.QueryParam("client"))
	if err != nil {
		return fmt.Errorf("listResults failed to read ledger, err: %w", err)
	}

	return ectx.JSON(http.StatusOK, ResultsResponse{Results: results, Count: len(results)})
}

// SubmitResult (POST /api/results) merges one write into the ledger.
// Returns 400 when artikul or client is missing.
func (h *HTTPServer) SubmitResult(ectx echo.Context) error {
	h.roster.Touch(ectx.RealIP())

	var req domain.ResultInput
	if err := ectx.Bind(&req); err != nil {
		return service.NewBadParameterError("invalid request body", err)
	}

	result, version, err := h.sync.SubmitResult(ectx.Request().Context(), req)
	if err != nil {
		return fmt.Errorf("submitResult failed, err: %w", err)
	}

	return ectx.JSON(http.StatusOK, ResultResponse{Result: result, Version: version})
}

// GetResult (GET /api/results/:id) returns one row by surrogate id.
func (h *HTTPServer) GetResult(ectx echo.Context) error {
	id, err := parseID(ectx.Param("id"))
	if err != nil {
		return err
	}

	result, err := h.sync.GetResult(ectx.Request().Context(), id)
	if err != nil {
		return fmt.Errorf("getResult failed for id %d, err: %w", id, err)
	}

	return ectx.JSON(http.StatusOK, ResultResponse{Result: result})
}

// UpdateResult (PUT /api/results/:id) applies a sparse patch. The patchable
// field set is the allow-list; unknown fields are ignored by binding. Does
// not bump the sync version.
func (h *HTTPServer) UpdateResult(ectx echo.Context) error {
	id, err := parseID(ectx.Param("id"))
	if err != nil {
		return err
	}

	var patch domain.ResultPatch
	if err := ectx.Bind(&patch); err != nil {
		return service.NewBadParameterError("invalid request body", err)
	}

	result, err := h.sync.UpdateResult(ectx.Request().Context(), id, patch)
	if err != nil {
		return fmt.Errorf("updateResult failed for id %d, err: %w", id, err)
	}

	return ectx.JSON(http.StatusOK, ResultResponse{Result: result})
}

// DeleteResult (DELETE /api/results/:id) removes one row. Does not bump the
// sync version.
func (h *HTTPServer) DeleteResult(ectx echo.Context) error {
	id, err := parseID(ectx.Param("id"))
	if err != nil {
		return err
	}

	if err := h.sync.DeleteResult(ectx.Request().Context(), id); err != nil {
		return fmt.Errorf("deleteResult failed for id %d, err: %w", id, err)
	}

	return ectx.NoContent(http.StatusOK)
}

// ClearResults (POST /api/results/clear) deletes all rows, optionally scoped
// to the client named in the body.
func (h *HTTPServer) ClearResults(ectx echo.Context) error {
	h.roster.Touch(ectx.RealIP())

	var req ClearRequest
	if err := ectx.Bind(&req); err != nil {
		return service.NewBadParameterError("invalid request body", err)
	}

	deleted, version, err := h.sync.ClearResults(ectx.Request().Context(), req.Client)
	if err != nil {
		return fmt.Errorf("clearResults failed, err: %w", err)
	}

	return ectx.JSON(http.StatusOK, ClearResponse{Deleted: deleted, Version: version})
}

// ListClients (GET /api/clients) returns distinct client names from the
// ledger. This is storage-derived, not the liveness roster.
func (h *HTTPServer) ListClients(ectx echo.Context) error {
	clients, err := h.sync.ListClients(ectx.Request().Context())
	if err != nil {
		return fmt.Errorf("listClients failed, err: %w", err)
	}

	return ectx.JSON(http.StatusOK, ClientsResponse{Clients: clients})
}

// ClientsCount (GET /api/clients/count) returns the live connected-peer
// count from the roster.
func (h *HTTPServer) ClientsCount(ectx echo.Context) error {
	return ectx.JSON(http.StatusOK, CountResponse{Count: h.roster.Count()})
}

// CatalogInfo (GET /api/catalog/info) returns blob metadata, with
// exists:false when nothing has been uploaded.
func (h *HTTPServer) CatalogInfo(ectx echo.Context) error {
	return ectx.JSON(http.StatusOK, h.sync.CatalogInfo())
}

// DownloadCatalog (GET /api/catalog) streams the blob as an attachment, or
// 404 when absent.
func (h *HTTPServer) DownloadCatalog(ectx echo.Context) error {
	filename, data, ok := h.sync.CatalogBytes()
	if !ok {
		return service.NewEntityNotFoundError("no catalog uploaded", nil)
	}

	ectx.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return ectx.Blob(http.StatusOK, "application/octet-stream", data)
}

// UploadCatalog (POST /api/catalog) replaces the blob wholesale from the
// multipart `file` field. Rejects a missing file or empty filename.
func (h *HTTPServer) UploadCatalog(ectx echo.Context) error {
	fileHeader, err := ectx.FormFile("file")
	if err != nil {
		return service.NewBadParameterError("no file provided", err)
	}
	if fileHeader.Filename == "" {
		return service.NewBadParameterError("empty filename", nil)
	}

	file, err := fileHeader.Open()
	if err != nil {
		return fmt.Errorf("uploadCatalog failed to open upload, err: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return fmt.Errorf("uploadCatalog failed to read upload, err: %w", err)
	}

	version, err := h.sync.UploadCatalog(fileHeader.Filename, data)
	if err != nil {
		return fmt.Errorf("uploadCatalog failed, err: %w", err)
	}

	return ectx.JSON(http.StatusOK, UploadResponse{
		Filename: fileHeader.Filename,
		Size:     len(data),
		Version:  version,
	})
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, service.NewBadParameterError("invalid result id", err)
	}
	return id, nil
}
