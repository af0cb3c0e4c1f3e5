package handlers

import (
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kobisoft/mutabakat_app/internal/apperrors"
	"github.com/kobisoft/mutabakat_app/internal/core/domain"
	portssvc "github.com/kobisoft/mutabakat_app/internal/core/ports/services"
	"github.com/kobisoft/mutabakat_app/internal/middleware"
	"github.com/kobisoft/mutabakat_app/internal/platform/config"
	"github.com/kobisoft/mutabakat_app/internal/utils/eventstream"
	"github.com/kobisoft/mutabakat_app/internal/utils/spreadsheet"
)

// importHandler handles spreadsheet uploads and streams progress back as
// server-sent events.
type importHandler struct {
	importService portssvc.ImportSvcFacade
	maxBytes      int64
}

// newImportHandler creates a new importHandler.
func newImportHandler(is portssvc.ImportSvcFacade, cfg *config.Config) *importHandler {
	return &importHandler{
		importService: is,
		maxBytes:      cfg.ImportMaxBytes,
	}
}

// registerImportRoutes registers the bulk import routes.
func registerImportRoutes(rg *gin.RouterGroup, cfg *config.Config, importService portssvc.ImportSvcFacade) {
	h := newImportHandler(importService, cfg)

	documents := rg.Group("/documents")
	{
		documents.POST("/import", h.importDocuments)
		documents.GET("/import/template", h.downloadTemplate)
		documents.POST("/:documentID/dealer-lines/import", h.importDealerLines)
	}
}

// openUpload extracts the uploaded spreadsheet, enforcing the format
// whitelist before any byte is parsed.
func (h *importHandler) openUpload(c *gin.Context) (multipart.File, *multipart.FileHeader, bool) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "A spreadsheet file is required in the 'file' field"})
		return nil, nil, false
	}
	if !spreadsheet.Supported(header.Filename) {
		file.Close()
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Unsupported file format, expected .csv, .xls or .xlsx"})
		return nil, nil, false
	}
	return file, header, true
}

func (h *importHandler) parseUpload(c *gin.Context, kind domain.ImportKind) ([][]string, bool) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	file, header, ok := h.openUpload(c)
	if !ok {
		return nil, false
	}
	defer file.Close()

	// The limit guards parsing memory; the declared size is still what
	// admission judges.
	rows, err := spreadsheet.ParseRows(io.LimitReader(file, h.maxBytes+1), header.Filename)
	if err != nil {
		logger.Warn("Failed to parse uploaded spreadsheet", slog.String("filename", header.Filename), slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Could not parse the uploaded spreadsheet"})
		return nil, false
	}

	if err := h.importService.Admit(kind, header.Size, len(rows)); err != nil {
		logger.Warn("Upload rejected by admission control",
			slog.String("filename", header.Filename),
			slog.Int64("bytes", header.Size),
			slog.Int("rows", len(rows)))
		c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{Error: err.Error()})
		return nil, false
	}

	return rows, true
}

// streamEvents frames the job's events as SSE until the channel closes. A
// disconnected client stops the writes but never the job; the remaining
// events are drained so the ingestor can finish.
func streamEvents(c *gin.Context, events <-chan eventstream.Event) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Writer.WriteHeader(http.StatusOK)

	writer := eventstream.NewWriter(c.Writer)
	clientGone := false
	for ev := range events {
		if clientGone {
			continue
		}
		if err := writer.Write(ev); err != nil {
			clientGone = true
		}
	}
}

// importDocuments godoc
// @Summary Bulk import reconciliation documents
// @Description Uploads a spreadsheet and creates one draft document per valid row. The response is a server-sent event stream: one total event, progress events, then exactly one complete or error event.
// @Tags imports
// @Accept mpfd
// @Produce text/event-stream
// @Param file formData file true "Spreadsheet (.csv, .xls or .xlsx)"
// @Success 200 {string} string "SSE stream"
// @Failure 400 {object} ErrorResponse "Bad upload or unparseable file"
// @Failure 413 {object} ErrorResponse "Row or byte ceiling exceeded"
// @Security BearerAuth
// @Router /documents/import [post]
func (h *importHandler) importDocuments(c *gin.Context) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	rows, ok := h.parseUpload(c, domain.ImportReconciliation)
	if !ok {
		return
	}

	events, err := h.importService.Ingest(c.Request.Context(), rows, userID)
	if err != nil {
		h.respondIngestError(c, err)
		return
	}

	streamEvents(c, events)
}

// importDealerLines godoc
// @Summary Import dealer lines for a draft document
// @Description Uploads a sub-ledger spreadsheet and, when every row is valid and the balances sum to the document balance, replaces the document's dealer lines. Same event stream as the document import.
// @Tags imports
// @Accept mpfd
// @Produce text/event-stream
// @Param documentID path string true "Document number"
// @Param file formData file true "Spreadsheet (.csv, .xls or .xlsx)"
// @Success 200 {string} string "SSE stream"
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse "Document no longer in DRAFT"
// @Failure 413 {object} ErrorResponse
// @Security BearerAuth
// @Router /documents/{documentID}/dealer-lines/import [post]
func (h *importHandler) importDealerLines(c *gin.Context) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	rows, ok := h.parseUpload(c, domain.ImportDealerLines)
	if !ok {
		return
	}

	events, err := h.importService.IngestDealerLines(c.Request.Context(), c.Param("documentID"), rows, userID)
	if err != nil {
		h.respondIngestError(c, err)
		return
	}

	streamEvents(c, events)
}

func (h *importHandler) respondIngestError(c *gin.Context, err error) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Document not found"})
	case errors.Is(err, apperrors.ErrForbidden):
		c.JSON(http.StatusForbidden, ErrorResponse{Error: err.Error()})
	case errors.Is(err, apperrors.ErrInvalidTransition):
		c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error()})
	default:
		logger.Error("Failed to start import", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to start import"})
	}
}

// downloadTemplate godoc
// @Summary Download the import template
// @Description Returns the fixed-format xlsx scaffold for bulk imports. Pass kind=dealer for the dealer line template.
// @Tags imports
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param kind query string false "Template kind: reconciliation (default) or dealer"
// @Success 200 {file} file
// @Security BearerAuth
// @Router /documents/import/template [get]
func (h *importHandler) downloadTemplate(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	name := "reconciliation_import_template.xlsx"
	write := spreadsheet.WriteTemplate
	if c.Query("kind") == "dealer" {
		name = "dealer_lines_import_template.xlsx"
		write = spreadsheet.WriteDealerTemplate
	}

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)

	if err := write(c.Writer); err != nil {
		logger.Error("Failed to generate import template", slog.String("error", err.Error()))
		c.Status(http.StatusInternalServerError)
	}
}
