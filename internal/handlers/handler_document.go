package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kobisoft/mutabakat_app/internal/apperrors"
	portssvc "github.com/kobisoft/mutabakat_app/internal/core/ports/services"
	"github.com/kobisoft/mutabakat_app/internal/dto"
	"github.com/kobisoft/mutabakat_app/internal/middleware"
)

// documentHandler handles HTTP requests related to reconciliation documents.
type documentHandler struct {
	documentService portssvc.DocumentSvcFacade
}

// newDocumentHandler creates a new documentHandler.
func newDocumentHandler(ds portssvc.DocumentSvcFacade) *documentHandler {
	return &documentHandler{
		documentService: ds,
	}
}

// registerDocumentRoutes registers routes related to documents.
func registerDocumentRoutes(rg *gin.RouterGroup, documentService portssvc.DocumentSvcFacade) {
	h := newDocumentHandler(documentService)

	documents := rg.Group("/documents")
	{
		documents.POST("", h.createDocument)
		documents.GET("", h.listDocuments)
		documents.GET("/:documentID", h.getDocument)
		documents.DELETE("/:documentID", h.deleteDocument)
		documents.POST("/:documentID/send", h.sendDocument)
		documents.POST("/:documentID/approve", h.approveDocument)
		documents.POST("/:documentID/reject", h.rejectDocument)
	}
}

// respondDocumentError maps service errors onto HTTP statuses.
func respondDocumentError(c *gin.Context, err error, action string) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Document not found"})
	case errors.Is(err, apperrors.ErrForbidden):
		c.JSON(http.StatusForbidden, ErrorResponse{Error: err.Error()})
	case errors.Is(err, apperrors.ErrInvalidTransition):
		c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error()})
	case errors.Is(err, apperrors.ErrValidation):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	default:
		logger.Error("Document operation failed", slog.String("action", action), slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to " + action + " document"})
	}
}

// createDocument godoc
// @Summary Create a reconciliation document
// @Description Creates a new document in DRAFT for the caller's party. The receiver is resolved or created by tax number.
// @Tags documents
// @Accept json
// @Produce json
// @Param document body dto.CreateDocumentRequest true "Document details"
// @Success 201 {object} dto.DocumentResponse
// @Failure 400 {object} ErrorResponse "Invalid input"
// @Failure 403 {object} ErrorResponse "Role or party not allowed to create documents"
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /documents [post]
func (h *documentHandler) createDocument(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.CreateDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for CreateDocument", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request format: " + err.Error()})
		return
	}

	creatorUserID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	doc, err := h.documentService.CreateDocument(c.Request.Context(), req, creatorUserID)
	if err != nil {
		respondDocumentError(c, err, "create")
		return
	}

	c.JSON(http.StatusCreated, dto.ToDocumentResponse(doc))
}

// listDocuments godoc
// @Summary List documents
// @Description Pages documents where the caller's party is sender or receiver, newest first.
// @Tags documents
// @Produce json
// @Param limit query int false "Page size (default 20)"
// @Param nextToken query string false "Opaque pagination token"
// @Success 200 {object} dto.ListDocumentsResponse
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /documents [get]
func (h *documentHandler) listDocuments(c *gin.Context) {
	var params dto.ListDocumentsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid query parameters: " + err.Error()})
		return
	}

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	page, err := h.documentService.ListDocuments(c.Request.Context(), userID, params)
	if err != nil {
		respondDocumentError(c, err, "list")
		return
	}

	c.JSON(http.StatusOK, page)
}

// getDocument godoc
// @Summary Get a document
// @Description Retrieves one document with its dealer lines. Unrelated callers get 404.
// @Tags documents
// @Produce json
// @Param documentID path string true "Document number"
// @Success 200 {object} dto.DocumentResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /documents/{documentID} [get]
func (h *documentHandler) getDocument(c *gin.Context) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	doc, err := h.documentService.GetDocument(c.Request.Context(), c.Param("documentID"), userID)
	if err != nil {
		respondDocumentError(c, err, "get")
		return
	}

	c.JSON(http.StatusOK, dto.ToDocumentResponse(doc))
}

// deleteDocument godoc
// @Summary Delete a draft document
// @Description Removes a document that is still in DRAFT. Sender party with a privileged role only.
// @Tags documents
// @Param documentID path string true "Document number"
// @Success 204
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse "Document already left DRAFT"
// @Security BearerAuth
// @Router /documents/{documentID} [delete]
func (h *documentHandler) deleteDocument(c *gin.Context) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	if err := h.documentService.DeleteDocument(c.Request.Context(), c.Param("documentID"), userID); err != nil {
		respondDocumentError(c, err, "delete")
		return
	}

	c.Status(http.StatusNoContent)
}

// sendDocument godoc
// @Summary Send a document
// @Description Moves DRAFT to SENT and issues the receiver's approval token.
// @Tags documents
// @Produce json
// @Param documentID path string true "Document number"
// @Success 200 {object} dto.DocumentResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse "Not in DRAFT"
// @Security BearerAuth
// @Router /documents/{documentID}/send [post]
func (h *documentHandler) sendDocument(c *gin.Context) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	doc, err := h.documentService.SendDocument(c.Request.Context(), c.Param("documentID"), userID)
	if err != nil {
		respondDocumentError(c, err, "send")
		return
	}

	c.JSON(http.StatusOK, dto.ToDocumentResponse(doc))
}

// approveDocument godoc
// @Summary Approve a document
// @Description Moves SENT to APPROVED on behalf of the receiver party.
// @Tags documents
// @Produce json
// @Param documentID path string true "Document number"
// @Success 200 {object} dto.DocumentResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse "Not in SENT"
// @Security BearerAuth
// @Router /documents/{documentID}/approve [post]
func (h *documentHandler) approveDocument(c *gin.Context) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	doc, err := h.documentService.ApproveDocument(c.Request.Context(), c.Param("documentID"), userID)
	if err != nil {
		respondDocumentError(c, err, "approve")
		return
	}

	c.JSON(http.StatusOK, dto.ToDocumentResponse(doc))
}

// rejectDocument godoc
// @Summary Reject a document
// @Description Moves SENT to REJECTED with a mandatory reason and an optional request for a detailed statement.
// @Tags documents
// @Accept json
// @Produce json
// @Param documentID path string true "Document number"
// @Param rejection body dto.RejectDocumentRequest true "Rejection details"
// @Success 200 {object} dto.DocumentResponse
// @Failure 400 {object} ErrorResponse "Reason missing"
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse "Not in SENT"
// @Security BearerAuth
// @Router /documents/{documentID}/reject [post]
func (h *documentHandler) rejectDocument(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.RejectDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for RejectDocument", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request format: " + err.Error()})
		return
	}

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	doc, err := h.documentService.RejectDocument(c.Request.Context(), c.Param("documentID"), userID, req.Reason, req.RequestStatement)
	if err != nil {
		respondDocumentError(c, err, "reject")
		return
	}

	c.JSON(http.StatusOK, dto.ToDocumentResponse(doc))
}
