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

// publicApprovalHandler serves the unauthenticated, token-addressed approval
// gateway. The token in the path is the only credential.
type publicApprovalHandler struct {
	approvalService portssvc.ApprovalSvcFacade
}

// newPublicApprovalHandler creates a new publicApprovalHandler.
func newPublicApprovalHandler(as portssvc.ApprovalSvcFacade) *publicApprovalHandler {
	return &publicApprovalHandler{approvalService: as}
}

// resolveToken godoc
// @Summary Resolve an approval token
// @Description Returns the public summary of the document a single-use approval link points at, including which consent flags are still missing.
// @Tags public-approval
// @Produce json
// @Param token path string true "Approval token"
// @Success 200 {object} dto.PublicDocumentView
// @Failure 404 {object} ErrorResponse "Unknown token"
// @Failure 409 {object} ErrorResponse "Document already decided"
// @Failure 410 {object} ErrorResponse "Token already used"
// @Router /public/approval/{token} [get]
func (h *publicApprovalHandler) resolveToken(c *gin.Context) {
	view, err := h.approvalService.ResolveToken(c.Request.Context(), c.Param("token"))
	if err != nil {
		h.respondApprovalError(c, err, "resolve approval token")
		return
	}
	c.JSON(http.StatusOK, view)
}

// recordConsents godoc
// @Summary Record consent acknowledgments
// @Description Stores the given consent flags against the token. Flags accumulate across calls; recording the same flag twice is a no-op.
// @Tags public-approval
// @Accept json
// @Produce json
// @Param token path string true "Approval token"
// @Param consents body dto.RecordConsentsRequest true "Consent flags"
// @Success 204 "Consents recorded"
// @Failure 400 {object} ErrorResponse "Unknown consent flag"
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 410 {object} ErrorResponse
// @Router /public/approval/{token}/consents [post]
func (h *publicApprovalHandler) recordConsents(c *gin.Context) {
	var req dto.RecordConsentsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body: " + err.Error()})
		return
	}

	if err := h.approvalService.RecordConsents(c.Request.Context(), c.Param("token"), req.Consents); err != nil {
		h.respondApprovalError(c, err, "record consents")
		return
	}
	c.Status(http.StatusNoContent)
}

// act godoc
// @Summary Approve or reject through a token
// @Description Performs the requested decision and consumes the token atomically with the document transition. A rejection requires a reason; every required consent flag must be recorded first.
// @Tags public-approval
// @Accept json
// @Produce json
// @Param token path string true "Approval token"
// @Param action body dto.PublicActionRequest true "Decision"
// @Success 204 "Decision recorded"
// @Failure 400 {object} ErrorResponse "Missing rejection reason"
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 410 {object} ErrorResponse
// @Failure 428 {object} ErrorResponse "Required consents not yet recorded"
// @Router /public/approval/{token} [post]
func (h *publicApprovalHandler) act(c *gin.Context) {
	var req dto.PublicActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body: " + err.Error()})
		return
	}

	if err := h.approvalService.Act(c.Request.Context(), c.Param("token"), req, c.ClientIP()); err != nil {
		h.respondApprovalError(c, err, "record decision")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *publicApprovalHandler) respondApprovalError(c *gin.Context, err error, action string) {
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Unknown approval token"})
	case errors.Is(err, apperrors.ErrTokenUsed):
		c.JSON(http.StatusGone, ErrorResponse{Error: "This approval link has already been used"})
	case errors.Is(err, apperrors.ErrInvalidTransition):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "The document is no longer awaiting a decision"})
	case errors.Is(err, apperrors.ErrConsentRequired):
		c.JSON(http.StatusPreconditionRequired, ErrorResponse{Error: err.Error()})
	case errors.Is(err, apperrors.ErrValidation):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	default:
		logger := middleware.GetLoggerFromCtx(c.Request.Context())
		logger.Error("Failed to "+action, slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to " + action})
	}
}
