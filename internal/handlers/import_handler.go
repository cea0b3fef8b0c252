package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "circle/internal/errors"
	"circle/internal/importer"
	"circle/internal/services"
)

// maxImportSize bounds the CSV accepted in one request.
const maxImportSize = 10 << 20

// ImportHandler handles CSV imports.
type ImportHandler struct {
	importService services.ImportServicer
	auditService  services.AuditServicer
}

// NewImportHandler creates a new ImportHandler.
func NewImportHandler(importService services.ImportServicer, auditService services.AuditServicer) *ImportHandler {
	return &ImportHandler{importService: importService, auditService: auditService}
}

// ImportResponse reports a committed import and the progress it went through.
type ImportResponse struct {
	Result *importer.Result `json:"result"`
	Events []importer.Event `json:"events"`
}

func (h *ImportHandler) run(c *gin.Context, r io.Reader, source string) {
	var events []importer.Event
	result, err := h.importService.Import(c.Request.Context(), r, func(e importer.Event) {
		events = append(events, e)
	})
	if err != nil {
		abortWithError(c, err)
		return
	}

	h.auditService.Log("IMPORT", "import", "", c.ClientIP(),
		map[string]interface{}{"source": source, "rows": result.Imported})

	c.JSON(http.StatusOK, ImportResponse{Result: result, Events: events})
}

// Import handles a multipart CSV upload
// @Summary     Import a CSV export
// @Description Import every row or none. Columns: date, description, category, payee, notes, status, account, transfer account, amount.
// @Tags        import
// @Accept      multipart/form-data
// @Produce     json
// @Security    BearerAuth
// @Param       file formData file true "CSV file"
// @Success     200 {object} ImportResponse "Import committed"
// @Failure     400 {object} middleware.ErrorResponse "Missing file"
// @Failure     422 {object} middleware.ErrorResponse "Malformed file"
// @Router      /import [post]
func (h *ImportHandler) Import(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		abortWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "file is required"))
		return
	}
	if header.Size > maxImportSize {
		abortWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "file is too large"))
		return
	}

	file, err := header.Open()
	if err != nil {
		abortWithError(c, apperrors.Wrap(apperrors.ErrInternalServer, err))
		return
	}
	defer file.Close()

	h.run(c, file, header.Filename)
}

// PipelineImport handles a CSV posted as the raw request body by scripts
// @Summary     Import a CSV body
// @Tags        import
// @Accept      text/csv
// @Produce     json
// @Param       X-API-Key header string true "Pipeline API key"
// @Success     200 {object} ImportResponse "Import committed"
// @Failure     401 {object} middleware.ErrorResponse "Invalid API key"
// @Failure     422 {object} middleware.ErrorResponse "Malformed file"
// @Router      /pipeline/import [post]
func (h *ImportHandler) PipelineImport(c *gin.Context) {
	h.run(c, http.MaxBytesReader(c.Writer, c.Request.Body, maxImportSize), "pipeline")
}
