package web

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"

	"github.com/yourorg/docpress/pkg/convert"
	"github.com/yourorg/docpress/pkg/document"
	apperrors "github.com/yourorg/docpress/pkg/errors"
	"github.com/yourorg/docpress/pkg/history"
	"github.com/yourorg/docpress/pkg/httpservice"
	"github.com/yourorg/docpress/pkg/logging"
	"github.com/yourorg/docpress/pkg/store"
	"github.com/yourorg/docpress/pkg/utils"
)

// formatStatus merges catalog info with delegate availability.
type formatStatus struct {
	document.TypeInfo
	Available bool   `json:"available"`
	Reason    string `json:"reason,omitempty"`
}

// conversionResponse is what a successful upload returns.
type conversionResponse struct {
	ID             string    `json:"id"`
	Filename       string    `json:"filename"`
	OutputName     string    `json:"output_name"`
	DownloadURL    string    `json:"download_url"`
	InputSize      int64     `json:"size"`
	OutputSize     int64     `json:"pdf_size"`
	OutputSizeText string    `json:"pdf_size_text"`
	Pages          int       `json:"pages"`
	ConversionTime float64   `json:"conversion_time"`
	SizeChangePct  float64   `json:"size_change_pct"`
	ExpiresAt      time.Time `json:"expires_at"`
}

func (a *App) formatStatuses() []formatStatus {
	avail := a.registry.Availability()
	return lo.Map(document.Catalog(), func(info document.TypeInfo, _ int) formatStatus {
		reason, registered := avail[info.Type]
		return formatStatus{
			TypeInfo:  info,
			Available: registered && reason == "",
			Reason:    reason,
		}
	})
}

// handleIndex renders the single-page UI.
func (a *App) handleIndex(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", gin.H{
		"Version":     a.version,
		"MaxUploadMB": a.maxUploadMB,
		"Formats":     a.formatStatuses(),
	})
}

func (a *App) handleFormats(c *gin.Context) error {
	httpservice.RespondSuccess(c, gin.H{
		"formats":       a.formatStatuses(),
		"max_upload_mb": a.maxUploadMB,
	})
	return nil
}

// handleConvert runs the full upload pipeline: validate, stage, convert,
// publish, record.
func (a *App) handleConvert(c *gin.Context) error {
	logger := httpservice.GetLogger(c)

	fileHeader, err := c.FormFile("document")
	if err != nil {
		return apperrors.NewBadRequestError("No file uploaded")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return apperrors.NewInternalError("Failed to read upload: " + err.Error())
	}
	defer file.Close()

	typ, err := a.validator.Validate(fileHeader.Filename, fileHeader.Size, file)
	if err != nil {
		return err
	}

	id := utils.GenerateUUID()
	staged, err := a.workspace.SaveInput(typ, id, fileHeader.Filename, file, a.validator.MaxBytes())
	if err != nil {
		if errors.Is(err, store.ErrTooLarge) {
			return apperrors.NewFileTooLargeError(
				fmt.Sprintf("File too large. Maximum size allowed: %dMB", a.maxUploadMB))
		}
		return apperrors.NewInternalError("Failed to store upload: " + err.Error())
	}
	// the input is never needed once the conversion attempt is over
	defer a.workspace.Discard(staged.Path)

	res, err := a.registry.Convert(c.Request.Context(), typ, convert.Request{
		InputPath:  staged.Path,
		OutputPath: staged.OutputPath,
		Filename:   fileHeader.Filename,
	})
	if err != nil {
		return err
	}

	outputName := document.OutputFilename(fileHeader.Filename)
	entry := a.workspace.Publish(id, outputName, res.OutputPath, res.Size)

	record := history.Record{
		ID:             id,
		Filename:       fileHeader.Filename,
		Type:           typ,
		InputSize:      staged.Size,
		OutputSize:     res.Size,
		Pages:          res.Pages,
		ConversionTime: res.Elapsed.Seconds(),
		ConvertedAt:    time.Now(),
	}
	a.history.Add(record)

	logger.Info("Conversion recorded",
		logging.NewField("id", id),
		logging.NewField("type", string(typ)),
		logging.NewField("sha256", staged.SHA256),
	)

	httpservice.RespondCreated(c, conversionResponse{
		ID:             id,
		Filename:       fileHeader.Filename,
		OutputName:     outputName,
		DownloadURL:    fmt.Sprintf("/api/v1/conversions/%s/download", id),
		InputSize:      staged.Size,
		OutputSize:     res.Size,
		OutputSizeText: document.FormatSize(res.Size),
		Pages:          res.Pages,
		ConversionTime: res.Elapsed.Seconds(),
		SizeChangePct:  record.SizeChangePercent(),
		ExpiresAt:      entry.ExpiresAt,
	})
	return nil
}

func (a *App) handleDownload(c *gin.Context) error {
	id := c.Param("id")
	entry, err := a.workspace.Claim(id)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return apperrors.NewNotFoundError("No converted file found for this id")
	case errors.Is(err, store.ErrExpired):
		return apperrors.NewGoneError("The converted file has been cleaned up. Convert the document again.")
	case err != nil:
		return apperrors.NewInternalError("Failed to look up conversion: " + err.Error())
	}

	c.Header("Cache-Control", "no-store")
	c.Header("Content-Type", "application/pdf")
	c.FileAttachment(entry.Path, entry.DownloadName)
	return nil
}

type historyQuery struct {
	Limit int `form:"limit" validate:"omitempty,min=1,max=100"`
}

func (a *App) handleHistory(c *gin.Context) error {
	var q historyQuery
	if !httpservice.ValidateQuery(c, &q) {
		return nil
	}
	limit := q.Limit
	if limit == 0 {
		limit = 10
	}
	httpservice.RespondSuccess(c, gin.H{
		"history": a.history.Recent(limit),
		"total":   a.history.Len(),
	})
	return nil
}
