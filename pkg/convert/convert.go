package convert

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/yourorg/docpress/pkg/document"
	apperrors "github.com/yourorg/docpress/pkg/errors"
	"github.com/yourorg/docpress/pkg/logging"
	"github.com/yourorg/docpress/pkg/pdfutil"
)

// Sentinel errors shared by the delegates.
var (
	// ErrToolMissing means the external delegate binary could not be found.
	ErrToolMissing = errors.New("conversion tool not found")
	// ErrTimeout means the delegate exceeded its deadline.
	ErrTimeout = errors.New("conversion timed out")
	// ErrNoOutput means the delegate finished without producing a usable file.
	ErrNoOutput = errors.New("conversion produced no output")
)

// Request describes one conversion to perform.
type Request struct {
	// InputPath is the validated upload saved in the workspace.
	InputPath string
	// OutputPath is where the delegate must leave the PDF.
	OutputPath string
	// Filename is the original upload name, used for logging and PDF titles.
	Filename string
}

// Result describes a finished conversion.
type Result struct {
	OutputPath string
	Size       int64
	Pages      int
	Elapsed    time.Duration
}

// Converter is one format delegate.
type Converter interface {
	// Type reports which document type this delegate handles.
	Type() document.Type
	// Available reports nil when the delegate can run on this host.
	Available() error
	// Convert produces req.OutputPath from req.InputPath.
	Convert(ctx context.Context, req Request) (*Result, error)
}

// Registry dispatches conversions to the delegate registered for each
// document type and verifies every output before handing it back.
type Registry struct {
	converters map[document.Type]Converter
}

// NewRegistry creates a registry over the given delegates.
func NewRegistry(converters ...Converter) *Registry {
	m := make(map[document.Type]Converter, len(converters))
	for _, c := range converters {
		m[c.Type()] = c
	}
	return &Registry{converters: m}
}

// Lookup returns the delegate for a type.
func (r *Registry) Lookup(t document.Type) (Converter, bool) {
	c, ok := r.converters[t]
	return c, ok
}

// Availability reports, per registered type, why the delegate cannot run.
// An empty string means ready.
func (r *Registry) Availability() map[document.Type]string {
	out := make(map[document.Type]string, len(r.converters))
	for t, c := range r.converters {
		reason := ""
		if err := c.Available(); err != nil {
			reason = err.Error()
		}
		out[t] = reason
	}
	return out
}

// Convert runs the delegate for t, times it, and verifies the output PDF.
func (r *Registry) Convert(ctx context.Context, t document.Type, req Request) (*Result, error) {
	logger := logging.FromContext(ctx).With(
		logging.NewField("type", string(t)),
		logging.NewField("filename", req.Filename),
	)

	conv, ok := r.converters[t]
	if !ok {
		return nil, apperrors.NewUnsupportedTypeError(
			fmt.Sprintf("No converter registered for %s files", strings.ToUpper(string(t))))
	}
	if err := conv.Available(); err != nil {
		logger.Warn("Conversion delegate unavailable", logging.NewField("reason", err.Error()))
		return nil, apperrors.NewToolUnavailableError(err.Error())
	}

	logger.Debug("Starting conversion")
	start := time.Now()
	res, err := conv.Convert(ctx, req)
	elapsed := time.Since(start)
	if err != nil {
		logger.WithError(err).Error("Conversion failed", logging.NewField("elapsed", elapsed))
		return nil, wrapDelegateError(t, err)
	}
	res.Elapsed = elapsed

	data, err := os.ReadFile(res.OutputPath)
	if err != nil {
		return nil, apperrors.NewConversionFailedError("PDF file was not created")
	}
	info, err := pdfutil.Verify(data)
	if err != nil {
		logger.WithError(err).Error("Output failed verification")
		return nil, apperrors.NewConversionFailedError(
			fmt.Sprintf("Generated PDF failed verification: %v", err))
	}
	res.Size = info.Size
	res.Pages = info.PageCount

	logger.Info("Conversion finished",
		logging.NewField("elapsed", res.Elapsed),
		logging.NewField("pages", res.Pages),
		logging.NewField("output_bytes", res.Size),
	)
	return res, nil
}

// wrapDelegateError maps delegate failures onto the user-facing taxonomy.
func wrapDelegateError(t document.Type, err error) error {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	upper := strings.ToUpper(string(t))
	switch {
	case errors.Is(err, ErrToolMissing):
		return apperrors.NewAppErrorWithErr(apperrors.ErrorCodeToolUnavailable,
			err.Error(), apperrors.ToHTTPStatus(apperrors.ErrorCodeToolUnavailable), err)
	case errors.Is(err, ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return apperrors.NewAppErrorWithErr(apperrors.ErrorCodeConversionTimeout,
			fmt.Sprintf("%s conversion timed out", upper),
			apperrors.ToHTTPStatus(apperrors.ErrorCodeConversionTimeout), err)
	case errors.Is(err, ErrNoOutput):
		return apperrors.NewAppErrorWithErr(apperrors.ErrorCodeConversionFailed,
			err.Error(), apperrors.ToHTTPStatus(apperrors.ErrorCodeConversionFailed), err)
	default:
		return apperrors.NewAppErrorWithErr(apperrors.ErrorCodeConversionFailed,
			fmt.Sprintf("%s conversion failed: %v", upper, err),
			apperrors.ToHTTPStatus(apperrors.ErrorCodeConversionFailed), err)
	}
}
