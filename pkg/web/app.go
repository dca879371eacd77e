// Package web carries the document conversion application: the browser UI,
// the upload pipeline, and the download and history APIs.
package web

import (
	"embed"
	"html/template"

	"github.com/gin-gonic/gin"

	"github.com/yourorg/docpress/pkg/convert"
	"github.com/yourorg/docpress/pkg/document"
	"github.com/yourorg/docpress/pkg/history"
	"github.com/yourorg/docpress/pkg/httpservice"
	"github.com/yourorg/docpress/pkg/logging"
	"github.com/yourorg/docpress/pkg/store"
)

//go:embed templates/index.html
var templatesFS embed.FS

// Options wires the application together.
type Options struct {
	Logger      logging.Logger
	Validator   *document.Validator
	Registry    *convert.Registry
	Workspace   *store.Workspace
	History     *history.Log
	MaxUploadMB int
	Version     string
}

// App exposes document conversion over HTTP. It implements
// httpservice.Handler.
type App struct {
	logger      logging.Logger
	validator   *document.Validator
	registry    *convert.Registry
	workspace   *store.Workspace
	history     *history.Log
	maxUploadMB int
	version     string
}

// NewApp creates the application.
func NewApp(opts Options) *App {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &App{
		logger:      logger,
		validator:   opts.Validator,
		registry:    opts.Registry,
		workspace:   opts.Workspace,
		history:     opts.History,
		maxUploadMB: opts.MaxUploadMB,
		version:     opts.Version,
	}
}

// Register implements the httpservice.Handler interface.
func (a *App) Register(router *gin.Engine) {
	router.SetHTMLTemplate(template.Must(template.ParseFS(templatesFS, "templates/index.html")))
	router.GET("/", a.handleIndex)

	api := router.Group("/api/v1")
	{
		api.GET("/formats", httpservice.Wrap("formats", a.handleFormats))
		api.POST("/conversions", httpservice.Wrap("convert", a.handleConvert))
		api.GET("/conversions/:id/download", httpservice.Wrap("download", a.handleDownload))
		api.GET("/history", httpservice.Wrap("history", a.handleHistory))
	}
}
