package convert

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"

	"github.com/yourorg/docpress/pkg/document"
)

// chromeCandidates are the binary names probed before falling back to a
// managed download.
var chromeCandidates = []string{
	"chromium-browser", "chromium", "google-chrome", "google-chrome-stable", "chrome",
}

// a4WidthInches and a4HeightInches are the print dimensions handed to the
// browser.
const (
	a4WidthInches  = 8.27
	a4HeightInches = 11.69
	marginInches   = 0.3937 // 1cm
)

// MarkdownOptions configures the markdown delegate.
type MarkdownOptions struct {
	// ChromePath points at an explicit Chrome/Chromium binary. When empty,
	// CHROME_PATH, then PATH, then known install locations are probed.
	ChromePath string
	// Timeout bounds a single conversion including page load.
	Timeout time.Duration
	// NoSandbox disables the Chrome sandbox, required when running as root.
	NoSandbox bool
	// DisableDownload turns off the managed Chromium download fallback.
	DisableDownload bool
}

// MarkdownConverter renders Markdown through HTML and a headless browser's
// print engine. The browser process starts on first use and is reused across
// conversions; each conversion prints in its own tab.
type MarkdownConverter struct {
	opts MarkdownOptions

	mu            sync.Mutex
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
	started       bool
	closed        bool
}

// NewMarkdownConverter creates the delegate.
func NewMarkdownConverter(opts MarkdownOptions) *MarkdownConverter {
	if opts.ChromePath == "" {
		opts.ChromePath = os.Getenv("CHROME_PATH")
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 2 * time.Minute
	}
	return &MarkdownConverter{opts: opts}
}

// Type implements Converter.
func (c *MarkdownConverter) Type() document.Type {
	return document.TypeMd
}

// Available implements Converter. A missing browser does not make the
// delegate unavailable because one can be downloaded on first use; hard
// unavailability only exists once the converter is closed.
func (c *MarkdownConverter) Available() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return fmt.Errorf("%w: markdown renderer is shut down", ErrToolMissing)
	}
	if c.opts.DisableDownload {
		if _, err := c.findChrome(); err != nil {
			return err
		}
	}
	return nil
}

// findChrome locates a usable browser binary without downloading one.
func (c *MarkdownConverter) findChrome() (string, error) {
	if c.opts.ChromePath != "" {
		if _, err := os.Stat(c.opts.ChromePath); err != nil {
			return "", fmt.Errorf("%w: %s is not usable", ErrToolMissing, c.opts.ChromePath)
		}
		return c.opts.ChromePath, nil
	}
	for _, candidate := range chromeCandidates {
		if path, err := exec.LookPath(candidate); err == nil {
			return path, nil
		}
	}
	if path, has := launcher.LookPath(); has {
		return path, nil
	}
	return "", fmt.Errorf("%w: no Chrome/Chromium installation found", ErrToolMissing)
}

// resolveChrome locates a browser binary, downloading a managed Chromium as
// a last resort.
func (c *MarkdownConverter) resolveChrome() (string, error) {
	if path, err := c.findChrome(); err == nil {
		return path, nil
	}
	if c.opts.DisableDownload {
		return "", fmt.Errorf("%w: no Chrome/Chromium installation found", ErrToolMissing)
	}
	path, err := launcher.NewBrowser().Get()
	if err != nil {
		return "", fmt.Errorf("%w: downloading Chromium failed: %v", ErrToolMissing, err)
	}
	return path, nil
}

// ensureBrowser starts the shared browser once. Errors surface on the
// conversion that triggered the start.
func (c *MarkdownConverter) ensureBrowser() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return fmt.Errorf("%w: markdown renderer is shut down", ErrToolMissing)
	}
	if c.started {
		return nil
	}

	chromePath, err := c.resolveChrome()
	if err != nil {
		return err
	}

	allocOpts := append(
		chromedp.DefaultExecAllocatorOptions[:],
		chromedp.ExecPath(chromePath),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("disable-sync", true),
		chromedp.Flag("no-first-run", true),
		chromedp.Flag("headless", "new"),
	)
	if c.opts.NoSandbox {
		allocOpts = append(allocOpts, chromedp.Flag("no-sandbox", true))
	}

	// browser lifetime is the process, not the request
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocOpts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return fmt.Errorf("starting browser: %w", err)
	}

	c.allocCancel = allocCancel
	c.browserCtx = browserCtx
	c.browserCancel = browserCancel
	c.started = true
	return nil
}

// Close shuts the shared browser down. Close is idempotent.
func (c *MarkdownConverter) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	if c.started {
		c.browserCancel()
		c.allocCancel()
		c.started = false
	}
	return nil
}

// Convert implements Converter.
func (c *MarkdownConverter) Convert(ctx context.Context, req Request) (*Result, error) {
	source, err := os.ReadFile(req.InputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read markdown file: %w", err)
	}

	html, err := RenderHTML(source)
	if err != nil {
		return nil, fmt.Errorf("failed to render markdown: %w", err)
	}

	if err := c.ensureBrowser(); err != nil {
		return nil, err
	}

	// stage the HTML next to the output so the janitor covers it too
	htmlPath := req.OutputPath + ".html"
	if err := os.WriteFile(htmlPath, []byte(html), 0o644); err != nil {
		return nil, fmt.Errorf("failed to stage HTML: %w", err)
	}
	defer os.Remove(htmlPath)

	abs, err := filepath.Abs(htmlPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve HTML path: %w", err)
	}

	pdfData, err := c.print(ctx, "file://"+filepath.ToSlash(abs))
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(req.OutputPath, pdfData, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write PDF: %w", err)
	}
	return &Result{OutputPath: req.OutputPath}, nil
}

// print navigates a fresh tab to targetURL and prints it to PDF bytes.
func (c *MarkdownConverter) print(ctx context.Context, targetURL string) ([]byte, error) {
	tabCtx, tabCancel := chromedp.NewContext(c.browserCtx)
	defer tabCancel()
	tabCtx, timeoutCancel := context.WithTimeout(tabCtx, c.opts.Timeout)
	defer timeoutCancel()

	// propagate request cancellation into the tab
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			tabCancel()
		case <-stop:
		}
	}()

	var buf []byte
	err := chromedp.Run(tabCtx,
		chromedp.Navigate(targetURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			buf, _, err = page.PrintToPDF().
				WithPaperWidth(a4WidthInches).
				WithPaperHeight(a4HeightInches).
				WithMarginTop(marginInches).
				WithMarginRight(marginInches).
				WithMarginBottom(marginInches).
				WithMarginLeft(marginInches).
				WithScale(1.0).
				WithPrintBackground(true).
				Do(ctx)
			return err
		}),
	)
	if err != nil {
		if tabCtx.Err() == context.DeadlineExceeded || ctx.Err() == context.DeadlineExceeded {
			return nil, ErrTimeout
		}
		return nil, fmt.Errorf("printing failed: %w", err)
	}
	return buf, nil
}

// markdown is the shared goldmark instance: GFM tables and strikethrough,
// footnotes and definition lists, auto heading IDs for anchors.
var markdown = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,
		extension.Footnote,
		extension.DefinitionList,
	),
	goldmark.WithParserOptions(
		parser.WithAutoHeadingID(),
	),
)

// RenderHTML converts Markdown source into the full styled HTML document the
// browser prints. Raw HTML blocks in the source are dropped, not executed.
func RenderHTML(source []byte) (string, error) {
	var body bytes.Buffer
	if err := markdown.Convert(source, &body); err != nil {
		return "", err
	}
	return fmt.Sprintf(htmlShell, body.String()), nil
}

// htmlShell mirrors the document styling of the original UI: Arial body,
// slate headings, boxed code, accented blockquotes, bordered tables.
const htmlShell = `<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<style>
    body {
        font-family: Arial, sans-serif;
        line-height: 1.6;
        margin: 40px;
        color: #333;
    }
    h1, h2, h3, h4, h5, h6 {
        color: #2c3e50;
        margin-top: 30px;
        margin-bottom: 15px;
    }
    h1 { font-size: 2.2em; }
    h2 { font-size: 1.8em; }
    h3 { font-size: 1.4em; }
    p { margin-bottom: 15px; }
    code {
        background-color: #f4f4f4;
        padding: 2px 4px;
        border-radius: 3px;
        font-family: 'Courier New', monospace;
    }
    pre {
        background-color: #f8f8f8;
        padding: 15px;
        border-radius: 5px;
        overflow-x: auto;
        border-left: 4px solid #3498db;
    }
    blockquote {
        border-left: 4px solid #bdc3c7;
        margin-left: 0;
        padding-left: 20px;
        color: #7f8c8d;
    }
    table {
        border-collapse: collapse;
        width: 100%%;
        margin: 20px 0;
    }
    th, td {
        border: 1px solid #ddd;
        padding: 8px;
        text-align: left;
    }
    th {
        background-color: #f2f2f2;
        font-weight: bold;
    }
</style>
</head>
<body>
%s
</body>
</html>
`
