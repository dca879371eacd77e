package convert

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/yourorg/docpress/pkg/document"
)

// executor abstracts command execution for testing.
type executor interface {
	LookPath(file string) (string, error)
	Run(ctx context.Context, env []string, name string, args ...string) ([]byte, error)
}

// osExecutor is the production executor backed by os/exec.
type osExecutor struct{}

func (o *osExecutor) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

func (o *osExecutor) Run(ctx context.Context, env []string, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Env = env
	return cmd.CombinedOutput()
}

// sofficeCandidates are the binary names probed when no explicit path is set.
var sofficeCandidates = []string{"soffice", "libreoffice"}

// OfficeConverter converts Word documents by shelling out to a headless
// LibreOffice. The office suite is the actual engine; this delegate only
// frames the call and checks what came back.
type OfficeConverter struct {
	binaryPath string
	timeout    time.Duration
	exec       executor
}

// NewOfficeConverter creates the delegate. binaryPath may be empty, in which
// case SOFFICE_PATH and then the PATH candidates are probed.
func NewOfficeConverter(binaryPath string, timeout time.Duration) *OfficeConverter {
	if binaryPath == "" {
		binaryPath = os.Getenv("SOFFICE_PATH")
	}
	return &OfficeConverter{
		binaryPath: binaryPath,
		timeout:    timeout,
		exec:       &osExecutor{},
	}
}

// Type implements Converter.
func (c *OfficeConverter) Type() document.Type {
	return document.TypeDocx
}

// Available implements Converter.
func (c *OfficeConverter) Available() error {
	_, err := c.resolveBinary()
	return err
}

func (c *OfficeConverter) resolveBinary() (string, error) {
	if c.binaryPath != "" {
		path, err := c.exec.LookPath(c.binaryPath)
		if err != nil {
			return "", fmt.Errorf("%w: %s is not executable", ErrToolMissing, c.binaryPath)
		}
		return path, nil
	}
	for _, candidate := range sofficeCandidates {
		if path, err := c.exec.LookPath(candidate); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("%w: LibreOffice is not installed (looked for %s)",
		ErrToolMissing, strings.Join(sofficeCandidates, ", "))
}

// Convert implements Converter.
func (c *OfficeConverter) Convert(ctx context.Context, req Request) (*Result, error) {
	bin, err := c.resolveBinary()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	outDir := filepath.Dir(req.OutputPath)
	// Give the conversion its own HOME so LibreOffice creates a fresh user
	// profile inside the workspace. This prevents lock-file conflicts between
	// concurrent requests, and the profile is removed with the workspace.
	env := append(os.Environ(),
		"HOME="+outDir,
		"UserInstallation=file://"+filepath.ToSlash(outDir)+"/lo-profile",
	)

	output, err := c.exec.Run(ctx, env, bin,
		"--headless",
		"--convert-to", "pdf",
		"--outdir", outDir,
		req.InputPath,
	)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, ErrTimeout
		}
		return nil, fmt.Errorf("soffice failed: %w (%s)", err, firstLine(output))
	}

	// LibreOffice names the output after the input file with a .pdf extension.
	base := filepath.Base(req.InputPath)
	produced := filepath.Join(outDir, strings.TrimSuffix(base, filepath.Ext(base))+".pdf")

	info, err := os.Stat(produced)
	if err != nil {
		return nil, fmt.Errorf("%w: PDF file was not created", ErrNoOutput)
	}
	if info.Size() == 0 {
		return nil, fmt.Errorf("%w: generated PDF file is empty", ErrNoOutput)
	}

	if produced != req.OutputPath {
		if err := os.Rename(produced, req.OutputPath); err != nil {
			return nil, fmt.Errorf("failed to move PDF into place: %w", err)
		}
	}
	return &Result{OutputPath: req.OutputPath}, nil
}

// firstLine trims delegate output down to something loggable.
func firstLine(output []byte) string {
	s := strings.TrimSpace(string(output))
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		s = s[:idx]
	}
	if len(s) > 200 {
		s = s[:200]
	}
	if s == "" {
		s = "no output"
	}
	return s
}
