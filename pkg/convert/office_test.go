package convert

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/docpress/pkg/document"
	"github.com/yourorg/docpress/pkg/pdfutil"
)

// fakeExecutor stands in for os/exec so the delegate can be tested without
// LibreOffice installed.
type fakeExecutor struct {
	lookPath func(file string) (string, error)
	run      func(ctx context.Context, env []string, name string, args ...string) ([]byte, error)

	lastName string
	lastArgs []string
	lastEnv  []string
}

func (f *fakeExecutor) LookPath(file string) (string, error) {
	if f.lookPath != nil {
		return f.lookPath(file)
	}
	return "/usr/bin/" + file, nil
}

func (f *fakeExecutor) Run(ctx context.Context, env []string, name string, args ...string) ([]byte, error) {
	f.lastName = name
	f.lastArgs = args
	f.lastEnv = env
	if f.run != nil {
		return f.run(ctx, env, name, args...)
	}
	return nil, nil
}

func pdfFixture(t *testing.T, title string) []byte {
	t.Helper()
	gen := pdfutil.NewPDFGenerator(title)
	gen.AddParagraph("fixture body", 6)
	data, err := gen.GetBytes()
	require.NoError(t, err)
	return data
}

// argValue returns the argument following flag, or "".
func argValue(args []string, flag string) string {
	for i, a := range args {
		if a == flag && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}

func TestOfficeConvertSuccess(t *testing.T) {
	dir := t.TempDir()
	inputPath := filepath.Join(dir, "report.docx")
	require.NoError(t, os.WriteFile(inputPath, []byte("not really a docx"), 0o644))
	outputPath := filepath.Join(dir, "converted.pdf")

	fake := &fakeExecutor{
		run: func(ctx context.Context, env []string, name string, args ...string) ([]byte, error) {
			outDir := argValue(args, "--outdir")
			require.NotEmpty(t, outDir)
			// LibreOffice writes <stem>.pdf into the out dir
			return []byte("convert ok"), os.WriteFile(
				filepath.Join(outDir, "report.pdf"), pdfFixture(t, "report"), 0o644)
		},
	}
	conv := NewOfficeConverter("", time.Minute)
	conv.exec = fake

	require.NoError(t, conv.Available())
	assert.Equal(t, document.TypeDocx, conv.Type())

	res, err := conv.Convert(context.Background(), Request{
		InputPath:  inputPath,
		OutputPath: outputPath,
		Filename:   "report.docx",
	})
	require.NoError(t, err)
	assert.Equal(t, outputPath, res.OutputPath)

	data, err := os.ReadFile(outputPath)
	require.NoError(t, err)
	_, err = pdfutil.Verify(data)
	require.NoError(t, err)

	assert.Contains(t, fake.lastArgs, "--headless")
	assert.Equal(t, "pdf", argValue(fake.lastArgs, "--convert-to"))
	assert.Equal(t, dir, argValue(fake.lastArgs, "--outdir"))
	assert.Contains(t, fake.lastArgs, inputPath)
	assert.Contains(t, fake.lastEnv, "HOME="+dir)
}

func TestOfficeConvertToolMissing(t *testing.T) {
	fake := &fakeExecutor{
		lookPath: func(string) (string, error) { return "", errors.New("not found") },
	}
	conv := NewOfficeConverter("", time.Minute)
	conv.binaryPath = ""
	conv.exec = fake

	err := conv.Available()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrToolMissing)
	assert.Contains(t, err.Error(), "LibreOffice is not installed")

	_, err = conv.Convert(context.Background(), Request{InputPath: "in.docx", OutputPath: "out.pdf"})
	assert.ErrorIs(t, err, ErrToolMissing)
}

func TestOfficeExplicitPathNotExecutable(t *testing.T) {
	fake := &fakeExecutor{
		lookPath: func(string) (string, error) { return "", errors.New("not found") },
	}
	conv := NewOfficeConverter("/opt/libreoffice/soffice", time.Minute)
	conv.exec = fake

	err := conv.Available()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrToolMissing)
	assert.Contains(t, err.Error(), "/opt/libreoffice/soffice")
}

func TestOfficeConvertTimeout(t *testing.T) {
	fake := &fakeExecutor{
		run: func(ctx context.Context, env []string, name string, args ...string) ([]byte, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		},
	}
	conv := NewOfficeConverter("", 30*time.Millisecond)
	conv.exec = fake

	_, err := conv.Convert(context.Background(), Request{
		InputPath:  "slow.docx",
		OutputPath: filepath.Join(t.TempDir(), "slow.pdf"),
	})
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestOfficeConvertNoOutput(t *testing.T) {
	fake := &fakeExecutor{} // run succeeds but writes nothing
	conv := NewOfficeConverter("", time.Minute)
	conv.exec = fake

	_, err := conv.Convert(context.Background(), Request{
		InputPath:  "empty.docx",
		OutputPath: filepath.Join(t.TempDir(), "empty.pdf"),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoOutput)
	assert.Contains(t, err.Error(), "PDF file was not created")
}

func TestOfficeConvertEmptyOutput(t *testing.T) {
	dir := t.TempDir()
	fake := &fakeExecutor{
		run: func(ctx context.Context, env []string, name string, args ...string) ([]byte, error) {
			return nil, os.WriteFile(filepath.Join(argValue(args, "--outdir"), "hollow.pdf"), nil, 0o644)
		},
	}
	conv := NewOfficeConverter("", time.Minute)
	conv.exec = fake

	_, err := conv.Convert(context.Background(), Request{
		InputPath:  "hollow.docx",
		OutputPath: filepath.Join(dir, "hollow.pdf"),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoOutput)
	assert.Contains(t, err.Error(), "empty")
}

func TestOfficeConvertFailureKeepsFirstLine(t *testing.T) {
	fake := &fakeExecutor{
		run: func(ctx context.Context, env []string, name string, args ...string) ([]byte, error) {
			return []byte("Error: source file could not be loaded\nsecond line\nthird line"),
				errors.New("exit status 1")
		},
	}
	conv := NewOfficeConverter("", time.Minute)
	conv.exec = fake

	_, err := conv.Convert(context.Background(), Request{
		InputPath:  "broken.docx",
		OutputPath: filepath.Join(t.TempDir(), "broken.pdf"),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "source file could not be loaded")
	assert.NotContains(t, err.Error(), "second line")
}

func TestFirstLine(t *testing.T) {
	assert.Equal(t, "no output", firstLine(nil))
	assert.Equal(t, "no output", firstLine([]byte("  \n  ")))
	assert.Equal(t, "alpha", firstLine([]byte("alpha\nbeta")))
	long := strings.Repeat("x", 300)
	assert.Len(t, firstLine([]byte(long)), 200)
}
