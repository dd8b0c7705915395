// Package export writes the portfolio as a static site that needs no server,
// optionally with a PDF rendition printed by headless Chrome.
package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

// Renderer writes the static form of the page.
type Renderer interface {
	RenderStatic(w io.Writer) error
}

// Options control an export.
type Options struct {
	OutDir string
	// Assets are copied below OutDir/static.
	Assets fs.FS
	// ResumePath, when the file exists, is copied as ResumeName.
	ResumePath string
	ResumeName string
	// PDF prints the exported page to PDFName with headless Chrome.
	PDF        bool
	PDFName    string
	PDFTimeout time.Duration
	Log        *zap.Logger
}

// Result lists what was written.
type Result struct {
	Index  string
	Assets int
	Resume string
	PDF    string
}

// Site exports the page rendered by r into opts.OutDir.
func Site(ctx context.Context, r Renderer, opts Options) (*Result, error) {
	if opts.OutDir == "" {
		return nil, errors.New("export: output directory is required")
	}
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}
	if err := os.MkdirAll(opts.OutDir, 0o755); err != nil {
		return nil, fmt.Errorf("create %s: %w", opts.OutDir, err)
	}

	var page bytes.Buffer
	if err := r.RenderStatic(&page); err != nil {
		return nil, fmt.Errorf("render page: %w", err)
	}
	res := &Result{Index: filepath.Join(opts.OutDir, "index.html")}
	if err := os.WriteFile(res.Index, page.Bytes(), 0o644); err != nil {
		return nil, err
	}
	log.Info("page exported", zap.String("path", res.Index))

	if opts.Assets != nil {
		n, err := copyFS(opts.Assets, filepath.Join(opts.OutDir, "static"))
		if err != nil {
			return nil, fmt.Errorf("copy assets: %w", err)
		}
		res.Assets = n
	}

	if opts.ResumePath != "" {
		name := opts.ResumeName
		if name == "" {
			name = filepath.Base(opts.ResumePath)
		}
		dst := filepath.Join(opts.OutDir, name)
		switch err := copyFile(opts.ResumePath, dst); {
		case errors.Is(err, fs.ErrNotExist):
			log.Warn("resume not found, skipped", zap.String("path", opts.ResumePath))
		case err != nil:
			return nil, fmt.Errorf("copy resume: %w", err)
		default:
			res.Resume = dst
		}
	}

	if opts.PDF {
		name := opts.PDFName
		if name == "" {
			name = "portfolio.pdf"
		}
		timeout := opts.PDFTimeout
		if timeout <= 0 {
			timeout = time.Minute
		}
		srv := httptest.NewServer(http.FileServer(http.Dir(opts.OutDir)))
		defer srv.Close()

		pdf, err := PrintPDF(ctx, srv.URL+"/index.html", timeout)
		if err != nil {
			return nil, err
		}
		res.PDF = filepath.Join(opts.OutDir, name)
		if err := os.WriteFile(res.PDF, pdf, 0o644); err != nil {
			return nil, err
		}
		log.Info("pdf exported", zap.String("path", res.PDF), zap.Int("bytes", len(pdf)))
	}
	return res, nil
}

func copyFS(src fs.FS, dst string) (int, error) {
	n := 0
	err := fs.WalkDir(src, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		target := filepath.Join(dst, filepath.FromSlash(path))
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		data, err := fs.ReadFile(src, path)
		if err != nil {
			return err
		}
		n++
		return os.WriteFile(target, data, 0o644)
	})
	return n, err
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
