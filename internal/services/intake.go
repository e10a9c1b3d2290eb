package services

import (
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Lllllllleong/pdfinterleaver/internal/models"
)

// UploadField is the multipart form field carrying the uploaded PDFs.
const UploadField = "files"

// FromPaths reads the given files into InputFiles, in argument order.
// A directory contributes its *.pdf entries sorted by name.
func FromPaths(paths []string) ([]models.InputFile, error) {
	var files []models.InputFile
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", p, err)
		}
		if !info.IsDir() {
			f, err := readLocalFile(p)
			if err != nil {
				return nil, err
			}
			files = append(files, f)
			continue
		}

		entries, err := os.ReadDir(p)
		if err != nil {
			return nil, fmt.Errorf("failed to read directory %s: %w", p, err)
		}
		var names []string
		for _, e := range entries {
			if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), ".pdf") {
				names = append(names, e.Name())
			}
		}
		sort.Strings(names)
		for _, name := range names {
			f, err := readLocalFile(filepath.Join(p, name))
			if err != nil {
				return nil, err
			}
			files = append(files, f)
		}
	}
	return files, nil
}

func readLocalFile(path string) (models.InputFile, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return models.InputFile{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return models.InputFile{
		Name:     filepath.Base(path),
		Size:     int64(len(content)),
		MimeType: mime.TypeByExtension(filepath.Ext(path)),
		Content:  content,
	}, nil
}

// FromMultipart reads every file uploaded under UploadField, in upload order.
func FromMultipart(r *http.Request, maxMemory int64) ([]models.InputFile, error) {
	if err := r.ParseMultipartForm(maxMemory); err != nil {
		return nil, fmt.Errorf("failed to parse multipart form: %w", err)
	}
	headers := r.MultipartForm.File[UploadField]
	files := make([]models.InputFile, 0, len(headers))
	for _, h := range headers {
		part, err := h.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open upload %s: %w", h.Filename, err)
		}
		content, err := io.ReadAll(part)
		part.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read upload %s: %w", h.Filename, err)
		}
		files = append(files, models.InputFile{
			Name:     filepath.Base(h.Filename),
			Size:     h.Size,
			MimeType: h.Header.Get("Content-Type"),
			Content:  content,
		})
	}
	return files, nil
}
