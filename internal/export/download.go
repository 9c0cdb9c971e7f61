package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
)

// Downloader delivers a finished file
type Downloader interface {
	Download(content []byte, filename string) error
}

// FileDownloader writes delivered files into an output directory
type FileDownloader struct {
	outputDir string
}

// NewFileDownloader creates the output directory if needed
func NewFileDownloader(outputDir string) (*FileDownloader, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	return &FileDownloader{outputDir: outputDir}, nil
}

// Path returns where filename is written
func (d *FileDownloader) Path(filename string) string {
	return filepath.Join(d.outputDir, SanitizeFilename(filename))
}

// Download writes content to the output directory
func (d *FileDownloader) Download(content []byte, filename string) error {
	path := d.Path(filename)
	if err := os.WriteFile(path, content, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// SanitizeFilename replaces path separators and characters that are unsafe
// in file names
func SanitizeFilename(name string) string {
	unsafe := []string{"/", "\\", ":", "*", "?", "\"", "<", ">", "|"}
	for _, char := range unsafe {
		name = strings.ReplaceAll(name, char, "_")
	}
	name = strings.TrimSpace(name)
	if name == "" || name == "." || name == ".." {
		return "download"
	}
	return name
}

// Deliver hands content to d without reporting back; failures are logged
func Deliver(d Downloader, content []byte, filename string, logger *log.Logger) {
	if logger == nil {
		logger = log.Default()
	}
	if err := d.Download(content, filename); err != nil {
		logger.Error("Download failed", "file", filename, "err", err)
		return
	}
	logger.Info("File delivered", "file", filename, "bytes", len(content))
}
