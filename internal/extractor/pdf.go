package extractor

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"os"
	"os/exec"
	"strings"

	"github.com/gen2brain/go-fitz"
	"go.uber.org/zap"
)

type fitzParser struct {
	ocr    bool
	logger *zap.Logger
}

// Pages returns the text layer of every page, falling back to tesseract OCR
// when the document has no text layer and OCR is enabled.
func (p fitzParser) Pages(data []byte) ([]string, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	pages := make([]string, 0, doc.NumPage())
	hasText := false
	for n := 0; n < doc.NumPage(); n++ {
		text, err := doc.Text(n)
		if err != nil {
			p.logger.Warn("pdf page text failed", zap.Int("page", n+1), zap.Error(err))
			continue
		}
		text = strings.TrimSpace(text)
		if text != "" {
			hasText = true
		}
		pages = append(pages, text)
	}

	if hasText || !p.ocr {
		return pages, nil
	}
	return p.ocrPages(doc)
}

func (p fitzParser) ocrPages(doc *fitz.Document) ([]string, error) {
	if err := checkTesseract(); err != nil {
		return nil, fmt.Errorf("tesseract check failed: %w", err)
	}

	var pages []string
	var lastErr error
	for n := 0; n < doc.NumPage(); n++ {
		img, err := doc.Image(n)
		if err != nil {
			lastErr = fmt.Errorf("page %d: failed to extract image: %w", n+1, err)
			p.logger.Warn("ocr page skipped", zap.Error(lastErr))
			continue
		}
		text, err := ocrImage(img)
		if err != nil {
			lastErr = fmt.Errorf("page %d: %w", n+1, err)
			p.logger.Warn("ocr page skipped", zap.Error(lastErr))
			continue
		}
		pages = append(pages, text)
	}

	if len(pages) == 0 && lastErr != nil {
		return nil, fmt.Errorf("failed to extract text via OCR: %w", lastErr)
	}
	return pages, nil
}

func ocrImage(img image.Image) (string, error) {
	tmpFile, err := os.CreateTemp("", "page-*.png")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer os.Remove(tmpPath)

	if err := png.Encode(tmpFile, img); err != nil {
		tmpFile.Close()
		return "", fmt.Errorf("failed to encode PNG: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return "", fmt.Errorf("failed to save PNG: %w", err)
	}

	var stderr bytes.Buffer
	cmd := exec.Command("tesseract", tmpPath, "stdout", "-l", "eng")
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("tesseract error: %w, output: %s", err, stderr.String())
	}
	return strings.TrimSpace(string(out)), nil
}

func checkTesseract() error {
	out, err := exec.Command("tesseract", "-v").CombinedOutput()
	if err != nil {
		return fmt.Errorf("tesseract not found or not executable: %w\nOutput: %s", err, string(out))
	}
	return nil
}
