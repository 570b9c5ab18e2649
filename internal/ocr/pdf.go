package ocr

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// nativeTextThreshold is the minimum significant character count for a page's
// embedded text layer to be trusted over OCR.
const nativeTextThreshold = 50

// nativePageTexts returns the embedded text layer of every page, in order.
// Scanned pages come back empty; that is the signal to fall through to OCR.
func nativePageTexts(path string) ([]string, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf %s: %w", path, err)
	}
	defer f.Close()

	total := reader.NumPage()
	texts := make([]string, 0, total)
	for i := 1; i <= total; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			texts = append(texts, "")
			continue
		}
		var sb strings.Builder
		for _, item := range page.Content().Text {
			sb.WriteString(item.S)
			sb.WriteByte(' ')
		}
		texts = append(texts, strings.TrimSpace(sb.String()))
	}
	return texts, nil
}

// pdfPageCount returns the number of pages in the file.
func pdfPageCount(path string) (int, error) {
	count, err := api.PageCountFile(path)
	if err != nil {
		return 0, fmt.Errorf("count pages of %s: %w", path, err)
	}
	return count, nil
}

// extractPageImages pulls the embedded images of one page into memory.
// Scanned documents embed each page as a single full-page image, which is
// what the OCR engines consume.
func extractPageImages(path string, page int) ([][]byte, error) {
	tmpDir, err := os.MkdirTemp("", "naturadocs-pdfimg-*")
	if err != nil {
		return nil, fmt.Errorf("create image scratch dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	pages := []string{strconv.Itoa(page)}
	if err := api.ExtractImagesFile(path, tmpDir, pages, nil); err != nil {
		return nil, fmt.Errorf("extract images from %s page %d: %w", path, page, err)
	}

	entries, err := os.ReadDir(tmpDir)
	if err != nil {
		return nil, fmt.Errorf("read image scratch dir: %w", err)
	}

	var images [][]byte
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(tmpDir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("read extracted image %s: %w", entry.Name(), err)
		}
		images = append(images, data)
	}
	return images, nil
}

// significantChars counts non-whitespace characters.
func significantChars(s string) int {
	n := 0
	for _, r := range s {
		if !unicode.IsSpace(r) {
			n++
		}
	}
	return n
}
