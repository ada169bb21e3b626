package document

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"

	"damage-control-bot/internal/domain/port"
)

var (
	// ErrUnsupportedFormat формат файла договора не поддерживается
	ErrUnsupportedFormat = errors.New("unsupported document format")
	// ErrEmptyDocument в документе не найден текст
	ErrEmptyDocument = errors.New("document contains no text")
)

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".bmp":  true,
	".tiff": true,
	".tif":  true,
}

// Extractor извлекает текст договора из PDF, текстовых файлов и сканов
type Extractor struct {
	language string
}

// NewExtractor создаёт экстрактор; language язык OCR в формате tesseract
func NewExtractor(language string) *Extractor {
	if language == "" {
		language = "fra"
	}
	return &Extractor{language: language}
}

// ExtractText возвращает текст документа, формат определяется по расширению файла
func (e *Extractor) ExtractText(ctx context.Context, filename string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	ext := strings.ToLower(filepath.Ext(filename))

	var (
		text string
		err  error
	)
	switch {
	case ext == ".pdf":
		text, err = extractPDF(data)
	case ext == ".txt":
		if !utf8.Valid(data) {
			return "", fmt.Errorf("text document is not valid utf-8")
		}
		text = string(data)
	case imageExtensions[ext]:
		text, err = recognize(e.language, data)
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return "", err
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyDocument
	}
	return text, nil
}

// IsSupported сообщает, можно ли извлечь текст из файла с таким именем
func IsSupported(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == ".pdf" || ext == ".txt" {
		return true
	}
	return imageExtensions[ext] && OCREnabled
}

func extractPDF(data []byte) (text string, err error) {
	// Парсер паникует на повреждённых xref-таблицах
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed pdf: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}

	var sb strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("read pdf page %d: %w", i, err)
		}
		sb.WriteString(content)
		sb.WriteString("\n")
	}

	return sb.String(), nil
}

// Проверка реализации интерфейса
var _ port.TextExtractor = (*Extractor)(nil)
