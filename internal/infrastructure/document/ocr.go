//go:build ocr

package document

import (
	"errors"
	"fmt"

	"github.com/otiai10/gosseract/v2"
)

// OCREnabled сборка с поддержкой распознавания сканов
const OCREnabled = true

// ErrOCRDisabled распознавание сканов недоступно
var ErrOCRDisabled = errors.New("ocr is disabled")

func recognize(language string, data []byte) (string, error) {
	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(language); err != nil {
		return "", fmt.Errorf("set ocr language: %w", err)
	}
	if err := client.SetImageFromBytes(data); err != nil {
		return "", fmt.Errorf("load image for ocr: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("ocr: %w", err)
	}
	return text, nil
}
