//go:build !ocr

package document

import "errors"

// OCREnabled сборка без tesseract
const OCREnabled = false

// ErrOCRDisabled распознавание сканов недоступно в этой сборке
var ErrOCRDisabled = errors.New("ocr is disabled")

func recognize(string, []byte) (string, error) {
	return "", ErrOCRDisabled
}
