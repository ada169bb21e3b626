//go:build !ocr

package document

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExtractor_ImageWithoutOCR(t *testing.T) {
	_, err := NewExtractor("fra").ExtractText(context.Background(), "scan.jpg", []byte{0xff, 0xd8})
	require.ErrorIs(t, err, ErrOCRDisabled)
	require.False(t, IsSupported("scan.png"))
}
