//go:build !gocv

package vision

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInspectorStub(t *testing.T) {
	require.False(t, Enabled)

	i := NewInspector()
	require.ErrorIs(t, i.CheckQuality(context.Background(), []byte("img")), ErrDisabled)

	_, err := i.HighlightDetections([]byte("img"), nil)
	require.ErrorIs(t, err, ErrDisabled)
}
