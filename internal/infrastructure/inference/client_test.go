package inference

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"damage-control-bot/internal/domain/entity"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/detect/parts", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, r.ParseMultipartForm(1<<20))

		file, _, err := r.FormFile("file")
		require.NoError(t, err)
		data, err := io.ReadAll(file)
		require.NoError(t, err)
		require.Equal(t, "jpeg-bytes", string(data))
		require.Contains(t, r.FormValue("queries"), "bumper")

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"detections":[
			{"class":"bumper","confidence":0.8,"bbox":{"x1":10,"y1":20,"x2":110,"y2":60}},
			{"class":"roof","confidence":0.05,"bbox":{"x1":0,"y1":0,"x2":5,"y2":5}}
		]}`)
	})
	mux.HandleFunc("/depth", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"stats":{"min_depth":1.5,"max_depth":300,"mean_depth":200,"std_depth":12.5}}`)
	})
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"status":"ok"}`)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_DetectParts(t *testing.T) {
	srv := newTestServer(t)
	c := NewClient(srv.URL+"/", 5*time.Second)

	dets, err := c.DetectParts(context.Background(), []byte("jpeg-bytes"))
	require.NoError(t, err)
	require.Equal(t, []entity.Detection{
		{Label: "bumper", Confidence: 0.8, Box: entity.BBox{X1: 10, Y1: 20, X2: 110, Y2: 60}},
	}, dets)
}

func TestClient_EstimateDepth(t *testing.T) {
	srv := newTestServer(t)
	c := NewClient(srv.URL, 5*time.Second)

	stats, err := c.EstimateDepth(context.Background(), []byte("jpeg-bytes"))
	require.NoError(t, err)
	require.Equal(t, &entity.DepthStats{Min: 1.5, Max: 300, Mean: 200, Std: 12.5}, stats)
}

func TestClient_CheckHealth(t *testing.T) {
	srv := newTestServer(t)
	require.NoError(t, NewClient(srv.URL, time.Second).CheckHealth(context.Background()))
}

func TestClient_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	_, err := c.DetectParts(context.Background(), []byte("x"))
	require.ErrorContains(t, err, "500")

	require.Error(t, c.CheckHealth(context.Background()))
}

func TestClient_ContextCancelled(t *testing.T) {
	srv := newTestServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewClient(srv.URL, time.Second).EstimateDepth(ctx, []byte("x"))
	require.ErrorIs(t, err, context.Canceled)
}

func TestDecodeDetections(t *testing.T) {
	wrapped := `{"detections":[{"class":"door","confidence":0.5,"bbox":{"x1":1,"y1":2,"x2":3,"y2":4}}]}`
	dets, err := DecodeDetections(strings.NewReader(wrapped))
	require.NoError(t, err)
	require.Len(t, dets, 1)
	require.Equal(t, "door", dets[0].Label)

	list := `[{"class":"hood","confidence":0.9,"bbox":{"x1":0,"y1":0,"x2":10,"y2":10}}]`
	dets, err = DecodeDetections(strings.NewReader(list))
	require.NoError(t, err)
	require.Equal(t, 10.0, dets[0].Box.X2)

	dets, err = DecodeDetections(strings.NewReader(`{"detections":[]}`))
	require.NoError(t, err)
	require.Empty(t, dets)

	_, err = DecodeDetections(strings.NewReader(`nope`))
	require.Error(t, err)
}

func TestDecodeDepthStats(t *testing.T) {
	want := &entity.DepthStats{Min: 1, Max: 20, Mean: 8, Std: 2}

	stats, err := DecodeDepthStats(strings.NewReader(`{"stats":{"min_depth":1,"max_depth":20,"mean_depth":8,"std_depth":2}}`))
	require.NoError(t, err)
	require.Equal(t, want, stats)

	stats, err = DecodeDepthStats(strings.NewReader(`{"min_depth":1,"max_depth":20,"mean_depth":8,"std_depth":2}`))
	require.NoError(t, err)
	require.Equal(t, want, stats)

	_, err = DecodeDepthStats(strings.NewReader(`[1,2]`))
	require.Error(t, err)
}
