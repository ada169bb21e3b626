package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"damage-control-bot/internal/domain/entity"
	"damage-control-bot/internal/domain/port"
)

// MinScore детекции ниже этого порога отбрасываются
const MinScore = 0.1

// DefaultPartQueries текстовые запросы для zero-shot детектора деталей
var DefaultPartQueries = []string{
	"bumper", "door", "window", "wheel", "headlight", "hood",
	"trunk", "mirror", "windshield", "tire", "roof", "fender",
}

// Client обращается к внешнему сервису с моделями (детекция деталей, карта глубины)
type Client struct {
	baseURL    string
	queries    []string
	httpClient *http.Client
}

// NewClient создаёт клиента сервиса моделей
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		queries:    DefaultPartQueries,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// wireDetection формат детекции в ответе сервиса
type wireDetection struct {
	Class      string  `json:"class"`
	Confidence float64 `json:"confidence"`
	BBox       struct {
		X1 float64 `json:"x1"`
		Y1 float64 `json:"y1"`
		X2 float64 `json:"x2"`
		Y2 float64 `json:"y2"`
	} `json:"bbox"`
}

type detectResponse struct {
	Detections []wireDetection `json:"detections"`
}

type depthResponse struct {
	Stats struct {
		Min  float64 `json:"min_depth"`
		Max  float64 `json:"max_depth"`
		Mean float64 `json:"mean_depth"`
		Std  float64 `json:"std_depth"`
	} `json:"stats"`
}

// DetectParts отправляет изображение на zero-shot детектор деталей
func (c *Client) DetectParts(ctx context.Context, imageData []byte) ([]entity.Detection, error) {
	var resp detectResponse
	fields := map[string]string{"queries": strings.Join(c.queries, ",")}
	if err := c.postImage(ctx, "/detect/parts", imageData, fields, &resp); err != nil {
		return nil, err
	}

	return toDetections(resp.Detections), nil
}

// EstimateDepth отправляет изображение на оценку карты глубины
func (c *Client) EstimateDepth(ctx context.Context, imageData []byte) (*entity.DepthStats, error) {
	var resp depthResponse
	if err := c.postImage(ctx, "/depth", imageData, nil, &resp); err != nil {
		return nil, err
	}

	return &entity.DepthStats{
		Min:  resp.Stats.Min,
		Max:  resp.Stats.Max,
		Mean: resp.Stats.Mean,
		Std:  resp.Stats.Std,
	}, nil
}

// CheckHealth проверяет доступность сервиса моделей
func (c *Client) CheckHealth(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("inference service unhealthy: %d", resp.StatusCode)
	}

	return nil
}

func (c *Client) postImage(ctx context.Context, path string, imageData []byte, fields map[string]string, out any) error {
	// Создаём multipart запрос
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", "image.jpg")
	if err != nil {
		return fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, bytes.NewReader(imageData)); err != nil {
		return fmt.Errorf("copy image data: %w", err)
	}
	for k, v := range fields {
		if err := writer.WriteField(k, v); err != nil {
			return fmt.Errorf("write field %s: %w", k, err)
		}
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("close multipart: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("inference %s failed with status: %d", path, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}

// DecodeDetections читает детекции в формате сервиса (объект с полем detections или массив)
func DecodeDetections(r io.Reader) ([]entity.Detection, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read detections: %w", err)
	}

	var wrapped detectResponse
	if err := json.Unmarshal(data, &wrapped); err == nil && wrapped.Detections != nil {
		return toDetections(wrapped.Detections), nil
	}

	var list []wireDetection
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("decode detections: %w", err)
	}
	return toDetections(list), nil
}

// DecodeDepthStats читает статистику глубины (объект с полем stats или сами поля)
func DecodeDepthStats(r io.Reader) (*entity.DepthStats, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read depth stats: %w", err)
	}

	var wrapped struct {
		Stats json.RawMessage `json:"stats"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, fmt.Errorf("decode depth stats: %w", err)
	}
	if len(wrapped.Stats) > 0 {
		data = wrapped.Stats
	}

	var resp depthResponse
	if err := json.Unmarshal(data, &resp.Stats); err != nil {
		return nil, fmt.Errorf("decode depth stats: %w", err)
	}
	return &entity.DepthStats{
		Min:  resp.Stats.Min,
		Max:  resp.Stats.Max,
		Mean: resp.Stats.Mean,
		Std:  resp.Stats.Std,
	}, nil
}

func toDetections(wire []wireDetection) []entity.Detection {
	out := make([]entity.Detection, 0, len(wire))
	for _, w := range wire {
		// Фильтруем результаты с низкой уверенностью
		if w.Confidence < MinScore {
			continue
		}
		out = append(out, entity.Detection{
			Label:      w.Class,
			Confidence: w.Confidence,
			Box: entity.BBox{
				X1: w.BBox.X1,
				Y1: w.BBox.Y1,
				X2: w.BBox.X2,
				Y2: w.BBox.Y2,
			},
		})
	}
	return out
}

// Проверка реализации интерфейсов
var (
	_ port.PartDetector   = (*Client)(nil)
	_ port.DepthEstimator = (*Client)(nil)
)
