//go:build gocv
// +build gocv

package vision

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"image"
	"image/color"
	"image/jpeg"

	"gocv.io/x/gocv"

	"damage-control-bot/internal/domain/entity"
)

// Enabled сообщает, собран ли пакет с OpenCV
const Enabled = true

// ErrDisabled возвращается сборкой без тега gocv
var ErrDisabled = errors.New("gocv build tag is not enabled")

// ErrLowQuality снимок не прошёл проверку качества
var ErrLowQuality = errors.New("low image quality")

type Inspector struct {
	MinImageSide          int
	MinSharpnessEdgeRatio float64
	MaxOverexposedRatio   float64
	MaxUnderexposedRatio  float64
	MaxGlareRatio         float64
}

// NewInspector создаёт проверку качества с порогами по умолчанию.
func NewInspector() *Inspector {
	return &Inspector{
		MinImageSide:          320,
		MinSharpnessEdgeRatio: 0.008,
		MaxOverexposedRatio:   0.35,
		MaxUnderexposedRatio:  0.45,
		MaxGlareRatio:         0.08,
	}
}

// CheckQuality отклоняет маленькие, размытые, пере- и недоэкспонированные снимки и снимки с бликами.
func (ins *Inspector) CheckQuality(ctx context.Context, imageData []byte) error {
	_ = ctx
	mat, err := decodeToMat(imageData)
	if err != nil {
		return err
	}
	defer mat.Close()

	return ins.checkImageQuality(mat)
}

// HighlightDetections рисует рамки деталей с подписью и уверенностью.
func (ins *Inspector) HighlightDetections(imageData []byte, detections []entity.Detection) ([]byte, error) {
	mat, err := decodeToMat(imageData)
	if err != nil {
		return nil, err
	}
	defer mat.Close()

	white := color.RGBA{R: 255, G: 255, B: 255, A: 255}
	for _, d := range detections {
		c := labelColor(d.Label)
		rect := image.Rect(int(d.Box.X1), int(d.Box.Y1), int(d.Box.X2), int(d.Box.Y2))
		gocv.Rectangle(&mat, rect, c, 2)

		caption := fmt.Sprintf("%s %.2f", d.Label, d.Confidence)
		size := gocv.GetTextSize(caption, gocv.FontHersheySimplex, 0.5, 1)
		top := max(rect.Min.Y-20, 0)
		gocv.Rectangle(&mat, image.Rect(rect.Min.X, top, rect.Min.X+size.X, top+20), c, -1)
		gocv.PutText(&mat, caption, image.Pt(rect.Min.X, top+15), gocv.FontHersheySimplex, 0.5, white, 1)
	}

	img, err := mat.ToImage()
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// labelColor выбирает стабильный цвет для метки детали
func labelColor(label string) color.RGBA {
	h := fnv.New32a()
	h.Write([]byte(label))
	seed := uint8(h.Sum32() % 255)
	return color.RGBA{R: seed, G: seed * 2, B: seed * 3, A: 255}
}

// decodeToMat превращает байты изображения в gocv.Mat.
func decodeToMat(imageData []byte) (gocv.Mat, error) {
	mat, err := gocv.IMDecode(imageData, gocv.IMReadColor)
	if err == nil && !mat.Empty() {
		return mat, nil
	}
	if !mat.Empty() {
		mat.Close()
	}
	return gocv.NewMat(), errors.New("failed to decode image")
}

func (ins *Inspector) checkImageQuality(mat gocv.Mat) error {
	if mat.Empty() {
		return fmt.Errorf("%w: empty image", ErrLowQuality)
	}

	if mat.Cols() < ins.MinImageSide || mat.Rows() < ins.MinImageSide {
		return fmt.Errorf("%w: image is too small (%dx%d)", ErrLowQuality, mat.Cols(), mat.Rows())
	}

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(mat, &gray, gocv.ColorBGRToGray)

	edges := gocv.NewMat()
	defer edges.Close()
	gocv.Canny(gray, &edges, 80, 160)
	edgeRatio := ratioOfMask(edges)
	if edgeRatio < ins.MinSharpnessEdgeRatio {
		return fmt.Errorf("%w: image is blurry (edge_ratio=%.4f)", ErrLowQuality, edgeRatio)
	}

	bright := gocv.NewMat()
	defer bright.Close()
	gocv.Threshold(gray, &bright, 250, 255, gocv.ThresholdBinary)
	overexposedRatio := ratioOfMask(bright)
	if overexposedRatio > ins.MaxOverexposedRatio {
		return fmt.Errorf("%w: overexposed image (ratio=%.4f)", ErrLowQuality, overexposedRatio)
	}

	dark := gocv.NewMat()
	defer dark.Close()
	gocv.Threshold(gray, &dark, 20, 255, gocv.ThresholdBinaryInv)
	underexposedRatio := ratioOfMask(dark)
	if underexposedRatio > ins.MaxUnderexposedRatio {
		return fmt.Errorf("%w: underexposed image (ratio=%.4f)", ErrLowQuality, underexposedRatio)
	}

	hsv := gocv.NewMat()
	defer hsv.Close()
	gocv.CvtColor(mat, &hsv, gocv.ColorBGRToHSV)
	channels := gocv.Split(hsv)
	for i := range channels {
		defer channels[i].Close()
	}
	if len(channels) < 3 {
		return fmt.Errorf("%w: invalid hsv channels", ErrLowQuality)
	}

	lowSat := gocv.NewMat()
	defer lowSat.Close()
	gocv.Threshold(channels[1], &lowSat, 40, 255, gocv.ThresholdBinaryInv)

	highVal := gocv.NewMat()
	defer highVal.Close()
	gocv.Threshold(channels[2], &highVal, 245, 255, gocv.ThresholdBinary)

	glare := gocv.NewMat()
	defer glare.Close()
	gocv.BitwiseAnd(lowSat, highVal, &glare)
	glareRatio := ratioOfMask(glare)
	if glareRatio > ins.MaxGlareRatio {
		return fmt.Errorf("%w: too much glare (ratio=%.4f)", ErrLowQuality, glareRatio)
	}

	return nil
}

func ratioOfMask(mask gocv.Mat) float64 {
	total := mask.Cols() * mask.Rows()
	if total <= 0 {
		return 0
	}
	return float64(gocv.CountNonZero(mask)) / float64(total)
}
