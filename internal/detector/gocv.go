//go:build gocv
// +build gocv

package detector

import (
	"context"
	"errors"
	"fmt"
	"image"
	"math"
	"sync"

	"gocv.io/x/gocv"

	"github.com/nurulfaradila/pcb-defect-detection/internal/core"
)

const (
	dnnInputSize     = 640
	scoreThreshold   = 0.25
	nmsThreshold     = 0.45
	contourMaxSide   = 1024
	contourMinAspect = 0.1
	contourMaxAspect = 10.0
)

// GoCVDetector inspects board images with OpenCV. When a model is
// configured it runs the exported ONNX network; otherwise it falls back
// to edge/contour heuristics.
//
// A single handle is safe for concurrent Inspect calls: the contour path
// holds no state, and the DNN path serializes access to the network with
// a mutex (gocv.Net is not safe for concurrent Forward).
type GoCVDetector struct {
	cfg Config

	netMu sync.Mutex
	net   gocv.Net
	ready bool
}

func NewGoCVDetector(cfg Config) (*GoCVDetector, error) {
	d := &GoCVDetector{cfg: cfg}

	if cfg.ModelPath != "" {
		net := gocv.ReadNetFromONNX(cfg.ModelPath)
		if net.Empty() {
			return nil, fmt.Errorf("failed to load model %s", cfg.ModelPath)
		}
		d.net = net
		d.ready = true
	}
	return d, nil
}

func (d *GoCVDetector) Close() error {
	if d.ready {
		d.ready = false
		return d.net.Close()
	}
	return nil
}

func (d *GoCVDetector) Inspect(ctx context.Context, imagePath string) (*core.InspectionResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mat := gocv.IMRead(imagePath, gocv.IMReadColor)
	if mat.Empty() {
		return nil, fmt.Errorf("failed to read image %s", imagePath)
	}
	defer mat.Close()

	if d.ready {
		return d.inspectDNN(mat)
	}
	return d.inspectContours(mat)
}

// inspectDNN runs the exported YOLO network. The output tensor is laid
// out [1, 4+numClasses, anchors]: box center/size rows first, then one
// score row per class.
func (d *GoCVDetector) inspectDNN(mat gocv.Mat) (*core.InspectionResult, error) {
	blob := gocv.BlobFromImage(mat, 1.0/255.0,
		image.Pt(dnnInputSize, dnnInputSize),
		gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	d.netMu.Lock()
	d.net.SetInput(blob, "")
	out := d.net.Forward("")
	d.netMu.Unlock()
	defer out.Close()

	dims := out.Size()
	if len(dims) != 3 {
		return nil, errors.New("unexpected model output shape")
	}
	rows := dims[1]
	anchors := dims[2]
	numClasses := rows - 4

	flat, err := out.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("failed to read model output: %w", err)
	}

	scaleX := float64(mat.Cols()) / dnnInputSize
	scaleY := float64(mat.Rows()) / dnnInputSize

	var (
		boxes   []image.Rectangle
		scores  []float32
		classes []int
	)
	at := func(row, anchor int) float32 { return flat[row*anchors+anchor] }

	for a := 0; a < anchors; a++ {
		best := -1
		bestScore := float32(0)
		for c := 0; c < numClasses; c++ {
			if s := at(4+c, a); s > bestScore {
				bestScore = s
				best = c
			}
		}
		if best < 0 || bestScore < scoreThreshold {
			continue
		}

		cx := float64(at(0, a)) * scaleX
		cy := float64(at(1, a)) * scaleY
		w := float64(at(2, a)) * scaleX
		h := float64(at(3, a)) * scaleY

		boxes = append(boxes, image.Rect(
			int(math.Round(cx-w/2)), int(math.Round(cy-h/2)),
			int(math.Round(cx+w/2)), int(math.Round(cy+h/2)),
		))
		scores = append(scores, bestScore)
		classes = append(classes, best)
	}

	keep := gocv.NMSBoxes(boxes, scores, scoreThreshold, nmsThreshold)

	defects := make([]core.Detection, 0, len(keep))
	for _, idx := range keep {
		box := boxes[idx]
		defects = append(defects, core.Detection{
			Type:       className(classes[idx]),
			Confidence: float64(scores[idx]),
			BBox: [4]float64{
				float64(box.Min.X), float64(box.Min.Y),
				float64(box.Max.X), float64(box.Max.Y),
			},
		})
	}
	return &core.InspectionResult{Defects: defects}, nil
}

// inspectContours finds defect candidates without a model: edges that
// survive blur and form compact bounded regions. Grounded in classic
// board-inspection practice; confidence is an area-based heuristic.
func (d *GoCVDetector) inspectContours(mat gocv.Mat) (*core.InspectionResult, error) {
	work := mat
	scale := 1.0
	if mat.Cols() > contourMaxSide || mat.Rows() > contourMaxSide {
		scale = float64(contourMaxSide) / float64(max(mat.Cols(), mat.Rows()))
		resized := gocv.NewMat()
		gocv.Resize(mat, &resized, image.Pt(
			int(float64(mat.Cols())*scale),
			int(float64(mat.Rows())*scale),
		), 0, 0, gocv.InterpolationArea)
		defer resized.Close()
		work = resized
	}

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(work, &gray, gocv.ColorBGRToGray)

	blur := gocv.NewMat()
	defer blur.Close()
	gocv.GaussianBlur(gray, &blur, image.Pt(5, 5), 0, 0, gocv.BorderDefault)

	edges := gocv.NewMat()
	defer edges.Close()
	gocv.Canny(blur, &edges, 50, 150)

	contours := gocv.FindContours(edges, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	minArea := d.cfg.MinArea
	if minArea <= 0 {
		minArea = 64
	}
	imageArea := work.Cols() * work.Rows()

	defects := make([]core.Detection, 0, contours.Size())
	for i := 0; i < contours.Size(); i++ {
		rect := gocv.BoundingRect(contours.At(i))
		area := rect.Dx() * rect.Dy()
		if area < minArea || rect.Dy() == 0 {
			continue
		}
		aspect := float64(rect.Dx()) / float64(rect.Dy())
		if aspect < contourMinAspect || aspect > contourMaxAspect {
			continue
		}

		label := "spurious_copper"
		if aspect > 3 || aspect < 1.0/3 {
			label = "spur"
		}

		// Larger anomalies relative to the board are reported with
		// more confidence, capped below certainty.
		confidence := 0.5 + 0.5*math.Min(1, float64(area)/(0.01*float64(imageArea)))
		confidence = math.Min(confidence, 0.95)

		defects = append(defects, core.Detection{
			Type:       label,
			Confidence: confidence,
			BBox: [4]float64{
				float64(rect.Min.X) / scale,
				float64(rect.Min.Y) / scale,
				float64(rect.Max.X) / scale,
				float64(rect.Max.Y) / scale,
			},
		})
	}

	return &core.InspectionResult{Defects: defects}, nil
}
