//go:build gocv

// Package opencv is a pipeline stage backend on OpenCV through gocv. It is
// compiled only with the gocv build tag and registers itself as the
// "opencv" backend.
package opencv

import (
	"fmt"
	"image"
	"image/draw"

	"gocv.io/x/gocv"

	"github.com/wudi/platekit/edges"
	"github.com/wudi/platekit/geom"
	"github.com/wudi/platekit/pipeline"
	"github.com/wudi/platekit/preprocess"
)

func init() {
	pipeline.RegisterBackend("opencv", func(cfg pipeline.Config) (pipeline.Stages, error) {
		return New(cfg), nil
	})
}

// Stages runs resize, grayscale, bilateral smoothing, Canny and contour
// retrieval in OpenCV.
type Stages struct {
	width, height int
	bilateral     preprocess.Params
	th            edges.Thresholds
}

// New builds OpenCV stages for cfg.
func New(cfg pipeline.Config) *Stages {
	return &Stages{
		width:     cfg.Width,
		height:    cfg.Height,
		bilateral: cfg.Bilateral,
		th:        edges.Thresholds{Low: cfg.EdgeLow, High: cfg.EdgeHigh},
	}
}

func (s *Stages) Name() string { return "opencv" }

func (s *Stages) Preprocess(raw image.Image) (*image.RGBA, *image.Gray, error) {
	if raw == nil {
		return nil, nil, fmt.Errorf("%w: nil image", preprocess.ErrInvalidImage)
	}
	src, err := gocv.ImageToMatRGB(raw)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", preprocess.ErrInvalidImage, err)
	}
	defer src.Close()

	resized := gocv.NewMat()
	defer resized.Close()
	gocv.Resize(src, &resized, image.Pt(s.width, s.height), 0, 0, gocv.InterpolationLinear)

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(resized, &gray, gocv.ColorBGRToGray)

	smooth := gocv.NewMat()
	defer smooth.Close()
	gocv.BilateralFilter(gray, &smooth, s.bilateral.Diameter, s.bilateral.SigmaColor, s.bilateral.SigmaSpace)

	workingImg, err := resized.ToImage()
	if err != nil {
		return nil, nil, fmt.Errorf("convert working image: %w", err)
	}
	grayImg, err := smooth.ToImage()
	if err != nil {
		return nil, nil, fmt.Errorf("convert gray image: %w", err)
	}
	g, ok := grayImg.(*image.Gray)
	if !ok {
		return nil, nil, fmt.Errorf("unexpected gray image type %T", grayImg)
	}
	return toRGBA(workingImg), g, nil
}

func (s *Stages) ExtractContours(gray *image.Gray) ([]geom.Contour, error) {
	src, err := gocv.ImageGrayToMatGray(gray)
	if err != nil {
		return nil, fmt.Errorf("convert gray image: %w", err)
	}
	defer src.Close()

	edgeMap := gocv.NewMat()
	defer edgeMap.Close()
	gocv.Canny(src, &edgeMap, float32(s.th.Low), float32(s.th.High))
	if gocv.CountNonZero(edgeMap) == 0 {
		return []geom.Contour{}, edges.ErrNoEdges
	}

	hierarchy := gocv.NewMat()
	defer hierarchy.Close()
	found := gocv.FindContoursWithParams(edgeMap, &hierarchy, gocv.RetrievalTree, gocv.ChainApproxSimple)
	defer found.Close()

	n := found.Size()
	contours := make([]geom.Contour, n)
	for i := 0; i < n; i++ {
		pts := found.At(i).ToPoints()
		c := geom.Contour{Points: make([]geom.Point, len(pts)), Parent: -1}
		for j, p := range pts {
			c.Points[j] = geom.Pt(p.X, p.Y)
		}
		if !hierarchy.Empty() {
			// hierarchy rows are [next, previous, first child, parent]
			c.Parent = int(hierarchy.GetVeciAt(0, i)[3])
		}
		contours[i] = c
	}
	for i := range contours {
		depth := 0
		for p := contours[i].Parent; p >= 0; p = contours[p].Parent {
			depth++
		}
		contours[i].Hole = depth%2 == 1
	}
	return contours, nil
}

func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}
	out := image.NewRGBA(img.Bounds())
	draw.Draw(out, out.Bounds(), img, img.Bounds().Min, draw.Src)
	return out
}
