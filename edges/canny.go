package edges

import "image"

// Thresholds are the hysteresis bounds applied to the L1 Sobel gradient
// magnitude. Pixels above High seed edges; pixels above Low extend them.
type Thresholds struct {
	Low  float64
	High float64
}

// Aggressive keeps only strong boundaries; Conservative recalls faint ones.
var (
	Aggressive   = Thresholds{Low: 200, High: 600}
	Conservative = Thresholds{Low: 30, High: 200}
)

// tan(22.5 deg) in Q15, used to bin gradient directions without atan.
const tg22 = 13573

// Canny returns a binary edge map (0 or 255) with the same size as gray.
func Canny(gray *image.Gray, th Thresholds) *image.Gray {
	b := gray.Bounds()
	w, h := b.Dx(), b.Dy()
	out := image.NewGray(image.Rect(0, 0, w, h))
	if w == 0 || h == 0 {
		return out
	}
	low, high := th.Low, th.High
	if low > high {
		low, high = high, low
	}

	at := func(x, y int) int {
		x = clamp(x, 0, w-1)
		y = clamp(y, 0, h-1)
		return int(gray.Pix[gray.PixOffset(b.Min.X+x, b.Min.Y+y)])
	}

	dx := make([]int, w*h)
	dy := make([]int, w*h)
	mag := make([]int, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			gx := (at(x+1, y-1) + 2*at(x+1, y) + at(x+1, y+1)) -
				(at(x-1, y-1) + 2*at(x-1, y) + at(x-1, y+1))
			gy := (at(x-1, y+1) + 2*at(x, y+1) + at(x+1, y+1)) -
				(at(x-1, y-1) + 2*at(x, y-1) + at(x+1, y-1))
			i := y*w + x
			dx[i], dy[i] = gx, gy
			mag[i] = iabs(gx) + iabs(gy)
		}
	}
	m := func(x, y int) int {
		if x < 0 || y < 0 || x >= w || y >= h {
			return 0
		}
		return mag[y*w+x]
	}

	const (
		none   = 0
		weak   = 1
		strong = 2
	)
	state := make([]uint8, w*h)
	var stack []int
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := y*w + x
			v := mag[i]
			if float64(v) <= low {
				continue
			}
			ax, ay := int64(iabs(dx[i])), int64(iabs(dy[i]))<<15
			tg22x := ax * tg22
			var peak bool
			switch {
			case ay < tg22x:
				peak = v > m(x-1, y) && v >= m(x+1, y)
			case ay > tg22x+(ax<<16):
				peak = v > m(x, y-1) && v >= m(x, y+1)
			default:
				s := 1
				if (dx[i] ^ dy[i]) < 0 {
					s = -1
				}
				peak = v > m(x+s, y+1) && v > m(x-s, y-1)
			}
			if !peak {
				continue
			}
			if float64(v) > high {
				state[i] = strong
				stack = append(stack, i)
			} else {
				state[i] = weak
			}
		}
	}

	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		out.Pix[i] = 255
		x, y := i%w, i/w
		for ny := y - 1; ny <= y+1; ny++ {
			for nx := x - 1; nx <= x+1; nx++ {
				if nx < 0 || ny < 0 || nx >= w || ny >= h {
					continue
				}
				j := ny*w + nx
				if state[j] == weak {
					state[j] = strong
					stack = append(stack, j)
				}
			}
		}
	}
	return out
}

// Count returns the number of non-zero pixels in an edge map.
func Count(edgeMap *image.Gray) int {
	b := edgeMap.Bounds()
	n := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := edgeMap.Pix[edgeMap.PixOffset(b.Min.X, y):]
		for x := 0; x < b.Dx(); x++ {
			if row[x] != 0 {
				n++
			}
		}
	}
	return n
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func iabs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
