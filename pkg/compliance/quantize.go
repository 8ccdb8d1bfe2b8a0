// quantize.go - Median-cut colour quantisation over a 5-bit-per-channel
// histogram. Only the colour multiset matters, so results do not depend on
// pixel order.
package compliance

import (
	"image"
	"sort"

	"github.com/xob0t/creativekit/pkg/colors"
)

// DefaultMaxColors is the bucket budget used when none is configured.
const DefaultMaxColors = 32

// Bucket is one quantised colour and the number of pixels it stands for.
type Bucket struct {
	Color colors.RGB
	Count int
}

// cell is a populated histogram bin. The sums keep full 8-bit precision so a
// bucket's colour is the true mean of its pixels.
type cell struct {
	key  int
	n    int
	sum  [3]int
	axis [3]uint8 // 5-bit coordinates
}

// Quantize reduces img to at most maxColors buckets, ordered by pixel count
// (largest first) and then by colour. The bucket counts sum to the pixel count.
func Quantize(img image.Image, maxColors int) []Bucket {
	if maxColors <= 0 {
		maxColors = DefaultMaxColors
	}
	cells := histogram(img)
	if len(cells) == 0 {
		return nil
	}

	boxes := [][]cell{cells}
	for len(boxes) < maxColors {
		i, ch := widest(boxes)
		if i < 0 {
			break
		}
		lo, hi := split(boxes[i], ch)
		boxes[i] = lo
		boxes = append(boxes, hi)
	}

	out := make([]Bucket, 0, len(boxes))
	for _, box := range boxes {
		var n int
		var sum [3]int
		for _, c := range box {
			n += c.n
			for k := range sum {
				sum[k] += c.sum[k]
			}
		}
		out = append(out, Bucket{
			Color: colors.RGB{R: uint8(sum[0] / n), G: uint8(sum[1] / n), B: uint8(sum[2] / n)},
			Count: n,
		})
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].Count != out[b].Count {
			return out[a].Count > out[b].Count
		}
		return out[a].Color.Hex() < out[b].Color.Hex()
	})
	return out
}

func histogram(img image.Image) []cell {
	bins := make(map[int]*cell)
	add := func(r, g, b uint8) {
		key := int(r>>3)<<10 | int(g>>3)<<5 | int(b>>3)
		c, ok := bins[key]
		if !ok {
			c = &cell{key: key, axis: [3]uint8{r >> 3, g >> 3, b >> 3}}
			bins[key] = c
		}
		c.n++
		c.sum[0] += int(r)
		c.sum[1] += int(g)
		c.sum[2] += int(b)
	}

	b := img.Bounds()
	if src, ok := img.(*image.NRGBA); ok {
		for y := b.Min.Y; y < b.Max.Y; y++ {
			row := src.Pix[src.PixOffset(b.Min.X, y):]
			for x := 0; x < b.Dx(); x++ {
				add(row[x*4], row[x*4+1], row[x*4+2])
			}
		}
	} else {
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				c := colors.FromColor(img.At(x, y))
				add(c.R, c.G, c.B)
			}
		}
	}

	cells := make([]cell, 0, len(bins))
	for _, c := range bins {
		cells = append(cells, *c)
	}
	sort.Slice(cells, func(i, j int) bool { return cells[i].key < cells[j].key })
	return cells
}

// widest returns the splittable box with the largest channel extent and that
// channel. Ties go to the lower box index, then to R before G before B.
func widest(boxes [][]cell) (int, int) {
	best, bestCh, bestRange := -1, 0, 0
	for i, box := range boxes {
		if len(box) < 2 {
			continue
		}
		for ch := 0; ch < 3; ch++ {
			lo, hi := uint8(255), uint8(0)
			for _, c := range box {
				lo = min(lo, c.axis[ch])
				hi = max(hi, c.axis[ch])
			}
			if r := int(hi - lo); r > bestRange {
				best, bestCh, bestRange = i, ch, r
			}
		}
	}
	return best, bestCh
}

// split sorts box along ch and cuts it where the cumulative pixel count
// first reaches half. Both halves are non-empty.
func split(box []cell, ch int) ([]cell, []cell) {
	sort.Slice(box, func(i, j int) bool {
		if box[i].axis[ch] != box[j].axis[ch] {
			return box[i].axis[ch] < box[j].axis[ch]
		}
		return box[i].key < box[j].key
	})

	total := 0
	for _, c := range box {
		total += c.n
	}
	acc, cut := 0, 1
	for i, c := range box {
		acc += c.n
		if acc*2 >= total {
			cut = i + 1
			break
		}
	}
	cut = max(1, min(cut, len(box)-1))

	lo := append([]cell(nil), box[:cut]...)
	hi := append([]cell(nil), box[cut:]...)
	return lo, hi
}
