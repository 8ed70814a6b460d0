package parallel

// Tile is a rectangular sub-region of a requested output ROI, used by the
// scheduler's tiling dispatch (spec §4.6 "Tiling dispatch"): when a
// module's declared memory multiplier would blow the host memory budget,
// the scheduler splits roi-out into tiles sized by the module's
// TilingSpec and runs Process once per tile instead of once for the whole
// buffer.
type Tile struct {
	X, Y          int // offset within the output ROI, in pixels
	Width, Height int // actual extent; edge tiles may be smaller than Size
}

// Split divides a width x height region into tiles no larger than
// tileSize on a side, expanded by overlap pixels on each interior edge and
// snapped to align. overlap/align come from the module's TilingSpec
// (spec §4.3 tiling-requirements): overlap supplies the halo a kernel with
// a non-trivial support needs from its neighbors; align keeps tile
// boundaries on the same grid the module's ROI hooks expect (e.g. the
// 2-pixel Bayer grid).
func Split(width, height, tileSize, overlap, align int) []Tile {
	if tileSize <= 0 {
		// caller wants one tile covering the whole region
		tileSize = max(width, height)
	}
	if align < 1 {
		align = 1
	}

	var tiles []Tile
	for y := 0; y < height; y += tileSize {
		for x := 0; x < width; x += tileSize {
			w := tileSize
			if x+w > width {
				w = width - x
			}
			h := tileSize
			if y+h > height {
				h = height - y
			}
			tiles = append(tiles, snapTile(Tile{X: x, Y: y, Width: w, Height: h}, width, height, overlap, align))
		}
	}
	if len(tiles) == 0 {
		tiles = []Tile{{X: 0, Y: 0, Width: width, Height: height}}
	}
	return tiles
}

// snapTile grows a tile by overlap pixels (clamped to the parent bounds)
// and snaps its origin down to the nearest align-pixel grid line.
func snapTile(t Tile, parentW, parentH, overlap, align int) Tile {
	x0 := t.X - overlap
	y0 := t.Y - overlap
	x1 := t.X + t.Width + overlap
	y1 := t.Y + t.Height + overlap

	x0 = snapDown(max(x0, 0), align)
	y0 = snapDown(max(y0, 0), align)
	if x1 > parentW {
		x1 = parentW
	}
	if y1 > parentH {
		y1 = parentH
	}

	return Tile{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
}

func snapDown(v, align int) int {
	return (v / align) * align
}
