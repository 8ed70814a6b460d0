package builtin

// fcol returns the Bayer color index (0=R, 1=G, 2=B) at absolute pixel
// (x, y) for a 2x2-tile filter mask, matching the encoding the demosaic
// package's dispatcher uses: two bits per tile position, read from the
// low bits upward in (0,0),(1,0),(0,1),(1,1) order.
func fcol(x, y int, mask uint32) int {
	shift := uint((y&1)*2+(x&1)) * 2
	return int((mask >> shift) & 0x3)
}
