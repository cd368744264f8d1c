package clipboard

import (
	"encoding/binary"
	"fmt"
	"math/bits"
)

const (
	bmpFileHeaderLen = 14
	infoHeaderLen    = 40

	biRGB            = 0
	biBitfields      = 3
	biAlphaBitfields = 6
)

// dibHeader is the subset of a BITMAPINFOHEADER needed to locate pixels.
type dibHeader struct {
	size        uint32
	width       int
	height      int
	bitCount    uint16
	compression uint32
	palette     uint32
	masks       uint32 // mask bytes stored after a 40-byte header
}

func parseDIB(dib []byte) (dibHeader, error) {
	var h dibHeader
	if len(dib) < 16 {
		return h, fmt.Errorf("dib too short: %d bytes", len(dib))
	}
	h.size = binary.LittleEndian.Uint32(dib[0:4])
	if h.size < 12 || int(h.size) > len(dib) {
		return h, fmt.Errorf("dib header size %d invalid for %d bytes", h.size, len(dib))
	}

	var clrUsed uint32
	entrySize := uint32(4)
	if h.size == 12 {
		// BITMAPCOREHEADER
		h.width = int(binary.LittleEndian.Uint16(dib[4:6]))
		h.height = int(binary.LittleEndian.Uint16(dib[6:8]))
		h.bitCount = binary.LittleEndian.Uint16(dib[10:12])
		entrySize = 3
	} else {
		if len(dib) < 36 {
			return h, fmt.Errorf("dib info header truncated")
		}
		h.width = int(int32(binary.LittleEndian.Uint32(dib[4:8])))
		h.height = int(int32(binary.LittleEndian.Uint32(dib[8:12])))
		h.bitCount = binary.LittleEndian.Uint16(dib[14:16])
		h.compression = binary.LittleEndian.Uint32(dib[16:20])
		clrUsed = binary.LittleEndian.Uint32(dib[32:36])
	}

	switch {
	case clrUsed != 0:
		h.palette = clrUsed * entrySize
	case h.bitCount > 0 && h.bitCount <= 8:
		h.palette = (uint32(1) << h.bitCount) * entrySize
	}

	if h.size == infoHeaderLen {
		switch h.compression {
		case biBitfields:
			h.masks = 12
		case biAlphaBitfields:
			h.masks = 16
		}
	}
	return h, nil
}

// pixelStart is the offset of the pixel array inside the DIB.
func (h dibHeader) pixelStart() uint32 { return h.size + h.masks + h.palette }

func (h dibHeader) bitfields() bool {
	return (h.compression == biBitfields || h.compression == biAlphaBitfields) &&
		(h.bitCount == 16 || h.bitCount == 32) && h.size >= infoHeaderLen
}

// channelMasks returns the red, green and blue masks, which live either
// right after a 40-byte header or inside a V2+ header.
func (h dibHeader) channelMasks(dib []byte) ([3]uint32, error) {
	var m [3]uint32
	if len(dib) < infoHeaderLen+12 {
		return m, fmt.Errorf("dib color masks truncated")
	}
	for i := range m {
		m[i] = binary.LittleEndian.Uint32(dib[infoHeaderLen+4*i:])
	}
	return m, nil
}

// dibToBMP turns a packed DIB (CF_DIB content) into a standalone .bmp file.
// Bitfield-encoded pixels are rewritten as uncompressed 32bpp so common
// decoders accept them.
func dibToBMP(dib []byte) ([]byte, error) {
	h, err := parseDIB(dib)
	if err != nil {
		return nil, err
	}
	if h.bitfields() {
		return bitfieldsToBMP(dib, h)
	}

	offset := bmpFileHeaderLen + h.pixelStart()
	total := bmpFileHeaderLen + len(dib)
	if int(offset) > total {
		return nil, fmt.Errorf("dib pixel offset %d beyond data (%d bytes)", offset, total)
	}
	return withFileHeader(dib, offset), nil
}

func withFileHeader(dib []byte, offset uint32) []byte {
	total := bmpFileHeaderLen + len(dib)
	out := make([]byte, total)
	out[0], out[1] = 'B', 'M'
	binary.LittleEndian.PutUint32(out[2:6], uint32(total))
	binary.LittleEndian.PutUint32(out[10:14], offset)
	copy(out[bmpFileHeaderLen:], dib)
	return out
}

func bitfieldsToBMP(dib []byte, h dibHeader) ([]byte, error) {
	masks, err := h.channelMasks(dib)
	if err != nil {
		return nil, err
	}
	rows := h.height
	if rows < 0 {
		rows = -rows
	}
	if h.width <= 0 || rows == 0 {
		return nil, fmt.Errorf("dib has empty dimensions %dx%d", h.width, h.height)
	}
	srcStride := (h.width*int(h.bitCount) + 31) / 32 * 4
	start := int(h.pixelStart())
	if start > len(dib) || (len(dib)-start)/srcStride < rows {
		return nil, fmt.Errorf("dib pixel data truncated: need %d rows of %d bytes", rows, srcStride)
	}
	src := dib[start:]

	hdr := make([]byte, infoHeaderLen)
	copy(hdr, dib[:infoHeaderLen])
	binary.LittleEndian.PutUint32(hdr[0:4], infoHeaderLen)
	binary.LittleEndian.PutUint16(hdr[14:16], 32)
	binary.LittleEndian.PutUint32(hdr[16:20], biRGB)
	binary.LittleEndian.PutUint32(hdr[32:36], 0)
	binary.LittleEndian.PutUint32(hdr[36:40], 0)

	// 32bpp with BGRX masks already has the BI_RGB layout.
	if h.bitCount == 32 && masks == [3]uint32{0x00FF0000, 0x0000FF00, 0x000000FF} {
		binary.LittleEndian.PutUint32(hdr[20:24], uint32(srcStride*rows))
		out := append(hdr, src[:srcStride*rows]...)
		return withFileHeader(out, bmpFileHeaderLen+infoHeaderLen), nil
	}

	dstStride := h.width * 4
	binary.LittleEndian.PutUint32(hdr[20:24], uint32(dstStride*rows))
	out := make([]byte, infoHeaderLen+dstStride*rows)
	copy(out, hdr)
	px := out[infoHeaderLen:]
	step := int(h.bitCount / 8)
	for y := 0; y < rows; y++ {
		row := src[y*srcStride:]
		dst := px[y*dstStride:]
		for x := 0; x < h.width; x++ {
			var v uint32
			if step == 2 {
				v = uint32(binary.LittleEndian.Uint16(row[x*2:]))
			} else {
				v = binary.LittleEndian.Uint32(row[x*4:])
			}
			dst[x*4+0] = scaleChannel(v, masks[2])
			dst[x*4+1] = scaleChannel(v, masks[1])
			dst[x*4+2] = scaleChannel(v, masks[0])
		}
	}
	return withFileHeader(out, bmpFileHeaderLen+infoHeaderLen), nil
}

// scaleChannel extracts the bits selected by mask and stretches them to 8 bits.
func scaleChannel(v, mask uint32) byte {
	if mask == 0 {
		return 0
	}
	shift := bits.TrailingZeros32(mask)
	width := bits.OnesCount32(mask >> shift)
	c := (v & mask) >> shift
	if width >= 8 {
		return byte(c >> (width - 8))
	}
	return byte(c * 255 / (1<<width - 1))
}

// bmpToDIB strips the file header from a .bmp image.
func bmpToDIB(bmp []byte) ([]byte, error) {
	if len(bmp) <= bmpFileHeaderLen || bmp[0] != 'B' || bmp[1] != 'M' {
		return nil, fmt.Errorf("not a bmp file")
	}
	return bmp[bmpFileHeaderLen:], nil
}
