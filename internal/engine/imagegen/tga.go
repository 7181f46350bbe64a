package imagegen

import (
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
	"io"
)

// TGA image types.
const (
	tgaTypeTrueColor = 2
	tgaTypeRLE       = 10
)

const (
	tgaHeaderSize = 18
	tgaMaxPacket  = 128
	// Top-left origin, 8 alpha bits.
	tgaDescriptor = 0x20 | 0x08
)

// encodeTGA writes img as a 32-bit RLE true-color TGA with a top-left origin.
// Packets never cross scanlines.
func encodeTGA(w io.Writer, img image.Image) error {
	b := img.Bounds()
	width, height := b.Dx(), b.Dy()
	if width > 0xFFFF || height > 0xFFFF {
		return fmt.Errorf("tga: %dx%d exceeds 65535", width, height)
	}

	var header [tgaHeaderSize]byte
	header[2] = tgaTypeRLE
	binary.LittleEndian.PutUint16(header[12:], uint16(width))
	binary.LittleEndian.PutUint16(header[14:], uint16(height))
	header[16] = 32
	header[17] = tgaDescriptor
	if _, err := w.Write(header[:]); err != nil {
		return err
	}

	src := toNRGBAImage(img)
	row := make([]byte, 0, width*5)
	for y := 0; y < height; y++ {
		line := src.Pix[y*src.Stride : y*src.Stride+width*4]
		row = appendTGARow(row[:0], line)
		if _, err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

// appendTGARow RLE-encodes one scanline of NRGBA pixels.
func appendTGARow(dst, line []byte) []byte {
	n := len(line) / 4
	for i := 0; i < n; {
		run := 1
		for i+run < n && run < tgaMaxPacket && samePixel(line, i, i+run) {
			run++
		}
		if run > 1 {
			dst = append(dst, byte(0x80|(run-1)))
			dst = appendBGRA(dst, line[i*4:])
			i += run
			continue
		}

		// Raw packet up to the start of the next run.
		start := i
		i++
		for i < n && i-start < tgaMaxPacket && !(i+1 < n && samePixel(line, i, i+1)) {
			i++
		}
		dst = append(dst, byte(i-start-1))
		for j := start; j < i; j++ {
			dst = appendBGRA(dst, line[j*4:])
		}
	}
	return dst
}

func samePixel(line []byte, a, b int) bool {
	a, b = a*4, b*4
	return line[a] == line[b] && line[a+1] == line[b+1] && line[a+2] == line[b+2] && line[a+3] == line[b+3]
}

func appendBGRA(dst, px []byte) []byte {
	return append(dst, px[2], px[1], px[0], px[3])
}

// toNRGBAImage returns img as straight-alpha NRGBA, converting only when needed.
func toNRGBAImage(img image.Image) *image.NRGBA {
	if n, ok := img.(*image.NRGBA); ok && n.Rect.Min == (image.Point{}) {
		return n
	}
	b := img.Bounds()
	out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			out.SetNRGBA(x, y, color.NRGBAModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA))
		}
	}
	return out
}
