package utils

import (
	"bytes"
	"image/png"

	"github.com/skip2/go-qrcode"
)

// DefaultQRSize is the edge length in pixels of printed table codes
const DefaultQRSize = 512

// GenerateQRCode encodes content as a PNG QR code of the given size
func GenerateQRCode(content string, size int) ([]byte, error) {
	if size <= 0 {
		size = DefaultQRSize
	}
	qr, err := qrcode.New(content, qrcode.Medium)
	if err != nil {
		return nil, err
	}

	buf := new(bytes.Buffer)
	if err := png.Encode(buf, qr.Image(size)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
