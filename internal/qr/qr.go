package qr

import (
	"fmt"

	"github.com/skip2/go-qrcode"
)

// DefaultSize is the PNG edge length printed on badges.
const DefaultSize = 256

// PNG renders a scan token as a QR code image.
func PNG(token string, size int) ([]byte, error) {
	if token == "" {
		return nil, fmt.Errorf("qr: empty token")
	}
	if size <= 0 || size > 1024 {
		size = DefaultSize
	}
	return qrcode.Encode(token, qrcode.Medium, size)
}
