package student

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const (
	qrPrefix   = "QR_"
	qrLength   = 9
	qrAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

// NewQRCode returns a fresh scan token such as "QR_K3Z9A0PQ1".
func NewQRCode() (string, error) {
	buf := make([]byte, qrLength)
	max := big.NewInt(int64(len(qrAlphabet)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("qr token: %w", err)
		}
		buf[i] = qrAlphabet[n.Int64()]
	}
	return qrPrefix + string(buf), nil
}
