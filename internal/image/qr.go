package imagepkg

import (
	"bytes"
	"errors"
	"fmt"
	"image/png"

	qrcode "github.com/skip2/go-qrcode"
)

const (
	MinQRSize     = 128
	MaxQRSize     = 1024
	DefaultQRSize = 400
)

var ErrQRSize = errors.New("qr size out of range")

// ShareQR returns PNG bytes of a QR code encoding text, size pixels square.
func ShareQR(text string, size int) ([]byte, error) {
	if size < MinQRSize || size > MaxQRSize {
		return nil, fmt.Errorf("%w: %d outside [%d, %d]", ErrQRSize, size, MinQRSize, MaxQRSize)
	}
	pngBytes, err := qrcode.Encode(text, qrcode.Medium, size)
	if err != nil {
		return nil, err
	}
	// validate png decode
	if _, err := png.DecodeConfig(bytes.NewReader(pngBytes)); err != nil {
		return nil, err
	}
	return pngBytes, nil
}
