package tool

import (
	"fmt"

	"github.com/skip2/go-qrcode"
)

// ControlURLQRCode renders url as a terminal QR code so a phone on the LAN can open the control API.
func ControlURLQRCode(url string) (string, error) {
	qr, err := qrcode.New(url, qrcode.Medium)
	if err != nil {
		return "", fmt.Errorf("encode qr code: %w", err)
	}
	return qr.ToSmallString(false), nil
}

// ControlURLQRCodePNG renders url as a PNG of size pixels.
func ControlURLQRCodePNG(url string, size int) ([]byte, error) {
	if size <= 0 {
		size = 256
	}
	png, err := qrcode.Encode(url, qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("encode qr code: %w", err)
	}
	return png, nil
}
