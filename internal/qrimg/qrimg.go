// Package qrimg renders QR images for session tokens and identity
// payloads.
package qrimg

import (
	"os"
	"path/filepath"

	qrcode "github.com/skip2/go-qrcode"
)

const imageSize = 256

// Render encodes a payload as a PNG image.
func Render(payload string) ([]byte, error) {
	return qrcode.Encode(payload, qrcode.High, imageSize)
}

// WriteFile renders a payload straight to a PNG file, creating parent
// directories as needed.
func WriteFile(payload, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return qrcode.WriteFile(payload, qrcode.High, imageSize, path)
}
