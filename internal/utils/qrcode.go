package utils

import (
	"encoding/base64"

	"github.com/skip2/go-qrcode"
)

// qrSize is the pixel width/height of generated QR images. 256 scans well
// on phone cameras while keeping the data URL small enough to inline.
const qrSize = 256

// QRCodeDataURL encodes a visitor URL into a PNG QR code and returns it
// as a data URL suitable for direct use in an <img> tag. The highest
// error-correction level is used so printed codes survive partial damage.
func QRCodeDataURL(url string) (string, error) {
	png, err := qrcode.Encode(url, qrcode.Highest, qrSize)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
