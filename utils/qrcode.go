package utils

import (
	"bytes"
	"encoding/base64"
	"errors"
	"image/color"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/qr"
	"github.com/disintegration/imaging"
)

// QRCodeMargin is the quiet zone added around generated codes, in pixels
const QRCodeMargin = 16

// GenerateQRCodePNG renders content as a size x size QR code on a white
// quiet zone and returns the PNG bytes
func GenerateQRCodePNG(content string, size int) ([]byte, error) {
	if content == "" {
		return nil, errors.New("qr content is empty")
	}
	if size <= 0 {
		return nil, errors.New("qr size must be positive")
	}

	code, err := qr.Encode(content, qr.M, qr.Auto)
	if err != nil {
		return nil, err
	}

	code, err = barcode.Scale(code, size, size)
	if err != nil {
		return nil, err
	}

	canvas := imaging.New(size+2*QRCodeMargin, size+2*QRCodeMargin, color.White)
	canvas = imaging.PasteCenter(canvas, code)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, canvas, imaging.PNG); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// QRCodeDataURI embeds a PNG QR code in a data URI for JSON responses
func QRCodeDataURI(content string, size int) (string, error) {
	png, err := GenerateQRCodePNG(content, size)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
