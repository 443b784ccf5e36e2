// Package token derives and validates the scan token bound to a
// registration, and renders it as a scannable QR artifact.
//
// The token is stable for the registration's lifetime and carries no
// signature or expiry: anyone holding the rendered artifact can replay it.
// Validation is limited to resolving the token back to its registration id;
// event cross-checking happens at scan time against the stored record.
package token

import (
	"errors"
	"fmt"
	"strings"

	qrcode "github.com/skip2/go-qrcode"
)

const prefix = "REG:"

// ErrInvalidToken is returned when a scanned payload is not a token this
// service issued.
var ErrInvalidToken = errors.New("invalid scan token")

// ForRegistration derives the scan token for a registration id.
// The derivation is deterministic so the token never needs to be re-issued.
func ForRegistration(registrationID string) string {
	return prefix + registrationID
}

// RegistrationID resolves a scan token back to its registration id.
func RegistrationID(tok string) (string, error) {
	id, ok := strings.CutPrefix(tok, prefix)
	if !ok || id == "" {
		return "", ErrInvalidToken
	}
	return id, nil
}

// RenderPNG encodes the token as a square QR code PNG of the given pixel
// size. Any renderer that round-trips the token is acceptable; QR matches
// what venue scanning devices expect.
func RenderPNG(tok string, size int) ([]byte, error) {
	png, err := qrcode.Encode(tok, qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("encode qr code: %w", err)
	}
	return png, nil
}
