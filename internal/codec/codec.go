// Package codec converts between raw serial bytes and the text shown to or
// typed by the user.
package codec

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidHex is returned for send input that is not whitespace separated hex.
var ErrInvalidHex = errors.New("invalid hex input")

// Mode selects how received bytes are rendered.
type Mode int32

const (
	ModeASCII Mode = iota
	ModeHex
)

func (m Mode) String() string {
	if m == ModeHex {
		return "hex"
	}
	return "ascii"
}

// ParseMode accepts "ascii" or "hex", case-insensitively.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "ascii", "text":
		return ModeASCII, nil
	case "hex":
		return ModeHex, nil
	default:
		return ModeASCII, fmt.Errorf("unknown display mode %q", s)
	}
}

// FormatDisplay renders data for the terminal in the given mode.
func FormatDisplay(mode Mode, data []byte) string {
	if mode == ModeHex {
		return FormatHex(data)
	}
	return strings.ToValidUTF8(string(data), "�")
}

// FormatHex renders each byte as 0x.. followed by a space, e.g. "0x41 0xa ".
func FormatHex(data []byte) string {
	var b strings.Builder
	b.Grow(len(data) * 5)
	for _, c := range data {
		fmt.Fprintf(&b, "%#x ", c)
	}
	return b.String()
}

// ParseHex decodes whitespace separated hex tokens. A token may hold several
// bytes ("0d0a") and may carry a 0x prefix.
func ParseHex(s string) ([]byte, error) {
	var out []byte
	for _, token := range strings.Fields(s) {
		token = strings.TrimPrefix(strings.TrimPrefix(token, "0x"), "0X")
		if len(token)%2 != 0 {
			return nil, fmt.Errorf("%w: %q has odd length", ErrInvalidHex, token)
		}
		decoded, err := hex.DecodeString(token)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidHex, token)
		}
		out = append(out, decoded...)
	}
	return out, nil
}

// ComposeSend builds an outgoing payload: text as UTF-8, then the decoded
// hex tokens, then an optional newline.
func ComposeSend(text, hexTokens string, newline bool) ([]byte, error) {
	raw, err := ParseHex(hexTokens)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(text)+len(raw)+1)
	out = append(out, text...)
	out = append(out, raw...)
	if newline {
		out = append(out, '\n')
	}
	return out, nil
}
