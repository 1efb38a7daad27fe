package fileutil

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/unicode"
)

// Encoding names understood by Decode and Encode.
const (
	EncodingUTF8    = "utf-8"
	EncodingUTF8Sig = "utf-8-sig"
	EncodingUTF16   = "utf-16"
	EncodingUTF16LE = "utf-16-le"
	EncodingUTF16BE = "utf-16-be"

	// DefaultLegacyEncoding is the single-byte/DBCS codepage tried last.
	DefaultLegacyEncoding = "cp932"
)

var (
	// ErrUndecodable is returned when data is not valid in the requested encoding.
	ErrUndecodable = errors.New("data is not valid in encoding")
	// ErrUnknownEncoding is returned for encoding names that cannot be resolved.
	ErrUnknownEncoding = errors.New("unknown encoding")
	// ErrUnencodable is returned when text holds characters the target
	// encoding cannot represent.
	ErrUnencodable = errors.New("text not representable in encoding")

	utf8BOM = []byte{0xEF, 0xBB, 0xBF}
)

// ProbeOrder returns the decode candidates for a requested encoding:
// the request first, then the fixed fallbacks, duplicates removed.
func ProbeOrder(requested, legacy string) []string {
	if requested == "" {
		requested = EncodingUTF8
	}
	if legacy == "" {
		legacy = DefaultLegacyEncoding
	}
	candidates := []string{requested, EncodingUTF8Sig, EncodingUTF16, EncodingUTF16LE, EncodingUTF16BE, legacy}

	seen := make(map[string]bool, len(candidates))
	out := make([]string, 0, len(candidates))
	for _, c := range candidates {
		n := NormalizeEncoding(c)
		if seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}

// NormalizeEncoding lowercases a name and folds common aliases.
func NormalizeEncoding(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	n = strings.ReplaceAll(n, "_", "-")
	switch n {
	case "", "utf8":
		return EncodingUTF8
	case "utf8-sig":
		return EncodingUTF8Sig
	case "utf16":
		return EncodingUTF16
	case "utf-16le", "utf16le", "utf16-le":
		return EncodingUTF16LE
	case "utf-16be", "utf16be", "utf16-be":
		return EncodingUTF16BE
	case "shift-jis", "sjis", "windows-31j", "ms932", "cp932":
		return "cp932"
	}
	return n
}

// DecodeWithFallback tries each candidate of ProbeOrder and returns the
// first strict decode along with the encoding that produced it.
func DecodeWithFallback(data []byte, requested, legacy string) (string, string, error) {
	var errs []error
	for _, enc := range ProbeOrder(requested, legacy) {
		text, err := Decode(data, enc)
		if err == nil {
			return text, enc, nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", enc, err))
	}
	return "", "", fmt.Errorf("no candidate encoding decodes the data: %w", errors.Join(errs...))
}

// Decode strictly decodes data. A multi-byte decode is accepted only when
// re-encoding the result reproduces data exactly.
func Decode(data []byte, name string) (string, error) {
	switch n := NormalizeEncoding(name); n {
	case EncodingUTF8:
		if !utf8.Valid(data) {
			return "", ErrUndecodable
		}
		return string(data), nil
	case EncodingUTF8Sig:
		data = bytes.TrimPrefix(data, utf8BOM)
		if !utf8.Valid(data) {
			return "", ErrUndecodable
		}
		return string(data), nil
	case EncodingUTF16:
		endian := unicode.LittleEndian
		switch {
		case bytes.HasPrefix(data, []byte{0xFF, 0xFE}):
			data = data[2:]
		case bytes.HasPrefix(data, []byte{0xFE, 0xFF}):
			endian = unicode.BigEndian
			data = data[2:]
		}
		return strictDecode(unicode.UTF16(endian, unicode.IgnoreBOM), data, true)
	case EncodingUTF16LE:
		return strictDecode(unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM), data, true)
	case EncodingUTF16BE:
		return strictDecode(unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM), data, true)
	default:
		enc, err := lookup(n)
		if err != nil {
			return "", err
		}
		return strictDecode(enc, data, false)
	}
}

// Encode converts text into the named encoding.
func Encode(text, name string) ([]byte, error) {
	switch n := NormalizeEncoding(name); n {
	case EncodingUTF8:
		return []byte(text), nil
	case EncodingUTF8Sig:
		return append(append([]byte{}, utf8BOM...), text...), nil
	case EncodingUTF16:
		return unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder().Bytes([]byte(text))
	case EncodingUTF16LE:
		return unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewEncoder().Bytes([]byte(text))
	case EncodingUTF16BE:
		return unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM).NewEncoder().Bytes([]byte(text))
	default:
		enc, err := lookup(n)
		if err != nil {
			return nil, err
		}
		data, err := enc.NewEncoder().Bytes([]byte(text))
		if err != nil {
			return nil, fmt.Errorf("%w %s: %v", ErrUnencodable, n, err)
		}
		return data, nil
	}
}

func lookup(name string) (encoding.Encoding, error) {
	if name == "cp932" {
		return japanese.ShiftJIS, nil
	}
	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil || enc == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEncoding, name)
	}
	return enc, nil
}

func strictDecode(enc encoding.Encoding, data []byte, wide bool) (string, error) {
	if wide && len(data)%2 != 0 {
		return "", ErrUndecodable
	}
	decoded, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUndecodable, err)
	}
	reencoded, err := enc.NewEncoder().Bytes(decoded)
	if err != nil || !bytes.Equal(reencoded, data) {
		return "", ErrUndecodable
	}
	return string(decoded), nil
}

// KnownEncoding reports whether name can be used with Decode and Encode.
func KnownEncoding(name string) bool {
	switch NormalizeEncoding(name) {
	case EncodingUTF8, EncodingUTF8Sig, EncodingUTF16, EncodingUTF16LE, EncodingUTF16BE:
		return true
	}
	_, err := lookup(NormalizeEncoding(name))
	return err == nil
}
