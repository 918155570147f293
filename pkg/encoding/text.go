// Package encoding provides the string encodings used by the asset formats:
// UTF-16 for "unicode" files and Shift-JIS for the single-byte variant.
package encoding

import (
	"bytes"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var (
	utf16LE = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)
	utf16BE = unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM)
)

func utf16For(bigEndian bool) encoding.Encoding {
	if bigEndian {
		return utf16BE
	}
	return utf16LE
}

// DecodeUTF16 converts UTF-16 code units (without terminator) to a UTF-8 string.
func DecodeUTF16(data []byte, bigEndian bool) (string, error) {
	result, _, err := transform.Bytes(utf16For(bigEndian).NewDecoder(), data)
	if err != nil {
		return "", err
	}
	return string(result), nil
}

// EncodeUTF16 converts a UTF-8 string to UTF-16 code units without terminator.
func EncodeUTF16(s string, bigEndian bool) ([]byte, error) {
	result, _, err := transform.Bytes(utf16For(bigEndian).NewEncoder(), []byte(s))
	if err != nil {
		return nil, err
	}
	return result, nil
}

// DecodeShiftJIS converts Shift-JIS encoded bytes to a UTF-8 string.
func DecodeShiftJIS(data []byte) (string, error) {
	result, _, err := transform.Bytes(japanese.ShiftJIS.NewDecoder(), data)
	if err != nil {
		return "", err
	}
	return string(result), nil
}

// EncodeShiftJIS converts a UTF-8 string to Shift-JIS bytes.
func EncodeShiftJIS(s string) ([]byte, error) {
	result, _, err := transform.Bytes(japanese.ShiftJIS.NewEncoder(), []byte(s))
	if err != nil {
		return nil, err
	}
	return result, nil
}

// TrimNullBytes removes trailing null bytes from a byte slice.
func TrimNullBytes(data []byte) []byte {
	return bytes.TrimRight(data, "\x00")
}

// FixedShiftJIS decodes a fixed-size, null-padded Shift-JIS field.
func FixedShiftJIS(data []byte) (string, error) {
	if idx := bytes.IndexByte(data, 0); idx >= 0 {
		data = data[:idx]
	}
	return DecodeShiftJIS(data)
}

// FixedUTF16 decodes a fixed-size, null-padded UTF-16 field.
func FixedUTF16(data []byte, bigEndian bool) (string, error) {
	for i := 0; i+1 < len(data); i += 2 {
		if data[i] == 0 && data[i+1] == 0 {
			data = data[:i]
			break
		}
	}
	return DecodeUTF16(data, bigEndian)
}
