package source

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/gogs/chardet"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// Encodings the query engine's CSV scanner understands. Everything else
// is rejected at config time rather than failing mid-scan.
const (
	EncodingUTF8   = "utf-8"
	EncodingLatin1 = "latin-1"
	EncodingUTF16  = "utf-16"
)

// sniffBytes is how much of the representative shard the charset detector
// gets to look at.
const sniffBytes = 4096

// ResolveEncoding normalizes a configured encoding name to one of the
// supported canonical names. "auto" (or empty) sniffs the representative
// shard at shardPath.
func ResolveEncoding(name, shardPath string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "auto":
		return sniffEncoding(shardPath)
	case EncodingUTF8, "utf8":
		return EncodingUTF8, nil
	case EncodingLatin1, "latin1", "iso-8859-1":
		return EncodingLatin1, nil
	case EncodingUTF16, "utf16":
		return EncodingUTF16, nil
	default:
		return "", fmt.Errorf("unsupported encoding %q (supported: utf-8, latin-1, utf-16, auto)", name)
	}
}

// sniffEncoding detects the text encoding of a shard from its first few
// kilobytes and maps the detector's verdict onto a supported encoding.
func sniffEncoding(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open shard for encoding detection: %w", err)
	}
	defer f.Close()

	buf := make([]byte, sniffBytes)
	n, err := f.Read(buf)
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("read shard for encoding detection: %w", err)
	}
	if n == 0 {
		return EncodingUTF8, nil
	}

	best, err := chardet.NewTextDetector().DetectBest(buf[:n])
	if err != nil {
		// Detection is best-effort; fall back to UTF-8.
		return EncodingUTF8, nil
	}

	cs := strings.ToUpper(best.Charset)
	switch {
	case strings.HasPrefix(cs, "UTF-16"):
		return EncodingUTF16, nil
	case strings.HasPrefix(cs, "ISO-8859"), strings.HasPrefix(cs, "WINDOWS-125"):
		return EncodingLatin1, nil
	default:
		return EncodingUTF8, nil
	}
}

// decoder returns the x/text decoder for a canonical encoding name.
// UTF-8 input passes through untouched.
func decoder(name string) (*encoding.Decoder, error) {
	switch name {
	case EncodingUTF8:
		return encoding.Nop.NewDecoder(), nil
	case EncodingLatin1:
		return charmap.ISO8859_1.NewDecoder(), nil
	case EncodingUTF16:
		return unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder(), nil
	default:
		return nil, fmt.Errorf("unsupported encoding %q", name)
	}
}
