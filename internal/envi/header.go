// Package envi reads and writes ENVI text headers and reads single bands
// from ENVI rasters. Only the fields the pipeline needs are interpreted;
// every other entry is carried through untouched.
package envi

import (
	"bufio"
	"bytes"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// Field names the pipeline interprets.
const (
	FieldDescription  = "description"
	FieldWavelength   = "wavelength"
	FieldFWHM         = "fwhm"
	FieldSamples      = "samples"
	FieldLines        = "lines"
	FieldBands        = "bands"
	FieldHeaderOffset = "header offset"
	FieldDataType     = "data type"
	FieldInterleave   = "interleave"
	FieldByteOrder    = "byte order"
	FieldIgnoreValue  = "data ignore value"
)

// Header is an ordered ENVI header. Keys are lower-cased on read; values
// keep their raw text, including braces for list values.
type Header struct {
	keys   []string
	values map[string]string
}

// NewHeader returns an empty header.
func NewHeader() *Header {
	return &Header{values: make(map[string]string)}
}

// Keys returns the header keys in file order.
func (h *Header) Keys() []string {
	out := make([]string, len(h.keys))
	copy(out, h.keys)
	return out
}

// Get returns the raw value for key.
func (h *Header) Get(key string) (string, bool) {
	v, ok := h.values[strings.ToLower(key)]
	return v, ok
}

// Set stores a raw value, appending the key if it is new.
func (h *Header) Set(key, value string) {
	key = strings.ToLower(key)
	if _, ok := h.values[key]; !ok {
		h.keys = append(h.keys, key)
	}
	h.values[key] = value
}

// SetString stores a free-text value wrapped in braces, the form ENVI uses
// for descriptions.
func (h *Header) SetString(key, value string) {
	h.Set(key, "{"+value+"}")
}

// String returns a value with surrounding braces and whitespace removed.
func (h *Header) String(key string) (string, bool) {
	v, ok := h.Get(key)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	if strings.HasPrefix(v, "{") && strings.HasSuffix(v, "}") {
		v = strings.TrimSpace(v[1 : len(v)-1])
	}
	return v, true
}

// Int parses an integer value.
func (h *Header) Int(key string) (int, error) {
	v, ok := h.String(key)
	if !ok {
		return 0, eris.Errorf("envi: header field %q not found", key)
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, eris.Wrapf(err, "envi: parse %q", key)
	}
	return n, nil
}

// Float parses a scalar float value.
func (h *Header) Float(key string) (float64, error) {
	v, ok := h.String(key)
	if !ok {
		return 0, eris.Errorf("envi: header field %q not found", key)
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, eris.Wrapf(err, "envi: parse %q", key)
	}
	return f, nil
}

// Floats parses a brace-delimited list of numbers.
func (h *Header) Floats(key string) ([]float64, error) {
	raw, ok := h.Get(key)
	if !ok {
		return nil, eris.Errorf("envi: header field %q not found", key)
	}
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, "{") || !strings.HasSuffix(raw, "}") {
		return nil, eris.Errorf("envi: header field %q is not a list", key)
	}
	body := strings.TrimSpace(raw[1 : len(raw)-1])
	if body == "" {
		return nil, eris.Errorf("envi: header field %q is empty", key)
	}

	parts := strings.Split(body, ",")
	out := make([]float64, 0, len(parts))
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, eris.Wrapf(err, "envi: header field %q entry %d", key, i)
		}
		out = append(out, f)
	}
	return out, nil
}

// ParseHeader parses ENVI header text.
func ParseHeader(data []byte) (*Header, error) {
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	if !sc.Scan() {
		return nil, eris.New("envi: empty header")
	}
	if strings.TrimSpace(strings.TrimPrefix(sc.Text(), "\ufeff")) != "ENVI" {
		return nil, eris.New("envi: missing ENVI magic line")
	}

	h := NewHeader()
	lineNo := 1
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, ";") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return nil, eris.Errorf("envi: line %d: expected key = value", lineNo)
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		// Brace values may continue over several lines.
		if strings.HasPrefix(value, "{") {
			for !strings.Contains(value, "}") {
				if !sc.Scan() {
					return nil, eris.Errorf("envi: unterminated value for %q", key)
				}
				lineNo++
				value += "\n" + strings.TrimRight(sc.Text(), " \t\r")
			}
		}
		h.Set(key, value)
	}
	if err := sc.Err(); err != nil {
		return nil, eris.Wrap(err, "envi: scan header")
	}
	return h, nil
}

// ReadHeader reads and parses the ENVI header at path.
func ReadHeader(path string) (*Header, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "envi: read header %s", path)
	}
	h, err := ParseHeader(data)
	if err != nil {
		return nil, eris.Wrapf(err, "envi: parse header %s", path)
	}
	return h, nil
}

// Bytes renders the header in ENVI text form.
func (h *Header) Bytes() []byte {
	var buf bytes.Buffer
	buf.WriteString("ENVI\n")
	for _, k := range h.keys {
		buf.WriteString(k)
		buf.WriteString(" = ")
		buf.WriteString(h.values[k])
		buf.WriteString("\n")
	}
	return buf.Bytes()
}

// WriteHeader writes h to path through a temp file and rename so readers
// never observe a half-written header.
func WriteHeader(path string, h *Header) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return eris.Wrapf(err, "envi: create temp for %s", path)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) //nolint:errcheck

	if _, err := tmp.Write(h.Bytes()); err != nil {
		_ = tmp.Close()
		return eris.Wrapf(err, "envi: write header %s", path)
	}
	if err := tmp.Close(); err != nil {
		return eris.Wrapf(err, "envi: close header %s", path)
	}
	// CreateTemp makes the file 0600; keep the replaced header's mode.
	mode := os.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}
	if err := os.Chmod(tmpName, mode); err != nil {
		return eris.Wrapf(err, "envi: chmod header %s", path)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return eris.Wrapf(err, "envi: rename header %s", path)
	}
	return nil
}
