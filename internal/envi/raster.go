package envi

import (
	"encoding/binary"
	"io"
	"math"
	"os"
	"strings"

	"github.com/rotisserie/eris"
)

// Raster describes the on-disk layout of an ENVI image.
type Raster struct {
	Path        string
	Header      *Header
	Samples     int
	Lines       int
	Bands       int
	Offset      int64
	DataType    int
	Interleave  string
	Order       binary.ByteOrder
	Wavelengths []float64
	NoData      float64
	HasNoData   bool
}

var dataTypeSizes = map[int]int{
	1:  1, // uint8
	2:  2, // int16
	3:  4, // int32
	4:  4, // float32
	5:  8, // float64
	12: 2, // uint16
	13: 4, // uint32
	14: 8, // int64
	15: 8, // uint64
}

// OpenRaster reads the header at hdrPath and validates the layout of the
// binary at binPath.
func OpenRaster(binPath, hdrPath string) (*Raster, error) {
	h, err := ReadHeader(hdrPath)
	if err != nil {
		return nil, err
	}

	r := &Raster{Path: binPath, Header: h, Order: binary.LittleEndian, Interleave: "bsq"}
	if r.Samples, err = h.Int(FieldSamples); err != nil {
		return nil, err
	}
	if r.Lines, err = h.Int(FieldLines); err != nil {
		return nil, err
	}
	if r.Bands, err = h.Int(FieldBands); err != nil {
		return nil, err
	}
	if r.DataType, err = h.Int(FieldDataType); err != nil {
		return nil, err
	}
	if _, ok := dataTypeSizes[r.DataType]; !ok {
		return nil, eris.Errorf("envi: unsupported data type %d", r.DataType)
	}
	if _, ok := h.Get(FieldHeaderOffset); ok {
		off, err := h.Int(FieldHeaderOffset)
		if err != nil {
			return nil, err
		}
		r.Offset = int64(off)
	}
	if v, ok := h.String(FieldInterleave); ok {
		r.Interleave = strings.ToLower(v)
	}
	switch r.Interleave {
	case "bsq", "bil", "bip":
	default:
		return nil, eris.Errorf("envi: unsupported interleave %q", r.Interleave)
	}
	if _, ok := h.Get(FieldByteOrder); ok {
		bo, err := h.Int(FieldByteOrder)
		if err != nil {
			return nil, err
		}
		if bo == 1 {
			r.Order = binary.BigEndian
		}
	}
	if _, ok := h.Get(FieldWavelength); ok {
		if r.Wavelengths, err = h.Floats(FieldWavelength); err != nil {
			return nil, err
		}
	}
	if _, ok := h.Get(FieldIgnoreValue); ok {
		if r.NoData, err = h.Float(FieldIgnoreValue); err != nil {
			return nil, err
		}
		r.HasNoData = true
	}

	info, err := os.Stat(binPath)
	if err != nil {
		return nil, eris.Wrapf(err, "envi: stat raster %s", binPath)
	}
	want := r.Offset + int64(r.Samples)*int64(r.Lines)*int64(r.Bands)*int64(dataTypeSizes[r.DataType])
	if info.Size() < want {
		return nil, eris.Errorf("envi: raster %s is %d bytes, header describes %d", binPath, info.Size(), want)
	}
	return r, nil
}

// NearestBand returns the index of the band whose center wavelength is
// closest to wl.
func (r *Raster) NearestBand(wl float64) (int, error) {
	if len(r.Wavelengths) == 0 {
		return 0, eris.New("envi: raster has no wavelength metadata")
	}
	best := 0
	bestDist := math.Inf(1)
	for i, w := range r.Wavelengths {
		if d := math.Abs(w - wl); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best, nil
}

// ReadBand returns one band as row-major float64 values (lines x samples).
func (r *Raster) ReadBand(band int) ([]float64, error) {
	if band < 0 || band >= r.Bands {
		return nil, eris.Errorf("envi: band %d out of range [0,%d)", band, r.Bands)
	}

	f, err := os.Open(r.Path)
	if err != nil {
		return nil, eris.Wrapf(err, "envi: open raster %s", r.Path)
	}
	defer f.Close() //nolint:errcheck

	size := int64(dataTypeSizes[r.DataType])
	samples, lines, bands := int64(r.Samples), int64(r.Lines), int64(r.Bands)

	rowLen := samples
	if r.Interleave == "bip" {
		rowLen = samples * bands
	}
	buf := make([]byte, rowLen*size)
	out := make([]float64, 0, samples*lines)

	for line := int64(0); line < lines; line++ {
		var off int64
		switch r.Interleave {
		case "bsq":
			off = (int64(band)*lines + line) * samples
		case "bil":
			off = (line*bands + int64(band)) * samples
		case "bip":
			off = line * samples * bands
		}
		if _, err := f.ReadAt(buf, r.Offset+off*size); err != nil && err != io.EOF {
			return nil, eris.Wrapf(err, "envi: read line %d of %s", line, r.Path)
		}

		for s := int64(0); s < samples; s++ {
			idx := s
			if r.Interleave == "bip" {
				idx = s*bands + int64(band)
			}
			out = append(out, r.decode(buf[idx*size:(idx+1)*size]))
		}
	}
	return out, nil
}

func (r *Raster) decode(b []byte) float64 {
	switch r.DataType {
	case 1:
		return float64(b[0])
	case 2:
		return float64(int16(r.Order.Uint16(b)))
	case 3:
		return float64(int32(r.Order.Uint32(b)))
	case 4:
		return float64(math.Float32frombits(r.Order.Uint32(b)))
	case 5:
		return math.Float64frombits(r.Order.Uint64(b))
	case 12:
		return float64(r.Order.Uint16(b))
	case 13:
		return float64(r.Order.Uint32(b))
	case 14:
		return float64(int64(r.Order.Uint64(b)))
	case 15:
		return float64(r.Order.Uint64(b))
	}
	return math.NaN()
}
