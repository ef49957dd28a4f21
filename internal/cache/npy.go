package cache

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// Vectors are stored as NumPy .npy (format 1.0, little-endian float64, 1-D)
// so the files stay readable with numpy.load.

var npyMagic = []byte("\x93NUMPY")

// ErrBadNPY is returned for files that are not 1-D little-endian float64 arrays.
var ErrBadNPY = errors.New("malformed npy file")

const npyAlign = 64

func encodeNPY(w io.Writer, data []float64) error {
	header := fmt.Sprintf("{'descr': '<f8', 'fortran_order': False, 'shape': (%d,), }", len(data))
	// magic(6) + version(2) + header length(2) + header + '\n' must be aligned.
	total := len(npyMagic) + 4 + len(header) + 1
	if pad := total % npyAlign; pad != 0 {
		header += strings.Repeat(" ", npyAlign-pad)
	}
	header += "\n"

	var buf bytes.Buffer
	buf.Grow(len(npyMagic) + 4 + len(header) + 8*len(data))
	buf.Write(npyMagic)
	buf.Write([]byte{1, 0})
	_ = binary.Write(&buf, binary.LittleEndian, uint16(len(header)))
	buf.WriteString(header)
	var b [8]byte
	for _, v := range data {
		binary.LittleEndian.PutUint64(b[:], math.Float64bits(v))
		buf.Write(b[:])
	}
	_, err := w.Write(buf.Bytes())
	return err
}

func decodeNPY(r io.Reader) ([]float64, error) {
	pre := make([]byte, len(npyMagic)+2)
	if _, err := io.ReadFull(r, pre); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadNPY, err)
	}
	if !bytes.Equal(pre[:len(npyMagic)], npyMagic) {
		return nil, fmt.Errorf("%w: bad magic", ErrBadNPY)
	}
	var hlen int
	switch major := pre[len(npyMagic)]; major {
	case 1:
		var n uint16
		if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadNPY, err)
		}
		hlen = int(n)
	case 2, 3:
		var n uint32
		if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadNPY, err)
		}
		hlen = int(n)
	default:
		return nil, fmt.Errorf("%w: unsupported version %d", ErrBadNPY, major)
	}
	header := make([]byte, hlen)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadNPY, err)
	}
	n, err := parseNPYHeader(string(header))
	if err != nil {
		return nil, err
	}
	raw := make([]byte, 8*n)
	if _, err := io.ReadFull(r, raw); err != nil {
		return nil, fmt.Errorf("%w: truncated data: %v", ErrBadNPY, err)
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = math.Float64frombits(binary.LittleEndian.Uint64(raw[8*i:]))
	}
	return out, nil
}

func parseNPYHeader(h string) (int, error) {
	compact := strings.ReplaceAll(h, " ", "")
	if !strings.Contains(compact, "'descr':'<f8'") {
		return 0, fmt.Errorf("%w: unsupported dtype in %q", ErrBadNPY, strings.TrimSpace(h))
	}
	if !strings.Contains(compact, "'fortran_order':False") {
		return 0, fmt.Errorf("%w: fortran order not supported", ErrBadNPY)
	}
	i := strings.Index(compact, "'shape':(")
	if i < 0 {
		return 0, fmt.Errorf("%w: missing shape", ErrBadNPY)
	}
	rest := compact[i+len("'shape':("):]
	j := strings.Index(rest, ")")
	if j < 0 {
		return 0, fmt.Errorf("%w: unterminated shape", ErrBadNPY)
	}
	dims := strings.Split(strings.TrimSuffix(rest[:j], ","), ",")
	if len(dims) != 1 {
		return 0, fmt.Errorf("%w: expected 1-D array, got shape (%s)", ErrBadNPY, rest[:j])
	}
	n, err := strconv.Atoi(dims[0])
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: bad shape %q", ErrBadNPY, dims[0])
	}
	return n, nil
}
