package corpus

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
)

// ErrMaskLength is returned when a selection mask does not match the corpus size.
var ErrMaskLength = errors.New("selection mask length does not match corpus")

// CopySelected writes every document of src whose position is true in mask to
// dst, preserving order and the original line bytes. The output codec follows
// dst's extension. It returns the number of documents written. On error no
// partial output is left at dst.
func CopySelected(ctx context.Context, src *Source, mask []bool, dst string) (int, error) {
	r, err := src.Open()
	if err != nil {
		return 0, err
	}
	defer r.Close()

	w, finish, err := createCompressed(dst)
	if err != nil {
		return 0, err
	}

	abort := func(err error) (int, error) {
		_ = finish()
		_ = os.Remove(dst)
		return 0, err
	}

	written := 0
	seen := 0
	for {
		if err := ctx.Err(); err != nil {
			return abort(err)
		}
		doc, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return abort(err)
		}
		seen++
		if doc.Position >= len(mask) {
			return abort(fmt.Errorf("%w: corpus has more than %d documents", ErrMaskLength, len(mask)))
		}
		if !mask[doc.Position] {
			continue
		}
		if _, err := w.Write(doc.Raw); err != nil {
			return abort(fmt.Errorf("write document %d: %w", doc.Position, err))
		}
		written++
	}
	if seen != len(mask) {
		return abort(fmt.Errorf("%w: corpus has %d documents, mask has %d", ErrMaskLength, seen, len(mask)))
	}
	if err := finish(); err != nil {
		_ = os.Remove(dst)
		return 0, fmt.Errorf("finalize output: %w", err)
	}
	return written, nil
}
