package corpus

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Document is one line of a corpus. Position is its only identity.
type Document struct {
	Position int
	// Raw holds the original line bytes, including the trailing newline if present.
	Raw  []byte
	Text string
}

// Reader is a single-pass, finite document stream.
type Reader struct {
	rc   io.ReadCloser
	br   *bufio.Reader
	opts Options
	pos  int
	done bool
}

// Next returns the next document, or io.EOF once the stream is exhausted.
func (r *Reader) Next() (Document, error) {
	if r.done {
		return Document{}, io.EOF
	}
	line, err := r.br.ReadBytes('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return Document{}, fmt.Errorf("read line %d: %w", r.pos, err)
	}
	if errors.Is(err, io.EOF) {
		r.done = true
		if len(line) == 0 {
			return Document{}, io.EOF
		}
	}
	text, perr := r.extract(line)
	if perr != nil {
		return Document{}, fmt.Errorf("parse line %d: %w", r.pos, perr)
	}
	doc := Document{Position: r.pos, Raw: line, Text: text}
	r.pos++
	return doc, nil
}

// NextChunk returns up to size documents. It returns io.EOF only when no
// documents remain; a short final chunk is returned with a nil error.
func (r *Reader) NextChunk(size int) ([]Document, error) {
	if size <= 0 {
		size = 1
	}
	chunk := make([]Document, 0, size)
	for len(chunk) < size {
		doc, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		chunk = append(chunk, doc)
	}
	if len(chunk) == 0 {
		return nil, io.EOF
	}
	return chunk, nil
}

// Close releases the underlying file.
func (r *Reader) Close() error {
	return r.rc.Close()
}

func (r *Reader) extract(line []byte) (string, error) {
	trimmed := bytes.TrimRight(line, "\r\n")
	if r.opts.Format != FormatJSONL {
		return string(trimmed), nil
	}
	if len(bytes.TrimSpace(trimmed)) == 0 {
		return "", nil
	}
	var record map[string]any
	if err := json.Unmarshal(trimmed, &record); err != nil {
		return "", err
	}
	var parts []string
	for _, field := range r.opts.TextFields {
		switch v := record[field].(type) {
		case string:
			parts = append(parts, v)
		case []any:
			for _, item := range v {
				if s, ok := item.(string); ok {
					parts = append(parts, s)
				}
			}
		}
	}
	return strings.Join(parts, " "), nil
}

// JoinedText reads every document of src and concatenates their trimmed text
// with single spaces, producing one reference document.
func JoinedText(src *Source) (string, error) {
	r, err := src.Open()
	if err != nil {
		return "", err
	}
	defer r.Close()

	var sb strings.Builder
	for {
		doc, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", err
		}
		if doc.Position > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(strings.TrimSpace(doc.Text))
	}
	return sb.String(), nil
}

// Count returns the number of documents in src.
func Count(src *Source) (int, error) {
	r, err := src.Open()
	if err != nil {
		return 0, err
	}
	defer r.Close()
	n := 0
	for {
		_, err := r.Next()
		if errors.Is(err, io.EOF) {
			return n, nil
		}
		if err != nil {
			return 0, err
		}
		n++
	}
}
