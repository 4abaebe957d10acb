package pipeline

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"os"
	"strconv"
	"unicode/utf16"
	"unicode/utf8"

	"go-data-prep/internal/model"
	"go-data-prep/pkg/errors"
)

// ------------------- Line sources -------------------

// LineSource yields input lines without their terminator. Next returns
// io.EOF once the input is exhausted.
type LineSource interface {
	Next() ([]byte, error)
}

type lineReader struct {
	r *bufio.Reader
}

// NewLineReader splits r on '\n'. A trailing "\r" is dropped, lines have no
// length limit and a final line without a newline is still returned.
func NewLineReader(r io.Reader) LineSource {
	return &lineReader{r: bufio.NewReaderSize(r, 64*1024)}
}

func (lr *lineReader) Next() ([]byte, error) {
	line, err := lr.r.ReadBytes('\n')
	if err == io.EOF {
		if len(line) == 0 {
			return nil, io.EOF
		}
		return bytes.TrimSuffix(line, []byte("\r")), nil
	}
	if err != nil {
		return nil, err
	}
	line = line[:len(line)-1]
	return bytes.TrimSuffix(line, []byte("\r")), nil
}

type sliceLines struct {
	lines []string
	pos   int
}

// SliceLines serves lines from memory.
func SliceLines(lines ...string) LineSource {
	return &sliceLines{lines: lines}
}

func (s *sliceLines) Next() ([]byte, error) {
	if s.pos >= len(s.lines) {
		return nil, io.EOF
	}
	line := s.lines[s.pos]
	s.pos++
	return []byte(line), nil
}

// ------------------- Record parsing -------------------

// ParseRecord decodes one line as a JSON object. Anything else, including a
// blank line, an array, a scalar or trailing data, is an error.
func ParseRecord(line []byte) (model.Record, error) {
	if !utf8.Valid(line) {
		return nil, errors.New("line is not valid UTF-8")
	}
	if err := checkSurrogates(line); err != nil {
		return nil, err
	}

	dec := json.NewDecoder(bytes.NewReader(line))
	dec.UseNumber()

	var raw interface{}
	if err := dec.Decode(&raw); err != nil {
		if err == io.EOF {
			return nil, errors.New("empty line")
		}
		return nil, errors.Wrap(err, "decode")
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("unexpected data after JSON value")
	}

	obj, ok := raw.(map[string]interface{})
	if !ok {
		return nil, errors.Newf("expected a JSON object, got %s", jsonKind(raw))
	}
	return model.Record(obj), nil
}

// checkSurrogates rejects \u escapes that encode an unpaired UTF-16
// surrogate. encoding/json would replace them with U+FFFD.
func checkSurrogates(line []byte) error {
	for i := 0; i < len(line); i++ {
		if line[i] != '\\' || i+1 >= len(line) {
			continue
		}
		if line[i+1] != 'u' {
			i++ // skip the escaped byte
			continue
		}
		r, ok := hexRune(line, i+2)
		if !ok {
			// malformed escape, left to the decoder
			i++
			continue
		}
		switch {
		case utf16.IsSurrogate(r) && r < 0xdc00:
			lo, ok := hexRune(line, i+8)
			if i+7 >= len(line) || line[i+6] != '\\' || line[i+7] != 'u' || !ok || lo < 0xdc00 || lo > 0xdfff {
				return errors.Newf("unpaired UTF-16 surrogate \\u%04x", r)
			}
			i += 11
		case utf16.IsSurrogate(r):
			return errors.Newf("unpaired UTF-16 surrogate \\u%04x", r)
		default:
			i += 5
		}
	}
	return nil
}

// hexRune decodes the four hex digits at line[pos:].
func hexRune(line []byte, pos int) (rune, bool) {
	if pos+4 > len(line) {
		return 0, false
	}
	n, err := strconv.ParseUint(string(line[pos:pos+4]), 16, 16)
	if err != nil {
		return 0, false
	}
	return rune(n), true
}

func jsonKind(v interface{}) string {
	switch v.(type) {
	case nil:
		return "null"
	case []interface{}:
		return "array"
	case string:
		return "string"
	case json.Number:
		return "number"
	case bool:
		return "boolean"
	default:
		return "unknown"
	}
}

// ------------------- Sources -------------------

// OpenSource opens a job's input. "-" reads standard input.
func OpenSource(path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, newIOError("open", path, err)
	}
	return file, nil
}
