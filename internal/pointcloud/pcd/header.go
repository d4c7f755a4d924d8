// Package pcd decodes PCD point cloud files (ASCII, binary and
// binary_compressed variants) into point batches suitable for incremental
// rendering and LOD construction.
package pcd

import (
	"bytes"
	"regexp"
	"strconv"
	"strings"
)

// headerScanLimit bounds how far into the file the header may extend.
const headerScanLimit = 10000

// Encoding identifies how the body of a PCD file is stored.
type Encoding string

const (
	EncodingASCII            Encoding = "ascii"
	EncodingBinary           Encoding = "binary"
	EncodingBinaryCompressed Encoding = "binary_compressed"
)

// Header carries the encoding metadata parsed from a PCD text header.
// Fields, Sizes, Types and Counts are parallel slices in field order.
type Header struct {
	Version string
	Fields  []string
	Sizes   []int
	Types   []string
	Counts  []int
	Width   int
	Height  int
	Points  int
	Data    Encoding
}

// dataLineRe matches the DATA line that terminates a PCD header. The
// keyword captured here takes precedence over any duplicate "data" key seen
// during line-by-line parsing.
var dataLineRe = regexp.MustCompile(`(?i)\nDATA\s+(\S+)`)

// ParseHeader scans the first headerScanLimit bytes of the file as text,
// extracts the header keyed by first token, and returns the header together
// with the byte offset where the body starts. A file without a DATA line is
// rejected with a FormatError.
func ParseHeader(data []byte) (*Header, int, error) {
	limit := len(data)
	if limit > headerScanLimit {
		limit = headerScanLimit
	}
	text := string(data[:limit])

	loc := dataLineRe.FindStringSubmatchIndex(text)
	if loc == nil {
		return nil, 0, formatErrorf("missing DATA line in header (scanned %d bytes)", limit)
	}
	encoding := strings.ToLower(text[loc[2]:loc[3]])

	// The body starts on the line after the DATA keyword.
	bodyStart := loc[3]
	if i := bytes.IndexByte(data[bodyStart:], '\n'); i >= 0 {
		bodyStart += i + 1
	} else {
		bodyStart = len(data)
	}

	h := &Header{}
	for _, line := range strings.Split(text[:loc[0]], "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		tokens := strings.Fields(line)
		key := strings.ToLower(tokens[0])
		rest := tokens[1:]
		switch key {
		case "version":
			if len(rest) > 0 {
				h.Version = rest[0]
			}
		case "fields":
			h.Fields = lowerAll(rest)
		case "size":
			h.Sizes = atoiAll(rest)
		case "type":
			h.Types = upperAll(rest)
		case "count":
			h.Counts = atoiAll(rest)
		case "width":
			h.Width = atoiFirst(rest)
		case "height":
			h.Height = atoiFirst(rest)
		case "points":
			h.Points = atoiFirst(rest)
		case "data":
			if len(rest) > 0 {
				h.Data = Encoding(strings.ToLower(rest[0]))
			}
		default:
			// Unrecognized keys are ignored.
		}
	}

	// The DATA-line match wins over any duplicate "data" key.
	h.Data = Encoding(encoding)

	// Conventional PCD defaults: COUNT omitted means one component per
	// field, POINTS omitted means width*height.
	if len(h.Counts) == 0 && len(h.Fields) > 0 {
		h.Counts = make([]int, len(h.Fields))
		for i := range h.Counts {
			h.Counts[i] = 1
		}
	}
	if h.Points == 0 {
		h.Points = h.Width * h.Height
	}

	return h, bodyStart, nil
}

func lowerAll(tokens []string) []string {
	out := make([]string, len(tokens))
	for i, t := range tokens {
		out[i] = strings.ToLower(t)
	}
	return out
}

func upperAll(tokens []string) []string {
	out := make([]string, len(tokens))
	for i, t := range tokens {
		out[i] = strings.ToUpper(t)
	}
	return out
}

func atoiAll(tokens []string) []int {
	out := make([]int, len(tokens))
	for i, t := range tokens {
		n, err := strconv.Atoi(t)
		if err != nil {
			continue // leave zero; downstream validation rejects bad strides
		}
		out[i] = n
	}
	return out
}

func atoiFirst(tokens []string) int {
	if len(tokens) == 0 {
		return 0
	}
	n, err := strconv.Atoi(tokens[0])
	if err != nil {
		return 0
	}
	return n
}
