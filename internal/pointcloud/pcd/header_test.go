package pcd

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseHeaderASCII(t *testing.T) {
	data := []byte(`# .PCD v0.7 - Point Cloud Data file format
VERSION 0.7
FIELDS x y z
SIZE 4 4 4
TYPE F F F
COUNT 1 1 1
WIDTH 3
HEIGHT 1
VIEWPOINT 0 0 0 1 0 0 0
POINTS 3
DATA ascii
0 0 0
1 1 1
2 2 2
`)

	h, bodyStart, err := ParseHeader(data)
	if err != nil {
		t.Fatalf("ParseHeader failed: %v", err)
	}

	want := &Header{
		Version: "0.7",
		Fields:  []string{"x", "y", "z"},
		Sizes:   []int{4, 4, 4},
		Types:   []string{"F", "F", "F"},
		Counts:  []int{1, 1, 1},
		Width:   3,
		Height:  1,
		Points:  3,
		Data:    EncodingASCII,
	}
	if diff := cmp.Diff(want, h); diff != "" {
		t.Errorf("header mismatch (-want +got):\n%s", diff)
	}

	body := string(data[bodyStart:])
	if !strings.HasPrefix(body, "0 0 0") {
		t.Errorf("body should start at the first record, got %q", body[:min(20, len(body))])
	}
}

func TestParseHeaderCaseInsensitiveKeys(t *testing.T) {
	data := []byte("version 0.7\nfields X Y Z\nsize 4 4 4\ntype f f f\ncount 1 1 1\nwidth 2\nheight 1\npoints 2\ndata ASCII\n1 2 3\n")

	h, _, err := ParseHeader(data)
	if err != nil {
		t.Fatalf("ParseHeader failed: %v", err)
	}
	if h.Data != EncodingASCII {
		t.Errorf("encoding should be normalized to lowercase, got %q", h.Data)
	}
	if diff := cmp.Diff([]string{"x", "y", "z"}, h.Fields); diff != "" {
		t.Errorf("fields should be normalized to lowercase (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"F", "F", "F"}, h.Types); diff != "" {
		t.Errorf("types should be normalized to uppercase (-want +got):\n%s", diff)
	}
}

func TestParseHeaderDefaults(t *testing.T) {
	// COUNT and POINTS omitted: counts default to 1 per field, points to
	// width*height.
	data := []byte("FIELDS x y z\nSIZE 4 4 4\nTYPE F F F\nWIDTH 4\nHEIGHT 2\nDATA ascii\n")

	h, _, err := ParseHeader(data)
	if err != nil {
		t.Fatalf("ParseHeader failed: %v", err)
	}
	if diff := cmp.Diff([]int{1, 1, 1}, h.Counts); diff != "" {
		t.Errorf("counts should default to ones (-want +got):\n%s", diff)
	}
	if h.Points != 8 {
		t.Errorf("points should default to width*height = 8, got %d", h.Points)
	}
}

func TestParseHeaderMissingDataLine(t *testing.T) {
	data := []byte("VERSION 0.7\nFIELDS x y z\nSIZE 4 4 4\nTYPE F F F\nWIDTH 1\nHEIGHT 1\n")

	_, _, err := ParseHeader(data)
	if err == nil {
		t.Fatal("expected an error for a header without a DATA line")
	}
	if _, ok := err.(*FormatError); !ok {
		t.Errorf("expected *FormatError, got %T: %v", err, err)
	}
}

func TestParseHeaderIgnoresCommentsAndUnknownKeys(t *testing.T) {
	data := []byte("# comment line\nVERSION 0.7\nFIELDS x y z\nSIZE 4 4 4\nTYPE F F F\nCOUNT 1 1 1\nVIEWPOINT 0 0 0 1 0 0 0\nWIDTH 1\nHEIGHT 1\nPOINTS 1\nDATA ascii\n0 0 0\n")

	h, _, err := ParseHeader(data)
	if err != nil {
		t.Fatalf("ParseHeader failed: %v", err)
	}
	if h.Points != 1 {
		t.Errorf("points = %d, want 1", h.Points)
	}
}

func TestParseHeaderBinaryBodyOffset(t *testing.T) {
	header := "FIELDS x y z\nSIZE 4 4 4\nTYPE F F F\nCOUNT 1 1 1\nWIDTH 1\nHEIGHT 1\nPOINTS 1\nDATA binary\n"
	body := []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}
	data := append([]byte(header), body...)

	h, bodyStart, err := ParseHeader(data)
	if err != nil {
		t.Fatalf("ParseHeader failed: %v", err)
	}
	if h.Data != EncodingBinary {
		t.Errorf("encoding = %q, want binary", h.Data)
	}
	if bodyStart != len(header) {
		t.Errorf("bodyStart = %d, want %d", bodyStart, len(header))
	}
}
