package pcd

import "fmt"

// FormatError reports a malformed or unsupported point cloud file: a missing
// DATA line, a header that cannot be interpreted, or an encoding this decoder
// does not speak. It is fatal; ingestion aborts.
type FormatError struct {
	Msg string
}

func (e *FormatError) Error() string { return "pcd: " + e.Msg }

func formatErrorf(format string, v ...interface{}) error {
	return &FormatError{Msg: fmt.Sprintf(format, v...)}
}

// DecompressionError reports a violation detected while expanding an LZF
// stream: a literal run or back-reference that escapes its bounds, or a
// stream that does not produce exactly the declared output size. It is fatal;
// the decoder never returns partial output.
type DecompressionError struct {
	Msg string
}

func (e *DecompressionError) Error() string { return "pcd: lzf: " + e.Msg }

func decompressionErrorf(format string, v ...interface{}) error {
	return &DecompressionError{Msg: fmt.Sprintf(format, v...)}
}
