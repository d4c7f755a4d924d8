package pcd

// lzfDecompress expands an LZF stream into exactly outLen bytes.
//
// The stream alternates control bytes: values below 32 introduce a literal
// run of ctrl+1 raw bytes; values of 32 and above encode a back-reference of
// (ctrl>>5)+2 bytes (plus an extra length byte when that nibble is 7) at
// offset outPos - ((ctrl&0x1f)<<8) - next - 1. Back-references are copied
// byte by byte because the source and destination ranges may overlap; that
// overlap is what encodes short repeats compactly.
//
// Every step is bounds-checked. Any violation aborts with a
// DecompressionError; partial output is never returned.
func lzfDecompress(in []byte, outLen int) ([]byte, error) {
	if outLen < 0 {
		return nil, decompressionErrorf("negative output size %d", outLen)
	}
	out := make([]byte, outLen)
	inPos, outPos := 0, 0

	for inPos < len(in) {
		ctrl := int(in[inPos])
		inPos++

		if ctrl < 32 {
			run := ctrl + 1
			if inPos+run > len(in) {
				return nil, decompressionErrorf("literal run of %d bytes overruns input at %d", run, inPos)
			}
			if outPos+run > outLen {
				return nil, decompressionErrorf("literal run of %d bytes overruns output at %d", run, outPos)
			}
			copy(out[outPos:], in[inPos:inPos+run])
			inPos += run
			outPos += run
			continue
		}

		length := (ctrl >> 5) + 2
		if ctrl>>5 == 7 {
			if inPos >= len(in) {
				return nil, decompressionErrorf("truncated extended length byte at %d", inPos)
			}
			length += int(in[inPos])
			inPos++
		}
		if inPos >= len(in) {
			return nil, decompressionErrorf("truncated back-reference offset byte at %d", inPos)
		}
		ref := outPos - ((ctrl & 0x1f) << 8) - int(in[inPos]) - 1
		inPos++

		if ref < 0 {
			return nil, decompressionErrorf("back-reference before start of output (ref=%d at outPos=%d)", ref, outPos)
		}
		if outPos+length > outLen {
			return nil, decompressionErrorf("back-reference of %d bytes overruns output at %d", length, outPos)
		}
		for i := 0; i < length; i++ {
			out[outPos] = out[ref]
			outPos++
			ref++
		}
	}

	if outPos != outLen {
		return nil, decompressionErrorf("stream produced %d bytes, expected %d", outPos, outLen)
	}
	return out, nil
}
