package pcd

import (
	"bytes"
	"context"
	"encoding/binary"
	"math"
	"strconv"
	"strings"

	"github.com/banshee-data/pointcloud.viewer/internal/monitoring"
)

// Stage identifies which phase of the load pipeline a progress event
// belongs to.
type Stage int

const (
	StageLoading Stage = iota
	StageParsing
	StageOptimizing
)

func (s Stage) String() string {
	switch s {
	case StageLoading:
		return "loading"
	case StageParsing:
		return "parsing"
	case StageOptimizing:
		return "optimizing"
	}
	return "unknown"
}

// Progress reports ingestion advancement to the consumer.
type Progress struct {
	Stage           Stage
	Percent         float64
	PointsProcessed int
	ChunksEmitted   int
}

// Chunk is one batch of decoded points emitted during ingestion so partial
// results can render before the full LOD structure exists. All slices are
// parallel per point (positions and colors hold three values per point).
// A chunk is immutable once emitted.
type Chunk struct {
	Index        int       // monotonically increasing emission index
	Count        int       // points in this chunk
	Positions    []float32 // xyz interleaved
	HeightColors []float32 // ramp colors synthesized from the running Z extent
	Colors       []float32 // linear-space true colors; nil when the file has none
	Intensity    []float32 // normalized 0-1; nil when the file has none
}

// Cloud is the fully realized point set accumulated across all emitted
// chunks, plus the stream-wide statistics the LOD stage needs.
type Cloud struct {
	Header     *Header
	Positions  []float32
	Colors     []float32 // nil when the file has no true color
	Intensity  []float32 // nil when the file has no intensity
	Count      int
	MinZ, MaxZ float32
	Warnings   int
}

// HasColor reports whether the cloud carries true per-point colors.
func (c *Cloud) HasColor() bool { return len(c.Colors) > 0 }

// HasIntensity reports whether the cloud carries per-point intensity.
func (c *Cloud) HasIntensity() bool { return len(c.Intensity) > 0 }

// DecoderConfig configures a streaming Decoder. Zero values select the
// defaults.
type DecoderConfig struct {
	WindowBytes int // bytes processed per Step; default 1 MiB
	ChunkPoints int // accepted points per emitted chunk; default 50000

	OnChunk    func(*Chunk)
	OnProgress func(Progress)
}

const (
	defaultWindowBytes = 1 << 20
	defaultChunkPoints = 50000

	// minBinaryRecordsPerWindow keeps tiny strides from degenerating into
	// thousands of near-empty windows.
	minBinaryRecordsPerWindow = 1000

	// maxLoggedRecordWarnings caps per-record warning log lines; the total
	// is still counted and summarized at the end of the stream.
	maxLoggedRecordWarnings = 5
)

// fieldRef locates one logical field inside a record.
type fieldRef struct {
	ok     bool
	offset int  // byte offset within a binary record
	token  int  // token index within an ASCII record
	typ    byte // 'F', 'U' or 'I'
	size   int
}

// recordLayout is the per-record field placement derived from the header.
type recordLayout struct {
	stride int // bytes per binary record
	tokens int // whitespace tokens per ASCII record

	x, y, z   fieldRef
	rgb       fieldRef // packed rgb/rgba field
	r, g, b   fieldRef // separate channels
	intensity fieldRef
}

// hasPackedRGB reports whether the packed rgb field is present. Packed rgb
// takes priority over separate r/g/b channels.
func (l *recordLayout) hasPackedRGB() bool { return l.rgb.ok }

func (l *recordLayout) hasSeparateRGB() bool { return l.r.ok && l.g.ok && l.b.ok }

func (l *recordLayout) hasColor() bool { return l.hasPackedRGB() || l.hasSeparateRGB() }

func buildLayout(h *Header) (recordLayout, error) {
	var l recordLayout
	if len(h.Fields) == 0 {
		return l, formatErrorf("header declares no fields")
	}
	if len(h.Sizes) != len(h.Fields) || len(h.Types) != len(h.Fields) || len(h.Counts) != len(h.Fields) {
		return l, formatErrorf("header field/size/type/count lengths disagree (%d/%d/%d/%d)",
			len(h.Fields), len(h.Sizes), len(h.Types), len(h.Counts))
	}

	offset, token := 0, 0
	for i, name := range h.Fields {
		size, count := h.Sizes[i], h.Counts[i]
		if size <= 0 || count <= 0 {
			return l, formatErrorf("field %q has invalid size %d or count %d", name, size, count)
		}
		var typ byte
		if len(h.Types[i]) > 0 {
			typ = h.Types[i][0]
		}
		ref := fieldRef{ok: true, offset: offset, token: token, typ: typ, size: size}
		switch name {
		case "x":
			l.x = ref
		case "y":
			l.y = ref
		case "z":
			l.z = ref
		case "rgb", "rgba":
			l.rgb = ref
		case "r":
			l.r = ref
		case "g":
			l.g = ref
		case "b":
			l.b = ref
		case "intensity":
			l.intensity = ref
		}
		offset += size * count
		token += count
	}
	l.stride = offset
	l.tokens = token

	if !l.x.ok || !l.y.ok || !l.z.ok {
		return l, formatErrorf("header is missing x/y/z fields (got %s)", strings.Join(h.Fields, " "))
	}
	return l, nil
}

// pointBatch accumulates accepted points until the next chunk emission.
type pointBatch struct {
	count     int
	positions []float32
	colors    []float32
	intensity []float32
}

// Decoder incrementally parses a PCD body in bounded windows. Each Step call
// processes one window and returns, so a host scheduler can interleave other
// work; Run drives Step in a loop and checks its context between windows.
type Decoder struct {
	cfg    DecoderConfig
	header *Header
	layout recordLayout

	body []byte // raw body bytes after the header
	data []byte // bytes being parsed; decompressed output on the compressed path

	offset      int
	carry       []byte // unterminated trailing ASCII line from the prior window
	inflated    bool   // compressed sub-header consumed and body inflated
	percentBase float64
	percentSpan float64

	stats      zStats
	batch      pointBatch
	cloud      Cloud
	chunkIndex int
	warnings   int
	done       bool
}

// NewDecoder parses the header of data and prepares a streaming decode of
// its body. It fails with a FormatError for a missing DATA line, an
// unsupported encoding keyword, or a header without usable x/y/z fields.
func NewDecoder(data []byte, cfg DecoderConfig) (*Decoder, error) {
	header, bodyStart, err := ParseHeader(data)
	if err != nil {
		return nil, err
	}
	switch header.Data {
	case EncodingASCII, EncodingBinary, EncodingBinaryCompressed:
	default:
		return nil, formatErrorf("unsupported encoding %q", header.Data)
	}
	layout, err := buildLayout(header)
	if err != nil {
		return nil, err
	}
	if cfg.WindowBytes <= 0 {
		cfg.WindowBytes = defaultWindowBytes
	}
	if cfg.ChunkPoints <= 0 {
		cfg.ChunkPoints = defaultChunkPoints
	}

	d := &Decoder{
		cfg:         cfg,
		header:      header,
		layout:      layout,
		body:        data[bodyStart:],
		percentSpan: 100,
	}
	d.cloud.Header = header
	if header.Data != EncodingBinaryCompressed {
		d.data = d.body
	}
	return d, nil
}

// Header returns the parsed file header.
func (d *Decoder) Header() *Header { return d.header }

// Step processes one window of input and returns whether the stream is
// exhausted. The final Step flushes the trailing partial chunk.
func (d *Decoder) Step() (bool, error) {
	if d.done {
		return true, nil
	}
	if d.header.Data == EncodingBinaryCompressed && !d.inflated {
		if err := d.inflate(); err != nil {
			return false, err
		}
		return false, nil
	}

	switch d.header.Data {
	case EncodingASCII:
		d.stepASCII()
	default:
		d.stepBinary()
	}
	d.reportProgress()

	if d.offset >= len(d.data) {
		d.finish()
		return true, nil
	}
	return false, nil
}

// Run drives Step until the stream is exhausted, checking ctx between
// windows. This is the decoder's single cooperative suspension point.
func (d *Decoder) Run(ctx context.Context) (*Cloud, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		done, err := d.Step()
		if err != nil {
			return nil, err
		}
		if done {
			return d.Cloud(), nil
		}
	}
}

// Cloud returns the accumulated point set. Valid once Step has reported
// completion.
func (d *Decoder) Cloud() *Cloud { return &d.cloud }

// ChunksEmitted returns how many chunks have been emitted so far.
func (d *Decoder) ChunksEmitted() int { return d.chunkIndex }

// inflate consumes the binary_compressed sub-header and LZF-expands the body
// in one shot. Decompression is all-or-nothing, so the surrounding progress
// milestone jumps from 0% to 25% and binary parsing spans the rest.
func (d *Decoder) inflate() error {
	if len(d.body) < 8 {
		return formatErrorf("binary_compressed body shorter than its 8-byte sub-header")
	}
	compressedSize := binary.LittleEndian.Uint32(d.body)
	uncompressedSize := binary.LittleEndian.Uint32(d.body[4:])
	if int(compressedSize) > len(d.body)-8 {
		return formatErrorf("declared compressed size %d exceeds remaining %d bytes", compressedSize, len(d.body)-8)
	}

	d.emitProgress(0)
	out, err := lzfDecompress(d.body[8:8+int(compressedSize)], int(uncompressedSize))
	if err != nil {
		return err
	}
	d.emitProgress(25)

	d.data = out
	d.offset = 0
	d.percentBase = 25
	d.percentSpan = 75
	d.inflated = true
	return nil
}

// stepASCII decodes one window of text, carrying any unterminated trailing
// line over to the next window so a record is never split.
func (d *Decoder) stepASCII() {
	end := d.offset + d.cfg.WindowBytes
	if end > len(d.data) {
		end = len(d.data)
	}
	atEOF := end == len(d.data)

	buf := d.data[d.offset:end]
	if len(d.carry) > 0 {
		joined := make([]byte, 0, len(d.carry)+len(buf))
		joined = append(joined, d.carry...)
		joined = append(joined, buf...)
		buf = joined
		d.carry = nil
	}
	if !atEOF {
		if i := bytes.LastIndexByte(buf, '\n'); i >= 0 {
			d.carry = append([]byte(nil), buf[i+1:]...)
			buf = buf[:i+1]
		} else {
			d.carry = append([]byte(nil), buf...)
			buf = nil
		}
	}

	for _, line := range bytes.Split(buf, []byte{'\n'}) {
		d.parseASCIIRecord(line)
	}
	d.offset = end
}

func (d *Decoder) parseASCIIRecord(line []byte) {
	text := strings.TrimSpace(string(line))
	if text == "" || strings.HasPrefix(text, "#") {
		return
	}
	tokens := strings.Fields(text)
	if len(tokens) < d.layout.tokens {
		d.recordWarning("short record %q (%d of %d tokens)", text, len(tokens), d.layout.tokens)
		return
	}

	x, okX := parseToken(tokens[d.layout.x.token])
	y, okY := parseToken(tokens[d.layout.y.token])
	z, okZ := parseToken(tokens[d.layout.z.token])
	if !okX || !okY || !okZ {
		d.recordWarning("unparsable coordinates in record %q", text)
		return
	}

	var r, g, b float32
	hasColor := false
	if d.layout.hasPackedRGB() {
		if packed, ok := parsePackedRGBToken(tokens[d.layout.rgb.token], d.layout.rgb.typ); ok {
			r, g, b = unpackRGB(packed)
			hasColor = true
		}
	} else if d.layout.hasSeparateRGB() {
		rv, okR := parseToken(tokens[d.layout.r.token])
		gv, okG := parseToken(tokens[d.layout.g.token])
		bv, okB := parseToken(tokens[d.layout.b.token])
		if okR && okG && okB {
			r = SRGBToLinear(uint32(clampChannel(rv)))
			g = SRGBToLinear(uint32(clampChannel(gv)))
			b = SRGBToLinear(uint32(clampChannel(bv)))
			hasColor = true
		}
	}

	intensity := float32(0)
	if d.layout.intensity.ok {
		if v, ok := parseToken(tokens[d.layout.intensity.token]); ok {
			intensity = normalizeIntensity(v)
		}
	}

	d.accept(x, y, z, hasColor, r, g, b, intensity)
}

// stepBinary decodes max(1000, windowBytes/stride) records from the current
// offset. A body that ends mid-record stops gracefully with a warning.
func (d *Decoder) stepBinary() {
	stride := d.layout.stride
	records := d.cfg.WindowBytes / stride
	if records < minBinaryRecordsPerWindow {
		records = minBinaryRecordsPerWindow
	}

	remaining := len(d.data) - d.offset
	full := remaining / stride
	if records > full {
		records = full
	}

	for i := 0; i < records; i++ {
		d.parseBinaryRecord(d.data[d.offset : d.offset+stride])
		d.offset += stride
	}

	if len(d.data)-d.offset < stride && d.offset < len(d.data) {
		trailing := len(d.data) - d.offset
		d.warnings++
		monitoring.Warnf("pcd: body ends mid-record (%d trailing bytes of a %d-byte record); dropping partial record", trailing, stride)
		d.offset = len(d.data)
	}
}

func (d *Decoder) parseBinaryRecord(rec []byte) {
	x, okX := readScalar(rec[d.layout.x.offset:], d.layout.x.typ, d.layout.x.size)
	y, okY := readScalar(rec[d.layout.y.offset:], d.layout.y.typ, d.layout.y.size)
	z, okZ := readScalar(rec[d.layout.z.offset:], d.layout.z.typ, d.layout.z.size)
	if !okX || !okY || !okZ {
		d.recordWarning("unreadable coordinate field in binary record")
		return
	}

	var r, g, b float32
	hasColor := false
	if d.layout.hasPackedRGB() {
		if packed, ok := readPackedRGB(rec[d.layout.rgb.offset:], d.layout.rgb.typ, d.layout.rgb.size); ok {
			r, g, b = unpackRGB(packed)
			hasColor = true
		}
	} else if d.layout.hasSeparateRGB() {
		rv, okR := readScalar(rec[d.layout.r.offset:], d.layout.r.typ, d.layout.r.size)
		gv, okG := readScalar(rec[d.layout.g.offset:], d.layout.g.typ, d.layout.g.size)
		bv, okB := readScalar(rec[d.layout.b.offset:], d.layout.b.typ, d.layout.b.size)
		if okR && okG && okB {
			r = SRGBToLinear(uint32(clampChannel(rv)))
			g = SRGBToLinear(uint32(clampChannel(gv)))
			b = SRGBToLinear(uint32(clampChannel(bv)))
			hasColor = true
		}
	}

	intensity := float32(0)
	if d.layout.intensity.ok {
		if v, ok := readScalar(rec[d.layout.intensity.offset:], d.layout.intensity.typ, d.layout.intensity.size); ok {
			intensity = normalizeIntensity(v)
		}
	}

	d.accept(x, y, z, hasColor, r, g, b, intensity)
}

// accept admits one record with finite coordinates into the current batch.
func (d *Decoder) accept(x, y, z float32, hasColor bool, r, g, b, intensity float32) {
	if !finite(x) || !finite(y) || !finite(z) {
		d.recordWarning("non-finite coordinates (%v, %v, %v)", x, y, z)
		return
	}
	d.stats.observe(z)

	d.batch.positions = append(d.batch.positions, x, y, z)
	if d.layout.hasColor() {
		d.batch.colors = append(d.batch.colors, r, g, b)
	}
	if d.layout.intensity.ok {
		d.batch.intensity = append(d.batch.intensity, intensity)
	}
	d.batch.count++
	d.cloud.Count++

	if d.batch.count >= d.cfg.ChunkPoints {
		d.emitChunk()
	}
}

// emitChunk flushes the current batch as an immutable Chunk, synthesizing
// height colors from the Z extent seen so far, and folds the batch into the
// accumulated cloud.
func (d *Decoder) emitChunk() {
	if d.batch.count == 0 {
		return
	}

	ch := &Chunk{
		Index:     d.chunkIndex,
		Count:     d.batch.count,
		Positions: d.batch.positions,
	}
	d.chunkIndex++

	hc := make([]float32, 0, len(d.batch.positions))
	for i := 2; i < len(d.batch.positions); i += 3 {
		r, g, b := HeightColor(d.stats.normalize(d.batch.positions[i]))
		hc = append(hc, r, g, b)
	}
	ch.HeightColors = hc

	if d.layout.hasColor() {
		ch.Colors = d.batch.colors
	}
	if d.layout.intensity.ok {
		ch.Intensity = d.batch.intensity
	}

	d.cloud.Positions = append(d.cloud.Positions, d.batch.positions...)
	if d.layout.hasColor() {
		d.cloud.Colors = append(d.cloud.Colors, d.batch.colors...)
	}
	if d.layout.intensity.ok {
		d.cloud.Intensity = append(d.cloud.Intensity, d.batch.intensity...)
	}
	d.batch = pointBatch{}

	if d.cfg.OnChunk != nil {
		d.cfg.OnChunk(ch)
	}
}

func (d *Decoder) finish() {
	d.emitChunk()
	if d.stats.seen {
		d.cloud.MinZ = d.stats.minZ
		d.cloud.MaxZ = d.stats.maxZ
	}
	d.cloud.Warnings = d.warnings
	if d.warnings > maxLoggedRecordWarnings {
		monitoring.Warnf("pcd: %d records skipped in total (%d suppressed from the log)",
			d.warnings, d.warnings-maxLoggedRecordWarnings)
	}
	d.done = true
}

func (d *Decoder) recordWarning(format string, v ...interface{}) {
	d.warnings++
	if d.warnings <= maxLoggedRecordWarnings {
		monitoring.Warnf("pcd: skipping record: "+format, v...)
	}
}

func (d *Decoder) reportProgress() {
	if d.cfg.OnProgress == nil {
		return
	}
	frac := 1.0
	if len(d.data) > 0 {
		frac = float64(d.offset) / float64(len(d.data))
	}
	d.cfg.OnProgress(Progress{
		Stage:           StageParsing,
		Percent:         d.percentBase + d.percentSpan*frac,
		PointsProcessed: d.cloud.Count,
		ChunksEmitted:   d.chunkIndex,
	})
}

func (d *Decoder) emitProgress(percent float64) {
	if d.cfg.OnProgress == nil {
		return
	}
	d.cfg.OnProgress(Progress{
		Stage:           StageParsing,
		Percent:         percent,
		PointsProcessed: d.cloud.Count,
		ChunksEmitted:   d.chunkIndex,
	})
}

func parseToken(tok string) (float32, bool) {
	v, err := strconv.ParseFloat(tok, 32)
	if err != nil {
		return 0, false
	}
	return float32(v), true
}

// parsePackedRGBToken extracts the packed RGB bit pattern from an ASCII
// token. Type F fields store the bits inside a float; unsigned fields store
// the integer directly.
func parsePackedRGBToken(tok string, typ byte) (uint32, bool) {
	if typ == 'F' {
		v, err := strconv.ParseFloat(tok, 32)
		if err != nil {
			return 0, false
		}
		return math.Float32bits(float32(v)), true
	}
	v, err := strconv.ParseUint(tok, 10, 32)
	if err != nil {
		return 0, false
	}
	return uint32(v), true
}

// readPackedRGB extracts the packed RGB bit pattern from a binary field. For
// type F the raw little-endian bytes already are the bit pattern.
func readPackedRGB(b []byte, typ byte, size int) (uint32, bool) {
	if size >= 4 && (typ == 'F' || typ == 'U' || typ == 'I') {
		return binary.LittleEndian.Uint32(b), true
	}
	return 0, false
}

func unpackRGB(packed uint32) (r, g, b float32) {
	return SRGBToLinear((packed >> 16) & 0xff),
		SRGBToLinear((packed >> 8) & 0xff),
		SRGBToLinear(packed & 0xff)
}

// normalizeIntensity maps raw intensity to 0-1: values above 1 are assumed
// 8-bit and divided by 255, values at or below 1 are used as-is.
func normalizeIntensity(v float32) float32 {
	if v > 1 {
		return v / 255
	}
	if v < 0 {
		return 0
	}
	return v
}

func clampChannel(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return v
}

func finite(f float32) bool {
	f64 := float64(f)
	return !math.IsNaN(f64) && !math.IsInf(f64, 0)
}

// readScalar reads one little-endian field value as float32.
func readScalar(b []byte, typ byte, size int) (float32, bool) {
	switch typ {
	case 'F':
		switch size {
		case 4:
			if len(b) < 4 {
				return 0, false
			}
			return math.Float32frombits(binary.LittleEndian.Uint32(b)), true
		case 8:
			if len(b) < 8 {
				return 0, false
			}
			return float32(math.Float64frombits(binary.LittleEndian.Uint64(b))), true
		}
	case 'U':
		switch size {
		case 1:
			if len(b) < 1 {
				return 0, false
			}
			return float32(b[0]), true
		case 2:
			if len(b) < 2 {
				return 0, false
			}
			return float32(binary.LittleEndian.Uint16(b)), true
		case 4:
			if len(b) < 4 {
				return 0, false
			}
			return float32(binary.LittleEndian.Uint32(b)), true
		case 8:
			if len(b) < 8 {
				return 0, false
			}
			return float32(binary.LittleEndian.Uint64(b)), true
		}
	case 'I':
		switch size {
		case 1:
			if len(b) < 1 {
				return 0, false
			}
			return float32(int8(b[0])), true
		case 2:
			if len(b) < 2 {
				return 0, false
			}
			return float32(int16(binary.LittleEndian.Uint16(b))), true
		case 4:
			if len(b) < 4 {
				return 0, false
			}
			return float32(int32(binary.LittleEndian.Uint32(b))), true
		case 8:
			if len(b) < 8 {
				return 0, false
			}
			return float32(int64(binary.LittleEndian.Uint64(b))), true
		}
	}
	return 0, false
}
