package framing

import (
	"bytes"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"io"
	"math"
	"net"
	"testing"

	"github.com/alan-christopher/fock/fock/sampler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"
)

func testBatch() *SampleBatch {
	return &SampleBatch{
		RunID: "3f1c8a52-5b7e-4d0a-9c55-0e6f1b2d7a90",
		Points: []sampler.Point{
			{Theta: 0, X: -1.25},
			{Theta: math.Pi, X: 0.5},
			{Theta: 6.2, X: math.Inf(1)},
		},
	}
}

func testSurface() *Surface {
	return &Surface{
		X: []float64{-1, 0, 1},
		P: []float64{-0.5, 0.5},
		W: [][]float64{{0.1, 0.2}, {0.3, 1 / math.Pi}, {-0.01, 0}},
	}
}

func TestSendReceive(t *testing.T) {
	l, r := net.Pipe()
	w := NewWriter(l)
	rd := NewReader(r)

	// net.Pipe() doesn't do any sort of buffering, so we perform these
	// operations asynchronously.
	wErr := make(chan error, 1)
	go func() {
		if err := w.Write(testBatch()); err != nil {
			wErr <- err
			return
		}
		wErr <- w.Write(testSurface())
	}()

	var batch SampleBatch
	require.NoError(t, rd.Read(&batch))
	var surf Surface
	require.NoError(t, rd.Read(&surf))
	require.NoError(t, <-wErr)

	assert.Equal(t, testBatch(), &batch)
	assert.Equal(t, testSurface(), &surf)
	assert.Equal(t, surf.W, surf.Wigner().W)
}

func TestReadEOF(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewWriter(&buf).Write(testBatch()))
	full := buf.Bytes()

	tcs := []struct {
		name string
		data []byte
		eErr error
	}{
		{"empty", nil, io.EOF},
		{"partial length", full[:2], io.ErrUnexpectedEOF},
		{"partial payload", full[:10], io.ErrUnexpectedEOF},
		{"missing checksum", full[:len(full)-4], io.ErrUnexpectedEOF},
	}
	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			var b SampleBatch
			err := NewReader(bytes.NewReader(tc.data)).Read(&b)
			if !errors.Is(err, tc.eErr) {
				t.Errorf("Read() error == %v, want %v", err, tc.eErr)
			}
		})
	}
}

func TestCorruptFrame(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewWriter(&buf).Write(testSurface()))
	good := buf.Bytes()

	flip := func(i int) []byte {
		b := append([]byte(nil), good...)
		b[i] ^= 0x40
		return b
	}
	negative := append([]byte(nil), good...)
	binary.LittleEndian.PutUint32(negative, uint32(0xffffffff))
	huge := append([]byte(nil), good...)
	binary.LittleEndian.PutUint32(huge, MaxFrameSize+1)

	// A well-checksummed payload whose rows disagree with p.
	bad := (&Surface{X: []float64{0}, P: []float64{0, 1}, W: [][]float64{{1}}}).AppendWire(nil)
	var badFrame bytes.Buffer
	binary.Write(&badFrame, binary.LittleEndian, int32(len(bad)))
	badFrame.Write(bad)
	binary.Write(&badFrame, binary.LittleEndian, crc32.ChecksumIEEE(bad))

	tcs := []struct {
		name string
		data []byte
	}{
		{"payload bit flip", flip(4)},
		{"late payload bit flip", flip(len(good) - 6)},
		{"checksum bit flip", flip(len(good) - 1)},
		{"negative length", negative},
		{"oversized length", huge},
		{"inconsistent surface", badFrame.Bytes()},
	}
	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			var s Surface
			err := NewReader(bytes.NewReader(tc.data)).Read(&s)
			assert.ErrorIs(t, err, ErrCorruptFrame)
		})
	}
}

func TestUnpackedAndUnknownFields(t *testing.T) {
	var b []byte
	b = protowire.AppendTag(b, 9, protowire.VarintType)
	b = protowire.AppendVarint(b, 42)
	b = protowire.AppendTag(b, 2, protowire.Fixed64Type)
	b = protowire.AppendFixed64(b, math.Float64bits(1.5))
	b = protowire.AppendTag(b, 3, protowire.Fixed64Type)
	b = protowire.AppendFixed64(b, math.Float64bits(-2))
	b = protowire.AppendTag(b, 1, protowire.BytesType)
	b = protowire.AppendString(b, "run")

	var batch SampleBatch
	require.NoError(t, batch.UnmarshalWire(b))
	assert.Equal(t, SampleBatch{RunID: "run", Points: []sampler.Point{{Theta: 1.5, X: -2}}}, batch)

	mismatched := protowire.AppendTag(nil, 2, protowire.Fixed64Type)
	mismatched = protowire.AppendFixed64(mismatched, 0)
	assert.Error(t, batch.UnmarshalWire(mismatched))

	assert.Error(t, batch.UnmarshalWire([]byte{0x12, 0x05, 1, 2}), "truncated packed field")
}
