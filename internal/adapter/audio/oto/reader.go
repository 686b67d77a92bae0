package oto

import (
	"encoding/binary"
	"io"
	"math"
	"sync/atomic"
)

const bytesPerSample = 4 // float32

// pcmReader streams interleaved float32 samples as little endian bytes and counts
// how many samples the output has pulled.
type pcmReader struct {
	samples []float32
	pos     atomic.Int64 // samples consumed
}

func newPCMReader(samples []float32) *pcmReader {
	return &pcmReader{samples: samples}
}

// Read fills p with whole samples. A trailing partial sample slot is left unused.
func (r *pcmReader) Read(p []byte) (int, error) {
	pos := int(r.pos.Load())
	if pos >= len(r.samples) {
		return 0, io.EOF
	}

	n := min(len(p)/bytesPerSample, len(r.samples)-pos)
	for i := range n {
		binary.LittleEndian.PutUint32(p[i*bytesPerSample:], math.Float32bits(r.samples[pos+i]))
	}
	r.pos.Add(int64(n))
	return n * bytesPerSample, nil
}

// consumed returns the number of samples read so far.
func (r *pcmReader) consumed() int64 {
	return r.pos.Load()
}

// exhausted reports whether every sample has been read.
func (r *pcmReader) exhausted() bool {
	return r.pos.Load() >= int64(len(r.samples))
}
