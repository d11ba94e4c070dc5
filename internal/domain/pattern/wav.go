package pattern

import "encoding/binary"

const wavHeaderSize = 44

// EncodeWAV frames raw PCM data into a standard RIFF/WAVE container.
func EncodeWAV(pcm []byte, f Format) []byte {
	blockAlign := f.FrameSize()
	byteRate := f.SampleRate * blockAlign

	buf := make([]byte, wavHeaderSize+len(pcm))
	le := binary.LittleEndian

	copy(buf[0:4], "RIFF")
	le.PutUint32(buf[4:8], uint32(36+len(pcm)))
	copy(buf[8:12], "WAVE")

	copy(buf[12:16], "fmt ")
	le.PutUint32(buf[16:20], 16) // PCM chunk size
	le.PutUint16(buf[20:22], 1)  // PCM, uncompressed
	le.PutUint16(buf[22:24], uint16(f.Channels))
	le.PutUint32(buf[24:28], uint32(f.SampleRate))
	le.PutUint32(buf[28:32], uint32(byteRate))
	le.PutUint16(buf[32:34], uint16(blockAlign))
	le.PutUint16(buf[34:36], uint16(f.BitDepth))

	copy(buf[36:40], "data")
	le.PutUint32(buf[40:44], uint32(len(pcm)))
	copy(buf[wavHeaderSize:], pcm)

	return buf
}

// RenderWAV synthesizes the pattern and frames it into a WAV container.
func RenderWAV(p Pattern, f Format, amplitude float64) ([]byte, error) {
	pcm, err := Synthesize(p, f, amplitude)
	if err != nil {
		return nil, err
	}
	return EncodeWAV(pcm, f), nil
}
