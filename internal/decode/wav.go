package decode

import (
	"encoding/binary"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"

	"github.com/taggedzi/tz-player/internal/pcm"
)

// maxWAVFileSize caps the file size the WAV fast path will read into
// memory, so an implausibly large input is rejected before any buffer
// is allocated for it. The sample buffers themselves are not checked.
const maxWAVFileSize = 2 << 30 // 2 GiB

// decodeWAV implements the native WAV fast path.
func decodeWAV(path string) (*pcm.Audio, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat: %w", err)
	}
	if info.Size() > maxWAVFileSize {
		return nil, fmt.Errorf("refusing to read %s file", humanize.Bytes(uint64(info.Size())))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}

	return parseWAV(data)
}

func parseWAV(data []byte) (*pcm.Audio, error) {
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, fmt.Errorf("not a RIFF/WAVE file")
	}

	var (
		haveFmt                              bool
		audioFormat, channels, bitsPerSample uint16
		sampleRate                           uint32
		dataOffset, dataSize                 int
	)

	offset := 12
	for offset+8 <= len(data) {
		chunkID := string(data[offset : offset+4])
		chunkSize := int(binary.LittleEndian.Uint32(data[offset+4 : offset+8]))
		payloadStart := offset + 8
		if chunkSize < 0 || payloadStart+chunkSize > len(data) {
			break
		}

		switch chunkID {
		case "fmt ":
			if chunkSize < 16 {
				return nil, fmt.Errorf("fmt chunk too small")
			}
			audioFormat = binary.LittleEndian.Uint16(data[payloadStart : payloadStart+2])
			channels = binary.LittleEndian.Uint16(data[payloadStart+2 : payloadStart+4])
			sampleRate = binary.LittleEndian.Uint32(data[payloadStart+4 : payloadStart+8])
			bitsPerSample = binary.LittleEndian.Uint16(data[payloadStart+14 : payloadStart+16])
			haveFmt = true
		case "data":
			dataOffset = payloadStart
			dataSize = chunkSize
		}

		advance := chunkSize
		if advance%2 != 0 {
			advance++ // chunks are padded to even size
		}
		offset = payloadStart + advance
	}

	if !haveFmt {
		return nil, fmt.Errorf("missing fmt chunk")
	}
	if dataOffset == 0 && dataSize == 0 {
		return nil, fmt.Errorf("missing data chunk")
	}
	if audioFormat != 1 {
		return nil, fmt.Errorf("unsupported audio_format %d (want PCM)", audioFormat)
	}
	if bitsPerSample != 16 {
		return nil, fmt.Errorf("unsupported bits_per_sample %d (want 16)", bitsPerSample)
	}
	if channels != 1 && channels != 2 {
		return nil, fmt.Errorf("unsupported channel count %d", channels)
	}

	frameSize := int(channels) * 2
	if frameSize == 0 {
		return nil, fmt.Errorf("degenerate frame size")
	}
	frameCount := dataSize / frameSize
	if frameCount == 0 {
		return nil, fmt.Errorf("truncated data chunk")
	}

	left := make([]float32, frameCount)
	right := make([]float32, frameCount)

	for i := 0; i < frameCount; i++ {
		base := dataOffset + i*frameSize
		l := int16(binary.LittleEndian.Uint16(data[base : base+2]))
		left[i] = float32(l) / 32768.0
		if channels == 2 {
			r := int16(binary.LittleEndian.Uint16(data[base+2 : base+4]))
			right[i] = float32(r) / 32768.0
		} else {
			right[i] = left[i]
		}
	}

	return pcm.NewFromStereo(left, right, int(sampleRate)), nil
}
