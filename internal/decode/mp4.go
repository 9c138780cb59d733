package decode

import (
	"fmt"
	"io"
	"os"

	gomp4 "github.com/abema/go-mp4"
	concentus "github.com/lostromb/concentus/go/opus"
	aacdecoder "github.com/skrashevich/go-aac/pkg/decoder"

	"github.com/taggedzi/tz-player/internal/pcm"
)

// decodeContainer is the native MP4/AAC/Opus fast path: demux with
// go-mp4, decode the audio track in-process with go-aac or Concentus,
// and skip spawning ffmpeg entirely when it works. Unlike a BPM-only
// estimator, which only needs a short prefix of audio, this decodes
// the whole track, because the duration invariant needs an exact
// sample count.
func decodeContainer(path string) (*pcm.Audio, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("container open: %w", err)
	}
	defer f.Close()

	mono, rate, err := extractContainerPCM(f)
	if err != nil {
		return nil, fmt.Errorf("container decode: %w", err)
	}
	if len(mono) == 0 {
		return nil, fmt.Errorf("container decode: no audio samples")
	}

	// Both decode paths below already downmix to mono; left and right
	// are identical copies so the shared pcm.Audio invariant
	// mono[i] == 0.5*(left[i]+right[i]) holds trivially.
	return pcm.NewFromStereo(mono, mono, rate), nil
}

type containerCodec int

const (
	containerCodecUnknown containerCodec = iota
	containerCodecAAC
	containerCodecOpus
)

func detectContainerCodec(rs io.ReadSeeker) containerCodec {
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return containerCodecUnknown
	}

	codec := containerCodecUnknown
	_, _ = gomp4.ReadBoxStructure(rs, func(h *gomp4.ReadHandle) (interface{}, error) {
		if codec != containerCodecUnknown {
			return nil, nil
		}
		switch h.BoxInfo.Type {
		case gomp4.BoxTypeMp4a():
			codec = containerCodecAAC
			return nil, nil
		case gomp4.BoxTypeOpus():
			codec = containerCodecOpus
			return nil, nil
		case gomp4.BoxTypeMoov(), gomp4.BoxTypeTrak(), gomp4.BoxTypeMdia(),
			gomp4.BoxTypeMinf(), gomp4.BoxTypeStbl(), gomp4.BoxTypeStsd():
			_, _ = h.Expand()
		}
		return nil, nil
	})
	return codec
}

func extractContainerPCM(rs io.ReadSeeker) ([]float32, int, error) {
	info, err := gomp4.Probe(rs)
	if err != nil {
		return nil, 0, fmt.Errorf("mp4 probe: %w", err)
	}

	codec := detectContainerCodec(rs)

	track, err := findContainerAudioTrack(info, codec)
	if err != nil {
		return nil, 0, err
	}

	sampleRate := int(track.Timescale)

	switch codec {
	case containerCodecAAC:
		return decodeContainerAAC(rs, track, sampleRate)
	case containerCodecOpus:
		return decodeContainerOpus(rs, track, sampleRate)
	default:
		return nil, 0, fmt.Errorf("unsupported audio codec in container")
	}
}

func findContainerAudioTrack(info *gomp4.ProbeInfo, codec containerCodec) (*gomp4.Track, error) {
	if codec == containerCodecAAC {
		for _, t := range info.Tracks {
			if t.Codec == gomp4.CodecMP4A {
				return t, nil
			}
		}
	}

	for _, t := range info.Tracks {
		if t.Codec == gomp4.CodecAVC1 {
			continue
		}
		if len(t.Samples) == 0 || len(t.Chunks) == 0 {
			continue
		}
		if isAudioTimescale(t.Timescale) {
			return t, nil
		}
	}

	return nil, fmt.Errorf("no audio track found (%d tracks)", len(info.Tracks))
}

func isAudioTimescale(ts uint32) bool {
	switch ts {
	case 8000, 11025, 16000, 22050, 32000, 44100, 48000, 88200, 96000:
		return true
	}
	return false
}

func decodeContainerAAC(rs io.ReadSeeker, track *gomp4.Track, sampleRate int) ([]float32, int, error) {
	asc, err := containerAudioSpecificConfig(rs)
	if err != nil {
		return nil, 0, fmt.Errorf("get AudioSpecificConfig: %w", err)
	}

	dec := aacdecoder.New()
	if err := dec.SetASC(asc); err != nil {
		return nil, 0, fmt.Errorf("set ASC: %w", err)
	}
	if dec.Config.SampleRate > 0 {
		sampleRate = dec.Config.SampleRate
	}

	channels := dec.Config.ChanConfig
	if channels < 1 {
		channels = 1
	}

	samples := containerSampleLocations(track)
	rawBuf := make([]byte, maxSampleSize(samples))

	mono := make([]float32, 0, len(track.Samples)*1024)
	for _, loc := range samples {
		if _, err := rs.Seek(int64(loc.offset), io.SeekStart); err != nil {
			continue
		}
		raw := rawBuf[:loc.size]
		if _, err := io.ReadFull(rs, raw); err != nil {
			continue
		}
		frame, err := dec.DecodeFrame(raw)
		if err != nil {
			continue
		}
		frameLen := len(frame) / channels
		for i := 0; i < frameLen; i++ {
			var sum float32
			for ch := 0; ch < channels; ch++ {
				sum += frame[i*channels+ch]
			}
			mono = append(mono, sum/float32(channels))
		}
	}

	return mono, sampleRate, nil
}

// containerAudioSpecificConfig searches the MP4 for an esds descriptor
// containing the AudioSpecificConfig bytes needed by the AAC decoder.
func containerAudioSpecificConfig(rs io.ReadSeeker) ([]byte, error) {
	paths := []gomp4.BoxPath{
		{gomp4.BoxTypeMoov(), gomp4.BoxTypeTrak(), gomp4.BoxTypeMdia(), gomp4.BoxTypeMinf(), gomp4.BoxTypeStbl(), gomp4.BoxTypeStsd(), gomp4.BoxTypeMp4a(), gomp4.BoxTypeEsds()},
		{gomp4.BoxTypeMoov(), gomp4.BoxTypeTrak(), gomp4.BoxTypeMdia(), gomp4.BoxTypeMinf(), gomp4.BoxTypeStbl(), gomp4.BoxTypeStsd(), gomp4.BoxTypeMp4a(), gomp4.BoxTypeWave(), gomp4.BoxTypeEsds()},
		{gomp4.BoxTypeMoov(), gomp4.BoxTypeTrak(), gomp4.BoxTypeMdia(), gomp4.BoxTypeMinf(), gomp4.BoxTypeStbl(), gomp4.BoxTypeStsd(), gomp4.BoxTypeEnca(), gomp4.BoxTypeEsds()},
	}

	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}

	bips, err := gomp4.ExtractBoxesWithPayload(rs, nil, paths)
	if err != nil {
		return nil, fmt.Errorf("extract esds: %w", err)
	}

	for _, bip := range bips {
		if bip.Info.Type != gomp4.BoxTypeEsds() {
			continue
		}
		esds, ok := bip.Payload.(*gomp4.Esds)
		if !ok {
			continue
		}
		for _, desc := range esds.Descriptors {
			if desc.Tag == gomp4.DecSpecificInfoTag && len(desc.Data) >= 2 {
				return desc.Data, nil
			}
		}
	}

	return nil, fmt.Errorf("AudioSpecificConfig not found in esds")
}

func decodeContainerOpus(rs io.ReadSeeker, track *gomp4.Track, sampleRate int) ([]float32, int, error) {
	decoderRate := sampleRate
	switch decoderRate {
	case 8000, 12000, 16000, 24000, 48000:
	default:
		decoderRate = 48000
	}

	dec, err := concentus.NewOpusDecoder(decoderRate, 2)
	if err != nil {
		return nil, 0, fmt.Errorf("create opus decoder: %w", err)
	}

	samples := containerSampleLocations(track)
	rawBuf := make([]byte, maxSampleSize(samples))

	// Max Opus frame: 120ms @ 48kHz = 5760 samples/channel * 2 channels.
	pcm16 := make([]int16, 5760*2)
	mono := make([]float32, 0, len(track.Samples)*960)

	for _, loc := range samples {
		if loc.size <= 3 {
			continue // padding/silence frame
		}
		if _, err := rs.Seek(int64(loc.offset), io.SeekStart); err != nil {
			continue
		}
		raw := rawBuf[:loc.size]
		if _, err := io.ReadFull(rs, raw); err != nil {
			continue
		}

		nSamples, err := dec.Decode(raw, 0, len(raw), pcm16, 0, 5760, false)
		if err != nil {
			continue
		}

		for i := 0; i < nSamples; i++ {
			l := float32(pcm16[i*2]) / 32768.0
			r := float32(pcm16[i*2+1]) / 32768.0
			mono = append(mono, (l+r)/2)
		}
	}

	return mono, decoderRate, nil
}

type containerSampleLoc struct {
	offset uint64
	size   uint32
}

func containerSampleLocations(track *gomp4.Track) []containerSampleLoc {
	result := make([]containerSampleLoc, 0, len(track.Samples))
	sampleIdx := 0

	for _, chunk := range track.Chunks {
		off := chunk.DataOffset
		for j := uint32(0); j < chunk.SamplesPerChunk; j++ {
			if sampleIdx >= len(track.Samples) {
				return result
			}
			sz := track.Samples[sampleIdx].Size
			result = append(result, containerSampleLoc{offset: off, size: sz})
			off += uint64(sz)
			sampleIdx++
		}
	}

	return result
}

func maxSampleSize(samples []containerSampleLoc) uint32 {
	var max uint32
	for _, loc := range samples {
		if loc.size > max {
			max = loc.size
		}
	}
	return max
}
