package voice

import (
	"encoding/binary"
	"errors"
	"math"
)

var (
	errNotWAV         = errors.New("voice: not a RIFF/WAVE stream")
	errNoWAVData      = errors.New("voice: WAV stream has no data chunk")
	errUnsupportedWAV = errors.New("voice: only 16-bit PCM WAV is supported")
)

// vadFrameMs is the analysis window for the energy-based VAD.
const vadFrameMs = 20

// vadSilenceThreshold is the RMS energy (0..1 of int16 full scale) below
// which a frame is considered silence. No VAD library appears anywhere in
// the pack, so this is a hand-rolled energy detector — see DESIGN.md's
// stdlib justification for internal/voice.
const vadSilenceThreshold = 0.02

// TrimSilence removes leading/trailing silent frames from mono 16-bit PCM
// audio sampled at sampleRate by running a voice-activity detector over
// it. Returns the trimmed samples and whether any speech frame was found
// at all.
func TrimSilence(pcm []int16, sampleRate int) ([]int16, bool) {
	frameLen := sampleRate * vadFrameMs / 1000
	if frameLen <= 0 || len(pcm) == 0 {
		return pcm, false
	}

	numFrames := (len(pcm) + frameLen - 1) / frameLen
	isSpeech := make([]bool, numFrames)
	anySpeech := false
	for i := 0; i < numFrames; i++ {
		start := i * frameLen
		end := start + frameLen
		if end > len(pcm) {
			end = len(pcm)
		}
		if frameRMS(pcm[start:end]) >= vadSilenceThreshold {
			isSpeech[i] = true
			anySpeech = true
		}
	}
	if !anySpeech {
		return nil, false
	}

	first, last := 0, numFrames-1
	for first < numFrames && !isSpeech[first] {
		first++
	}
	for last >= 0 && !isSpeech[last] {
		last--
	}

	startSample := first * frameLen
	endSample := (last + 1) * frameLen
	if endSample > len(pcm) {
		endSample = len(pcm)
	}
	return pcm[startSample:endSample], true
}

func frameRMS(frame []int16) float64 {
	if len(frame) == 0 {
		return 0
	}
	var sumSquares float64
	for _, s := range frame {
		v := float64(s) / 32768.0
		sumSquares += v * v
	}
	return math.Sqrt(sumSquares / float64(len(frame)))
}

// DecodeWAVPCM16 extracts the mono 16-bit PCM samples and sample rate from
// a standard RIFF/WAVE byte stream. Multi-channel input is downmixed by
// averaging channels.
func DecodeWAVPCM16(data []byte) ([]int16, int, error) {
	if len(data) < 44 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, 0, errNotWAV
	}

	var channels uint16 = 1
	var sampleRate uint32 = 16000
	var bitsPerSample uint16 = 16
	var dataStart, dataLen int

	pos := 12
	for pos+8 <= len(data) {
		chunkID := string(data[pos : pos+4])
		chunkSize := int(binary.LittleEndian.Uint32(data[pos+4 : pos+8]))
		body := pos + 8

		switch chunkID {
		case "fmt ":
			if body+16 <= len(data) {
				channels = binary.LittleEndian.Uint16(data[body+2 : body+4])
				sampleRate = binary.LittleEndian.Uint32(data[body+4 : body+8])
				bitsPerSample = binary.LittleEndian.Uint16(data[body+14 : body+16])
			}
		case "data":
			dataStart = body
			dataLen = chunkSize
			if dataStart+dataLen > len(data) {
				dataLen = len(data) - dataStart
			}
		}

		pos = body + chunkSize
		if chunkSize%2 == 1 {
			pos++
		}
	}

	if dataStart == 0 || dataLen <= 0 {
		return nil, 0, errNoWAVData
	}
	if bitsPerSample != 16 {
		return nil, 0, errUnsupportedWAV
	}

	raw := data[dataStart : dataStart+dataLen]
	frameBytes := int(channels) * 2
	numSamples := len(raw) / frameBytes

	samples := make([]int16, numSamples)
	for i := 0; i < numSamples; i++ {
		var sum int32
		for c := 0; c < int(channels); c++ {
			off := i*frameBytes + c*2
			sum += int32(int16(binary.LittleEndian.Uint16(raw[off : off+2])))
		}
		samples[i] = int16(sum / int32(channels))
	}
	return samples, int(sampleRate), nil
}

// EncodeWAVPCM16 is the inverse of DecodeWAVPCM16, used to re-wrap trimmed
// samples before handing them to an STT provider that expects a WAV file.
func EncodeWAVPCM16(samples []int16, sampleRate int) []byte {
	dataLen := len(samples) * 2
	buf := make([]byte, 44+dataLen)

	copy(buf[0:4], "RIFF")
	binary.LittleEndian.PutUint32(buf[4:8], uint32(36+dataLen))
	copy(buf[8:12], "WAVE")
	copy(buf[12:16], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:20], 16)
	binary.LittleEndian.PutUint16(buf[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(buf[22:24], 1) // mono
	binary.LittleEndian.PutUint32(buf[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(buf[28:32], uint32(sampleRate*2))
	binary.LittleEndian.PutUint16(buf[32:34], 2)
	binary.LittleEndian.PutUint16(buf[34:36], 16)
	copy(buf[36:40], "data")
	binary.LittleEndian.PutUint32(buf[40:44], uint32(dataLen))
	for i, s := range samples {
		binary.LittleEndian.PutUint16(buf[44+i*2:46+i*2], uint16(s))
	}
	return buf
}
