package voice

import "testing"

func loudSamples(n int) []int16 {
	s := make([]int16, n)
	for i := range s {
		if i%2 == 0 {
			s[i] = 20000
		} else {
			s[i] = -20000
		}
	}
	return s
}

func silentSamples(n int) []int16 {
	return make([]int16, n)
}

func TestTrimSilenceStripsLeadingAndTrailingSilence(t *testing.T) {
	sampleRate := 16000
	frameLen := sampleRate * vadFrameMs / 1000

	pcm := append(silentSamples(frameLen*3), loudSamples(frameLen*2)...)
	pcm = append(pcm, silentSamples(frameLen*3)...)

	trimmed, found := TrimSilence(pcm, sampleRate)
	if !found {
		t.Fatal("expected speech to be found")
	}
	if len(trimmed) != frameLen*2 {
		t.Errorf("len(trimmed) = %d, want %d", len(trimmed), frameLen*2)
	}
}

func TestTrimSilenceAllSilenceFindsNoSpeech(t *testing.T) {
	sampleRate := 16000
	pcm := silentSamples(sampleRate)
	trimmed, found := TrimSilence(pcm, sampleRate)
	if found {
		t.Error("expected no speech to be found in all-silence audio")
	}
	if trimmed != nil {
		t.Errorf("trimmed = %v, want nil", trimmed)
	}
}

func TestTrimSilenceEmptyInput(t *testing.T) {
	trimmed, found := TrimSilence(nil, 16000)
	if found || trimmed != nil {
		t.Errorf("expected (nil, false) for empty input, got (%v, %v)", trimmed, found)
	}
}

func TestEncodeDecodeWAVPCM16RoundTrip(t *testing.T) {
	samples := []int16{0, 100, -100, 32767, -32768, 5000}
	wav := EncodeWAVPCM16(samples, 16000)

	decoded, rate, err := DecodeWAVPCM16(wav)
	if err != nil {
		t.Fatalf("DecodeWAVPCM16: %v", err)
	}
	if rate != 16000 {
		t.Errorf("rate = %d, want 16000", rate)
	}
	if len(decoded) != len(samples) {
		t.Fatalf("len(decoded) = %d, want %d", len(decoded), len(samples))
	}
	for i := range samples {
		if decoded[i] != samples[i] {
			t.Errorf("decoded[%d] = %d, want %d", i, decoded[i], samples[i])
		}
	}
}

func TestDecodeWAVPCM16RejectsNonWAV(t *testing.T) {
	if _, _, err := DecodeWAVPCM16([]byte("not a wav file at all, just text")); err != errNotWAV {
		t.Errorf("err = %v, want errNotWAV", err)
	}
}

func TestDecodeWAVPCM16RejectsTooShort(t *testing.T) {
	if _, _, err := DecodeWAVPCM16([]byte("RIFF")); err != errNotWAV {
		t.Errorf("err = %v, want errNotWAV", err)
	}
}
