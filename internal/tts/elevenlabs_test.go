package tts

import "testing"

func TestNewElevenLabsProviderDefaultsVoices(t *testing.T) {
	p := NewElevenLabsProvider("", "", ProviderConfig{})
	voices := p.DefaultVoices()
	if voices.Host.ID != elevenDefaultVoiceHost {
		t.Errorf("Host.ID = %q, want default %q", voices.Host.ID, elevenDefaultVoiceHost)
	}
	if voices.Expert.ID != elevenDefaultVoiceExpert {
		t.Errorf("Expert.ID = %q, want default %q", voices.Expert.ID, elevenDefaultVoiceExpert)
	}
}

func TestNewElevenLabsProviderHonorsExplicitVoices(t *testing.T) {
	p := NewElevenLabsProvider("custom-host", "custom-expert", ProviderConfig{})
	voices := p.DefaultVoices()
	if voices.Host.ID != "custom-host" || voices.Expert.ID != "custom-expert" {
		t.Errorf("voices = %+v, want explicit overrides preserved", voices)
	}
}

func TestElevenLabsProviderName(t *testing.T) {
	p := NewElevenLabsProvider("", "", ProviderConfig{})
	if p.Name() != "elevenlabs" {
		t.Errorf("Name() = %q, want elevenlabs", p.Name())
	}
}

func TestAvailableVoicesElevenLabsIncludesDefaults(t *testing.T) {
	voices, err := AvailableVoices("elevenlabs")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	foundHost, foundExpert := false, false
	for _, v := range voices {
		if v.DefaultFor == "host" {
			foundHost = true
		}
		if v.DefaultFor == "expert" {
			foundExpert = true
		}
	}
	if !foundHost || !foundExpert {
		t.Errorf("voices = %+v, want one marked default for host and one for expert", voices)
	}
}

func TestAvailableVoicesUnknownProvider(t *testing.T) {
	if _, err := AvailableVoices("not-a-real-provider"); err == nil {
		t.Fatal("expected an error for an unknown provider")
	}
}
