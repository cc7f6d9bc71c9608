package tts

import "testing"

func TestNewGeminiProviderDefaultsVoicesAndModel(t *testing.T) {
	p := NewGeminiProvider("", "", ProviderConfig{})
	voices := p.DefaultVoices()
	if voices.Host.ID != geminiDefaultVoiceHost {
		t.Errorf("Host.ID = %q, want %q", voices.Host.ID, geminiDefaultVoiceHost)
	}
	if voices.Expert.ID != geminiDefaultVoiceExpert {
		t.Errorf("Expert.ID = %q, want %q", voices.Expert.ID, geminiDefaultVoiceExpert)
	}
	if p.model != geminiDefaultTTSModel {
		t.Errorf("model = %q, want %q", p.model, geminiDefaultTTSModel)
	}
}

func TestNewGeminiProviderHonorsModelOverride(t *testing.T) {
	p := NewGeminiProvider("", "", ProviderConfig{Model: "gemini-custom-tts"})
	if p.model != "gemini-custom-tts" {
		t.Errorf("model = %q, want override honored", p.model)
	}
}

func TestGeminiProviderEndpointIncludesModel(t *testing.T) {
	p := NewGeminiProvider("", "", ProviderConfig{Model: "gemini-custom-tts"})
	want := geminiEndpointBase + "gemini-custom-tts:generateContent"
	if got := p.endpoint(); got != want {
		t.Errorf("endpoint() = %q, want %q", got, want)
	}
}

func TestGeminiProviderName(t *testing.T) {
	p := NewGeminiProvider("", "", ProviderConfig{})
	if p.Name() != "gemini" {
		t.Errorf("Name() = %q, want gemini", p.Name())
	}
}

func TestAvailableVoicesCoversEveryKnownProvider(t *testing.T) {
	for _, name := range []string{"elevenlabs", "google", "gemini", "polly"} {
		voices, err := AvailableVoices(name)
		if err != nil {
			t.Errorf("AvailableVoices(%q): unexpected error: %v", name, err)
			continue
		}
		if len(voices) == 0 {
			t.Errorf("AvailableVoices(%q) returned no voices", name)
		}
	}
}

func TestNewProviderGeminiDispatch(t *testing.T) {
	p, err := NewProvider("gemini", "", "", ProviderConfig{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Name() != "gemini" {
		t.Errorf("Name() = %q, want gemini", p.Name())
	}
}
