package podcast

import (
	"encoding/json"
	"math"
	"net/url"
	"strconv"
	"strings"

	"repocast/internal/hashutil"
)

// NormalizeRepoURL canonicalizes a repository URL for cache-key purposes:
// lowercases the host, strips a trailing "/" and ".git" suffix, and drops
// query strings/fragments. Two URLs that the Repository Ingestor would
// resolve to the same repository must normalize identically.
func NormalizeRepoURL(repoURL string) string {
	u, err := url.Parse(strings.TrimSpace(repoURL))
	if err != nil {
		return strings.ToLower(strings.TrimSuffix(strings.TrimSuffix(repoURL, "/"), ".git"))
	}
	u.Host = strings.ToLower(u.Host)
	u.RawQuery = ""
	u.Fragment = ""
	path := strings.TrimSuffix(u.Path, "/")
	path = strings.TrimSuffix(path, ".git")
	u.Path = path
	return strings.ToLower(u.Scheme) + "://" + u.Host + u.Path
}

// ComputeCacheKey computes:
// SHA256(normalize(repo_url) || duration_minutes || canonical_json(voice_settings)).
// canonical_json marshals voice_settings as a map rather than the struct
// directly: encoding/json always emits map keys in sorted order, and every
// float field is rounded to 4 decimal places first, so two requests that
// differ only in floating-point noise (0.3 vs 0.30001) collapse to the same
// cache key.
func ComputeCacheKey(repoURL string, durationMinutes int, voiceSettings VoiceSettings) (string, error) {
	canonical, err := canonicalVoiceSettingsJSON(voiceSettings)
	if err != nil {
		return "", err
	}
	h := hashutil.NewHasher()
	h.WriteString(NormalizeRepoURL(repoURL))
	h.WriteString(strconv.Itoa(durationMinutes))
	h.WriteString(string(canonical))
	return h.Sum(), nil
}

func canonicalVoiceSettingsJSON(v VoiceSettings) ([]byte, error) {
	return json.Marshal(map[string]any{
		"host_voice_id":     v.HostVoiceID,
		"expert_voice_id":   v.ExpertVoiceID,
		"stability":         round4(v.Stability),
		"similarity_boost":  round4(v.SimilarityBoost),
		"style":             round4(v.Style),
		"use_speaker_boost": v.UseSpeakerBoost,
	})
}

func round4(f float64) float64 {
	return math.Round(f*10000) / 10000
}
