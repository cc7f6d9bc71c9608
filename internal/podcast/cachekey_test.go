package podcast

import "testing"

func TestNormalizeRepoURLLowercasesHost(t *testing.T) {
	got := NormalizeRepoURL("https://GitHub.com/Owner/Repo")
	want := "https://github.com/Owner/Repo"
	if got != want {
		t.Errorf("NormalizeRepoURL() = %q, want %q", got, want)
	}
}

func TestNormalizeRepoURLStripsTrailingSlashAndGit(t *testing.T) {
	got := NormalizeRepoURL("https://github.com/owner/repo.git/")
	want := "https://github.com/owner/repo"
	if got != want {
		t.Errorf("NormalizeRepoURL() = %q, want %q", got, want)
	}
}

func TestNormalizeRepoURLDropsQueryAndFragment(t *testing.T) {
	got := NormalizeRepoURL("https://github.com/owner/repo?tab=readme#section")
	want := "https://github.com/owner/repo"
	if got != want {
		t.Errorf("NormalizeRepoURL() = %q, want %q", got, want)
	}
}

func TestNormalizeRepoURLEquivalentFormsMatch(t *testing.T) {
	a := NormalizeRepoURL("https://github.com/owner/repo")
	b := NormalizeRepoURL("https://GitHub.com/owner/repo.git/")
	if a != b {
		t.Errorf("expected equivalent repo URLs to normalize identically: %q vs %q", a, b)
	}
}

func TestComputeCacheKeyDeterministic(t *testing.T) {
	vs := VoiceSettings{HostVoiceID: "h1", ExpertVoiceID: "e1"}
	k1, err := ComputeCacheKey("https://github.com/owner/repo", 10, vs)
	if err != nil {
		t.Fatalf("ComputeCacheKey: %v", err)
	}
	k2, err := ComputeCacheKey("https://github.com/owner/repo.git/", 10, vs)
	if err != nil {
		t.Fatalf("ComputeCacheKey: %v", err)
	}
	if k1 != k2 {
		t.Errorf("cache keys for equivalent URLs differ: %q vs %q", k1, k2)
	}
}

func TestComputeCacheKeyDiffersOnDuration(t *testing.T) {
	vs := VoiceSettings{HostVoiceID: "h1", ExpertVoiceID: "e1"}
	k1, _ := ComputeCacheKey("https://github.com/owner/repo", 10, vs)
	k2, _ := ComputeCacheKey("https://github.com/owner/repo", 20, vs)
	if k1 == k2 {
		t.Error("expected different durations to produce different cache keys")
	}
}

func TestComputeCacheKeyDiffersOnVoiceSettings(t *testing.T) {
	k1, _ := ComputeCacheKey("https://github.com/owner/repo", 10, VoiceSettings{HostVoiceID: "h1"})
	k2, _ := ComputeCacheKey("https://github.com/owner/repo", 10, VoiceSettings{HostVoiceID: "h2"})
	if k1 == k2 {
		t.Error("expected different voice settings to produce different cache keys")
	}
}

func TestComputeCacheKeyRoundsFloatingPointNoise(t *testing.T) {
	k1, _ := ComputeCacheKey("https://github.com/owner/repo", 10, VoiceSettings{Stability: 0.3})
	k2, _ := ComputeCacheKey("https://github.com/owner/repo", 10, VoiceSettings{Stability: 0.30001})
	if k1 != k2 {
		t.Error("expected voice settings differing only beyond 4 decimal places to produce the same cache key")
	}
}

func TestComputeCacheKeyDiffersBeyondRoundingTolerance(t *testing.T) {
	k1, _ := ComputeCacheKey("https://github.com/owner/repo", 10, VoiceSettings{Stability: 0.3})
	k2, _ := ComputeCacheKey("https://github.com/owner/repo", 10, VoiceSettings{Stability: 0.31})
	if k1 == k2 {
		t.Error("expected voice settings differing within 4 decimal places to produce different cache keys")
	}
}
