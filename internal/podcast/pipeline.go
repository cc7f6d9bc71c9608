package podcast

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"repocast/internal/apierr"
	"repocast/internal/assembly"
	"repocast/internal/contextbuilder"
	"repocast/internal/ingest"
	"repocast/internal/llm"
	"repocast/internal/script"
	"repocast/internal/storage"
	"repocast/internal/tts"
)

// approxWordsPerMinute mirrors script.wordsPerMinute; segment timing is
// estimated from word count rather than probed from the encoded audio,
// since no example in the corpus wires an audio-duration prober and the
// estimate is only used for the metadata file's display timeline, not for
// assembly itself (FFmpeg concatenation does its own exact timing).
const approxWordsPerMinute = 150

// estimatedCostPerChar is a rough USD/character TTS cost used to populate
// estimated_cost; it is a display estimate, not a billing figure.
const estimatedCostPerChar = 0.00003

// Progress fractions for each build stage, in the monotonically increasing
// order a streaming client observes them. TTS segments fill the range
// between progressTTSStart and progressTTSEnd proportionally to their
// position in the script.
const (
	progressIngest   = 0.0
	progressScript   = 0.1
	progressTTSStart = 0.2
	progressTTSEnd   = 0.8
	progressAssembly = 0.85
	progressStorage  = 0.95
	progressDone     = 1.0
)

// Builder wires the Repository Ingestor, Context Builder, Script
// Synthesizer, TTS Batcher, audio assembly, and the Storage Backend into
// the single `build-or-join` operation the Podcast Pipeline exposes.
type Builder struct {
	Ingester            *ingest.Ingester
	LLMProvider          llm.Provider
	ModelID              string
	ModelContextWindow   int
	TTS                  *tts.ProviderSet
	TTSProviderName      string
	Assembler            assembly.Assembler
	Storage              storage.Backend
	Index                *Index
	Coordinator          *Coordinator
	WorkDir              string
}

// NewBuilder assembles a Builder from already-constructed dependencies.
func NewBuilder(
	ingester *ingest.Ingester,
	llmProvider llm.Provider,
	modelID string,
	modelContextWindow int,
	ttsProviders *tts.ProviderSet,
	ttsProviderName string,
	assembler assembly.Assembler,
	backend storage.Backend,
	index *Index,
	workDir string,
) *Builder {
	return &Builder{
		Ingester:           ingester,
		LLMProvider:        llmProvider,
		ModelID:            modelID,
		ModelContextWindow: modelContextWindow,
		TTS:                ttsProviders,
		TTSProviderName:    ttsProviderName,
		Assembler:          assembler,
		Storage:            backend,
		Index:              index,
		Coordinator:        NewCoordinator(),
		WorkDir:            workDir,
	}
}

// GetOrBuild implements the artifact store's lookup discipline: on a
// cache hit whose content_hash still matches the repository's current
// state and whose three artifact files are all present, it serves the
// cached Record; otherwise it builds a fresh one, joining an already
// in-flight build for the same cache_key if one exists.
func (b *Builder) GetOrBuild(ctx context.Context, repoURL string, durationMinutes int, tone string, voiceSettings VoiceSettings, sender Sender) (*Record, error) {
	if sender == nil {
		sender = NullSender{}
	}

	sender.Send(Event{Type: EventProcessing, Stage: "ingest", Message: "fetching repository", Progress: progressIngest})
	snap, err := b.Ingester.Parse(ctx, repoURL)
	if err != nil {
		sender.Send(Event{Type: EventError, Stage: "ingest", Message: err.Error()})
		return nil, err
	}

	cacheKey, err := ComputeCacheKey(repoURL, durationMinutes, voiceSettings)
	if err != nil {
		return nil, apierr.New(apierr.KindInternal, "podcast", "compute cache key", err)
	}

	if rec, ok := b.Index.Get(cacheKey); ok && rec.ContentHash == snap.ContentHash && b.artifactsExist(ctx, rec) {
		if err := b.Index.Touch(cacheKey); err != nil {
			return nil, apierr.New(apierr.KindInternal, "podcast", "update cache index", err)
		}
		sender.Send(Event{
			Type:      EventComplete,
			Stage:     "cache",
			Message:   "served from cache",
			Progress:  progressDone,
			CacheKey:  rec.CacheKey,
			AudioURL:  "/podcast-audio/" + rec.CacheKey,
			ScriptURL: "/podcast-script/" + rec.CacheKey,
		})
		return rec, nil
	}

	return b.Coordinator.Run(cacheKey, sender, func(fan Sender) (*Record, error) {
		return b.build(ctx, cacheKey, durationMinutes, tone, voiceSettings, snap, fan)
	})
}

func (b *Builder) artifactsExist(ctx context.Context, rec *Record) bool {
	for _, key := range []string{rec.AudioFile, rec.ScriptFile, rec.MetadataFile} {
		if _, err := b.Storage.Get(ctx, key); err != nil {
			return false
		}
	}
	return true
}

func (b *Builder) build(ctx context.Context, cacheKey string, durationMinutes int, tone string, voiceSettings VoiceSettings, snap *ingest.Snapshot, sender Sender) (*Record, error) {
	sender.Send(Event{Type: EventProcessing, Stage: "script", Message: "writing episode script", Progress: progressScript})

	pc := contextbuilder.Build(snap, contextbuilder.PurposePodcast, b.ModelContextWindow)
	synth := script.New(b.LLMProvider, b.ModelID)
	sc, err := synth.Generate(ctx, pc, durationMinutes, tone)
	if err != nil {
		sender.Send(Event{Type: EventError, Stage: "script", Message: err.Error()})
		return nil, err
	}

	sender.Send(Event{Type: EventProcessing, Stage: "tts", Message: "synthesizing audio", Progress: progressTTSStart})
	provider, err := b.TTS.Get(b.TTSProviderName)
	if err != nil {
		sender.Send(Event{Type: EventError, Stage: "tts", Message: err.Error()})
		return nil, apierr.New(apierr.KindProviderOther, "tts", "acquire tts provider", err)
	}

	voices := provider.DefaultVoices()
	if voiceSettings.HostVoiceID != "" {
		voices.Host.ID = voiceSettings.HostVoiceID
	}
	if voiceSettings.ExpertVoiceID != "" {
		voices.Expert.ID = voiceSettings.ExpertVoiceID
	}

	tmpDir, err := os.MkdirTemp(b.WorkDir, "podcast-"+cacheKey+"-")
	if err != nil {
		return nil, apierr.New(apierr.KindInternal, "tts", "create scratch directory", err)
	}
	defer os.RemoveAll(tmpDir)

	totalSegments := len(sc.Turns)
	segments := make([]string, 0, totalSegments)
	segmentTimes := make([]SegmentTimes, 0, totalSegments)
	var warnings []string
	cursorMs := 0

	for _, turn := range sc.Turns {
		voice := voices.Host
		if turn.Speaker == script.SpeakerExpert {
			voice = voices.Expert
		}

		durationMs := wordDurationMs(turn.Text)

		var result tts.AudioResult
		err := tts.WithRetry(ctx, func() error {
			var synthErr error
			result, synthErr = provider.Synthesize(ctx, turn.Text, voice, voiceSettings)
			return synthErr
		})

		var segPath string
		if err != nil {
			// On definitive per-turn failure (retries exhausted),
			// substitute a silence segment sized to the turn's estimated
			// speaking time and record a warning, rather than aborting
			// the whole episode.
			warnings = append(warnings, fmt.Sprintf("turn %d: tts failed after retries, substituted silence: %v", turn.Index, err))
			silencePath := filepath.Join(tmpDir, fmt.Sprintf("turn_%03d_silence.mp3", turn.Index))
			if silErr := assembly.GenerateSilence(ctx, silencePath, float64(durationMs)/1000); silErr != nil {
				return nil, apierr.New(apierr.KindAssemblyFailed, "tts", fmt.Sprintf("generate silence for failed turn %d", turn.Index), silErr)
			}
			segPath = silencePath
		} else {
			var convErr error
			segPath, convErr = writeSegment(ctx, tmpDir, turn.Index, result)
			if convErr != nil {
				return nil, apierr.New(apierr.KindAssemblyFailed, "tts", fmt.Sprintf("prepare turn %d audio", turn.Index), convErr)
			}
		}
		segments = append(segments, segPath)

		segmentTimes = append(segmentTimes, SegmentTimes{TurnIndex: turn.Index, StartMs: cursorMs, EndMs: cursorMs + durationMs})
		cursorMs += durationMs + 200

		segIndex := turn.Index
		segTotal := totalSegments
		segProgress := progressTTSStart + (progressTTSEnd-progressTTSStart)*float64(segIndex+1)/float64(segTotal)
		sender.Send(Event{
			Type:          EventSegmentReady,
			Stage:         "tts",
			Message:       "segment ready",
			Progress:      segProgress,
			SegmentIndex:  &segIndex,
			TotalSegments: &segTotal,
			SegmentURL:    fmt.Sprintf("/podcast-audio/%s#segment=%d", cacheKey, segIndex),
			DurationMs:    durationMs,
		})
	}

	sender.Send(Event{Type: EventProcessing, Stage: "assembly", Message: "combining segments", Progress: progressAssembly})
	combinedPath := filepath.Join(tmpDir, "combined.mp3")
	if err := b.Assembler.Assemble(ctx, segments, tmpDir, combinedPath); err != nil {
		sender.Send(Event{Type: EventError, Stage: "assembly", Message: err.Error()})
		return nil, apierr.New(apierr.KindAssemblyFailed, "assembly", "combine audio segments", err)
	}
	combined, err := os.ReadFile(combinedPath)
	if err != nil {
		return nil, apierr.New(apierr.KindAssemblyFailed, "assembly", "read combined audio", err)
	}

	sender.Send(Event{Type: EventProcessing, Stage: "storage", Message: "storing artifacts", Progress: progressStorage})
	ts := time.Now().UTC().Format("20060102_150405")
	audioKey := fmt.Sprintf("podcasts/audio/podcast_%s_%s.mp3", cacheKey, ts)
	scriptKey := fmt.Sprintf("podcasts/scripts/script_%s_%s.json", cacheKey, ts)
	metaKey := fmt.Sprintf("podcasts/metadata/meta_%s_%s.json", cacheKey, ts)

	if _, err := b.Storage.Put(ctx, audioKey, combined, "audio/mpeg"); err != nil {
		return nil, apierr.New(apierr.KindStorageFailed, "storage", "store audio", err)
	}
	scriptPayload, err := marshalJSON(ScriptFilePayload{Turns: sc.Turns})
	if err != nil {
		return nil, apierr.New(apierr.KindInternal, "storage", "marshal script", err)
	}
	if _, err := b.Storage.Put(ctx, scriptKey, scriptPayload, "application/json"); err != nil {
		return nil, apierr.New(apierr.KindStorageFailed, "storage", "store script", err)
	}
	metaPayload, err := marshalJSON(Metadata{Warnings: warnings, SegmentTimes: segmentTimes})
	if err != nil {
		return nil, apierr.New(apierr.KindInternal, "storage", "marshal metadata", err)
	}
	if _, err := b.Storage.Put(ctx, metaKey, metaPayload, "application/json"); err != nil {
		return nil, apierr.New(apierr.KindStorageFailed, "storage", "store metadata", err)
	}

	now := time.Now()
	rec := &Record{
		CacheKey:        cacheKey,
		RepoURL:         snap.CanonicalURL,
		DurationMinutes: durationMinutes,
		VoiceSettings:   voiceSettings,
		ContentHash:     snap.ContentHash,
		AudioFile:       audioKey,
		ScriptFile:      scriptKey,
		MetadataFile:    metaKey,
		CreatedAt:       now,
		LastAccessed:    now,
		AccessCount:     1,
		EstimatedCost:   estimateCost(sc),
	}
	if err := b.Index.Put(rec); err != nil {
		return nil, apierr.New(apierr.KindInternal, "storage", "update cache index", err)
	}

	sender.Send(Event{
		Type:      EventComplete,
		Stage:     "done",
		Message:   "podcast ready",
		Progress:  progressDone,
		CacheKey:  rec.CacheKey,
		AudioURL:  "/podcast-audio/" + rec.CacheKey,
		ScriptURL: "/podcast-script/" + rec.CacheKey,
	})
	return rec, nil
}

func wordDurationMs(text string) int {
	words := len(splitWords(text))
	if words == 0 {
		return 0
	}
	return words * 60000 / approxWordsPerMinute
}

func estimateCost(sc *script.Script) float64 {
	var chars int
	for _, t := range sc.Turns {
		chars += len(t.Text)
	}
	return float64(chars) * estimatedCostPerChar
}
