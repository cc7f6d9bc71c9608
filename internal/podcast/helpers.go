package podcast

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"repocast/internal/assembly"
	"repocast/internal/tts"
)

func splitWords(text string) []string {
	return strings.Fields(text)
}

func marshalJSON(v any) ([]byte, error) {
	return json.MarshalIndent(v, "", "  ")
}

// writeSegment writes one turn's synthesized audio to tmpDir and returns
// the path of an MP3 file FFmpeg can concatenate, converting non-MP3
// formats via assembly.ConvertToMP3 first.
func writeSegment(ctx context.Context, tmpDir string, turnIndex int, result tts.AudioResult) (string, error) {
	switch result.Format {
	case tts.FormatMP3:
		path := filepath.Join(tmpDir, fmt.Sprintf("turn_%03d.mp3", turnIndex))
		if err := os.WriteFile(path, result.Data, 0644); err != nil {
			return "", fmt.Errorf("write segment %d: %w", turnIndex, err)
		}
		return path, nil
	case tts.FormatPCM, tts.FormatWAV:
		rawExt := "pcm"
		convertFormat := "pcm"
		if result.Format == tts.FormatWAV {
			rawExt = "wav"
			convertFormat = "wav"
		}
		rawPath := filepath.Join(tmpDir, fmt.Sprintf("turn_%03d.%s", turnIndex, rawExt))
		if err := os.WriteFile(rawPath, result.Data, 0644); err != nil {
			return "", fmt.Errorf("write raw segment %d: %w", turnIndex, err)
		}
		mp3Path := filepath.Join(tmpDir, fmt.Sprintf("turn_%03d.mp3", turnIndex))
		if err := assembly.ConvertToMP3(ctx, rawPath, convertFormat, mp3Path); err != nil {
			return "", fmt.Errorf("convert segment %d: %w", turnIndex, err)
		}
		return mp3Path, nil
	default:
		return "", fmt.Errorf("unsupported audio format %q for turn %d", result.Format, turnIndex)
	}
}
