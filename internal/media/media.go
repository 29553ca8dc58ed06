// Package media implements the generalized multipart content-part model
// that Transcription & Voice Ingest (spec.md §4.11) and provider chat
// attachments share: turning a file on disk into a typed ContentPart
// (text, image, or audio) without either call site knowing the other's
// concerns.
package media

import (
	"encoding/base64"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

const (
	maxImageSize = 15 * 1024 * 1024
	maxTextSize  = 100 * 1024
)

// ContentPart is one part of a multimodal message: text inline, or
// binary data (image/audio) base64-encoded alongside its MIME type.
type ContentPart struct {
	Type      string `json:"type"` // "text", "image", or "audio"
	Text      string `json:"text,omitempty"`
	MediaType string `json:"media_type,omitempty"`
	Data      string `json:"data,omitempty"` // base64
	FileName  string `json:"file_name,omitempty"`
}

var imageExts = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
}

var audioExts = map[string]string{
	".ogg":  "audio/ogg",
	".oga":  "audio/ogg",
	".mp3":  "audio/mpeg",
	".wav":  "audio/wav",
	".m4a":  "audio/mp4",
	".flac": "audio/flac",
}

var textExts = map[string]bool{
	".txt": true, ".md": true, ".py": true, ".go": true,
	".js": true, ".ts": true, ".jsx": true, ".tsx": true,
	".json": true, ".csv": true, ".xml": true, ".html": true,
	".css": true, ".yaml": true, ".yml": true, ".toml": true,
	".sh": true, ".bash": true, ".zsh": true, ".fish": true,
	".rs": true, ".java": true, ".kt": true, ".c": true,
	".h": true, ".cpp": true, ".hpp": true, ".rb": true,
	".php": true, ".swift": true, ".sql": true, ".r": true,
	".lua": true, ".pl": true, ".env": true, ".ini": true,
	".cfg": true, ".conf": true, ".log": true, ".diff": true,
	".patch": true, ".tex": true, ".rst": true,
}

// ProcessFile reads path from disk and classifies it into a ContentPart:
// images and audio are base64-encoded (subject to maxImageSize), text
// files are inlined with a header/footer marker (subject to
// maxTextSize), and anything else becomes a placeholder description.
func ProcessFile(path string) (*ContentPart, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	fileName := filepath.Base(path)

	if info.Size() == 0 {
		return &ContentPart{Type: "text", Text: fmt.Sprintf("[Empty file: %s]", fileName)}, nil
	}

	if mimeType, ok := imageExts[ext]; ok {
		return encodeBinary(path, fileName, "image", mimeType, info.Size(), maxImageSize)
	}
	if mimeType, ok := audioExts[ext]; ok {
		return encodeBinary(path, fileName, "audio", mimeType, info.Size(), maxImageSize)
	}

	if textExts[ext] || isTextMIME(ext) || isLikelyText(path) {
		if info.Size() > maxTextSize {
			return &ContentPart{Type: "text", Text: fmt.Sprintf("[File too large to include: %s, %.1f KB]", fileName, float64(info.Size())/1024)}, nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read text %s: %w", path, err)
		}
		return &ContentPart{
			Type:     "text",
			Text:     fmt.Sprintf("--- Content of %s ---\n%s\n--- End of %s ---", fileName, string(data), fileName),
			FileName: fileName,
		}, nil
	}

	return &ContentPart{Type: "text", Text: fmt.Sprintf("[Unsupported file: %s, %d bytes]", fileName, info.Size())}, nil
}

func encodeBinary(path, fileName, kind, mimeType string, size, limit int64) (*ContentPart, error) {
	if size > limit {
		label := strings.ToUpper(kind[:1]) + kind[1:]
		return &ContentPart{Type: "text", Text: fmt.Sprintf("[%s too large: %s, %.1f MB]", label, fileName, float64(size)/(1024*1024))}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s %s: %w", kind, path, err)
	}
	return &ContentPart{
		Type:      kind,
		MediaType: mimeType,
		Data:      base64.StdEncoding.EncodeToString(data),
		FileName:  fileName,
	}, nil
}

func isTextMIME(ext string) bool {
	return strings.HasPrefix(mime.TypeByExtension(ext), "text/")
}

func isLikelyText(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()
	buf := make([]byte, 512)
	n, _ := f.Read(buf)
	if n == 0 {
		return false
	}
	ct := http.DetectContentType(buf[:n])
	return strings.HasPrefix(ct, "text/") || ct == "application/json"
}
