// Package transcribe implements inbound voice-attachment transcription
// (spec.md §4.11): fetch a downloadable URL from the upstream channel,
// stream the audio to a local temp file, stream a multipart/form-data
// POST built directly to a second temp file (so the audio is never
// fully buffered in memory) to the configured transcription endpoint,
// and parse the JSON {"text": "..."} response. Grounded on
// intelligencedev-manifold's internal/agentd/handlers_media.go
// multipart/form-data builder, adapted to build the body on disk instead
// of in a bytes.Buffer.
package transcribe

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"

	"github.com/nullclaw/nullclaw/internal/scrub"
)

// Fetcher downloads an attachment's bytes given the URL the upstream
// channel returned for it (e.g. a Telegram getFile URL).
type Fetcher func(ctx context.Context, url string) (io.ReadCloser, error)

// Request describes one transcription call.
type Request struct {
	Endpoint string
	APIKey   string
	Model    string
	Language string // optional; omitted from the form when empty
}

// boundaryHexChars is the 32 random hex characters the multipart
// boundary is built from, per spec.md §4.11.
const boundaryHexChars = 32

func newBoundary() (string, error) {
	buf := make([]byte, boundaryHexChars/2)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// Transcribe downloads attachmentURL via fetch, transcribes it against
// req, and returns the resulting text. Every temp file created is
// removed on every exit path, including early returns on error.
func Transcribe(ctx context.Context, fetch Fetcher, attachmentURL string, req Request) (string, error) {
	audioPath, err := downloadToTemp(ctx, fetch, attachmentURL)
	if audioPath != "" {
		defer os.Remove(audioPath)
	}
	if err != nil {
		return "", fmt.Errorf("fetching attachment: %w", err)
	}

	bodyPath, contentType, err := buildMultipartBody(audioPath, req)
	if bodyPath != "" {
		defer os.Remove(bodyPath)
	}
	if err != nil {
		return "", fmt.Errorf("building request body: %w", err)
	}

	return postTranscription(ctx, req, bodyPath, contentType)
}

// downloadToTemp streams fetch(attachmentURL) into a fresh OS temp file
// and returns its path.
func downloadToTemp(ctx context.Context, fetch Fetcher, attachmentURL string) (string, error) {
	src, err := fetch(ctx, attachmentURL)
	if err != nil {
		return "", err
	}
	defer src.Close()

	f, err := os.CreateTemp("", "nullclaw-voice-*.ogg")
	if err != nil {
		return "", err
	}
	path := f.Name()
	defer f.Close()

	if _, err := io.Copy(f, src); err != nil {
		return path, err
	}
	return path, nil
}

// buildMultipartBody writes a multipart/form-data body to a second temp
// file: fields are `file` (filename audio.ogg, content-type audio/ogg),
// `model`, and an optional `language`, per spec.md §4.11. The audio file
// is streamed from disk into the multipart writer, never buffered
// whole in memory.
func buildMultipartBody(audioPath string, req Request) (path, contentType string, err error) {
	boundary, err := newBoundary()
	if err != nil {
		return "", "", err
	}

	out, err := os.CreateTemp("", "nullclaw-multipart-*.tmp")
	if err != nil {
		return "", "", err
	}
	path = out.Name()
	defer out.Close()

	mw := multipart.NewWriter(out)
	if err := mw.SetBoundary(boundary); err != nil {
		return path, "", err
	}

	audio, err := os.Open(audioPath)
	if err != nil {
		return path, "", err
	}
	defer audio.Close()

	part, err := mw.CreatePart(map[string][]string{
		"Content-Disposition": {`form-data; name="file"; filename="audio.ogg"`},
		"Content-Type":        {"audio/ogg"},
	})
	if err != nil {
		return path, "", err
	}
	if _, err := io.Copy(part, audio); err != nil {
		return path, "", err
	}

	if err := mw.WriteField("model", req.Model); err != nil {
		return path, "", err
	}
	if req.Language != "" {
		if err := mw.WriteField("language", req.Language); err != nil {
			return path, "", err
		}
	}
	if err := mw.Close(); err != nil {
		return path, "", err
	}

	return path, mw.FormDataContentType(), nil
}

type transcriptionResponse struct {
	Text *string `json:"text"`
}

// postTranscription streams bodyPath as the POST body and parses the
// JSON {"text": "..."} response. A response missing `text` (or
// malformed JSON) is classified as a malformed response per spec.md §7
// and returned as an error, matching testable scenario 9.
func postTranscription(ctx context.Context, req Request, bodyPath, contentType string) (string, error) {
	body, err := os.Open(bodyPath)
	if err != nil {
		return "", err
	}
	defer body.Close()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, req.Endpoint, body)
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", contentType)
	if req.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.APIKey)
	}

	resp, err := http.DefaultClient.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("transcription endpoint returned %d: %s", resp.StatusCode, scrub.SanitizeAPIError(string(data)))
	}

	var parsed transcriptionResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", fmt.Errorf("malformed transcription response: %w", err)
	}
	if parsed.Text == nil {
		return "", fmt.Errorf("malformed transcription response: missing text field")
	}
	return *parsed.Text, nil
}
