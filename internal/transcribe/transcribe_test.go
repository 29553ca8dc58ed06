package transcribe

import (
	"context"
	"io"
	"mime"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
)

func fetcherFor(body string) Fetcher {
	return func(ctx context.Context, url string) (io.ReadCloser, error) {
		return io.NopCloser(strings.NewReader(body)), nil
	}
}

func TestTranscribe_SuccessReturnsText(t *testing.T) {
	var gotContentType string
	var gotFields map[string]string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("ParseMultipartForm: %v", err)
		}
		gotFields = map[string]string{
			"model":    r.FormValue("model"),
			"language": r.FormValue("language"),
		}
		f, hdr, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("FormFile: %v", err)
		}
		defer f.Close()
		if hdr.Filename != "audio.ogg" {
			t.Errorf("filename = %q, want audio.ogg", hdr.Filename)
		}
		data, _ := io.ReadAll(f)
		if string(data) != "fake audio bytes" {
			t.Errorf("uploaded audio = %q", string(data))
		}
		w.Write([]byte(`{"text":"hello world"}`))
	}))
	defer srv.Close()

	text, err := Transcribe(context.Background(), fetcherFor("fake audio bytes"), "https://example.com/voice.ogg", Request{
		Endpoint: srv.URL,
		APIKey:   "sk-test",
		Model:    "whisper-1",
		Language: "en",
	})
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if text != "hello world" {
		t.Errorf("text = %q, want %q", text, "hello world")
	}
	if mt, _, err := mime.ParseMediaType(gotContentType); err != nil || mt != "multipart/form-data" {
		t.Errorf("Content-Type = %q", gotContentType)
	}
	if gotFields["model"] != "whisper-1" || gotFields["language"] != "en" {
		t.Errorf("fields = %+v", gotFields)
	}
}

func TestTranscribe_OmitsLanguageFieldWhenEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.ParseMultipartForm(1 << 20)
		if _, ok := r.MultipartForm.Value["language"]; ok {
			t.Errorf("language field present despite being empty")
		}
		w.Write([]byte(`{"text":"ok"}`))
	}))
	defer srv.Close()

	_, err := Transcribe(context.Background(), fetcherFor("x"), "https://example.com/v.ogg", Request{
		Endpoint: srv.URL,
		Model:    "whisper-1",
	})
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
}

func TestTranscribe_NonTwoXXStatusIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"invalid api key"}`))
	}))
	defer srv.Close()

	_, err := Transcribe(context.Background(), fetcherFor("x"), "https://example.com/v.ogg", Request{
		Endpoint: srv.URL,
		Model:    "whisper-1",
	})
	if err == nil {
		t.Fatal("expected error on 401 response")
	}
}

func TestTranscribe_MissingTextFieldIsMalformed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"duration": 3.2}`))
	}))
	defer srv.Close()

	_, err := Transcribe(context.Background(), fetcherFor("x"), "https://example.com/v.ogg", Request{
		Endpoint: srv.URL,
		Model:    "whisper-1",
	})
	if err == nil || !strings.Contains(err.Error(), "malformed") {
		t.Fatalf("err = %v, want malformed classification", err)
	}
}

func TestTranscribe_MalformedJSONIsMalformed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json at all`))
	}))
	defer srv.Close()

	_, err := Transcribe(context.Background(), fetcherFor("x"), "https://example.com/v.ogg", Request{
		Endpoint: srv.URL,
		Model:    "whisper-1",
	})
	if err == nil || !strings.Contains(err.Error(), "malformed") {
		t.Fatalf("err = %v, want malformed classification", err)
	}
}

func TestTranscribe_CleansUpTempFiles(t *testing.T) {
	before, _ := os.ReadDir(os.TempDir())

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"text":"done"}`))
	}))
	defer srv.Close()

	_, err := Transcribe(context.Background(), fetcherFor("audio"), "https://example.com/v.ogg", Request{
		Endpoint: srv.URL,
		Model:    "whisper-1",
	})
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}

	after, _ := os.ReadDir(os.TempDir())
	for _, e := range after {
		if strings.HasPrefix(e.Name(), "nullclaw-voice-") || strings.HasPrefix(e.Name(), "nullclaw-multipart-") {
			found := false
			for _, b := range before {
				if b.Name() == e.Name() {
					found = true
				}
			}
			if !found {
				t.Errorf("leftover temp file: %s", e.Name())
			}
		}
	}
}
