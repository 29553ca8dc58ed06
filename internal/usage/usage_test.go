package usage

import "testing"

func TestParseOptional_NilPayloadYieldsZero(t *testing.T) {
	got := ParseOptional(nil)
	if got != (Info{}) {
		t.Errorf("ParseOptional(nil) = %+v, want zero value", got)
	}
}

func TestParseOptional_MalformedPayloadYieldsZero(t *testing.T) {
	got := ParseOptional([]byte("not json"))
	if got != (Info{}) {
		t.Errorf("ParseOptional(malformed) = %+v, want zero value", got)
	}
}

func TestParseOptional_CanonicalFieldNames(t *testing.T) {
	got := ParseOptional([]byte(`{"prompt_tokens":10,"completion_tokens":5,"total_tokens":15}`))
	want := Info{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15}
	if got != want {
		t.Errorf("ParseOptional(canonical) = %+v, want %+v", got, want)
	}
}

func TestParseOptional_MissingFieldsDefaultToZero(t *testing.T) {
	got := ParseOptional([]byte(`{"prompt_tokens":10}`))
	want := Info{PromptTokens: 10}
	if got != want {
		t.Errorf("ParseOptional(partial) = %+v, want %+v", got, want)
	}
}

func TestParseOptional_DoesNotReconcileSumAgainstTotal(t *testing.T) {
	// prompt+completion (10+5=15) deliberately disagrees with total (999):
	// the parser must report total as-is, never recomputed.
	got := ParseOptional([]byte(`{"prompt_tokens":10,"completion_tokens":5,"total_tokens":999}`))
	if got.TotalTokens != 999 {
		t.Errorf("TotalTokens = %d, want 999 (unreconciled)", got.TotalTokens)
	}
}

func TestParseOptional_AlternateFieldNames(t *testing.T) {
	got := ParseOptional([]byte(`{"input_tokens":7,"output_tokens":3}`))
	want := Info{PromptTokens: 7, CompletionTokens: 3}
	if got != want {
		t.Errorf("ParseOptional(input/output) = %+v, want %+v", got, want)
	}
}

func TestFromCounts(t *testing.T) {
	got := FromCounts(1, 2, 3)
	want := Info{PromptTokens: 1, CompletionTokens: 2, TotalTokens: 3}
	if got != want {
		t.Errorf("FromCounts = %+v, want %+v", got, want)
	}
}
