// Package usage normalizes a provider's token accounting into
// {prompt, completion, total} integers, per spec.md §4.13: the usage
// object on a provider response is optional, missing fields default to
// 0, and the sum of prompt+completion is never recomputed against (or
// reconciled with) total — providers disagree on that arithmetic, so
// this package reports whatever each field says independently.
package usage

import "encoding/json"

// Info is the normalized token count for one provider response.
type Info struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// rawUsage accepts every field-name spelling seen across the provider
// pack: OpenAI-compatible (prompt_tokens/completion_tokens/total_tokens),
// Anthropic (input_tokens/output_tokens, no total), and a handful of
// aliases (prompt/completion/total) some OpenAI-compatible endpoints use
// in place of the canonical names.
type rawUsage struct {
	PromptTokens     *int `json:"prompt_tokens"`
	CompletionTokens *int `json:"completion_tokens"`
	TotalTokens      *int `json:"total_tokens"`
	InputTokens      *int `json:"input_tokens"`
	OutputTokens     *int `json:"output_tokens"`
	Prompt           *int `json:"prompt"`
	Completion       *int `json:"completion"`
	Total            *int `json:"total"`
}

func firstNonNil(vals ...*int) int {
	for _, v := range vals {
		if v != nil {
			return *v
		}
	}
	return 0
}

// ParseOptional parses a possibly-absent `usage` object from raw
// provider-response JSON bytes. A nil/empty/malformed payload yields a
// zero Info rather than an error: an absent usage object is a normal,
// not exceptional, response shape.
func ParseOptional(raw []byte) Info {
	if len(raw) == 0 {
		return Info{}
	}
	var r rawUsage
	if err := json.Unmarshal(raw, &r); err != nil {
		return Info{}
	}
	return Info{
		PromptTokens:     firstNonNil(r.PromptTokens, r.InputTokens, r.Prompt),
		CompletionTokens: firstNonNil(r.CompletionTokens, r.OutputTokens, r.Completion),
		TotalTokens:      firstNonNil(r.TotalTokens, r.Total),
	}
}

// FromCounts builds an Info directly from already-typed SDK counts,
// for providers (OpenAI-compatible, Anthropic, Gemini) whose client
// library has already parsed the usage object into typed integers. When
// a provider reports input/output but no total, fallbackTotal should be
// their sum; pass 0 to leave Total at whatever the SDK/wire reported
// (never recomputed when a real total is present).
func FromCounts(prompt, completion, total int) Info {
	return Info{PromptTokens: prompt, CompletionTokens: completion, TotalTokens: total}
}
