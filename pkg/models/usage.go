package models

import "time"

// Usage represents token usage from an LLM response.
// TotalTokens is a pointer so a usage object without a total can be told
// apart from one reporting zero.
type Usage struct {
	PromptTokens     int  `json:"prompt_tokens"`
	CompletionTokens int  `json:"completion_tokens"`
	TotalTokens      *int `json:"total_tokens,omitempty"`
}

// Total returns the total token count, or zero when the upstream omitted it.
func (u *Usage) Total() int {
	if u == nil || u.TotalTokens == nil {
		return 0
	}
	return *u.TotalTokens
}

// UsageRecord tracks token usage of one remote call.
type UsageRecord struct {
	ID               int64     `json:"id"`
	Model            string    `json:"model"`
	Query            string    `json:"query"`
	PromptTokens     int       `json:"prompt_tokens"`
	CompletionTokens int       `json:"completion_tokens"`
	TotalTokens      int       `json:"total_tokens"`
	LatencyMs        int64     `json:"latency_ms"`
	CreatedAt        time.Time `json:"created_at"`
}

// UsageSummary aggregates usage per model.
type UsageSummary struct {
	Model           string `json:"model"`
	RequestCount    int    `json:"request_count"`
	TotalPrompt     int    `json:"total_prompt"`
	TotalCompletion int    `json:"total_completion"`
	TotalTokens     int    `json:"total_tokens"`
}
