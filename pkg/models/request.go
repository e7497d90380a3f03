package models

// ChatMessage represents a single message in a chat conversation.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatCompletionRequest is an OpenAI-compatible chat completion request.
type ChatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

// ChatCompletionResponse is an OpenAI-compatible chat completion response.
// Only the fields the remote client reads are decoded.
type ChatCompletionResponse struct {
	ID      string   `json:"id"`
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
	Usage   *Usage   `json:"usage,omitempty"`
}

// Choice represents a single completion choice.
type Choice struct {
	Index        int          `json:"index"`
	Message      *ChatMessage `json:"message,omitempty"`
	FinishReason string       `json:"finish_reason"`
}

// CompletionResult is the outcome of one remote completion attempt.
// Failures carry Error and are never cached.
type CompletionResult struct {
	Success   bool   `json:"success"`
	Response  string `json:"response,omitempty"`
	Source    string `json:"source,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
	TokenInfo string `json:"token_info,omitempty"`
	Model     string `json:"model,omitempty"`
	Usage     *Usage `json:"usage,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Record converts a successful result into the record stored in the brain.
func (r CompletionResult) Record(originalQuery string) AnswerRecord {
	return AnswerRecord{
		OriginalQuery: originalQuery,
		Response:      r.Response,
		Source:        r.Source,
		Timestamp:     r.Timestamp,
		Success:       r.Success,
	}
}
