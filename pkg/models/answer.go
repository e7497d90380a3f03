package models

import "time"

// TimestampLayout is ISO-8601 in UTC with millisecond precision.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// Timestamp formats t for storage in an AnswerRecord.
func Timestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// AnswerRecord is one cached question/answer pair stored in the brain.
type AnswerRecord struct {
	OriginalQuery string `json:"original_query"`
	Response      string `json:"response"`
	Source        string `json:"source"`
	Timestamp     string `json:"timestamp"`
	Success       bool   `json:"success"`
}

// BrainEntry pairs a normalized key with its record, used for ordered listings.
type BrainEntry struct {
	Key    string       `json:"key"`
	Record AnswerRecord `json:"record"`
}

// Label is the display line for an entry: the original query (or the key when
// it is missing) followed by the timestamp.
func (e BrainEntry) Label() string {
	label := e.Record.OriginalQuery
	if label == "" {
		label = e.Key
	}
	return label + " — " + e.Record.Timestamp
}

// Credential holds the remote API key and model identifier.
type Credential struct {
	APIKey string `json:"apiKey"`
	Model  string `json:"model"`
}

// HasKey reports whether an API key is configured.
func (c Credential) HasKey() bool {
	return c.APIKey != ""
}

// BrainStats summarises the brain for status displays.
type BrainStats struct {
	Model     string `json:"model"`
	APIKeySet bool   `json:"api_key_set"`
	Entries   int    `json:"entries"`
}
