// ============================================================================
// etlap - Menu nutrition export
// ============================================================================
//
// Package:     logging
// Description: Log entries and their JSON and text formatters
// Created:     2026-10-18
// License:     MIT
// ============================================================================

package logging

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-json-experiment/json"
)

// Fields represents custom key-value pairs for structured logging
type Fields map[string]interface{}

// Entry represents a single log entry
type Entry struct {
	Timestamp     time.Time
	Level         Level
	Message       string
	Logger        string
	CorrelationID string
	Fields        Fields
}

// Format represents the output format for log messages
type Format int

const (
	FormatJSON Format = iota
	FormatText
)

// ParseFormat converts a format name, defaulting to JSON
func ParseFormat(format string) Format {
	if strings.EqualFold(strings.TrimSpace(format), "text") {
		return FormatText
	}
	return FormatJSON
}

// Formatter defines the interface for log formatters
type Formatter interface {
	Format(entry *Entry) ([]byte, error)
}

// JSONFormatter writes one JSON object per line with sorted keys
type JSONFormatter struct {
	TimestampFormat string
}

// Format formats a log entry as JSON
func (f *JSONFormatter) Format(entry *Entry) ([]byte, error) {
	data := make(map[string]interface{}, len(entry.Fields)+5)
	for k, v := range entry.Fields {
		data[k] = jsonValue(v)
	}

	data["timestamp"] = entry.Timestamp.Format(f.timestampFormat())
	data["level"] = entry.Level.String()
	data["message"] = entry.Message
	if entry.Logger != "" {
		data["logger"] = entry.Logger
	}
	if entry.CorrelationID != "" {
		data["correlation_id"] = entry.CorrelationID
	}

	var buf bytes.Buffer
	if err := json.MarshalWrite(&buf, data, json.Deterministic(true)); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

func (f *JSONFormatter) timestampFormat() string {
	if f.TimestampFormat == "" {
		return time.RFC3339
	}
	return f.TimestampFormat
}

// jsonValue converts values the JSON encoder would reject or render poorly
func jsonValue(v interface{}) interface{} {
	switch val := v.(type) {
	case error:
		return val.Error()
	case time.Duration:
		return float64(val.Nanoseconds()) / 1e6
	case fmt.Stringer:
		return val.String()
	default:
		return v
	}
}

// TextFormatter writes human-readable single line entries
type TextFormatter struct {
	TimestampFormat string
}

// Format formats a log entry as text
func (f *TextFormatter) Format(entry *Entry) ([]byte, error) {
	tsFormat := f.TimestampFormat
	if tsFormat == "" {
		tsFormat = "15:04:05"
	}

	parts := []string{
		entry.Timestamp.Format(tsFormat),
		"[" + entry.Level.ShortString() + "]",
	}
	if entry.Logger != "" {
		parts = append(parts, "{"+entry.Logger+"}")
	}
	if entry.CorrelationID != "" {
		parts = append(parts, "("+entry.CorrelationID+")")
	}
	parts = append(parts, entry.Message)

	if len(entry.Fields) > 0 {
		keys := make([]string, 0, len(entry.Fields))
		for k := range entry.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		fieldParts := make([]string, 0, len(keys))
		for _, k := range keys {
			fieldParts = append(fieldParts, fmt.Sprintf("%s=%v", k, entry.Fields[k]))
		}
		parts = append(parts, "["+strings.Join(fieldParts, " ")+"]")
	}

	return []byte(strings.Join(parts, " ") + "\n"), nil
}

// GetFormatter returns a formatter for the specified format
func GetFormatter(format Format) Formatter {
	if format == FormatText {
		return &TextFormatter{}
	}
	return &JSONFormatter{}
}
