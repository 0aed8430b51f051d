package extract

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/otrade-bot/server/internal/order"
	logx "github.com/otrade-bot/server/pkg/logger"
)

// basic safety limits to avoid pathological model output
const (
	maxContentLen  = 64 * 1024 // 64KB
	maxMetadataLen = 8 * 1024  // 8KB metadata JSON
)

// Metadata is the typed form of the model's state line. Category is already
// collapsed to the fixed enum and Fields holds raw candidate strings that
// still have to pass schema validation before touching order state.
type Metadata struct {
	Category order.Category
	Fields   map[order.FieldName]string
}

func defaultMetadata() Metadata {
	return Metadata{
		Category: order.CategoryDefault,
		Fields:   map[order.FieldName]string{},
	}
}

// ParseReply splits a model response into the natural reply and the metadata
// JSON object the contract puts on the final line. Anything malformed
// degrades to the default metadata rather than failing the turn: a parse
// problem costs one extraction, never the conversation.
func ParseReply(content string) (string, Metadata) {
	if content == "" {
		return "", defaultMetadata()
	}
	if len(content) > maxContentLen {
		logx.Warn().
			Str("component", "extract_parser").
			Int("max_len", maxContentLen).
			Int("orig_len", len(content)).
			Msg("content truncated due to size limit")
		content = truncateRuneSafe(content, maxContentLen)
	}
	content = strings.TrimSpace(content)

	lines := splitNonEmpty(content)
	if len(lines) == 0 {
		return "", defaultMetadata()
	}

	// metadata expected on the final line
	last := lines[len(lines)-1]
	if strings.HasPrefix(last, "{") && strings.HasSuffix(last, "}") {
		if md, ok := decodeMetadata(last); ok {
			return strings.TrimSpace(strings.Join(lines[:len(lines)-1], "\n")), md
		}
	}

	// fallback: take the last JSON object embedded anywhere in the response
	open := strings.LastIndex(content, "{")
	closeIdx := strings.LastIndex(content, "}")
	if open >= 0 && closeIdx > open {
		if md, ok := decodeMetadata(content[open : closeIdx+1]); ok {
			return strings.TrimSpace(content[:open]), md
		}
	}

	logx.Debug().Str("component", "extract_parser").Msg("no metadata object found in model reply")
	return content, defaultMetadata()
}

func decodeMetadata(s string) (Metadata, bool) {
	if len(s) > maxMetadataLen {
		logx.Warn().Str("component", "extract_parser").Msg("metadata object too large, ignoring")
		return Metadata{}, false
	}

	raw, err := decodeObject(s)
	if err != nil {
		// models occasionally emit single-quoted pseudo-JSON
		raw, err = decodeObject(strings.ReplaceAll(s, "'", `"`))
	}
	if err != nil {
		logx.Debug().Err(err).Str("component", "extract_parser").Msg("metadata decode failed")
		return Metadata{}, false
	}

	md := defaultMetadata()
	md.Category = order.ParseCategory(stringValue(raw["category"]))

	for _, f := range order.FieldOrder() {
		if v, ok := fieldValue(raw[string(f)]); ok {
			md.Fields[f] = v
		}
	}
	return md, true
}

func decodeObject(s string) (map[string]any, error) {
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return nil, err
	}
	if m == nil {
		return nil, fmt.Errorf("metadata is not an object")
	}
	return m, nil
}

// fieldValue coerces an untrusted JSON value into a candidate string.
// Nulls and unsupported shapes report absent, never empty-string.
func fieldValue(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", false
	case string:
		s := strings.TrimSpace(t)
		return s, s != ""
	case json.Number:
		return t.String(), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case bool:
		return "", false
	default:
		return "", false
	}
}

func stringValue(v any) string {
	s, _ := fieldValue(v)
	return s
}

// truncateRuneSafe caps s at max bytes without splitting a UTF-8 sequence.
func truncateRuneSafe(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}

func splitNonEmpty(s string) []string {
	var out []string
	for _, l := range strings.Split(s, "\n") {
		if strings.TrimSpace(l) != "" {
			out = append(out, strings.TrimSpace(l))
		}
	}
	return out
}
