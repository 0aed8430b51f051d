package order

import (
	"strconv"
	"time"
)

// State is the per-session structured order record. Exactly one State exists
// per session identifier; all mutation happens under the engine's per-session
// lock. Fields only ever grow more complete within a session; nothing clears
// a set field except an explicit session reset.
type State struct {
	SessionID     string               `json:"session_id"`
	Category      Category             `json:"category"`
	Fields        map[FieldName]string `json:"fields"`
	TurnCount     int                  `json:"turn_count"`
	InvoiceNumber string               `json:"invoice_number,omitempty"`
	CreatedAt     time.Time            `json:"created_at"`
	UpdatedAt     time.Time            `json:"updated_at"`
}

// NewState creates a fresh State for the session with all fields unset.
func NewState(sessionID string) *State {
	now := time.Now().UTC()
	return &State{
		SessionID: sessionID,
		Category:  CategoryDefault,
		Fields:    make(map[FieldName]string),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// MergeResult reports what a merge did with the observed values.
type MergeResult struct {
	// Applied lists fields that were set (or overwritten) this merge.
	Applied []FieldName
	// Rejected lists fields whose value failed schema validation. The engine
	// composes a targeted re-prompt naming each of them.
	Rejected []FieldName
}

// Merge folds extractor observations into the state. Each candidate value is
// validated first; invalid values are dropped and reported. A valid value is
// applied only when the field is currently unset, unless overwrite is
// enabled, so extractor noise cannot flip a confirmed value. Applying the
// same observations twice is a no-op the second time.
func (s *State) Merge(observed map[FieldName]string, overwrite bool) MergeResult {
	var res MergeResult
	if s.Fields == nil {
		s.Fields = make(map[FieldName]string)
	}
	for _, f := range fieldOrder {
		raw, ok := observed[f]
		if !ok || raw == "" {
			// absent from this turn's output never means "retracted"
			continue
		}
		v, valid := Validate(f, raw)
		if !valid {
			res.Rejected = append(res.Rejected, f)
			continue
		}
		if cur, set := s.Fields[f]; set && cur != "" {
			if !overwrite || cur == v {
				continue
			}
		}
		s.Fields[f] = v
		res.Applied = append(res.Applied, f)
	}
	if len(res.Applied) > 0 {
		s.UpdatedAt = time.Now().UTC()
	}
	return res
}

// SetCategory records the latest category, last-write-wins.
func (s *State) SetCategory(c Category) {
	s.Category = ParseCategory(string(c))
}

// ReadyForPDF reports whether every required field is set. It is a pure
// function of Fields, recomputed on every call and never cached.
func (s *State) ReadyForPDF() bool {
	return Complete(s.Fields)
}

// Finalized reports whether this state generation already produced an invoice.
func (s *State) Finalized() bool {
	return s.InvoiceNumber != ""
}

// Missing returns the unset required fields in collection order.
func (s *State) Missing() []FieldName {
	return Missing(s.Fields)
}

// Quantity returns the numeric order quantity when set.
func (s *State) Quantity() (float64, bool) {
	raw := s.Fields[FieldQuantity]
	if raw == "" {
		return 0, false
	}
	n, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Snapshot returns a loggable copy of the state for turn metadata.
func (s *State) Snapshot() map[string]any {
	fields := make(map[string]string, len(s.Fields))
	for k, v := range s.Fields {
		fields[string(k)] = v
	}
	return map[string]any{
		"category":      s.Category.String(),
		"fields":        fields,
		"ready_for_pdf": s.ReadyForPDF(),
		"turn_count":    s.TurnCount,
	}
}

// Clone returns a deep copy, used by in-memory stores to avoid aliasing.
func (s *State) Clone() *State {
	cp := *s
	cp.Fields = make(map[FieldName]string, len(s.Fields))
	for k, v := range s.Fields {
		cp.Fields[k] = v
	}
	return &cp
}
