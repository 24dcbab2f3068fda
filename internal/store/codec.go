package store

import (
	"encoding/json"
	"fmt"
	"slices"
	"unicode/utf8"

	"github.com/mitchellh/mapstructure"
)

const jobDescriptionKey = "job_description"

func encodeSnapshot(s *Snapshot) ([]byte, error) {
	out := Snapshot{
		Candidates:     s.Candidates,
		JobDescription: s.JobDescription,
	}
	if out.Candidates == nil {
		out.Candidates = []Candidate{}
	}

	data, err := json.MarshalIndent(out, "", "    ")
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot: %w", err)
	}
	return data, nil
}

// decodeSnapshot parses raw JSON strictly: wrong types, unknown or mis-cased keys, missing ids and
// duplicate ids are rejected.
func decodeSnapshot(data []byte) (*Snapshot, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse snapshot: %w", err)
	}
	if raw == nil {
		return nil, fmt.Errorf("parse snapshot: top level value must be an object")
	}

	var (
		snapshot Snapshot
		meta     mapstructure.Metadata
	)
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Metadata:    &meta,
		Result:      &snapshot,
		TagName:     "json",
		ErrorUnused: true,
		MatchName:   func(mapKey, fieldName string) bool { return mapKey == fieldName },
	})
	if err != nil {
		return nil, fmt.Errorf("build snapshot decoder: %w", err)
	}

	if err := decoder.Decode(raw); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}

	if slices.Contains(meta.Unset, jobDescriptionKey) {
		snapshot.JobDescription = DefaultJobDescription
	}

	if snapshot.Candidates == nil {
		snapshot.Candidates = []Candidate{}
	}

	if err := validateSnapshot(&snapshot); err != nil {
		return nil, err
	}

	return &snapshot, nil
}

// validateSnapshot checks what both backends must be able to store and read back unchanged.
func validateSnapshot(s *Snapshot) error {
	if !utf8.ValidString(s.JobDescription) {
		return fmt.Errorf("job description is not valid UTF-8")
	}

	seen := make(map[string]struct{}, len(s.Candidates))
	for idx, c := range s.Candidates {
		if c.ID == "" {
			return fmt.Errorf("candidate at position %d has no id", idx)
		}
		if _, ok := seen[c.ID]; ok {
			return fmt.Errorf("duplicate candidate id %q", c.ID)
		}
		seen[c.ID] = struct{}{}

		for _, v := range []string{c.ID, c.Name, c.Email, c.Phone, c.Resume} {
			if !utf8.ValidString(v) {
				return fmt.Errorf("candidate %q has a field that is not valid UTF-8", c.ID)
			}
		}
	}
	return nil
}
