package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/aretw0/stepwise/pkg/domain"
	"github.com/mitchellh/mapstructure"
)

// ErrMalformedResponse is returned when the model reply carries no usable JSON.
var ErrMalformedResponse = errors.New("malformed model response")

type stepsResponse struct {
	Steps []any `mapstructure:"steps"`
}

type stepItem struct {
	Description string `mapstructure:"description"`
	Step        string `mapstructure:"step"`
}

type outcomeResponse struct {
	Status  string `mapstructure:"status"`
	Summary string `mapstructure:"summary"`
	Output  string `mapstructure:"output"`
}

// extractJSON returns the outermost JSON object in text, ignoring code fences
// and any prose around it.
func extractJSON(text string) (map[string]any, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("%w: no JSON object found", ErrMalformedResponse)
	}

	var raw map[string]any
	if err := json.Unmarshal([]byte(text[start:end+1]), &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return raw, nil
}

func decode(input any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	return dec.Decode(input)
}

// parseSteps accepts {"steps": ["a", "b"]} as well as
// {"steps": [{"description": "a"}]}.
func parseSteps(text string) ([]string, error) {
	raw, err := extractJSON(text)
	if err != nil {
		return nil, err
	}

	var resp stepsResponse
	if err := decode(raw, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	out := make([]string, 0, len(resp.Steps))
	for _, item := range resp.Steps {
		switch v := item.(type) {
		case string:
			out = append(out, v)
		case map[string]any:
			var s stepItem
			if err := decode(v, &s); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
			}
			if s.Description == "" {
				s.Description = s.Step
			}
			out = append(out, s.Description)
		default:
			return nil, fmt.Errorf("%w: unexpected step %T", ErrMalformedResponse, item)
		}
	}
	return out, nil
}

// parseOutcome decodes a step report. Replies that are not JSON are taken as
// a successful step whose output is the raw text.
func parseOutcome(text string) domain.StepOutcome {
	text = strings.TrimSpace(text)

	raw, err := extractJSON(text)
	if err == nil {
		var resp outcomeResponse
		if err := decode(raw, &resp); err == nil && (resp.Status != "" || resp.Summary != "") {
			return domain.StepOutcome{
				Status:  normalizeStatus(resp.Status),
				Summary: resp.Summary,
				Output:  resp.Output,
			}
		}
	}

	return domain.StepOutcome{
		Status:  domain.StepCompleted,
		Summary: firstLine(text),
		Output:  text,
	}
}

// normalizeStatus maps status synonyms. Anything else is passed through
// unchanged for the engine to reject.
func normalizeStatus(s string) domain.StepStatus {
	switch v := strings.ToLower(strings.TrimSpace(s)); v {
	case "", "completed", "complete", "done", "success", "succeeded", "ok":
		return domain.StepCompleted
	case "failed", "failure", "error", "fail":
		return domain.StepFailed
	default:
		return domain.StepStatus(v)
	}
}

func firstLine(s string) string {
	s = strings.TrimLeft(s, "#*- \t\n")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	const maxLen = 120
	if len(s) > maxLen {
		cut := maxLen
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		s = s[:cut] + "..."
	}
	return strings.TrimSpace(s)
}
