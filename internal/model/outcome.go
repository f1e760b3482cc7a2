package model

import "fmt"

// Outcome classifies how a crawl ended. It drives the final notification,
// whether the document is delivered and the process exit status.
type Outcome int

const (
	// OutcomeSuccess means content was extracted and no page failed.
	OutcomeSuccess Outcome = iota

	// OutcomePartialSuccess means content was extracted but some pages failed.
	// The failures are an annotation, not an error.
	OutcomePartialSuccess

	// OutcomeNothingExtracted means no page yielded content and none failed,
	// for example when every page had an empty content container.
	OutcomeNothingExtracted

	// OutcomeFailed means no page yielded content and at least one failed.
	OutcomeFailed

	// OutcomeInvalidInput means the repository identifier was rejected
	// before any network activity.
	OutcomeInvalidInput
)

// outcomeNames maps each Outcome to its stable textual form.
// The text form is used in JSON reports and in the history database.
var outcomeNames = map[Outcome]string{
	OutcomeSuccess:          "success",
	OutcomePartialSuccess:   "partial_success",
	OutcomeNothingExtracted: "nothing_extracted",
	OutcomeFailed:           "failed",
	OutcomeInvalidInput:     "invalid_input",
}

// String returns the stable textual form of the outcome.
func (o Outcome) String() string {
	if name, ok := outcomeNames[o]; ok {
		return name
	}
	return "unknown"
}

// IsSuccess reports whether the outcome delivers a document.
func (o Outcome) IsSuccess() bool {
	return o == OutcomeSuccess || o == OutcomePartialSuccess
}

// MarshalText implements encoding.TextMarshaler.
func (o Outcome) MarshalText() ([]byte, error) {
	if _, ok := outcomeNames[o]; !ok {
		return nil, fmt.Errorf("unknown outcome %d", int(o))
	}
	return []byte(o.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (o *Outcome) UnmarshalText(text []byte) error {
	parsed, err := ParseOutcome(string(text))
	if err != nil {
		return err
	}
	*o = parsed
	return nil
}

// ParseOutcome converts the textual form back to an Outcome.
func ParseOutcome(s string) (Outcome, error) {
	for outcome, name := range outcomeNames {
		if name == s {
			return outcome, nil
		}
	}
	return OutcomeFailed, fmt.Errorf("unknown outcome %q", s)
}
