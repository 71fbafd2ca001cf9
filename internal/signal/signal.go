package signal

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Source identifies one of the fixed verification signals.
type Source string

const (
	RegistryA     Source = "registry-a"
	RegistryB     Source = "registry-b"
	RegulatorList Source = "regulator-list"
	TradeHistory  Source = "trade-history"
	DomainRecord  Source = "domain-record"
	News          Source = "news"
)

// Sources lists every signal in canonical report order.
var Sources = []Source{RegistryA, RegistryB, RegulatorList, TradeHistory, DomainRecord, News}

// Valid reports whether s belongs to the closed source set.
func (s Source) Valid() bool {
	for _, known := range Sources {
		if s == known {
			return true
		}
	}
	return false
}

// Label is the short display name of the upstream system behind a source.
func (s Source) Label() string {
	switch s {
	case RegistryA:
		return "MCA"
	case RegistryB:
		return "MSME"
	case RegulatorList:
		return "RBI"
	case TradeHistory:
		return "Zauba"
	case DomainRecord:
		return "WHOIS"
	case News:
		return "News"
	default:
		return string(s)
	}
}

// Detail keys read by the weighting step.
const (
	DetailStatus       = "status"
	DetailIsRegistered = "is_registered"
)

// StatusRegistered is the registry status that marks a positive registration.
const StatusRegistered = "REGISTERED"

// Record is the outcome of querying one source. Either Details or Error is set,
// never both, and a failed record always carries zero confidence.
type Record struct {
	Source     Source         `json:"source"`
	Confidence float64        `json:"confidence"`
	Details    map[string]any `json:"details,omitempty"`
	Error      string         `json:"error,omitempty"`
}

// OK builds a successful record.
func OK(source Source, confidence float64, details map[string]any) Record {
	if details == nil {
		details = map[string]any{}
	}
	return Record{Source: source, Confidence: confidence, Details: details}
}

// Failed builds a record for a source that could not be read.
func Failed(source Source, err error) Record {
	msg := "source unavailable"
	if err != nil {
		msg = err.Error()
	}
	return Record{Source: source, Error: msg}
}

// Failed reports whether the record carries an error.
func (r Record) Failed() bool {
	return r.Error != ""
}

// Normalize re-establishes the record invariant for a record produced by
// source. Out-of-range confidences are left alone; the composite is clamped.
func (r Record) Normalize(source Source) Record {
	r.Source = source
	if r.Failed() {
		r.Confidence = 0
		r.Details = nil
	}
	return r
}

// Status returns the string status detail, if any.
func (r Record) Status() string {
	if r.Failed() || r.Details == nil {
		return ""
	}
	s, _ := r.Details[DetailStatus].(string)
	return s
}

// IsRegistered returns the boolean registration detail, false when absent.
func (r Record) IsRegistered() bool {
	if r.Failed() || r.Details == nil {
		return false
	}
	b, _ := r.Details[DetailIsRegistered].(bool)
	return b
}

// Clone returns a deep-enough copy so callers cannot mutate shared details.
func (r Record) Clone() Record {
	if r.Details == nil {
		return r
	}
	details := make(map[string]any, len(r.Details))
	for k, v := range r.Details {
		details[k] = v
	}
	r.Details = details
	return r
}

// MarshalJSON keeps the wire shape flat for failed records.
func (r Record) MarshalJSON() ([]byte, error) {
	type alias Record
	if r.Failed() {
		r.Details = nil
		r.Confidence = 0
	}
	return json.Marshal(alias(r))
}

// Reason classifies why a source could not be read.
type Reason string

const (
	ReasonTimeout   Reason = "timeout"
	ReasonCancelled Reason = "cancelled"
	ReasonFetch     Reason = "fetch"
	ReasonParse     Reason = "parse"
	ReasonPanic     Reason = "panic"
	ReasonInvalid   Reason = "invalid"
)

// ErrSourceUnavailable matches every SourceUnavailableError via errors.Is.
var ErrSourceUnavailable = errors.New("source unavailable")

// SourceUnavailableError wraps any failure reaching or parsing a source.
type SourceUnavailableError struct {
	Source Source
	Reason Reason
	Err    error
}

func (e *SourceUnavailableError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s unavailable [%s]: %v", e.Source, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s unavailable [%s]", e.Source, e.Reason)
}

func (e *SourceUnavailableError) Unwrap() error {
	return e.Err
}

func (e *SourceUnavailableError) Is(target error) bool {
	return target == ErrSourceUnavailable
}

// Unavailable constructs a SourceUnavailableError.
func Unavailable(source Source, reason Reason, err error) *SourceUnavailableError {
	return &SourceUnavailableError{Source: source, Reason: reason, Err: err}
}

// ReasonOf extracts the failure reason, defaulting to fetch.
func ReasonOf(err error) Reason {
	var ue *SourceUnavailableError
	if errors.As(err, &ue) {
		return ue.Reason
	}
	return ReasonFetch
}
