package campaign

import (
	"encoding/json"
	"fmt"
)

// EventKind discriminates the variants of Event
type EventKind string

// Event kind constants
const (
	KindStep         EventKind = "step"
	KindVoiceProfile EventKind = "voice_analysis"
	KindAnalysis     EventKind = "analysis"
	KindGrounding    EventKind = "grounding"
	KindPost         EventKind = "post"
)

// Event is one unit of progress emitted by a generation run.
// The set of implementations is closed to this package.
type Event interface {
	Kind() EventKind
	sealed()
}

// StepEvent announces that a phase is now active
type StepEvent struct {
	Step Step
}

// VoiceProfileEvent carries the brand voice extracted before research
type VoiceProfileEvent struct {
	Profile BrandVoiceProfile
}

// AnalysisEvent carries the decoded topic analysis
type AnalysisEvent struct {
	Analysis TopicAnalysis
}

// GroundingEvent carries the web sources backing the analysis
type GroundingEvent struct {
	Grounding GroundingMetadata
}

// PostEvent carries one finished post; Index is its position in generation order
type PostEvent struct {
	Index int
	Post  Post
}

func (StepEvent) Kind() EventKind         { return KindStep }
func (VoiceProfileEvent) Kind() EventKind { return KindVoiceProfile }
func (AnalysisEvent) Kind() EventKind     { return KindAnalysis }
func (GroundingEvent) Kind() EventKind    { return KindGrounding }
func (PostEvent) Kind() EventKind         { return KindPost }

func (StepEvent) sealed()         {}
func (VoiceProfileEvent) sealed() {}
func (AnalysisEvent) sealed()     {}
func (GroundingEvent) sealed()    {}
func (PostEvent) sealed()         {}

// envelope is the wire form of an Event used by the SSE endpoint and the run stream
type envelope struct {
	Type  EventKind       `json:"type"`
	Step  Step            `json:"step,omitempty"`
	Index *int            `json:"index,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// MarshalEvent encodes an event as {"type": ..., "step"|"data": ...}.
func MarshalEvent(e Event) ([]byte, error) {
	env := envelope{Type: e.Kind()}
	var data any
	switch ev := e.(type) {
	case StepEvent:
		env.Step = ev.Step
	case VoiceProfileEvent:
		data = ev.Profile
	case AnalysisEvent:
		data = ev.Analysis
	case GroundingEvent:
		data = ev.Grounding
	case PostEvent:
		idx := ev.Index
		env.Index = &idx
		data = ev.Post
	default:
		return nil, fmt.Errorf("unknown event type %T", e)
	}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal %s event: %w", e.Kind(), err)
		}
		env.Data = raw
	}
	return json.Marshal(env)
}

// UnmarshalEvent decodes the wire form produced by MarshalEvent.
func UnmarshalEvent(b []byte) (Event, error) {
	var env envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return nil, fmt.Errorf("failed to decode event: %w", err)
	}
	switch env.Type {
	case KindStep:
		step, err := ParseStep(string(env.Step))
		if err != nil {
			return nil, err
		}
		return StepEvent{Step: step}, nil
	case KindVoiceProfile:
		var p BrandVoiceProfile
		if err := json.Unmarshal(env.Data, &p); err != nil {
			return nil, fmt.Errorf("failed to decode voice profile: %w", err)
		}
		return VoiceProfileEvent{Profile: p}, nil
	case KindAnalysis:
		var a TopicAnalysis
		if err := json.Unmarshal(env.Data, &a); err != nil {
			return nil, fmt.Errorf("failed to decode analysis: %w", err)
		}
		return AnalysisEvent{Analysis: a}, nil
	case KindGrounding:
		var g GroundingMetadata
		if err := json.Unmarshal(env.Data, &g); err != nil {
			return nil, fmt.Errorf("failed to decode grounding: %w", err)
		}
		return GroundingEvent{Grounding: g}, nil
	case KindPost:
		var p Post
		if err := json.Unmarshal(env.Data, &p); err != nil {
			return nil, fmt.Errorf("failed to decode post: %w", err)
		}
		idx := 0
		if env.Index != nil {
			idx = *env.Index
		}
		return PostEvent{Index: idx, Post: p}, nil
	default:
		return nil, fmt.Errorf("unknown event type %q", env.Type)
	}
}
