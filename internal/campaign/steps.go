package campaign

import "fmt"

// Step is one named phase of a generation run
type Step string

// Phases in execution order
const (
	StepResearch        Step = "RESEARCH"
	StepFactCheck       Step = "FACT_CHECK"
	StepCompetitorIntel Step = "COMPETITOR_INTEL"
	StepAudienceMapping Step = "AUDIENCE_MAPPING"
	StepSEOAnalysis     Step = "SEO_ANALYSIS"
	StepStrategy        Step = "STRATEGY"
	StepContent         Step = "CONTENT"
	StepCritique        Step = "CRITIQUE"
	StepRevision        Step = "REVISION"
	StepAEOOptimize     Step = "AEO_OPTIMIZE"
	StepPolish          Step = "POLISH"
	StepDone            Step = "DONE"
)

var stepOrder = map[Step]int{
	StepResearch:        0,
	StepFactCheck:       1,
	StepCompetitorIntel: 2,
	StepAudienceMapping: 3,
	StepSEOAnalysis:     4,
	StepStrategy:        5,
	StepContent:         6,
	StepCritique:        7,
	StepRevision:        8,
	StepAEOOptimize:     9,
	StepPolish:          10,
	StepDone:            11,
}

// Profile selects which phases a run reports
type Profile string

const (
	// ProfileFull reports every phase.
	ProfileFull Profile = "full"
	// ProfileMinimal collapses the intelligence and refinement phases.
	ProfileMinimal Profile = "minimal"
)

// Steps returns the ordered phases reported under the profile.
func (p Profile) Steps() []Step {
	if p == ProfileMinimal {
		return []Step{StepResearch, StepFactCheck, StepStrategy, StepContent, StepCritique, StepPolish, StepDone}
	}
	return []Step{
		StepResearch, StepFactCheck, StepCompetitorIntel, StepAudienceMapping, StepSEOAnalysis,
		StepStrategy, StepContent, StepCritique, StepRevision, StepAEOOptimize, StepPolish, StepDone,
	}
}

// Includes reports whether the profile reports the step.
func (p Profile) Includes(s Step) bool {
	for _, step := range p.Steps() {
		if step == s {
			return true
		}
	}
	return false
}

// ParseProfile maps a config value to a Profile, defaulting to full.
func ParseProfile(s string) Profile {
	if Profile(s) == ProfileMinimal {
		return ProfileMinimal
	}
	return ProfileFull
}

// Index returns the position of the step in the fixed phase order.
func (s Step) Index() int {
	if i, ok := stepOrder[s]; ok {
		return i
	}
	return -1
}

// Valid reports whether s is a known phase.
func (s Step) Valid() bool {
	_, ok := stepOrder[s]
	return ok
}

// Before reports whether s precedes other in the phase order.
func (s Step) Before(other Step) bool {
	return s.Index() < other.Index()
}

// ParseStep validates a phase name.
func ParseStep(name string) (Step, error) {
	s := Step(name)
	if !s.Valid() {
		return "", fmt.Errorf("unknown step %q", name)
	}
	return s, nil
}
