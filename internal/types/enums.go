package types

// RelationshipType is the closed set of semantic link kinds between two
// tags. Anything else is rejected at the HTTP boundary.
type RelationshipType string

const (
	RelationshipRelated     RelationshipType = "related"
	RelationshipToolOf      RelationshipType = "tool_of"
	RelationshipTechniqueOf RelationshipType = "technique_of"
	RelationshipPartOf      RelationshipType = "part_of"
)

func (rt RelationshipType) Valid() bool {
	switch rt {
	case RelationshipRelated, RelationshipToolOf, RelationshipTechniqueOf, RelationshipPartOf:
		return true
	}
	return false
}

type EdgeStatus string

const (
	EdgeStatusActive  EdgeStatus = "active"
	EdgeStatusRetired EdgeStatus = "retired"
)

type EdgeSource string

const (
	EdgeSourceSeed       EdgeSource = "seed"
	EdgeSourceSuggestion EdgeSource = "suggestion"
)

type SuggestionStatus string

const (
	SuggestionPending  SuggestionStatus = "pending"
	SuggestionApproved SuggestionStatus = "approved"
	SuggestionRejected SuggestionStatus = "rejected"
	SuggestionMerged   SuggestionStatus = "merged"
)

// Terminal reports whether the suggestion can no longer change.
func (s SuggestionStatus) Terminal() bool {
	return s == SuggestionApproved || s == SuggestionRejected || s == SuggestionMerged
}

type Vote string

const (
	VoteAgree    Vote = "agree"
	VoteDisagree Vote = "disagree"
	VoteUnsure   Vote = "unsure"
)

func (v Vote) Valid() bool {
	switch v {
	case VoteAgree, VoteDisagree, VoteUnsure:
		return true
	}
	return false
}

// SuggestionSource labels which signal produced a ranked tag candidate.
type SuggestionSource string

const (
	SourceFuzzy        SuggestionSource = "fuzzy"
	SourceRelationship SuggestionSource = "relationship"
	SourceCooccurrence SuggestionSource = "co-occurrence"
	SourceBoth         SuggestionSource = "both"
)

type SuggestMode string

const (
	ModeFuzzy        SuggestMode = "fuzzy"
	ModeRelationship SuggestMode = "relationship"
	ModeHybrid       SuggestMode = "hybrid"
)

type ResolveAction string

const (
	ActionApprove ResolveAction = "approve"
	ActionReject  ResolveAction = "reject"
	ActionModify  ResolveAction = "modify"
)

func (a ResolveAction) Valid() bool {
	switch a {
	case ActionApprove, ActionReject, ActionModify:
		return true
	}
	return false
}
