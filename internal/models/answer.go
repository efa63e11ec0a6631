package models

// Answer payloads submitted by learners, one per question type. Each mirrors
// its question's discriminant and carries only the raw input — correctness is
// always derived by the scoring engine, never stored on the answer.

type MultipleChoiceAnswer struct {
	SelectedOptionID string `json:"selected_option_id"`
}

type TrueFalseAnswer struct {
	// Pointer so "no selection yet" is distinguishable from "false".
	Value *bool `json:"value"`
}

type CheckboxAnswer struct {
	SelectedOptionIDs []string `json:"selected_option_ids"`
}

type FillBlankAnswer struct {
	// Entries maps blank id to the submitted text.
	Entries map[string]string `json:"entries"`
}

type MatchingAnswer struct {
	Pairs []MatchPair `json:"pairs"`
}

type DragDropAnswer struct {
	// Placements maps zone id to the item ids dropped into it.
	Placements map[string][]string `json:"placements"`
}

type EssayAnswer struct {
	Text string `json:"text"`
}

type CodeInputAnswer struct {
	Code     string `json:"code"`
	Language string `json:"language"`
}
