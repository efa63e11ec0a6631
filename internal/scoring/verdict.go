package scoring

// Verdict is the raw correctness breakdown a matcher produces for one
// answered question. For single-valued types (multiple choice, true/false)
// Total is 1 and the counts collapse to a boolean; for multi-part types the
// counts enumerate sub-units:
//
//   - Correct:   sub-units the learner selected/placed/filled correctly
//   - Incorrect: sub-units selected or placed that should not have been
//   - Missed:    correct sub-units the learner did not supply
//   - Total:     sub-units possible (the size of the correct set)
//
// A Pending verdict means the type cannot be auto-scored (essay, code) and
// a grader must supply the score out of band.
type Verdict struct {
	Correct   int  `json:"correct"`
	Incorrect int  `json:"incorrect"`
	Missed    int  `json:"missed"`
	Total     int  `json:"total"`
	Pending   bool `json:"pending,omitempty"`
}

// IsFullyCorrect reports whether every required sub-unit matched with no
// stray selections. Pending verdicts are never fully correct.
func (v Verdict) IsFullyCorrect() bool {
	return !v.Pending && v.Total > 0 && v.Correct == v.Total && v.Incorrect == 0 && v.Missed == 0
}

func singleVerdict(correct bool) Verdict {
	if correct {
		return Verdict{Correct: 1, Total: 1}
	}
	return Verdict{Incorrect: 1, Missed: 1, Total: 1}
}

func pendingVerdict() Verdict {
	return Verdict{Pending: true}
}
