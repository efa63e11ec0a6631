package scoring

import (
	"math"

	"github.com/Sandi19/arctic-siberia-quiz-service/internal/models"
)

// ScoredResult is the outcome of scoring one answer: points after applying
// the question's credit policy, plus the verdict the points were derived
// from. Pending results carry zero points until a grader scores them.
type ScoredResult struct {
	PointsAwarded  float64 `json:"points_awarded"`
	MaxPoints      int     `json:"max_points"`
	Verdict        Verdict `json:"verdict"`
	IsFullyCorrect bool    `json:"is_fully_correct"`
	Pending        bool    `json:"pending"`
}

// creditPolicy captures the per-question flags that turn a verdict into
// points. The zero value is all-or-nothing.
type creditPolicy struct {
	PartialCredit     bool
	PenalizeIncorrect bool
}

// ScoreAnswer matches the answer and scores the resulting verdict in one
// step. It is the entry point the grading service uses per answer.
func ScoreAnswer(q *models.Question, answerData []byte) (*ScoredResult, error) {
	verdict, err := Match(q, answerData)
	if err != nil {
		return nil, err
	}
	return Score(q, verdict)
}

// Score converts a verdict into points using the question's credit policy
// and point value.
//
// All-or-nothing (the default): full points on a fully correct verdict,
// zero otherwise. With partial credit: points * correct/total. With
// penalizeIncorrect on top: incorrect selections subtract points *
// incorrect/total, floored at zero. The result is rounded half up to two
// decimals and clamped to [0, points].
func Score(q *models.Question, verdict Verdict) (*ScoredResult, error) {
	if verdict.Pending {
		return &ScoredResult{MaxPoints: q.Points, Verdict: verdict, Pending: true}, nil
	}

	policy, err := policyFor(q)
	if err != nil {
		return nil, err
	}

	points := float64(q.Points)
	var awarded float64
	switch {
	case verdict.IsFullyCorrect():
		awarded = points
	case policy.PartialCredit && verdict.Total > 0:
		awarded = points * float64(verdict.Correct) / float64(verdict.Total)
		if policy.PenalizeIncorrect {
			awarded -= points * float64(verdict.Incorrect) / float64(verdict.Total)
		}
	}

	awarded = clamp(round2(awarded), 0, points)
	return &ScoredResult{
		PointsAwarded:  awarded,
		MaxPoints:      q.Points,
		Verdict:        verdict,
		IsFullyCorrect: verdict.IsFullyCorrect(),
	}, nil
}

// policyFor extracts the credit policy flags from the question content.
// Single-valued types have no flags and always score all-or-nothing, and
// fill-blank never penalizes because a blank cannot hold a stray entry.
func policyFor(q *models.Question) (creditPolicy, error) {
	switch q.Type {
	case models.Checkbox:
		var content models.CheckboxContent
		if err := decodeContent(q, &content); err != nil {
			return creditPolicy{}, err
		}
		return creditPolicy{content.PartialCredit, content.PenalizeIncorrect}, nil
	case models.FillBlank:
		var content models.FillBlankContent
		if err := decodeContent(q, &content); err != nil {
			return creditPolicy{}, err
		}
		return creditPolicy{PartialCredit: content.PartialCredit}, nil
	case models.Matching:
		var content models.MatchingContent
		if err := decodeContent(q, &content); err != nil {
			return creditPolicy{}, err
		}
		return creditPolicy{content.PartialCredit, content.PenalizeIncorrect}, nil
	case models.DragDrop:
		var content models.DragDropContent
		if err := decodeContent(q, &content); err != nil {
			return creditPolicy{}, err
		}
		return creditPolicy{content.PartialCredit, content.PenalizeIncorrect}, nil
	default:
		return creditPolicy{}, nil
	}
}

// round2 rounds half away from zero to two decimals. Awarded points are
// never negative, so for this engine it behaves as round half up.
func round2(x float64) float64 {
	return math.Round(x*100) / 100
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
