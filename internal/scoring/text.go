package scoring

import (
	"strings"

	"github.com/Sandi19/arctic-siberia-quiz-service/internal/models"
)

// matchFillBlank checks each blank's entry against that blank's accepted
// answers. Every blank is matched by id, so the order of entries in the
// payload does not matter. A blank with no entry, or an entry that is
// whitespace only, counts as missed.
func matchFillBlank(q *models.Question, answerData []byte) (Verdict, error) {
	var content models.FillBlankContent
	if err := decodeContent(q, &content); err != nil {
		return Verdict{}, err
	}
	if len(content.Blanks) == 0 {
		return Verdict{}, malformed(q, "no blanks defined")
	}
	for _, blank := range content.Blanks {
		if blank.ID == "" {
			return Verdict{}, malformed(q, "blank with empty id")
		}
		if len(blank.CorrectAnswers) == 0 {
			return Verdict{}, malformed(q, "blank %q has no accepted answers", blank.ID)
		}
	}

	var answer models.FillBlankAnswer
	if err := decodeAnswer(answerData, &answer); err != nil {
		return Verdict{}, err
	}

	v := Verdict{Total: len(content.Blanks)}
	for _, blank := range content.Blanks {
		if blankMatches(blank, answer.Entries[blank.ID], content.CaseSensitive, content.ExactMatch) {
			v.Correct++
		}
	}
	v.Missed = v.Total - v.Correct
	return v, nil
}

// blankMatches applies the question's text comparison mode to one entry.
// Comparison always trims surrounding whitespace; case folding and the
// exact/contains mode come from the content flags.
func blankMatches(blank models.BlankField, entry string, caseSensitive, exactMatch bool) bool {
	entry = normalizeText(entry, caseSensitive)
	if entry == "" {
		return false
	}
	for _, accepted := range blank.CorrectAnswers {
		accepted = normalizeText(accepted, caseSensitive)
		if accepted == "" {
			continue
		}
		if exactMatch {
			if entry == accepted {
				return true
			}
		} else if strings.Contains(entry, accepted) || strings.Contains(accepted, entry) {
			return true
		}
	}
	return false
}

func normalizeText(s string, caseSensitive bool) string {
	s = strings.TrimSpace(s)
	if !caseSensitive {
		s = strings.ToLower(s)
	}
	return s
}
