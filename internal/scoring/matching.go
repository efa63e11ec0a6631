package scoring

import (
	"github.com/Sandi19/arctic-siberia-quiz-service/internal/models"
)

// matchMatching scores submitted left/right pairs against the key. Each
// submitted pair is either correct (exactly in the key) or incorrect; key
// pairs whose left id was never paired are missed. Pair order is irrelevant
// and a duplicate submission for the same left id keeps only the first.
func matchMatching(q *models.Question, answerData []byte) (Verdict, error) {
	var content models.MatchingContent
	if err := decodeContent(q, &content); err != nil {
		return Verdict{}, err
	}
	if len(content.CorrectPairs) == 0 {
		return Verdict{}, malformed(q, "no correct pairs defined")
	}

	left := make(map[string]bool, len(content.LeftItems))
	for _, item := range content.LeftItems {
		left[item.ID] = true
	}
	right := make(map[string]bool, len(content.RightItems))
	for _, item := range content.RightItems {
		right[item.ID] = true
	}

	key := make(map[string]string, len(content.CorrectPairs))
	for _, pair := range content.CorrectPairs {
		if !left[pair.LeftID] || !right[pair.RightID] {
			return Verdict{}, malformed(q, "pair %s=%s references an unknown item", pair.LeftID, pair.RightID)
		}
		if _, dup := key[pair.LeftID]; dup {
			return Verdict{}, malformed(q, "left item %q appears in more than one correct pair", pair.LeftID)
		}
		key[pair.LeftID] = pair.RightID
	}

	var answer models.MatchingAnswer
	if err := decodeAnswer(answerData, &answer); err != nil {
		return Verdict{}, err
	}

	submitted := make(map[string]string, len(answer.Pairs))
	for _, pair := range answer.Pairs {
		if _, seen := submitted[pair.LeftID]; !seen {
			submitted[pair.LeftID] = pair.RightID
		}
	}

	v := Verdict{Total: len(key)}
	for leftID, rightID := range submitted {
		if want, ok := key[leftID]; ok && want == rightID {
			v.Correct++
		} else {
			v.Incorrect++
		}
	}
	// A wrong pairing for a keyed left id is both an incorrect selection
	// and a missed correct pairing, so missed is simply the keyed pairs
	// not answered correctly.
	v.Missed = v.Total - v.Correct
	return v, nil
}

// matchDragDrop scores zone placements against the placement key. For each
// zone, items placed that belong there are correct, items placed that do
// not belong (including placements into zones with no keyed items) are
// incorrect, and keyed items never placed in their zone are missed.
// Placement order inside a zone carries no meaning.
func matchDragDrop(q *models.Question, answerData []byte) (Verdict, error) {
	var content models.DragDropContent
	if err := decodeContent(q, &content); err != nil {
		return Verdict{}, err
	}
	if len(content.CorrectPlacements) == 0 {
		return Verdict{}, malformed(q, "no correct placements defined")
	}

	zones := make(map[string]bool, len(content.Zones))
	for _, zone := range content.Zones {
		zones[zone.ID] = true
	}
	items := make(map[string]bool, len(content.Items))
	for _, item := range content.Items {
		items[item.ID] = true
	}

	key := make(map[string]map[string]bool, len(content.CorrectPlacements))
	total := 0
	for zoneID, itemIDs := range content.CorrectPlacements {
		if !zones[zoneID] {
			return Verdict{}, malformed(q, "placement key references unknown zone %q", zoneID)
		}
		set := make(map[string]bool, len(itemIDs))
		for _, itemID := range itemIDs {
			if !items[itemID] {
				return Verdict{}, malformed(q, "placement key references unknown item %q", itemID)
			}
			if !set[itemID] {
				set[itemID] = true
				total++
			}
		}
		key[zoneID] = set
	}
	if total == 0 {
		return Verdict{}, malformed(q, "placement key is empty")
	}

	var answer models.DragDropAnswer
	if err := decodeAnswer(answerData, &answer); err != nil {
		return Verdict{}, err
	}

	v := Verdict{Total: total}
	for zoneID, itemIDs := range answer.Placements {
		keyed := key[zoneID]
		seen := make(map[string]bool, len(itemIDs))
		for _, itemID := range itemIDs {
			if seen[itemID] {
				continue
			}
			seen[itemID] = true
			if keyed != nil && keyed[itemID] {
				v.Correct++
			} else {
				v.Incorrect++
			}
		}
	}
	v.Missed = v.Total - v.Correct
	return v, nil
}
