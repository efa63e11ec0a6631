package scoring

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Sandi19/arctic-siberia-quiz-service/internal/models"
)

// newQuestion builds a question with marshaled content for matcher tests.
func newQuestion(t *testing.T, qType models.QuestionType, points int, content interface{}) *models.Question {
	t.Helper()
	raw, err := json.Marshal(content)
	require.NoError(t, err)
	return &models.Question{
		ID:      1,
		Type:    qType,
		Text:    "test question",
		Points:  points,
		Content: raw,
	}
}

func marshalAnswer(t *testing.T, answer interface{}) []byte {
	t.Helper()
	raw, err := json.Marshal(answer)
	require.NoError(t, err)
	return raw
}

func intPtr(n int) *int { return &n }

func boolPtr(b bool) *bool { return &b }
