package api

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	contractx "github.com/tanpawarit/hcp-interaction-agent/agent/contract"
)

func TestTimestampLayouts(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want time.Time
	}{
		{`"2025-02-01T10:00:00Z"`, time.Date(2025, 2, 1, 10, 0, 0, 0, time.UTC)},
		{`"2025-02-01T12:00:00+02:00"`, time.Date(2025, 2, 1, 10, 0, 0, 0, time.UTC)},
		{`"2025-02-01T10:00:00"`, time.Date(2025, 2, 1, 10, 0, 0, 0, time.UTC)},
		{`"2025-02-01T10:00"`, time.Date(2025, 2, 1, 10, 0, 0, 0, time.UTC)},
		{`"2025-02-01"`, time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)},
	}
	for _, tc := range cases {
		var ts Timestamp
		require.NoError(t, json.Unmarshal([]byte(tc.in), &ts), tc.in)
		assert.True(t, ts.Equal(tc.want), "%s parsed as %s", tc.in, ts.Time)
	}

	var ts Timestamp
	assert.Error(t, json.Unmarshal([]byte(`"02/01/2025"`), &ts))
	assert.Error(t, json.Unmarshal([]byte(`20250201`), &ts))
}

func TestInteractionCardDefaults(t *testing.T) {
	t.Parallel()

	card := newInteractionCard(contractx.LogResult{
		InteractionID:   3,
		Channel:         "",
		InteractionDate: time.Date(2025, 3, 14, 23, 59, 0, 0, time.UTC),
		Sentiment:       strPtr(" "),
	}, false)

	assert.Equal(t, "Meeting", card.Channel)
	assert.Equal(t, "Neutral", card.Sentiment)
	assert.Equal(t, []string{}, card.Topics)
	assert.Equal(t, "23:59", card.Time)
}
