package lifecycle

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyLegalTransitions(t *testing.T) {
	cases := []struct {
		from  Status
		event Event
		want  Status
	}{
		{StatusPending, EventApprove, StatusActive},
		{StatusPending, EventDisable, StatusDisabled},
		{StatusActive, EventDisable, StatusDisabled},
		{StatusDisabled, EventReactivate, StatusActive},
	}
	for _, tc := range cases {
		t.Run(string(tc.from)+"_"+string(tc.event), func(t *testing.T) {
			got, err := Apply(context.Background(), tc.from, tc.event)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestApplyIllegalTransitions(t *testing.T) {
	cases := []struct {
		from  Status
		event Event
	}{
		{StatusActive, EventApprove},
		{StatusDisabled, EventApprove},
		{StatusDisabled, EventDisable},
		{StatusPending, EventReactivate},
		{StatusActive, EventReactivate},
	}
	for _, tc := range cases {
		t.Run(string(tc.from)+"_"+string(tc.event), func(t *testing.T) {
			_, err := Apply(context.Background(), tc.from, tc.event)
			var terr *TransitionError
			require.ErrorAs(t, err, &terr)
			assert.Equal(t, tc.event, terr.Event)
			assert.Equal(t, tc.from, terr.Current)
		})
	}
}

func TestDeriveDisplayStatus(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	past := now.Add(-24 * time.Hour)
	future := now.Add(24 * time.Hour)

	cases := []struct {
		name    string
		stored  Status
		endDate time.Time
		want    DisplayStatus
	}{
		{"disabled dominates future end", StatusDisabled, future, DisplayDisabled},
		{"disabled dominates past end", StatusDisabled, past, DisplayDisabled},
		{"pending before end", StatusPending, future, DisplayPending},
		{"pending past end reads expired", StatusPending, past, DisplayExpired},
		{"active before end", StatusActive, future, DisplayLive},
		{"active past end", StatusActive, past, DisplayExpired},
		{"active at exact end is still live", StatusActive, now, DisplayLive},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, DeriveDisplayStatus(tc.stored, tc.endDate, now))
		})
	}
}

func TestCanEdit(t *testing.T) {
	assert.True(t, CanEdit(StatusPending))
	assert.False(t, CanEdit(StatusActive))
	assert.False(t, CanEdit(StatusDisabled))
}
