package relay_test

import (
	"sync/atomic"
	"testing"

	"github.com/myrjola/culprit/internal/relay"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandoff_firstClaimReceivesStream(t *testing.T) {
	t.Parallel()
	handoff := relay.NewHandoff[string, string]()
	stream := make(chan string)
	handoff.Stage("finale", stream)
	go func() {
		stream <- "curtain up"
		close(stream)
		handoff.Retire("finale", stream)
	}()

	claimed := <-handoff.Claim("finale")
	require.NotNil(t, claimed, "first claim should receive the live stream")
	require.Equal(t, "curtain up", <-claimed)
	_, open := <-claimed
	require.False(t, open, "stream should be closed after the producer finishes")
}

func TestHandoff_laterClaimsWaitForRetire(t *testing.T) {
	t.Parallel()
	handoff := relay.NewHandoff[string, string]()
	stream := make(chan string)
	handoff.Stage("finale", stream)
	retired := atomic.Bool{}

	claimed := <-handoff.Claim("finale")
	require.NotNil(t, claimed)

	released := make(chan struct{})
	go func() {
		defer close(released)
		late, open := <-handoff.Claim("finale")
		assert.Nil(t, late, "late claim must not receive the stream")
		assert.False(t, open, "late claim should be released by Retire")
		assert.True(t, retired.Load(), "late claim released before the producer retired")
	}()

	go func() {
		stream <- "curtain up"
		close(stream)
		retired.Store(true)
		handoff.Retire("finale", stream)
	}()

	require.Equal(t, "curtain up", <-claimed)
	<-released
}

func TestHandoff_claimWithoutStage(t *testing.T) {
	t.Parallel()
	handoff := relay.NewHandoff[string, string]()

	claimed, open := <-handoff.Claim("finale")
	require.Nil(t, claimed)
	require.False(t, open, "claim without a staged stream should close immediately")
}

func TestHandoff_stageReplacesStream(t *testing.T) {
	t.Parallel()
	handoff := relay.NewHandoff[string, string]()
	first := make(chan string, 1)
	second := make(chan string, 1)
	second <- "rerun"

	handoff.Stage("finale", first)
	handoff.Stage("finale", second)

	claimed := <-handoff.Claim("finale")
	require.NotNil(t, claimed)
	require.Equal(t, "rerun", <-claimed, "restaging should hand out the newer stream")
}

func TestHandoff_retireIgnoresReplacedStream(t *testing.T) {
	t.Parallel()
	handoff := relay.NewHandoff[string, string]()
	first := make(chan string)
	second := make(chan string, 1)
	second <- "rerun"

	handoff.Stage("finale", first)
	handoff.Stage("finale", second)
	handoff.Retire("finale", first)

	claimed := <-handoff.Claim("finale")
	require.NotNil(t, claimed, "retiring a replaced stream must leave the staged one in place")
	require.Equal(t, "rerun", <-claimed)
}
