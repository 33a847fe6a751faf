package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/myrjola/culprit/internal/e2etest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testLookupEnv configures the server for tests: random port, in-memory
// database, and an instant finale so flows finish without waiting.
func testLookupEnv(overrides map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		if value, ok := overrides[key]; ok {
			return value, true
		}
		switch key {
		case "CULPRIT_ADDR":
			return "localhost:0", true
		case "CULPRIT_SQLITE_URL":
			return ":memory:", true
		case "CULPRIT_FINALE_BEAT_SECONDS":
			return "0", true
		default:
			return "", false
		}
	}
}

func startTestServer(t *testing.T, overrides map[string]string) *e2etest.Server {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	server, err := e2etest.StartServer(ctx, io.Discard, testLookupEnv(overrides), run)
	require.NoError(t, err)
	return server
}

// examineSpot walks to a scene and submits the examination form for one spot.
func examineSpot(t *testing.T, ctx context.Context, client *e2etest.Client, sceneID, spotID string) *goquery.Document {
	t.Helper()
	doc, err := client.SubmitForm(ctx, "/scenes/"+sceneID, fmt.Sprintf("/scenes/%s/spots/%s", sceneID, spotID))
	require.NoError(t, err)
	return doc
}

func continueStatement(t *testing.T, ctx context.Context, client *e2etest.Client, doc *goquery.Document) *goquery.Document {
	t.Helper()
	next, err := client.SubmitDocForm(ctx, doc, "form[action='/confrontation/continue']")
	require.NoError(t, err)
	return next
}

// presentEvidence submits the evidence tray form carrying the given clue.
func presentEvidence(t *testing.T, ctx context.Context, client *e2etest.Client, doc *goquery.Document, clueID string) *goquery.Document {
	t.Helper()
	next, err := client.SubmitDocForm(ctx, doc, fmt.Sprintf("form:has(input[value='%s'])", clueID))
	require.NoError(t, err)
	return next
}

// runCraneVictory plays the winning line against Dr. Crane and returns the
// document the browser lands on once the confrontation resolves.
func runCraneVictory(t *testing.T, ctx context.Context, client *e2etest.Client) *goquery.Document {
	t.Helper()
	examineSpot(t, ctx, client, "study", "desk")
	examineSpot(t, ctx, client, "study", "side-table")
	examineSpot(t, ctx, client, "study", "drawer")
	examineSpot(t, ctx, client, "garden", "flowerbed")
	examineSpot(t, ctx, client, "hall", "doctors-bag")

	doc, err := client.SubmitForm(ctx, "/accuse", "/accuse/crane")
	require.NoError(t, err)

	doc = continueStatement(t, ctx, client, doc)
	doc = presentEvidence(t, ctx, client, doc, "garden-footprints")
	doc = presentEvidence(t, ctx, client, doc, "appointment-book")
	doc = continueStatement(t, ctx, client, doc)
	doc = presentEvidence(t, ctx, client, doc, "brandy-glass")
	return continueStatement(t, ctx, client, doc)
}

// waitForFinishedFinale polls the confrontation page until the finale playback
// has delivered its last beat.
func waitForFinishedFinale(t *testing.T, ctx context.Context, client *e2etest.Client) *goquery.Document {
	t.Helper()
	var doc *goquery.Document
	require.Eventually(t, func() bool {
		var err error
		doc, err = client.GetDoc(ctx, "/confrontation")
		if err != nil {
			return false
		}
		return doc.Find("#beat-list[data-finished='true']").Length() == 1
	}, 5*time.Second, 20*time.Millisecond)
	return doc
}

func TestHomePage(t *testing.T) {
	server := startTestServer(t, nil)
	client, err := server.NewClient()
	require.NoError(t, err)
	ctx := context.Background()

	doc, err := client.GetDoc(ctx, "/")
	require.NoError(t, err)

	assert.Equal(t, "The Larkspur Letters", doc.Find("h1").First().Text())
	assert.Contains(t, doc.Text(), "0 of 8 clues in your notebook.")
	assert.Equal(t, 4, doc.Find("a[href^='/scenes/']").Length(), "every scene gets a link")
	assert.Contains(t, doc.Text(), "Dr. Felix Crane")
	assert.Contains(t, doc.Text(), "Vivian Larkspur")
	assert.Contains(t, doc.Text(), "Madame Claudine Moreau")
}

func TestExamineSpotDiscoversClue(t *testing.T) {
	server := startTestServer(t, nil)
	client, err := server.NewClient()
	require.NoError(t, err)
	ctx := context.Background()

	doc := examineSpot(t, ctx, client, "study", "desk")
	assert.Contains(t, doc.Text(), "Torn cheque added to your notebook.")
	assert.Equal(t, 1, doc.Find(".badge").Length(), "the examined spot is marked")

	// Examining the same spot again does not duplicate the discovery.
	doc = examineSpot(t, ctx, client, "study", "desk")
	assert.Equal(t, 1, doc.Find(".badge").Length())

	doc, err = client.GetDoc(ctx, "/notebook")
	require.NoError(t, err)
	assert.Contains(t, doc.Text(), "Torn cheque")
	assert.NotContains(t, doc.Text(), "No clues yet")

	doc, err = client.GetDoc(ctx, "/")
	require.NoError(t, err)
	assert.Contains(t, doc.Text(), "1 of 8 clues in your notebook.")
}

func TestAccusationGate(t *testing.T) {
	server := startTestServer(t, nil)
	client, err := server.NewClient()
	require.NoError(t, err)
	ctx := context.Background()

	// An empty notebook does not open the accusation.
	doc, err := client.GetDoc(ctx, "/accuse")
	require.NoError(t, err)
	assert.Contains(t, doc.Text(), "need 5, have 0")
	assert.Contains(t, doc.Text(), "0 of 5 required clues found.")
	assert.Zero(t, doc.Find("form[action='/accuse/crane']").Length())

	// Five clues that cannot carry the confrontation still refuse.
	examineSpot(t, ctx, client, "study", "desk")
	examineSpot(t, ctx, client, "study", "drawer")
	examineSpot(t, ctx, client, "library", "writing-desk")
	examineSpot(t, ctx, client, "library", "ledger")
	examineSpot(t, ctx, client, "hall", "coat-rack")

	doc, err = client.GetDoc(ctx, "/accuse")
	require.NoError(t, err)
	assert.Contains(t, doc.Text(), "evidence essential to the case is still missing")

	// The missing essentials open the gallery.
	examineSpot(t, ctx, client, "garden", "flowerbed")
	examineSpot(t, ctx, client, "study", "side-table")

	doc, err = client.GetDoc(ctx, "/accuse")
	require.NoError(t, err)
	assert.Contains(t, doc.Text(), "You have 2 attempts left.")
	assert.Equal(t, 1, doc.Find("form[action='/accuse/crane']").Length())
	assert.Equal(t, 1, doc.Find("form[action='/accuse/vivian']").Length())
	assert.Equal(t, 1, doc.Find("form[action='/accuse/moreau']").Length())
}

func TestVictoryConfrontation(t *testing.T) {
	server := startTestServer(t, nil)
	client, err := server.NewClient()
	require.NoError(t, err)
	ctx := context.Background()

	examineSpot(t, ctx, client, "study", "desk")
	examineSpot(t, ctx, client, "study", "side-table")
	examineSpot(t, ctx, client, "study", "drawer")
	examineSpot(t, ctx, client, "garden", "flowerbed")
	examineSpot(t, ctx, client, "hall", "doctors-bag")

	doc, err := client.SubmitForm(ctx, "/accuse", "/accuse/crane")
	require.NoError(t, err)
	assert.Contains(t, doc.Text(), "Statement 1 of 6")
	assert.Contains(t, doc.Text(), "It was you, Doctor")

	doc = continueStatement(t, ctx, client, doc)
	assert.Contains(t, doc.Text(), "Statement 2 of 6")

	// Evidence for a later statement is handed back without penalty.
	doc = presentEvidence(t, ctx, client, doc, "appointment-book")
	assert.Contains(t, doc.Text(), "There is something to that, but not yet. Hold on to it.")
	assert.Zero(t, doc.Find(".pip-filled").Length())

	doc = presentEvidence(t, ctx, client, doc, "garden-footprints")
	assert.Contains(t, doc.Text(), "A dozen guests saw an empty chair")
	assert.Contains(t, doc.Text(), "Statement 3 of 6")

	doc = presentEvidence(t, ctx, client, doc, "appointment-book")
	doc = continueStatement(t, ctx, client, doc)
	assert.Contains(t, doc.Text(), "Statement 5 of 6")

	doc = presentEvidence(t, ctx, client, doc, "brandy-glass")
	doc = continueStatement(t, ctx, client, doc)

	assert.Contains(t, doc.Text(), "The confession")

	doc = waitForFinishedFinale(t, ctx, client)
	text := doc.Text()
	assert.Contains(t, text, "Thirty years I have been Doctor Crane")
	assert.Contains(t, text, "The evidence that mattered")
	assert.Contains(t, text, "Case closed")

	// The closed case locks the accusation and shows on the front page.
	doc, err = client.GetDoc(ctx, "/")
	require.NoError(t, err)
	assert.Contains(t, doc.Text(), "The case is closed. You named the culprit.")

	doc, err = client.GetDoc(ctx, "/accuse")
	require.NoError(t, err)
	assert.Contains(t, doc.Text(), "the case is already closed")

	// A new game wipes the slate.
	doc, err = client.SubmitForm(ctx, "/", "/newgame")
	require.NoError(t, err)
	assert.Contains(t, doc.Text(), "A fresh case file. The house remembers nothing.")
	assert.Contains(t, doc.Text(), "0 of 8 clues in your notebook.")
}

func TestCaseGoesCold(t *testing.T) {
	server := startTestServer(t, nil)
	client, err := server.NewClient()
	require.NoError(t, err)
	ctx := context.Background()

	examineSpot(t, ctx, client, "study", "desk")
	examineSpot(t, ctx, client, "study", "side-table")
	examineSpot(t, ctx, client, "study", "drawer")
	examineSpot(t, ctx, client, "garden", "flowerbed")
	examineSpot(t, ctx, client, "library", "writing-desk")
	examineSpot(t, ctx, client, "library", "ledger")

	// First accusation: Vivian answers every statement, so the accusation
	// completes against an innocent suspect and burns an attempt.
	doc, err := client.SubmitForm(ctx, "/accuse", "/accuse/vivian")
	require.NoError(t, err)
	assert.Contains(t, doc.Text(), "Statement 1 of 3")

	doc = continueStatement(t, ctx, client, doc)
	doc = presentEvidence(t, ctx, client, doc, "vivian-letter")
	assert.Contains(t, doc.Text(), "This letter is in your hand")
	doc = presentEvidence(t, ctx, client, doc, "garden-footprints")

	assert.Contains(t, doc.Text(), "The wrong name")
	doc = waitForFinishedFinale(t, ctx, client)
	assert.Contains(t, doc.Text(), "You have wasted your accusation on me")
	assert.Contains(t, doc.Text(), "One accusation remains. Make it count.")

	doc, err = client.GetDoc(ctx, "/")
	require.NoError(t, err)
	assert.Contains(t, doc.Text(), "One accusation attempt remains.")

	doc, err = client.GetDoc(ctx, "/accuse")
	require.NoError(t, err)
	assert.Contains(t, doc.Text(), "This is your last attempt.")
	assert.Equal(t, 1, doc.Find(".badge-warn").Length())

	// Cancelling mid-confrontation costs nothing.
	doc, err = client.SubmitForm(ctx, "/accuse", "/accuse/moreau")
	require.NoError(t, err)
	doc = continueStatement(t, ctx, client, doc)
	doc = presentEvidence(t, ctx, client, doc, "torn-cheque")
	assert.Contains(t, doc.Text(), "Careful, detective. That is mistake 1 of 3.")
	assert.Equal(t, 1, doc.Find(".pip-filled").Length())

	doc, err = client.SubmitDocForm(ctx, doc, "form[action='/confrontation/cancel']")
	require.NoError(t, err)
	assert.Contains(t, doc.Text(), "You withdraw the accusation. The investigation continues.")

	doc, err = client.GetDoc(ctx, "/accuse")
	require.NoError(t, err)
	assert.Contains(t, doc.Text(), "This is your last attempt.")
	assert.Equal(t, 1, doc.Find(".badge-warn").Length(), "a cancelled accusation leaves no mark")

	// Second accusation: Moreau. Three wrong presentations end the case.
	doc, err = client.SubmitForm(ctx, "/accuse", "/accuse/moreau")
	require.NoError(t, err)
	doc = continueStatement(t, ctx, client, doc)
	assert.Zero(t, doc.Find(".pip-filled").Length(), "the mistake meter starts fresh")

	doc = presentEvidence(t, ctx, client, doc, "torn-cheque")
	assert.Contains(t, doc.Text(), "Careful, detective. That is mistake 1 of 3.")

	// Evidence Moreau answers for later is still a free probe.
	doc = presentEvidence(t, ctx, client, doc, "appointment-book")
	assert.Contains(t, doc.Text(), "There is something to that, but not yet. Hold on to it.")
	assert.Equal(t, 1, doc.Find(".pip-filled").Length())

	doc = presentEvidence(t, ctx, client, doc, "vivian-letter")
	assert.Contains(t, doc.Text(), "The room turns against you. Mistake 2 of 3.")

	doc = presentEvidence(t, ctx, client, doc, "garden-footprints")
	assert.Contains(t, doc.Text(), "Mistake 3 of 3. The accusation falls apart.")

	assert.Contains(t, doc.Text(), "The case goes cold")
	doc = waitForFinishedFinale(t, ctx, client)
	text := doc.Text()
	assert.Contains(t, text, "waves you off")
	assert.Contains(t, text, "Twice you have stood in that study")
	assert.Contains(t, text, "Case cold")
	assert.Contains(t, text, "The culprit was Dr. Felix Crane.")

	doc, err = client.GetDoc(ctx, "/")
	require.NoError(t, err)
	assert.Contains(t, doc.Text(), "The case has gone cold. No accusation attempts remain.")

	doc, err = client.GetDoc(ctx, "/accuse")
	require.NoError(t, err)
	assert.Contains(t, doc.Text(), "no accusation attempts remain")

	// Only a new game reopens the house.
	doc, err = client.SubmitForm(ctx, "/", "/newgame")
	require.NoError(t, err)
	assert.Contains(t, doc.Text(), "0 of 8 clues in your notebook.")
	assert.NotContains(t, doc.Text(), "gone cold")
}

func TestFinaleStream(t *testing.T) {
	// A long pause keeps the playback waiting so the stream can be observed.
	server := startTestServer(t, map[string]string{"CULPRIT_FINALE_BEAT_SECONDS": "3600"})
	client, err := server.NewClient()
	require.NoError(t, err)
	ctx := context.Background()

	runCraneVictory(t, ctx, client)

	events, err := client.StreamEvents(ctx, "/confrontation/finale", "beat", "beat")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Contains(t, events[0], `"kind":"confession"`)
	assert.Contains(t, events[0], "Thirty years I have been Doctor Crane")

	// Skipping jumps straight to the closing beat and retires the stream.
	_, err = client.SubmitForm(ctx, "/confrontation", "/confrontation/finale/skip")
	require.NoError(t, err)

	events, err = client.StreamEvents(ctx, "/confrontation/finale", "beat", "finale-over")
	require.NoError(t, err)
	assert.Empty(t, events, "a retired stream only announces the finale is over")

	doc := waitForFinishedFinale(t, ctx, client)
	assert.Contains(t, doc.Text(), "Case closed")
	assert.NotContains(t, doc.Text(), "The evidence that mattered", "skipped beats stay off the page")
	assert.Equal(t, 1, doc.Find("#finale-controls[hidden]").Length())
}

const accusationlessCase = `title: The Missing Medallion
tagline: A case with no ending written yet.
clues:
  - id: muddy-glove
    name: Muddy glove
    description: A glove dropped by the garden gate.
scenes:
  - id: garden
    name: The Garden
    description: A small walled garden behind the house.
    spots:
      - id: gate
        prompt: Check the gate
        text: A single glove, trodden into the mud.
        clue: muddy-glove
suspects:
  - id: hobbs
    name: Ernest Hobbs
    role: Groundskeeper
`

func TestAccusationlessCaseStillPlays(t *testing.T) {
	casePath := filepath.Join(t.TempDir(), "case.yaml")
	require.NoError(t, os.WriteFile(casePath, []byte(accusationlessCase), 0o600))

	server := startTestServer(t, map[string]string{"CULPRIT_CASE_PATH": casePath})
	client, err := server.NewClient()
	require.NoError(t, err)
	ctx := context.Background()

	doc, err := client.GetDoc(ctx, "/")
	require.NoError(t, err)
	assert.Equal(t, "The Missing Medallion", doc.Find("h1").First().Text())
	assert.Contains(t, doc.Text(), "The accusation is unavailable for this case.")

	// Exploration works without the confrontation script.
	doc = examineSpot(t, ctx, client, "garden", "gate")
	assert.Contains(t, doc.Text(), "Muddy glove added to your notebook.")

	doc, err = client.GetDoc(ctx, "/accuse")
	require.NoError(t, err)
	assert.Contains(t, doc.Text(), "failed its checks")

	doc, err = client.GetDoc(ctx, "/notebook")
	require.NoError(t, err)
	assert.Contains(t, doc.Text(), "Muddy glove")
	assert.Contains(t, doc.Text(), "failed its checks")
}
