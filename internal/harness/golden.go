package harness

import (
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// snapshot is the golden-file shape for a scenario run.
type snapshot struct {
	Scenario       string  `json:"scenario"`
	Transcript     []Entry `json:"transcript"`
	FailedEvents   int     `json:"failed_events"`
	FailedProfiles int     `json:"failed_profiles"`
}

// RunWithGolden executes a scenario and compares the transcript against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		t.Fatalf("run scenario %s: %v", scenario.Name, err)
	}

	data, err := json.MarshalIndent(snapshot{
		Scenario:       scenario.Name,
		Transcript:     result.Transcript,
		FailedEvents:   result.FailedEvents,
		FailedProfiles: result.FailedProfiles,
	}, "", "  ")
	if err != nil {
		t.Fatalf("marshal snapshot: %v", err)
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, data)
}
