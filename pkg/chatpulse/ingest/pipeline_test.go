package ingest

import (
	"testing"

	"github.com/cognicore/chatpulse/pkg/chatpulse/stoplist"
)

func newTestPipeline() *Pipeline {
	return NewPipeline(NewTokenizer("!"), NewFilter(stoplist.English(), 3, "!"))
}

func TestPipelineBasic(t *testing.T) {
	pipeline := newTestPipeline()

	result := pipeline.Process("Machine learning is great!")

	wantRaw := []string{"machine", "learning", "is", "great"}
	if !equalTokens(result.Raw, wantRaw) {
		t.Errorf("Raw = %v, want %v", result.Raw, wantRaw)
	}
	wantKept := []string{"machine", "learning", "great"}
	if !equalTokens(result.Kept, wantKept) {
		t.Errorf("Kept = %v, want %v", result.Kept, wantKept)
	}
}

func TestPipelineRawIndex(t *testing.T) {
	pipeline := newTestPipeline()

	result := pipeline.Process("!deploy the new release to staging today")

	// raw: !deploy the new release to staging today
	//      0       1   2   3       4  5       6
	wantKept := []string{"release", "staging", "today"}
	wantIndex := []int{3, 5, 6}
	if !equalTokens(result.Kept, wantKept) {
		t.Fatalf("Kept = %v, want %v", result.Kept, wantKept)
	}
	if len(result.RawIndex) != len(wantIndex) {
		t.Fatalf("RawIndex = %v, want %v", result.RawIndex, wantIndex)
	}
	for i := range wantIndex {
		if result.RawIndex[i] != wantIndex[i] {
			t.Errorf("RawIndex[%d] = %d, want %d", i, result.RawIndex[i], wantIndex[i])
		}
	}
}

func TestPipelineEmptyText(t *testing.T) {
	pipeline := newTestPipeline()

	result := pipeline.Process("")

	if len(result.Raw) != 0 || len(result.Kept) != 0 || len(result.RawIndex) != 0 {
		t.Errorf("Empty text should produce nothing, got %+v", result)
	}
}

func TestPipelineOnlyStopwords(t *testing.T) {
	pipeline := newTestPipeline()

	result := pipeline.Process("the a and of in !help")

	if len(result.Kept) != 0 {
		t.Errorf("Only stopwords should produce 0 kept tokens, got %v", result.Kept)
	}
	if len(result.Raw) != 6 {
		t.Errorf("Raw tokens should still be reported, got %v", result.Raw)
	}
}
