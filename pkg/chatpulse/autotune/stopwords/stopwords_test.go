package stopwords

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/cognicore/chatpulse/pkg/chatpulse/ingest"
	"github.com/cognicore/chatpulse/pkg/chatpulse/internalerr"
	"github.com/cognicore/chatpulse/pkg/chatpulse/stoplist"
	"github.com/cognicore/chatpulse/pkg/chatpulse/store"
)

type fakeProvider struct {
	stats    []Stats
	messages int
	err      error
}

func (f fakeProvider) StopwordStats(ctx context.Context) ([]Stats, int, error) {
	return f.stats, f.messages, f.err
}

type fakeReviewer struct {
	decisions map[string]bool
	err       error
}

func (f fakeReviewer) Approve(ctx context.Context, cand Candidate) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.decisions[cand.Token], nil
}

func TestAutoTunerRun_NoReviewer(t *testing.T) {
	stats := []Stats{
		{Token: "yeah", DFPercent: 45, ChannelEntropy: 0.95, Channels: 3},
		{Token: "kubernetes", DFPercent: 25, ChannelEntropy: 0.2, Channels: 3},
		{Token: "deploy", DFPercent: 5, ChannelEntropy: 0.9, Channels: 3},
	}

	tuner := AutoTuner{
		Provider: fakeProvider{stats: stats, messages: 100},
		Manager:  stoplist.NewManager(nil),
	}

	cands, err := tuner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(cands) != 1 || cands[0].Token != "yeah" {
		t.Fatalf("Expected 'yeah' as candidate, got %+v", cands)
	}
	if want := (0.45 + 0.95) / 2; math.Abs(cands[0].Score-want) > 1e-9 {
		t.Errorf("score = %v, want %v", cands[0].Score, want)
	}
}

func TestAutoTunerRun_WithReviewer(t *testing.T) {
	stats := []Stats{
		{Token: "yeah", DFPercent: 40, Channels: 1},
		{Token: "okay", DFPercent: 35, Channels: 1},
	}

	tuner := AutoTuner{
		Provider: fakeProvider{stats: stats, messages: 100},
		Manager:  stoplist.NewManager(nil),
		Reviewer: fakeReviewer{decisions: map[string]bool{"okay": true}},
	}

	cands, err := tuner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(cands) != 1 || cands[0].Token != "okay" {
		t.Fatalf("Expected reviewer to approve only 'okay', got %+v", cands)
	}
}

func TestAutoTunerRun_ReviewerError(t *testing.T) {
	tuner := AutoTuner{
		Provider: fakeProvider{stats: []Stats{{Token: "yeah", DFPercent: 90, Channels: 1}}, messages: 100},
		Manager:  stoplist.NewManager(nil),
		Reviewer: fakeReviewer{err: errors.New("offline")},
	}
	if _, err := tuner.Run(context.Background()); err == nil {
		t.Fatal("expected reviewer error")
	}
}

func TestAutoTunerRun_SmallWindow(t *testing.T) {
	tuner := AutoTuner{
		Provider: fakeProvider{stats: []Stats{{Token: "yeah", DFPercent: 90, Channels: 1}}, messages: 10},
		Manager:  stoplist.NewManager(nil),
	}
	cands, err := tuner.Run(context.Background())
	if err != nil || len(cands) != 0 {
		t.Fatalf("expected no suggestions below MinMessages, got %+v, %v", cands, err)
	}
}

func TestAutoTunerRun_InvalidConfig(t *testing.T) {
	if _, err := (&AutoTuner{Manager: stoplist.NewManager(nil)}).Run(context.Background()); !errors.Is(err, internalerr.ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
	if _, err := (&AutoTuner{Provider: fakeProvider{}}).Run(context.Background()); !errors.Is(err, internalerr.ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestSuggestSkipsExistingStops(t *testing.T) {
	m := stoplist.NewManager([]string{"yeah"})
	cands := Suggest(m, []Stats{{Token: "yeah", DFPercent: 90, Channels: 1}}, DefaultThresholds())
	if len(cands) != 0 {
		t.Fatalf("existing stopword suggested: %+v", cands)
	}
}

func TestMessageStats(t *testing.T) {
	pipeline := ingest.NewPipeline(
		ingest.NewTokenizer("!"),
		ingest.NewFilter(stoplist.English(), 3, "!"),
	)

	var msgs []store.Message
	for i := 0; i < 10; i++ {
		msgs = append(msgs, store.Message{
			ChannelID: fmt.Sprintf("ch%d", i%2),
			Content:   fmt.Sprintf("yeah yeah topic%d", i),
		})
	}
	msgs = append(msgs, store.Message{ChannelID: "ch0", Content: "kubernetes kubernetes"})

	stats, total, err := MessageStats{Pipeline: pipeline, Messages: msgs}.StopwordStats(context.Background())
	if err != nil {
		t.Fatalf("StopwordStats: %v", err)
	}
	if total != 11 {
		t.Fatalf("expected 11 messages, got %d", total)
	}

	byToken := make(map[string]Stats)
	for _, s := range stats {
		byToken[s.Token] = s
	}

	yeah := byToken["yeah"]
	if yeah.DF != 10 {
		t.Errorf("yeah DF = %d, want 10 (counted once per message)", yeah.DF)
	}
	if math.Abs(yeah.ChannelEntropy-1) > 1e-9 {
		t.Errorf("yeah spread evenly over two channels, entropy = %v", yeah.ChannelEntropy)
	}
	if k := byToken["kubernetes"]; k.DF != 1 || k.ChannelEntropy != 0 {
		t.Errorf("unexpected kubernetes stats %+v", k)
	}

	th := Thresholds{DFPercent: 50, ChannelEntropy: 0.5, MinMessages: 1}
	tuner := AutoTuner{Provider: MessageStats{Pipeline: pipeline, Messages: msgs}, Manager: stoplist.English(), Thresholds: th}
	cands, err := tuner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(cands) != 1 || cands[0].Token != "yeah" {
		t.Fatalf("expected yeah, got %+v", cands)
	}
}
