package topics

import (
	"errors"
	"reflect"
	"sync"
	"testing"

	"github.com/cognicore/chatpulse/pkg/chatpulse/internalerr"
	"github.com/cognicore/chatpulse/pkg/chatpulse/stoplist"
)

func newTestExtractor(t *testing.T, opts Options) *Extractor {
	t.Helper()
	ex, err := NewExtractor(stoplist.English(), opts)
	if err != nil {
		t.Fatalf("NewExtractor: %v", err)
	}
	return ex
}

func extract(t *testing.T, ex *Extractor, messages []string, topN int) []Topic {
	t.Helper()
	got, err := ex.Extract(messages, topN)
	if err != nil {
		t.Fatalf("Extract(%q, %d): %v", messages, topN, err)
	}
	return got
}

func TestExtractBigramDominance(t *testing.T) {
	ex := newTestExtractor(t, DefaultOptions())

	messages := []string{
		"machine learning is great",
		"machine learning is fun",
		"machine learning is great",
	}
	got := extract(t, ex, messages, DefaultTopN)

	want := []Topic{
		{Term: "machine learning", Count: 3, Phrase: true},
		{Term: "learning great", Count: 2, Phrase: true},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Extract = %+v, want %+v", got, want)
	}
}

func TestExtractBigramDominanceNoLengthFilter(t *testing.T) {
	opts := DefaultOptions()
	opts.MinLength = 0
	ex := newTestExtractor(t, opts)

	messages := []string{
		"machine learning is great",
		"machine learning is fun",
		"machine learning is great",
	}
	got := extract(t, ex, messages, DefaultTopN)

	want := []Topic{
		{Term: "machine learning", Count: 3, Phrase: true},
		{Term: "learning great", Count: 2, Phrase: true},
		{Term: "learning fun", Count: 1, Phrase: true},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Extract = %+v, want %+v", got, want)
	}
	for _, topic := range got {
		if topic.Term == "machine" || topic.Term == "learning" {
			t.Errorf("constituent %q should be absorbed by its bigram", topic.Term)
		}
	}
}

func TestExtractEmptyInput(t *testing.T) {
	ex := newTestExtractor(t, DefaultOptions())

	for _, topN := range []int{-1, 0, 1, 5, 100} {
		if got := extract(t, ex, nil, topN); len(got) != 0 {
			t.Errorf("Extract(nil, %d) = %v, want empty", topN, got)
		}
		if got := extract(t, ex, []string{}, topN); len(got) != 0 {
			t.Errorf("Extract([], %d) = %v, want empty", topN, got)
		}
	}
}

func TestExtractNonPositiveTopN(t *testing.T) {
	ex := newTestExtractor(t, DefaultOptions())
	messages := []string{"kubernetes clusters", "kubernetes upgrades"}

	for _, topN := range []int{0, -3} {
		got := extract(t, ex, messages, topN)
		if got == nil || len(got) != 0 {
			t.Errorf("Extract(_, %d) = %#v, want non-nil empty list", topN, got)
		}
	}
}

func TestExtractNoiseOnlyMessages(t *testing.T) {
	ex := newTestExtractor(t, DefaultOptions())

	messages := []string{"the is a", "!help me", "ok ok lol", "??? !!!"}
	counts, err := ex.Counts(messages)
	if err != nil {
		t.Fatalf("Counts: %v", err)
	}
	if counts.UniqueTokens() != 0 || counts.UniqueBigrams() != 0 {
		t.Errorf("noise-only messages should contribute nothing, got %v / %v", counts.Tokens(), counts.Bigrams())
	}
	if counts.Messages() != len(messages) {
		t.Errorf("Messages() = %d, want %d", counts.Messages(), len(messages))
	}
	if got := extract(t, ex, messages, 5); len(got) != 0 {
		t.Errorf("Extract = %v, want empty", got)
	}
}

func TestExtractCaseInsensitive(t *testing.T) {
	ex := newTestExtractor(t, DefaultOptions())

	got := extract(t, ex, []string{"Topic discussion", "topic DISCUSSION", "TOPIC"}, 5)

	want := []Topic{
		{Term: "topic discussion", Count: 2, Phrase: true},
		{Term: "topic", Count: 1},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Extract = %+v, want %+v", got, want)
	}
}

func TestExtractTruncation(t *testing.T) {
	ex := newTestExtractor(t, DefaultOptions())
	messages := []string{
		"alpha", "alpha", "alpha",
		"bravo", "bravo", "bravo", "bravo",
		"charlie",
		"delta", "delta",
		"echo",
	}

	all := extract(t, ex, messages, 10)
	wantAll := []Topic{
		{Term: "bravo", Count: 4},
		{Term: "alpha", Count: 3},
		{Term: "delta", Count: 2},
		{Term: "charlie", Count: 1},
		{Term: "echo", Count: 1},
	}
	if !reflect.DeepEqual(all, wantAll) {
		t.Fatalf("Extract(_, 10) = %+v, want %+v", all, wantAll)
	}

	top2 := extract(t, ex, messages, 2)
	if !reflect.DeepEqual(top2, wantAll[:2]) {
		t.Errorf("Extract(_, 2) = %+v, want %+v", top2, wantAll[:2])
	}
}

func TestExtractNoCrossMessageBigrams(t *testing.T) {
	ex := newTestExtractor(t, DefaultOptions())
	messages := []string{"hello", "world"}

	counts, err := ex.Counts(messages)
	if err != nil {
		t.Fatalf("Counts: %v", err)
	}
	if n := counts.Bigram("hello", "world"); n != 0 {
		t.Errorf("Bigram(hello, world) = %d, want 0", n)
	}

	got := extract(t, ex, messages, 5)
	want := []Topic{{Term: "hello", Count: 1}, {Term: "world", Count: 1}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Extract = %+v, want %+v", got, want)
	}
}

func TestExtractDoubleSubtraction(t *testing.T) {
	ex := newTestExtractor(t, DefaultOptions())

	// "learning" sits in two bigrams and is debited by both
	got := extract(t, ex, []string{"deep learning models", "deep learning models"}, 5)

	want := []Topic{
		{Term: "deep learning", Count: 2, Phrase: true},
		{Term: "learning models", Count: 2, Phrase: true},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Extract = %+v, want %+v", got, want)
	}
}

func TestExtractRepeatedTokenBigram(t *testing.T) {
	ex := newTestExtractor(t, DefaultOptions())

	// (test, test) debits "test" twice: 3 - 2 - 2 = -1
	got := extract(t, ex, []string{"test test test"}, 5)

	want := []Topic{{Term: "test test", Count: 2, Phrase: true}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Extract = %+v, want %+v", got, want)
	}
}

func TestExtractTieBreakInsertionOrder(t *testing.T) {
	ex := newTestExtractor(t, DefaultOptions())

	got := extract(t, ex, []string{"zebra", "banana cherry", "apple"}, 5)

	// tokens first (zebra, apple survive), then bigrams
	want := []Topic{
		{Term: "zebra", Count: 1},
		{Term: "apple", Count: 1},
		{Term: "banana cherry", Count: 1, Phrase: true},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Extract = %+v, want %+v", got, want)
	}
}

func TestExtractCommandsIgnored(t *testing.T) {
	ex := newTestExtractor(t, DefaultOptions())

	got := extract(t, ex, []string{"!play despacito", "!play despacito", "despacito rocks"}, 5)

	want := []Topic{
		{Term: "despacito", Count: 2},
		{Term: "despacito rocks", Count: 1, Phrase: true},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Extract = %+v, want %+v", got, want)
	}
}

func TestExtractFilteredAdjacency(t *testing.T) {
	ex := newTestExtractor(t, DefaultOptions())

	// the stopword between the two words is removed before pairing
	got := extract(t, ex, []string{"machine and learning", "machine learning"}, 5)

	want := []Topic{{Term: "machine learning", Count: 2, Phrase: true}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Extract = %+v, want %+v", got, want)
	}
}

func TestExtractRawAdjacency(t *testing.T) {
	opts := DefaultOptions()
	opts.Adjacency = AdjacencyRaw
	ex := newTestExtractor(t, opts)

	got := extract(t, ex, []string{"machine and learning", "machine learning"}, 5)

	want := []Topic{
		{Term: "machine", Count: 1},
		{Term: "learning", Count: 1},
		{Term: "machine learning", Count: 1, Phrase: true},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Extract = %+v, want %+v", got, want)
	}
}

func TestExtractPositiveCountsOnly(t *testing.T) {
	ex := newTestExtractor(t, DefaultOptions())
	messages := []string{
		"rust async runtime", "async runtime tuning", "rust compiler errors",
		"compiler errors again", "runtime panics rust", "tokio async runtime",
	}

	for _, topic := range extract(t, ex, messages, 50) {
		if topic.Count < 1 {
			t.Errorf("topic %q has non-positive count %d", topic.Term, topic.Count)
		}
	}
}

func TestExtractDeterministic(t *testing.T) {
	ex := newTestExtractor(t, DefaultOptions())
	messages := []string{
		"release notes for the new build",
		"build pipeline broke again",
		"new build passes, release tomorrow",
		"pipeline flaky tests",
	}

	first := extract(t, ex, messages, 5)
	for i := 0; i < 20; i++ {
		if got := extract(t, ex, messages, 5); !reflect.DeepEqual(got, first) {
			t.Fatalf("run %d: %+v differs from %+v", i, got, first)
		}
	}
}

func TestExtractConcurrent(t *testing.T) {
	ex := newTestExtractor(t, DefaultOptions())
	messages := []string{"machine learning rocks", "machine learning models", "graphics cards"}
	want := extract(t, ex, messages, 5)

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := ex.Extract(messages, 5)
			if err != nil {
				errs <- err
				return
			}
			if !reflect.DeepEqual(got, want) {
				errs <- errors.New("concurrent result differs")
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}

func TestExtractInvalidUTF8(t *testing.T) {
	ex := newTestExtractor(t, DefaultOptions())

	for _, topN := range []int{0, 5} {
		_, err := ex.Extract([]string{"fine", "bad \xff\xfe"}, topN)
		if !errors.Is(err, internalerr.ErrInvalidInput) {
			t.Errorf("Extract(topN=%d) error = %v, want ErrInvalidInput", topN, err)
		}
	}
}

func TestNewExtractorCopiesStoplist(t *testing.T) {
	stops := stoplist.NewManager([]string{"banana"})
	ex, err := NewExtractor(stops, DefaultOptions())
	if err != nil {
		t.Fatalf("NewExtractor: %v", err)
	}

	stops.Remove("banana")
	stops.Add("apple")

	got := extract(t, ex, []string{"banana", "apple"}, 5)
	want := []Topic{{Term: "apple", Count: 1}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Extract = %+v, want %+v", got, want)
	}
}

func TestNewExtractorNilStoplistUsesEnglish(t *testing.T) {
	ex, err := NewExtractor(nil, DefaultOptions())
	if err != nil {
		t.Fatalf("NewExtractor: %v", err)
	}

	got := extract(t, ex, []string{"about these things"}, 5)
	want := []Topic{{Term: "things", Count: 1}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Extract = %+v, want %+v", got, want)
	}
}

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantErr bool
	}{
		{"defaults", DefaultOptions(), false},
		{"no prefix", Options{MinLength: 0}, false},
		{"unicode prefix", Options{CommandPrefix: "¡"}, false},
		{"negative length", Options{MinLength: -1}, true},
		{"long prefix", Options{CommandPrefix: "!!"}, true},
		{"bad adjacency", Options{Adjacency: Adjacency(9)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.Validate()
			if tt.wantErr {
				if !errors.Is(err, internalerr.ErrInvalidConfig) {
					t.Errorf("Validate() = %v, want ErrInvalidConfig", err)
				}
				if _, nerr := NewExtractor(nil, tt.opts); nerr == nil {
					t.Error("NewExtractor should reject invalid options")
				}
				return
			}
			if err != nil {
				t.Errorf("Validate() = %v, want nil", err)
			}
		})
	}
}

func TestParseAdjacency(t *testing.T) {
	tests := []struct {
		in      string
		want    Adjacency
		wantErr bool
	}{
		{"", AdjacencyFiltered, false},
		{"filtered", AdjacencyFiltered, false},
		{"RAW", AdjacencyRaw, false},
		{" raw ", AdjacencyRaw, false},
		{"window", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseAdjacency(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseAdjacency(%q) should fail", tt.in)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("ParseAdjacency(%q) = %v, %v, want %v", tt.in, got, err, tt.want)
		}
		if got.String() != tt.want.String() {
			t.Errorf("String() = %q, want %q", got.String(), tt.want.String())
		}
	}
}
