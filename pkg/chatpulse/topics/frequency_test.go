package topics

import (
	"errors"
	"reflect"
	"testing"

	"github.com/cognicore/chatpulse/pkg/chatpulse/internalerr"
	"github.com/cognicore/chatpulse/pkg/chatpulse/stoplist"
)

func TestFrequencyStemmed(t *testing.T) {
	messages := []string{"Running runners run!", "running fast", "!run now"}

	got, err := Frequency(messages, 5, stoplist.English(), DefaultFrequencyOptions())
	if err != nil {
		t.Fatalf("Frequency: %v", err)
	}

	want := []Topic{
		{Term: "run", Count: 2},
		{Term: "runner", Count: 1},
		{Term: "fast", Count: 1},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Frequency = %+v, want %+v", got, want)
	}
}

func TestFrequencyUnstemmed(t *testing.T) {
	opts := DefaultFrequencyOptions()
	opts.Stem = false
	messages := []string{"Running runners run!", "running fast", "!run now"}

	got, err := Frequency(messages, 2, stoplist.English(), opts)
	if err != nil {
		t.Fatalf("Frequency: %v", err)
	}

	want := []Topic{
		{Term: "running", Count: 2},
		{Term: "runners", Count: 1},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Frequency = %+v, want %+v", got, want)
	}
}

func TestFrequencyEdgeCases(t *testing.T) {
	opts := DefaultFrequencyOptions()

	got, err := Frequency(nil, 5, nil, opts)
	if err != nil || len(got) != 0 {
		t.Errorf("Frequency(nil) = %v, %v, want empty", got, err)
	}

	got, err = Frequency([]string{"plenty of words here"}, 0, nil, opts)
	if err != nil || len(got) != 0 {
		t.Errorf("Frequency(topN=0) = %v, %v, want empty", got, err)
	}

	_, err = Frequency([]string{"\xff"}, 5, nil, opts)
	if !errors.Is(err, internalerr.ErrInvalidInput) {
		t.Errorf("Frequency(invalid utf8) error = %v, want ErrInvalidInput", err)
	}
}
