package history

import (
	"errors"
	"testing"
)

func TestSegmentValid(t *testing.T) {
	if !(Segment{Start: 1000, End: 2000}).Valid() {
		t.Error("Expected forward segment to be valid")
	}
	if !(Segment{Start: 1000, End: 1000}).Valid() {
		t.Error("Expected zero-length segment to be valid")
	}
	if (Segment{Start: 2000, End: 1000}).Valid() {
		t.Error("Expected inverted segment to be invalid")
	}
	if (Segment{Start: 0, End: 1000}).Valid() {
		t.Error("Expected zero start to be invalid")
	}
}

func TestSampleValid(t *testing.T) {
	if !(Sample{TS: 1000, Live: true, Viewers: 3}).Valid() {
		t.Error("Expected sample with timestamp to be valid")
	}
	if (Sample{TS: 0}).Valid() {
		t.Error("Expected zero timestamp to be invalid")
	}
}

func TestCloneIsIndependent(t *testing.T) {
	h := History{
		Segments: []Segment{{Start: 1000, End: 2000}},
		Samples:  []Sample{{TS: 1500, Live: true, Viewers: 7}},
	}

	c := h.Clone()
	c.Segments[0].End = 9999
	c.Samples[0].Viewers = 0

	if h.Segments[0].End != 2000 {
		t.Errorf("Clone mutation leaked into original segment: %+v", h.Segments[0])
	}
	if h.Samples[0].Viewers != 7 {
		t.Errorf("Clone mutation leaked into original sample: %+v", h.Samples[0])
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	h := History{
		Segments: []Segment{{Start: 1000, End: 2000}, {Start: 5000, End: 8000}},
		Samples: []Sample{
			{TS: 1000, Live: true, Viewers: 12},
			{TS: 2000, Live: false, Viewers: 0},
		},
	}

	data, err := Encode(h)
	if err != nil {
		t.Fatalf("Expected no encode error, got %v", err)
	}

	decoded, err := Decode(data)
	if err != nil {
		t.Fatalf("Expected no decode error, got %v", err)
	}

	if len(decoded.Segments) != 2 || len(decoded.Samples) != 2 {
		t.Fatalf("Round trip lost records: %+v", decoded)
	}
	if decoded.Segments[1] != h.Segments[1] {
		t.Errorf("Segment changed in round trip: %+v != %+v", decoded.Segments[1], h.Segments[1])
	}
	if decoded.Samples[0] != h.Samples[0] {
		t.Errorf("Sample changed in round trip: %+v != %+v", decoded.Samples[0], h.Samples[0])
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	if _, err := Decode(nil); !errors.Is(err, ErrInvalidBlob) {
		t.Errorf("Expected ErrInvalidBlob for empty input, got %v", err)
	}
	if _, err := Decode([]byte{0xff, 0x00, 0x13}); !errors.Is(err, ErrInvalidBlob) {
		t.Errorf("Expected ErrInvalidBlob for garbage, got %v", err)
	}
}
