package weather

import "testing"

func TestClothingFor(t *testing.T) {
	cases := []struct {
		temp float64
		want Clothing
	}{
		{-3, Cold},
		{5, Cold},
		{9.9, Cold},
		{10, Cool},
		{19.5, Cool},
		{20, Mild},
		{22, Mild},
		{25, Warm},
		{38, Warm},
	}

	for _, tc := range cases {
		if got := ClothingFor(tc.temp); got != tc.want {
			t.Fatalf("ClothingFor(%v) = %v, want %v", tc.temp, got, tc.want)
		}
	}
}

func TestParseCondition(t *testing.T) {
	if c, ok := ParseCondition(" rainy "); !ok || c != Rainy {
		t.Fatalf("expected Rainy, got %q ok=%v", c, ok)
	}
	if c, ok := ParseCondition("Foggy"); ok || c != "Foggy" {
		t.Fatalf("expected unknown Foggy passthrough, got %q ok=%v", c, ok)
	}
}

func TestSongNotePrefersReason(t *testing.T) {
	song := Song{Name: "Rain", Artist: "Someone", Mood: "calm", Reason: "fits the drizzle"}
	if song.Note() != "fits the drizzle" {
		t.Fatalf("unexpected note: %s", song.Note())
	}
	song.Reason = ""
	if song.Note() != "calm" {
		t.Fatalf("unexpected note: %s", song.Note())
	}
}
