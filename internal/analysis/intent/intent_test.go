package intent

import "testing"

func TestIsWeatherQuery(t *testing.T) {
	cases := []struct {
		text string
		want bool
	}{
		{"What's the weather in Paris?", true},
		{"WEATHER please", true},
		{"current Temperature in Oslo", true},
		{"any forecast for tomorrow", true},
		{"Climate of Lima", true},
		{"temp now", true},
		{"東京の天気は？", true},
		{"大阪の気温", true},
		{"hello", false},
		{"thanks a lot", false},
		{"こんにちは", false},
		{"", false},
	}

	for _, tc := range cases {
		if got := IsWeatherQuery(tc.text); got != tc.want {
			t.Fatalf("IsWeatherQuery(%q) = %v, want %v", tc.text, got, tc.want)
		}
	}
}

func TestClassify(t *testing.T) {
	if Classify("Forecast in Rome") != Weather {
		t.Fatal("expected weather intent")
	}
	if Classify("who are you") != ChitChat {
		t.Fatal("expected chit-chat intent")
	}
}

func TestExtractCity(t *testing.T) {
	cases := []struct {
		text string
		want string
	}{
		{"What's the weather in Paris?", "Paris"},
		{"Tokyo weather", "Tokyo"},
		{"New York weather today", "New York"},
		{"temperature in San Francisco", "San Francisco"},
		{"weather in   Rio de Janeiro.", "Rio de Janeiro"},
		{"What's the weather in Zürich?", "Zürich"},
		{"weather in São Paulo", "São Paulo"},
		{"Montréal weather", "Montréal"},
		{"東京の天気は？", "東京"},
		{"今日の大阪の気温", "大阪"},
		{"weather please", "Tokyo"},
		{"天気", "Tokyo"},
	}

	for _, tc := range cases {
		if got := ExtractCity(tc.text, "Tokyo"); got != tc.want {
			t.Fatalf("ExtractCity(%q) = %q, want %q", tc.text, got, tc.want)
		}
	}
}
