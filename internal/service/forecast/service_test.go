package forecast

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/zhouzirui/weatherchat/backend/internal/i18n"
	"github.com/zhouzirui/weatherchat/backend/internal/model/weather"
	"github.com/zhouzirui/weatherchat/backend/internal/upstream"
)

type fakeUpstream struct {
	result     weather.Result
	weatherErr error
	songs      []weather.Song
	musicErr   error

	weatherCalls int
	musicCalls   int
	lastMusic    weather.MusicRequest
}

func (f *fakeUpstream) Weather(_ context.Context, city string) (weather.Result, error) {
	f.weatherCalls++
	if f.weatherErr != nil {
		return weather.Result{}, f.weatherErr
	}
	result := f.result
	if result.City == "" {
		result.City = city
	}
	return result, nil
}

func (f *fakeUpstream) Music(_ context.Context, req weather.MusicRequest) ([]weather.Song, error) {
	f.musicCalls++
	f.lastMusic = req
	return f.songs, f.musicErr
}

func newTestService(up Upstream, maxSongs int) (*Service, *i18n.Catalog) {
	catalog := i18n.MustLoad()
	return NewService(up, catalog, maxSongs, nil), catalog
}

func TestReplyColdBucket(t *testing.T) {
	up := &fakeUpstream{
		result: weather.Result{City: "London", Temp: 5, Condition: weather.Rainy, Humidity: 80, WindSpeed: 4, Description: "light rain"},
		songs:  []weather.Song{{Name: "Rain", Artist: "The Beatles", Mood: "calm"}},
	}
	svc, catalog := newTestService(up, 5)

	outcome, err := svc.Reply(context.Background(), i18n.English, "London")
	if err != nil {
		t.Fatalf("Reply err: %v", err)
	}

	en := catalog.Get(i18n.English)
	if !strings.Contains(outcome.Reply, en.Clothing.Cold) {
		t.Fatalf("expected cold clothing tip, got %q", outcome.Reply)
	}
	if !strings.Contains(outcome.Reply, en.Conditions.Rainy) {
		t.Fatalf("expected rainy label, got %q", outcome.Reply)
	}
	if !strings.Contains(outcome.Reply, "1. Rain - The Beatles (calm)") {
		t.Fatalf("expected numbered song, got %q", outcome.Reply)
	}
	if up.lastMusic.Condition != weather.Rainy || up.lastMusic.City != "London" || up.lastMusic.Description != "light rain" {
		t.Fatalf("unexpected music request: %+v", up.lastMusic)
	}
}

func TestReplyMildBucket(t *testing.T) {
	up := &fakeUpstream{
		result: weather.Result{Temp: 22, Condition: weather.Sunny},
		songs:  []weather.Song{{Name: "Walking on Sunshine", Artist: "Katrina and the Waves"}},
	}
	svc, catalog := newTestService(up, 5)

	outcome, err := svc.Reply(context.Background(), i18n.English, "Madrid")
	if err != nil {
		t.Fatalf("Reply err: %v", err)
	}
	if !strings.Contains(outcome.Reply, catalog.Get(i18n.English).Clothing.Mild) {
		t.Fatalf("expected mild clothing tip, got %q", outcome.Reply)
	}
}

func TestReplyMusicFailureUsesSingleFallbackSong(t *testing.T) {
	up := &fakeUpstream{
		result:   weather.Result{Temp: 15, Condition: weather.Cloudy},
		musicErr: errors.New("connection refused"),
	}
	svc, catalog := newTestService(up, 5)

	outcome, err := svc.Reply(context.Background(), i18n.English, "Berlin")
	if err != nil {
		t.Fatalf("music failure must not abort the reply: %v", err)
	}

	if !outcome.MusicFallback || len(outcome.Songs) != 1 {
		t.Fatalf("expected single fallback song, got %+v", outcome.Songs)
	}
	fallback := catalog.Get(i18n.English).FallbackSong
	if !strings.Contains(outcome.Reply, "1. "+fallback.Name+" - "+fallback.Artist) {
		t.Fatalf("fallback song missing: %q", outcome.Reply)
	}
	if strings.Contains(outcome.Reply, "2. ") {
		t.Fatalf("expected exactly one song entry: %q", outcome.Reply)
	}
}

func TestReplyEmptySongListUsesFallback(t *testing.T) {
	up := &fakeUpstream{result: weather.Result{Temp: 30, Condition: weather.Sunny}}
	svc, _ := newTestService(up, 5)

	outcome, err := svc.Reply(context.Background(), i18n.Japanese, "Naha")
	if err != nil {
		t.Fatalf("Reply err: %v", err)
	}
	if !outcome.MusicFallback {
		t.Fatal("expected fallback for empty song list")
	}
	if !strings.Contains(outcome.Reply, "どんな天気にも合う") {
		t.Fatalf("expected Japanese fallback reason: %q", outcome.Reply)
	}
}

func TestReplyWeatherErrorSkipsMusic(t *testing.T) {
	up := &fakeUpstream{weatherErr: &upstream.APIError{StatusCode: 404, Code: "not found"}}
	svc, _ := newTestService(up, 5)

	_, err := svc.Reply(context.Background(), i18n.English, "Atlantis")
	if err == nil {
		t.Fatal("expected weather error")
	}
	var apiErr *upstream.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected wrapped APIError, got %v", err)
	}
	if up.musicCalls != 0 {
		t.Fatalf("music must not be called after weather failure, got %d calls", up.musicCalls)
	}
}

func TestReplyCapsSongList(t *testing.T) {
	up := &fakeUpstream{
		result: weather.Result{Temp: 18, Condition: weather.Chilly},
		songs: []weather.Song{
			{Name: "A", Artist: "1"}, {Name: "B", Artist: "2"}, {Name: "C", Artist: "3"},
		},
	}
	svc, _ := newTestService(up, 2)

	outcome, err := svc.Reply(context.Background(), i18n.English, "Oslo")
	if err != nil {
		t.Fatalf("Reply err: %v", err)
	}
	if !strings.Contains(outcome.Reply, "2. B - 2") || strings.Contains(outcome.Reply, "3. C") {
		t.Fatalf("expected two songs, got %q", outcome.Reply)
	}
}

func TestReplyIsDeterministic(t *testing.T) {
	up := &fakeUpstream{
		result: weather.Result{Temp: 12.46, Condition: weather.Cloudy, Humidity: 60, WindSpeed: 2},
		songs:  []weather.Song{{Name: "Clouds", Artist: "Someone", Reason: "grey skies"}},
	}
	svc, _ := newTestService(up, 5)

	first, err := svc.Reply(context.Background(), i18n.English, "Paris")
	if err != nil {
		t.Fatalf("Reply err: %v", err)
	}
	second, err := svc.Reply(context.Background(), i18n.English, "Paris")
	if err != nil {
		t.Fatalf("Reply err: %v", err)
	}

	if first.Reply != second.Reply {
		t.Fatalf("expected identical replies:\n%s\n---\n%s", first.Reply, second.Reply)
	}
	if !strings.Contains(first.Reply, "12.5°C") {
		t.Fatalf("expected rounded temperature, got %q", first.Reply)
	}
}
