package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/zhouzirui/weatherchat/backend/internal/model/weather"
)

func TestWeatherDecodesResult(t *testing.T) {
	var gotCity string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/weather" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		gotCity = body["city"]
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"city":"Paris","temp":12.5,"condition":"cloudy","humidity":70,"windSpeed":3.2,"description":"overcast clouds"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL+"/", 5*time.Second)
	result, err := client.Weather(context.Background(), "Paris")
	if err != nil {
		t.Fatalf("Weather err: %v", err)
	}

	if gotCity != "Paris" {
		t.Fatalf("unexpected city sent: %s", gotCity)
	}
	if result.Condition != weather.Cloudy || result.Temp != 12.5 || result.WindSpeed != 3.2 {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestWeatherAPIErrorPrefersDetails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"Weather lookup failed","details":"city not found"}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, time.Second).Weather(context.Background(), "Atlantis")

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusNotFound {
		t.Fatalf("unexpected status: %d", apiErr.StatusCode)
	}
	if err.Error() != "city not found" {
		t.Fatalf("unexpected message: %s", err.Error())
	}
}

func TestAPIErrorMessageFallbacks(t *testing.T) {
	if msg := (&APIError{StatusCode: 404, Code: "not found"}).Error(); msg != "not found" {
		t.Fatalf("unexpected message: %s", msg)
	}
	if msg := (&APIError{StatusCode: 502}).Error(); msg != "502 Bad Gateway" {
		t.Fatalf("unexpected message: %s", msg)
	}
}

func TestMusicSendsWeatherContext(t *testing.T) {
	var got weather.MusicRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/music" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`{"songs":[{"name":"Rain","artist":"The Beatles","mood":"calm"},{"name":"Umbrella","artist":"Rihanna","reason":"obvious"}]}`))
	}))
	defer srv.Close()

	songs, err := NewClient(srv.URL, time.Second).Music(context.Background(), weather.MusicRequest{
		Condition: weather.Rainy, City: "London", Temp: 9, Description: "light rain",
	})
	if err != nil {
		t.Fatalf("Music err: %v", err)
	}

	if got.Condition != weather.Rainy || got.City != "London" || got.Temp != 9 {
		t.Fatalf("unexpected request: %+v", got)
	}
	if len(songs) != 2 || songs[0].Name != "Rain" || songs[1].Reason != "obvious" {
		t.Fatalf("unexpected songs: %+v", songs)
	}
}

func TestWeatherTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := NewClient(url, time.Second).Weather(context.Background(), "Paris")
	if err == nil {
		t.Fatal("expected transport error")
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		t.Fatal("transport failures must not be APIErrors")
	}
}
