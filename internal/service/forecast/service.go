package forecast

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/zhouzirui/weatherchat/backend/internal/i18n"
	"github.com/zhouzirui/weatherchat/backend/internal/model/weather"
)

// DefaultMaxSongs caps the song list when no limit is configured.
const DefaultMaxSongs = 5

// Upstream is the external weather/music API.
type Upstream interface {
	Weather(ctx context.Context, city string) (weather.Result, error)
	Music(ctx context.Context, req weather.MusicRequest) ([]weather.Song, error)
}

// Outcome is a formatted reply plus the data it was built from.
type Outcome struct {
	Reply         string
	Weather       weather.Result
	Songs         []weather.Song
	MusicFallback bool
}

// Service sequences the weather call, the music call and reply formatting.
type Service struct {
	upstream Upstream
	catalog  *i18n.Catalog
	maxSongs int
	log      *zap.Logger
}

// NewService creates the orchestrator. maxSongs < 1 falls back to DefaultMaxSongs.
func NewService(upstream Upstream, catalog *i18n.Catalog, maxSongs int, log *zap.Logger) *Service {
	if maxSongs < 1 {
		maxSongs = DefaultMaxSongs
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		upstream: upstream,
		catalog:  catalog,
		maxSongs: maxSongs,
		log:      log.Named("forecast"),
	}
}

// Reply answers a weather query for city. Weather errors propagate; music
// errors are replaced by the localized fallback song.
func (s *Service) Reply(ctx context.Context, locale i18n.Locale, city string) (Outcome, error) {
	dict := s.catalog.Get(locale)

	result, err := s.upstream.Weather(ctx, city)
	if err != nil {
		return Outcome{}, fmt.Errorf("weather lookup for %q: %w", city, err)
	}

	songs, fallback := s.recommend(ctx, dict, result)
	s.log.Info("weather reply ready",
		zap.String("city", result.City),
		zap.String("condition", string(result.Condition)),
		zap.Int("songs", len(songs)),
		zap.Bool("musicFallback", fallback),
	)

	return Outcome{
		Reply:         FormatReply(dict, result, songs, s.maxSongs),
		Weather:       result,
		Songs:         songs,
		MusicFallback: fallback,
	}, nil
}

func (s *Service) recommend(ctx context.Context, dict *i18n.Dictionary, result weather.Result) ([]weather.Song, bool) {
	songs, err := s.upstream.Music(ctx, weather.MusicRequest{
		Condition:   result.Condition,
		City:        result.City,
		Temp:        result.Temp,
		Description: result.Description,
	})
	if err != nil {
		s.log.Warn("music lookup failed, using fallback song", zap.String("city", result.City), zap.Error(err))
		return fallbackSongs(dict), true
	}
	if len(songs) == 0 {
		s.log.Warn("music lookup returned no songs, using fallback song", zap.String("city", result.City))
		return fallbackSongs(dict), true
	}
	return songs, false
}

func fallbackSongs(dict *i18n.Dictionary) []weather.Song {
	return []weather.Song{{
		Name:   dict.FallbackSong.Name,
		Artist: dict.FallbackSong.Artist,
		Reason: dict.FallbackSong.Reason,
	}}
}
