package forecast

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"github.com/zhouzirui/weatherchat/backend/internal/i18n"
	"github.com/zhouzirui/weatherchat/backend/internal/model/weather"
)

// FormatReply renders the localized weather template followed by a
// 1-indexed list of at most maxSongs songs.
func FormatReply(dict *i18n.Dictionary, result weather.Result, songs []weather.Song, maxSongs int) string {
	replacer := strings.NewReplacer(
		"{city}", result.City,
		"{temp}", formatNumber(result.Temp),
		"{icon}", result.Condition.Icon(),
		"{condition}", dict.ConditionLabel(result.Condition),
		"{humidity}", formatNumber(result.Humidity),
		"{wind}", formatNumber(result.WindSpeed),
		"{clothing}", dict.ClothingTip(weather.ClothingFor(result.Temp)),
	)

	var builder strings.Builder
	builder.WriteString(replacer.Replace(dict.WeatherReply))

	if maxSongs > 0 && len(songs) > maxSongs {
		songs = songs[:maxSongs]
	}
	if len(songs) == 0 {
		return builder.String()
	}

	builder.WriteString("\n\n")
	builder.WriteString(dict.SongsHeader)
	for _, line := range lo.Map(songs, formatSong) {
		builder.WriteString("\n")
		builder.WriteString(line)
	}
	return builder.String()
}

func formatSong(song weather.Song, idx int) string {
	line := fmt.Sprintf("%d. %s - %s", idx+1, song.Name, song.Artist)
	note := song.Note()
	return lo.Ternary(note == "", line, line+" ("+note+")")
}

// formatNumber keeps at most one decimal: 22 -> "22", 12.46 -> "12.5".
func formatNumber(v float64) string {
	return strconv.FormatFloat(math.Round(v*10)/10, 'f', -1, 64)
}
