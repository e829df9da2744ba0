package intent

import (
	"regexp"
	"strings"
)

// Kind 表示用户话语的意图。
type Kind string

const (
	Weather  Kind = "weather"
	ChitChat Kind = "chitchat"
)

// weatherKeywords 同时包含英文与日文关键词，不随当前语言切换。
var weatherKeywords = []string{
	"weather", "temperature", "temp", "forecast", "climate",
	"天気", "気温", "予報", "気候", "温度",
}

// Classify 根据关键词判断是天气查询还是闲聊。
func Classify(text string) Kind {
	if IsWeatherQuery(text) {
		return Weather
	}
	return ChitChat
}

// IsWeatherQuery reports whether text contains any weather keyword, ignoring case.
func IsWeatherQuery(text string) bool {
	normalized := strings.ToLower(text)
	for _, word := range weatherKeywords {
		if strings.Contains(normalized, word) {
			return true
		}
	}
	return false
}

// cityPatterns are tried in order; the first capture wins.
var cityPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bin\s+(\p{Latin}[\p{Latin} .'\-]*)`),
	regexp.MustCompile(`(?i)^\s*(\p{Latin}[\p{Latin} .'\-]*?)\s+weather\b`),
	regexp.MustCompile(`([^\s、。？！?!の]+)の(?:天気|気温|予報)`),
}

// ExtractCity pulls a city out of a weather utterance, or returns fallback.
func ExtractCity(text, fallback string) string {
	for _, pattern := range cityPatterns {
		match := pattern.FindStringSubmatch(text)
		if len(match) < 2 {
			continue
		}
		if city := cleanCity(match[1]); city != "" {
			return city
		}
	}
	return fallback
}

func cleanCity(raw string) string {
	return strings.Trim(strings.TrimSpace(raw), ".'-")
}
