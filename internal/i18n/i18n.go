// Package i18n holds the parallel en/ja dictionaries of user-facing strings.
package i18n

import (
	"embed"
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"

	"github.com/zhouzirui/weatherchat/backend/internal/model/weather"
)

// Locale selects a dictionary.
type Locale string

const (
	English  Locale = "en"
	Japanese Locale = "ja"
)

// Supported lists locales in toggle order.
var Supported = []Locale{English, Japanese}

// ParseLocale accepts bare codes and region-tagged variants such as "ja-JP".
func ParseLocale(raw string) (Locale, error) {
	code := strings.ToLower(strings.TrimSpace(raw))
	if idx := strings.IndexAny(code, "-_"); idx > 0 {
		code = code[:idx]
	}
	switch code {
	case "en":
		return English, nil
	case "ja":
		return Japanese, nil
	default:
		return "", fmt.Errorf("unsupported locale %q", raw)
	}
}

// Toggle switches en <-> ja.
func (l Locale) Toggle() Locale {
	if l == Japanese {
		return English
	}
	return Japanese
}

// ReplyGroup is one ordered chit-chat rule.
type ReplyGroup struct {
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
	Replies  []string `yaml:"replies"`
}

// FallbackSong is used when the music endpoint fails.
type FallbackSong struct {
	Name   string `yaml:"name"`
	Artist string `yaml:"artist"`
	Reason string `yaml:"reason"`
}

// Dictionary maps every UI string key to localized text.
type Dictionary struct {
	Welcome          string       `yaml:"welcome"`
	InputPlaceholder string       `yaml:"input_placeholder"`
	Sending          string       `yaml:"sending"`
	DefaultCity      string       `yaml:"default_city"`
	CityNotFound     string       `yaml:"city_not_found"`
	GenericError     string       `yaml:"generic_error"`
	Fallback         string       `yaml:"fallback"`
	CompanionPrompt  string       `yaml:"companion_prompt"`
	SmallTalk        []ReplyGroup `yaml:"smalltalk"`
	Conditions       struct {
		Sunny  string `yaml:"sunny"`
		Cloudy string `yaml:"cloudy"`
		Rainy  string `yaml:"rainy"`
		Snowy  string `yaml:"snowy"`
		Chilly string `yaml:"chilly"`
	} `yaml:"conditions"`
	Clothing struct {
		Cold string `yaml:"cold"`
		Cool string `yaml:"cool"`
		Mild string `yaml:"mild"`
		Warm string `yaml:"warm"`
	} `yaml:"clothing"`
	WeatherReply string       `yaml:"weather_reply"`
	SongsHeader  string       `yaml:"songs_header"`
	FallbackSong FallbackSong `yaml:"fallback_song"`
	Speech       struct {
		Listening   string `yaml:"listening"`
		Unsupported string `yaml:"unsupported"`
		Failed      string `yaml:"failed"`
	} `yaml:"speech"`
}

// ConditionLabel translates a condition; unknown values are shown verbatim.
func (d *Dictionary) ConditionLabel(c weather.Condition) string {
	switch c {
	case weather.Sunny:
		return d.Conditions.Sunny
	case weather.Cloudy:
		return d.Conditions.Cloudy
	case weather.Rainy:
		return d.Conditions.Rainy
	case weather.Snowy:
		return d.Conditions.Snowy
	case weather.Chilly:
		return d.Conditions.Chilly
	default:
		return string(c)
	}
}

// ClothingTip returns the outfit advice for a temperature bucket.
func (d *Dictionary) ClothingTip(c weather.Clothing) string {
	switch c {
	case weather.Cold:
		return d.Clothing.Cold
	case weather.Cool:
		return d.Clothing.Cool
	case weather.Mild:
		return d.Clothing.Mild
	default:
		return d.Clothing.Warm
	}
}

// CityNotFoundFor fills the city placeholder.
func (d *Dictionary) CityNotFoundFor(city string) string {
	return strings.ReplaceAll(d.CityNotFound, "{city}", city)
}

func (d *Dictionary) validate(locale Locale) error {
	var result *multierror.Error

	required := []struct {
		key   string
		value string
	}{
		{"welcome", d.Welcome},
		{"input_placeholder", d.InputPlaceholder},
		{"sending", d.Sending},
		{"default_city", d.DefaultCity},
		{"city_not_found", d.CityNotFound},
		{"generic_error", d.GenericError},
		{"fallback", d.Fallback},
		{"companion_prompt", d.CompanionPrompt},
		{"conditions.sunny", d.Conditions.Sunny},
		{"conditions.cloudy", d.Conditions.Cloudy},
		{"conditions.rainy", d.Conditions.Rainy},
		{"conditions.snowy", d.Conditions.Snowy},
		{"conditions.chilly", d.Conditions.Chilly},
		{"clothing.cold", d.Clothing.Cold},
		{"clothing.cool", d.Clothing.Cool},
		{"clothing.mild", d.Clothing.Mild},
		{"clothing.warm", d.Clothing.Warm},
		{"weather_reply", d.WeatherReply},
		{"songs_header", d.SongsHeader},
		{"fallback_song.name", d.FallbackSong.Name},
		{"fallback_song.artist", d.FallbackSong.Artist},
		{"speech.listening", d.Speech.Listening},
		{"speech.unsupported", d.Speech.Unsupported},
		{"speech.failed", d.Speech.Failed},
	}
	for _, item := range required {
		if strings.TrimSpace(item.value) == "" {
			result = multierror.Append(result, fmt.Errorf("%s: missing %s", locale, item.key))
		}
	}

	if len(d.SmallTalk) == 0 {
		result = multierror.Append(result, fmt.Errorf("%s: smalltalk has no groups", locale))
	}
	for i, group := range d.SmallTalk {
		if len(group.Keywords) == 0 || len(group.Replies) == 0 {
			result = multierror.Append(result, fmt.Errorf("%s: smalltalk[%d] %q needs keywords and replies", locale, i, group.Name))
		}
	}

	return result.ErrorOrNil()
}

//go:embed locales/*.yaml
var localeFS embed.FS

// Catalog holds one validated dictionary per supported locale.
type Catalog struct {
	dicts map[Locale]*Dictionary
}

// Load decodes and validates the embedded dictionaries.
func Load() (*Catalog, error) {
	catalog := &Catalog{dicts: make(map[Locale]*Dictionary, len(Supported))}
	var result *multierror.Error

	for _, locale := range Supported {
		raw, err := localeFS.ReadFile("locales/" + string(locale) + ".yaml")
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("read %s dictionary: %w", locale, err))
			continue
		}
		dict, err := Parse(locale, raw)
		if err != nil {
			result = multierror.Append(result, err)
			continue
		}
		catalog.dicts[locale] = dict
	}

	if err := result.ErrorOrNil(); err != nil {
		return nil, err
	}
	return catalog, nil
}

// MustLoad panics when the embedded dictionaries are broken.
func MustLoad() *Catalog {
	catalog, err := Load()
	if err != nil {
		panic(err)
	}
	return catalog
}

// Parse decodes a single YAML dictionary and checks it is complete.
func Parse(locale Locale, raw []byte) (*Dictionary, error) {
	dict := &Dictionary{}
	if err := yaml.Unmarshal(raw, dict); err != nil {
		return nil, fmt.Errorf("decode %s dictionary: %w", locale, err)
	}
	if err := dict.validate(locale); err != nil {
		return nil, err
	}
	return dict, nil
}

// Get returns the dictionary for locale, falling back to English.
func (c *Catalog) Get(locale Locale) *Dictionary {
	if dict, ok := c.dicts[locale]; ok {
		return dict
	}
	return c.dicts[English]
}
