package weather

import "math"

// Panel accent colors.
const (
	ColorThunderstorm = 0x5A5A5A
	ColorDrizzle      = 0x89CFF0
	ColorRain         = 0x0066CC
	ColorSnow         = 0xFFFFFF
	ColorAtmosphere   = 0xAAAAAA
	ColorClear        = 0xFFD700
	ColorClouds       = 0x87CEEB
	ColorDefault      = 0x0099FF
)

// Condition emoji.
const (
	EmojiThunderstorm = "⚡"
	EmojiRain         = "🌧️"
	EmojiSnow         = "❄️"
	EmojiAtmosphere   = "🌫️"
	EmojiClear        = "☀️"
	EmojiClouds       = "⛅"
	EmojiDefault      = "☁️"
)

func isThunderstorm(id int) bool { return id >= 200 && id < 300 }
func isRain(id int) bool         { return id >= 500 && id < 600 }
func isSnow(id int) bool         { return id >= 600 && id < 700 }
func isAtmosphere(id int) bool   { return id >= 700 && id < 800 }

// ColorFor maps a provider condition id to a panel color.
func ColorFor(id int) int {
	switch {
	case isThunderstorm(id):
		return ColorThunderstorm
	case id >= 300 && id < 400:
		return ColorDrizzle
	case isRain(id):
		return ColorRain
	case isSnow(id):
		return ColorSnow
	case isAtmosphere(id):
		return ColorAtmosphere
	case id == 800:
		return ColorClear
	case id > 800:
		return ColorClouds
	default:
		return ColorDefault
	}
}

// EmojiFor maps a provider condition id to an emoji. The 400s have no
// provider meaning and share the drizzle/rain emoji.
func EmojiFor(id int) string {
	switch {
	case isThunderstorm(id):
		return EmojiThunderstorm
	case id >= 300 && id < 600:
		return EmojiRain
	case isSnow(id):
		return EmojiSnow
	case isAtmosphere(id):
		return EmojiAtmosphere
	case id == 800:
		return EmojiClear
	case id > 800:
		return EmojiClouds
	default:
		return EmojiDefault
	}
}

// AQIInfo describes an air-quality index value.
type AQIInfo struct {
	Label       string `json:"label"`
	Emoji       string `json:"emoji"`
	Description string `json:"description"`
}

var aqiTable = map[int]AQIInfo{
	1: {"Good", "🟢", "Air quality is considered satisfactory, and air pollution poses little or no risk."},
	2: {"Fair", "🟡", "Air quality is acceptable; however, some pollutants may be moderate."},
	3: {"Moderate", "🟠", "Members of sensitive groups may experience health effects."},
	4: {"Poor", "🔴", "Everyone may begin to experience health effects; sensitive groups may experience more serious effects."},
	5: {"Very Poor", "🟣", "Health warnings of emergency conditions. The entire population is more likely to be affected."},
}

// DescribeAQI returns the label, emoji and description for an AQI value.
func DescribeAQI(aqi int) AQIInfo {
	if info, ok := aqiTable[aqi]; ok {
		return info
	}
	return AQIInfo{Label: "Unknown", Emoji: "❓", Description: "No air quality data available."}
}

var compass = [16]string{
	"N", "NNE", "NE", "ENE", "E", "ESE", "SE", "SSE",
	"S", "SSW", "SW", "WSW", "W", "WNW", "NW", "NNW",
}

// WindDirection converts degrees to a 16-point compass direction.
func WindDirection(deg float64) string {
	idx := int(math.Round(deg/22.5)) % 16
	if idx < 0 {
		idx += 16
	}
	return compass[idx]
}

// DominantCondition picks the condition that represents a group of ids.
// A lower id wins; rain or snow additionally win over clear/clouds (>= 800).
// Returns 0 for an empty slice.
func DominantCondition(ids []int) int {
	if len(ids) == 0 {
		return 0
	}
	dominant := ids[0]
	for _, id := range ids {
		if id < dominant || ((isRain(id) || isSnow(id)) && dominant >= 800) {
			dominant = id
		}
	}
	return dominant
}
