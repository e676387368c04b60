package weather

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestColorForBoundaries(t *testing.T) {
	cases := map[int]int{
		199: ColorDefault,
		200: ColorThunderstorm,
		299: ColorThunderstorm,
		300: ColorDrizzle,
		399: ColorDrizzle,
		400: ColorDefault,
		500: ColorRain,
		599: ColorRain,
		600: ColorSnow,
		700: ColorAtmosphere,
		799: ColorAtmosphere,
		800: ColorClear,
		801: ColorClouds,
		804: ColorClouds,
	}
	for id, want := range cases {
		assert.Equalf(t, want, ColorFor(id), "ColorFor(%d)", id)
	}
}

func TestEmojiForBoundaries(t *testing.T) {
	cases := map[int]string{
		0:   EmojiDefault,
		199: EmojiDefault,
		200: EmojiThunderstorm,
		299: EmojiThunderstorm,
		300: EmojiRain,
		500: EmojiRain,
		599: EmojiRain,
		600: EmojiSnow,
		700: EmojiAtmosphere,
		799: EmojiAtmosphere,
		800: EmojiClear,
		801: EmojiClouds,
	}
	for id, want := range cases {
		assert.Equalf(t, want, EmojiFor(id), "EmojiFor(%d)", id)
	}
}

func TestDominantCondition(t *testing.T) {
	tests := []struct {
		name string
		ids  []int
		want int
	}{
		{"rain beats clouds", []int{801, 501}, 501},
		{"snow beats clouds", []int{801, 601}, 601},
		{"thunderstorm by lower id", []int{801, 200}, 200},
		{"order independent", []int{501, 801}, 501},
		{"clear never beats rain", []int{500, 800, 800}, 500},
		{"lower id among severe", []int{601, 501, 701}, 501},
		{"single", []int{800}, 800},
		{"empty", nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DominantCondition(tt.ids))
		})
	}
}

func TestWindDirection(t *testing.T) {
	cases := map[float64]string{
		0:      "N",
		11.24:  "N",
		11.25:  "NNE",
		90:     "E",
		180:    "S",
		202.5:  "SSW",
		270:    "W",
		348.75: "N",
		359:    "N",
		360:    "N",
	}
	for deg, want := range cases {
		assert.Equalf(t, want, WindDirection(deg), "WindDirection(%v)", deg)
	}
}

func TestDescribeAQI(t *testing.T) {
	assert.Equal(t, "Good", DescribeAQI(1).Label)
	assert.Equal(t, "Moderate", DescribeAQI(3).Label)
	assert.Equal(t, "Very Poor", DescribeAQI(5).Label)

	unknown := DescribeAQI(9)
	assert.Equal(t, "Unknown", unknown.Label)
	assert.Equal(t, "❓", unknown.Emoji)
}
