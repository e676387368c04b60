package bot

import (
	"fmt"
	"strings"
	"time"

	"github.com/i474232898/weather-bot/internal/weather"
)

func helpPanel(p string, now time.Time) weather.Panel {
	return weather.Panel{
		Title:       "🌦️ Weather Bot Commands",
		Description: "Here are all the available commands and features you can use with the Weather Bot:",
		Color:       weather.ColorDefault,
		Fields: []weather.Field{
			{
				Name: "📊 Weather Information",
				Value: strings.Join([]string{
					fmt.Sprintf("`%sweather` - Show detailed weather for all saved locations", p),
					fmt.Sprintf("`%sweather [location]` - Show comprehensive weather for a specific location", p),
					fmt.Sprintf("`%sforecast <location>` - Get detailed 5-day weather forecast with time breakdown", p),
				}, "\n"),
			},
			{
				Name: "📝 Location Management",
				Value: strings.Join([]string{
					fmt.Sprintf("`%saddlocation <location>` - Add a location to your saved locations", p),
					fmt.Sprintf("`%sremovelocation <location>` - Remove a location from your saved locations", p),
					fmt.Sprintf("`%slistlocations` - List all your saved locations", p),
				}, "\n"),
			},
			{
				Name: "🔍 Detailed Weather Data",
				Value: strings.Join([]string{
					"• Wind speed, direction, and gusts",
					"• Humidity and atmospheric pressure",
					"• Visibility and cloudiness percentage",
					"• Air quality index and pollutant levels",
					"• Precipitation measurements and probabilities",
					"• Sunrise and sunset times with a day/night indicator",
					"• Temperature feels-like and min/max values",
					"• Rain, temperature and cloud maps",
				}, "\n"),
			},
			{
				Name:  "❓ Help",
				Value: fmt.Sprintf("`%sweatherhelp` - Show this help message", p),
			},
		},
		Footer:    "Data provided by OpenWeatherMap",
		Timestamp: now,
	}
}
