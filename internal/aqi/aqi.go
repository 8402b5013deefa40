package aqi

import "math"

// ConvertOpenWeatherIndex maps the OpenWeather 1-5 air quality index
// (1=Good .. 5=Very Poor) onto an approximate US EPA 0-500 scale.
// Unrecognized codes fall back to 100.
func ConvertOpenWeatherIndex(code int) float64 {
	switch code {
	case 1:
		return 25
	case 2:
		return 75
	case 3:
		return 125
	case 4:
		return 175
	case 5:
		return 250
	default:
		return 100
	}
}

// CategoryInfo describes an AQI severity bucket.
type CategoryInfo struct {
	Name          string `json:"name"`
	Color         string `json:"color"`
	HealthMessage string `json:"healthMessage"`
}

// Category buckets an AQI value into the US EPA categories. It is total over
// the real line: NaN maps to "Unknown".
func Category(aqi float64) CategoryInfo {
	switch {
	case math.IsNaN(aqi):
		return CategoryInfo{
			Name:          "Unknown",
			Color:         "#808080",
			HealthMessage: "Data not available",
		}
	case aqi <= 50:
		return CategoryInfo{
			Name:          "Good",
			Color:         "#00E400",
			HealthMessage: "Air quality is satisfactory, and air pollution poses little or no risk.",
		}
	case aqi <= 100:
		return CategoryInfo{
			Name:          "Moderate",
			Color:         "#FFFF00",
			HealthMessage: "Air quality is acceptable. However, there may be a risk for some people.",
		}
	case aqi <= 150:
		return CategoryInfo{
			Name:          "Unhealthy for Sensitive Groups",
			Color:         "#FF7E00",
			HealthMessage: "Members of sensitive groups may experience health effects.",
		}
	case aqi <= 200:
		return CategoryInfo{
			Name:          "Unhealthy",
			Color:         "#FF0000",
			HealthMessage: "Some members of the general public may experience health effects.",
		}
	case aqi <= 300:
		return CategoryInfo{
			Name:          "Very Unhealthy",
			Color:         "#8F3F97",
			HealthMessage: "Health alert: The risk of health effects is increased for everyone.",
		}
	default:
		return CategoryInfo{
			Name:          "Hazardous",
			Color:         "#7E0023",
			HealthMessage: "Health warning of emergency conditions: everyone is more likely to be affected.",
		}
	}
}

// Alert thresholds for the dashboard surface.
const (
	AlertUnhealthyThreshold = 150
	AlertHazardousThreshold = 200
)

// AlertLevel reports the alert band a value falls into: "" (none),
// "unhealthy" (>150) or "hazardous" (>200).
func AlertLevel(aqi float64) string {
	switch {
	case math.IsNaN(aqi):
		return ""
	case aqi > AlertHazardousThreshold:
		return "hazardous"
	case aqi > AlertUnhealthyThreshold:
		return "unhealthy"
	default:
		return ""
	}
}
