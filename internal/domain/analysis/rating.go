package analysis

import "strings"

// Rating is the environmental impact category of a product.
type Rating string

const (
	RatingFriendly  Rating = "friendly"
	RatingModerate  Rating = "moderate"
	RatingHarmful   Rating = "harmful"
	RatingHazardous Rating = "hazardous"
)

// Ratings lists every valid rating, best first.
var Ratings = []Rating{RatingFriendly, RatingModerate, RatingHarmful, RatingHazardous}

// Valid reports whether r is one of the four known ratings.
func (r Rating) Valid() bool {
	switch r {
	case RatingFriendly, RatingModerate, RatingHarmful, RatingHazardous:
		return true
	}
	return false
}

// ParseRating trims and lower-cases s. Unknown values become moderate.
func ParseRating(s string) Rating {
	r := Rating(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return RatingModerate
	}
	return r
}

var ratingColors = map[Rating]string{
	RatingFriendly:  "success",
	RatingModerate:  "warning",
	RatingHarmful:   "danger",
	RatingHazardous: "dark",
}

var ratingDescriptions = map[Rating]string{
	RatingFriendly:  "Environmentally Friendly - Minimal impact",
	RatingModerate:  "Moderate Impact - Some concerns",
	RatingHarmful:   "Harmful - Significant environmental concerns",
	RatingHazardous: "Hazardous - Severe environmental impact",
}

// RatingColor maps a rating to its display color token.
func RatingColor(r Rating) string {
	if c, ok := ratingColors[r]; ok {
		return c
	}
	return "secondary"
}

// RatingDescription maps a rating to its human readable description.
func RatingDescription(r Rating) string {
	if d, ok := ratingDescriptions[r]; ok {
		return d
	}
	return "Unknown rating"
}
