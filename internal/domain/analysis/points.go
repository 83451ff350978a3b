package analysis

// multiplier per rating, in percent
var ratingMultipliers = map[Rating]int{
	RatingFriendly:  120,
	RatingModerate:  100,
	RatingHarmful:   80,
	RatingHazardous: 50,
}

const (
	MinPoints = 0
	MaxPoints = 100
)

// FinalPoints applies the rating multiplier to base points, truncates toward
// zero and clamps the result to [MinPoints, MaxPoints]. Unknown ratings use a
// multiplier of 1.0.
func FinalPoints(r Rating, base int) int {
	pct := Multiplier(r)
	// any base above 2*MaxPoints saturates for every multiplier
	if base > 2*MaxPoints {
		base = 2 * MaxPoints
	}
	if base < MinPoints {
		base = MinPoints
	}
	return clampPoints(base * pct / 100)
}

func clampPoints(p int) int {
	if p < MinPoints {
		return MinPoints
	}
	if p > MaxPoints {
		return MaxPoints
	}
	return p
}

// Multiplier returns the rating multiplier in percent.
func Multiplier(r Rating) int {
	if pct, ok := ratingMultipliers[r]; ok {
		return pct
	}
	return 100
}
