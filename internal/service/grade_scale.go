package service

import "math"

// letterMidpoints maps each letter grade to the representative numeric value
// used when a grade is recorded by letter only.
var letterMidpoints = map[string]float64{
	"A+": 98, "A": 95, "A-": 91,
	"B+": 88, "B": 85, "B-": 82,
	"C+": 78, "C": 75, "C-": 72,
	"D+": 68, "D": 65, "D-": 62,
	"F": 55,
}

// letterPoints maps each letter grade to its value on the 4.0 scale.
var letterPoints = map[string]float64{
	"A+": 4.0, "A": 4.0, "A-": 3.7,
	"B+": 3.3, "B": 3.0, "B-": 2.7,
	"C+": 2.3, "C": 2.0, "C-": 1.7,
	"D+": 1.3, "D": 1.0, "D-": 0.7,
	"F": 0.0,
}

// numericBands holds the inclusive lower bound of each letter band, highest
// first. Anything below 60 is an F.
var numericBands = []struct {
	floor  float64
	letter string
}{
	{97, "A+"}, {93, "A"}, {90, "A-"},
	{87, "B+"}, {83, "B"}, {80, "B-"},
	{77, "C+"}, {73, "C"}, {70, "C-"},
	{67, "D+"}, {63, "D"}, {60, "D-"},
}

// ValidLetterGrade reports whether the letter is part of the grading scale.
func ValidLetterGrade(letter string) bool {
	_, ok := letterPoints[letter]
	return ok
}

// NumericFromLetter returns the representative numeric value for a letter grade.
func NumericFromLetter(letter string) (float64, bool) {
	numeric, ok := letterMidpoints[letter]
	return numeric, ok
}

// LetterFromNumeric converts a 0-100 numeric grade to its letter band.
// Banding is lossy: converting back yields the band midpoint, not the input.
func LetterFromNumeric(numeric float64) string {
	for _, band := range numericBands {
		if numeric >= band.floor {
			return band.letter
		}
	}
	return "F"
}

// PointsFromLetter returns the 4.0-scale grade points for a letter grade.
func PointsFromLetter(letter string) (float64, bool) {
	points, ok := letterPoints[letter]
	return points, ok
}

// round2 rounds to two decimal places using banker's rounding.
func round2(v float64) float64 {
	return math.RoundToEven(v*100) / 100
}
