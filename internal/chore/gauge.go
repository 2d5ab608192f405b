package chore

// Band is a tier of the rank gauge.
type Band string

const (
	BandLow    Band = "low"
	BandMiddle Band = "middle"
	BandTop    Band = "top"
)

const gaugeMaxScore = 150

// BandFor maps a score to its gauge tier: below 50, 50 through 100, above 100.
func BandFor(score float64) Band {
	switch {
	case score < 50:
		return BandLow
	case score <= 100:
		return BandMiddle
	default:
		return BandTop
	}
}

// NeedleAngle returns the gauge needle rotation in degrees, from -90 at a
// score of 0 to 90 at 150 and above. Each band spans 60 degrees.
func NeedleAngle(score float64) float64 {
	if score < 0 {
		score = 0
	}
	switch {
	case score <= 50:
		return -90 + score/50*60
	case score <= 100:
		return -30 + (score-50)/50*60
	default:
		if score > gaugeMaxScore {
			score = gaugeMaxScore
		}
		return 30 + (score-100)/50*60
	}
}
