package twin

// Tier is the display class of a three-tier band.
type Tier string

const (
	TierLow    Tier = "low"
	TierMedium Tier = "medium"
	TierHigh   Tier = "high"
)

// Level is a banded value: a display label plus its tier.
type Level struct {
	Label string `json:"label"`
	Tier  Tier   `json:"tier"`
}

// Band cut-offs. A value is in the low tier at or below the first number and
// in the medium tier at or below the second.
const (
	RiskLowMax          = 34
	RiskMediumMax       = 65
	ConfidenceLowMax    = 44
	ConfidenceMediumMax = 75
	StrengthLowMax      = 39
	StrengthMediumMax   = 69
)

// Label sets for BandWith, ordered low, medium, high.
var (
	LevelLabels    = [3]string{"Low", "Medium", "High"}
	StrengthLabels = [3]string{"Loose", "Moderate", "Strong"}
)

// Band places value into Low/Medium/High using two inclusive cut-offs.
func Band(value, lowMax, medMax int) Level {
	return BandWith(value, lowMax, medMax, LevelLabels)
}

// BandWith is Band with caller-supplied labels.
func BandWith(value, lowMax, medMax int, labels [3]string) Level {
	switch {
	case value <= lowMax:
		return Level{Label: labels[0], Tier: TierLow}
	case value <= medMax:
		return Level{Label: labels[1], Tier: TierMedium}
	default:
		return Level{Label: labels[2], Tier: TierHigh}
	}
}

// RiskLevel bands a risk score.
func RiskLevel(risk int) Level {
	return Band(risk, RiskLowMax, RiskMediumMax)
}

// ConfidenceLevel bands a targeting confidence score.
func ConfidenceLevel(confidence int) Level {
	return Band(confidence, ConfidenceLowMax, ConfidenceMediumMax)
}

// StrengthLevel frames a twin strength score as mirroring strength.
func StrengthLevel(score int) Level {
	return BandWith(score, StrengthLowMax, StrengthMediumMax, StrengthLabels)
}

// LikelihoodLevel frames the same twin strength score as recreation likelihood.
func LikelihoodLevel(score int) Level {
	return Band(score, StrengthLowMax, StrengthMediumMax)
}
