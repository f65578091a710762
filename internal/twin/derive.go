package twin

// Metrics is everything derived from one InputState. It is recomputed from
// scratch on every change and never stored.
type Metrics struct {
	Risk      int    `json:"risk"`
	RiskLevel Level  `json:"riskLevel"`
	RiskWhy   string `json:"riskWhy"`

	Confidence      int    `json:"confidence"`
	ConfidenceLevel Level  `json:"confidenceLevel"`
	ConfidenceWhy   string `json:"confidenceWhy"`

	AdProfile    string `json:"adProfile"`
	AdProfileWhy string `json:"adProfileWhy"`

	LikelyInterests    []string `json:"likelyInterests"`
	RecommendedActions []string `json:"recommendedActions"`
	Goals              []Goal   `json:"goals"`

	// StrengthScore backs both Strength and Likelihood.
	StrengthScore int      `json:"strengthScore"`
	Strength      Level    `json:"strength"`
	Likelihood    Level    `json:"likelihood"`
	SignalMap     []string `json:"signalMap"`
	UseCases      []string `json:"useCases"`
}

// Derive computes all metrics for s.
func Derive(s InputState) Metrics {
	risk := ComputeRisk(s)
	confidence := ComputeConfidence(s)
	riskLvl := RiskLevel(risk)
	confLvl := ConfidenceLevel(confidence)
	strength := ComputeTwinStrengthScore(s, confidence)

	return Metrics{
		Risk:               risk,
		RiskLevel:          riskLvl,
		RiskWhy:            RiskWhy(s),
		Confidence:         confidence,
		ConfidenceLevel:    confLvl,
		ConfidenceWhy:      ConfidenceWhy(s),
		AdProfile:          PickAdProfile(s),
		AdProfileWhy:       AdProfileWhy(s),
		LikelyInterests:    BuildLikelyInterests(s),
		RecommendedActions: RecommendedActions(s, riskLvl.Label, confLvl.Label),
		Goals:              Goals(riskLvl.Label, confLvl.Label),
		StrengthScore:      strength,
		Strength:           StrengthLevel(strength),
		Likelihood:         LikelihoodLevel(strength),
		SignalMap:          SignalMap(s),
		UseCases:           UseCases(s, confidence, risk),
	}
}
