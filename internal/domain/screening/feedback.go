package screening

import "fmt"

// MaxTotalScore is the highest possible sum of the nine item scores.
const MaxTotalScore = QuestionCount * 3

// CrisisFooter is appended to every feedback message.
const CrisisFooter = "If you need immediate help, please contact:\n- Emergency Services: 999\n- National Suicide Prevention Lifeline: 2382 0000\n- Crisis Text Line: 2382 2738"

// ErrScoreOutOfRange is returned for totals outside 0..MaxTotalScore.
var ErrScoreOutOfRange = fmt.Errorf("total score out of range")

// Tier is a severity band derived from the total score.
type Tier int

const (
	TierMinimal Tier = iota
	TierMild
	TierModerate
	TierModeratelySevere
	TierSevere
)

type tierBand struct {
	tier    Tier
	upper   int // inclusive
	name    string
	message string
}

// bands are ordered and contiguous; each starts one above the previous upper bound.
var bands = []tierBand{
	{TierMinimal, 4, "minimal", "Your responses suggest minimal depression. However, if you're experiencing any concerns, please don't hesitate to speak with a healthcare provider."},
	{TierMild, 9, "mild", "Your responses suggest mild depression. It might be helpful to discuss your feelings with a healthcare provider."},
	{TierModerate, 14, "moderate", "Your responses suggest moderate depression. We strongly recommend speaking with a healthcare provider about your symptoms."},
	{TierModeratelySevere, 19, "moderately_severe", "Your responses suggest moderately severe depression. Please consider speaking with a healthcare provider as soon as possible."},
	{TierSevere, MaxTotalScore, "severe", "Your responses suggest severe depression. We strongly recommend seeking help from a healthcare provider immediately."},
}

// Classify maps a total score in [0, MaxTotalScore] to its tier.
func Classify(total int) (Tier, error) {
	if total < 0 || total > MaxTotalScore {
		return 0, fmt.Errorf("%w: %d", ErrScoreOutOfRange, total)
	}
	for _, b := range bands {
		if total <= b.upper {
			return b.tier, nil
		}
	}
	// unreachable: the last band ends at MaxTotalScore
	return TierSevere, nil
}

func (t Tier) String() string {
	if t < TierMinimal || t > TierSevere {
		return fmt.Sprintf("Tier(%d)", int(t))
	}
	return bands[t].name
}

// Message is the feedback text for the tier, without the crisis footer.
func (t Tier) Message() string {
	if t < TierMinimal || t > TierSevere {
		return ""
	}
	return bands[t].message
}

// FeedbackMessage is the full completion message for a total score.
func FeedbackMessage(total int) (string, error) {
	tier, err := Classify(total)
	if err != nil {
		return "", err
	}
	return tier.Message() + "\n\n" + CrisisFooter, nil
}
