// internal/domain/screening/questions.go
package screening

import (
	"fmt"
	"strings"
)

// QuestionCount is the number of items in the questionnaire.
const QuestionCount = 9

// ErrQuestionOutOfRange is returned when a question index is outside [0, QuestionCount).
var ErrQuestionOutOfRange = fmt.Errorf("question index out of range")

// questions holds the PHQ-9 prompts in the order they are asked.
var questions = [QuestionCount]string{
	"Over the last 2 weeks, how often have you been bothered by little interest or pleasure in doing things?",
	"Over the last 2 weeks, how often have you been feeling down, depressed, or hopeless?",
	"Over the last 2 weeks, how often have you had trouble falling or staying asleep, or sleeping too much?",
	"Over the last 2 weeks, how often have you been feeling tired or having little energy?",
	"Over the last 2 weeks, how often have you had poor appetite or overeating?",
	"Over the last 2 weeks, how often have you been feeling bad about yourself or that you are a failure?",
	"Over the last 2 weeks, how often have you had trouble concentrating on things?",
	"Over the last 2 weeks, how often have you been moving or speaking so slowly that other people could have noticed? Or the opposite - being so fidgety or restless that you have been moving around a lot more than usual?",
	"Over the last 2 weeks, how often have you had thoughts that you would be better off dead or of hurting yourself in some way?",
}

// optionLabels are indexed by ResponseOption.
var optionLabels = [4]string{
	"Not at all",
	"Several days",
	"More than half the days",
	"Nearly every day",
}

// QuestionAt returns the prompt for the given index.
func QuestionAt(index int) (string, error) {
	if index < 0 || index >= QuestionCount {
		return "", fmt.Errorf("%w: %d", ErrQuestionOutOfRange, index)
	}
	return questions[index], nil
}

// OptionLabels returns a copy of the answer labels, ordered by score.
func OptionLabels() []string {
	labels := make([]string, len(optionLabels))
	copy(labels, optionLabels[:])
	return labels
}

// OptionMenu renders the numbered answer list, one label per line.
func OptionMenu() string {
	var b strings.Builder
	for i, label := range optionLabels {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%d. %s", i+1, label)
	}
	return b.String()
}

// QuestionPrompt is the question text followed by the answer menu, as shown to the user.
func QuestionPrompt(index int) (string, error) {
	q, err := QuestionAt(index)
	if err != nil {
		return "", err
	}
	return q + "\n\nPlease respond with:\n" + OptionMenu(), nil
}
