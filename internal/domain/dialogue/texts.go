package dialogue

// Literal strings shown to the user. They must stay byte-for-byte stable.
const (
	WelcomeText       = "Welcome! I'm here to help you understand your mental well-being. Before we begin, please note that I am not a replacement for professional medical advice. If you're in crisis, please call emergency services immediately."
	ConsentPromptText = "Would you like to participate in a brief mental health screening? Your responses will be kept confidential. Type 'yes' to begin or 'no' to decline."
	ConsentThanksText = "Thank you for agreeing to participate. Let's begin with some questions about how you've been feeling recently."
	DeclineText       = "I understand. If you change your mind, you can start the screening at any time by typing 'start screening'. Remember, if you need immediate help, please contact emergency services or a mental health professional."
	RepromptText      = "Please respond with one of the following options:"
	CheckInText       = "I notice you're expressing some difficult feelings. Would you like to talk more about this? Remember, if you're in crisis, please call emergency services immediately."
	ListeningText     = "I'm here to listen. How are you feeling today?"
)

// Consent replies and commands, compared after trimming and lower-casing.
const (
	ConsentYes            = "yes"
	ConsentNo             = "no"
	StartScreeningCommand = "start screening"
)

// NegativeKeywords trigger the check-in reply outside of a screening.
var NegativeKeywords = []string{"sad", "depressed", "hopeless", "worthless", "suicide", "die", "kill"}
