package session

// Phase is the controller's stage in the session lifecycle.
type Phase int

const (
	// PhaseRegistration waits for a nickname the server accepts.
	PhaseRegistration Phase = iota
	// PhaseConnected forwards chat text and dispatches local commands.
	PhaseConnected
	// PhaseDisconnected only accepts quit.
	PhaseDisconnected
)

const (
	PromptNickname     = "Please enter your desired nickname: "
	PromptConnected    = "[connected] >>> "
	PromptDisconnected = "[disconnected] !!! "

	// DefaultCommandPrefix marks a line as a local command.
	DefaultCommandPrefix = "."

	quitInput = "quit"
)

func (p Phase) String() string {
	switch p {
	case PhaseRegistration:
		return "registration"
	case PhaseConnected:
		return "connected"
	case PhaseDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// Prompt returns the input prompt shown in phase p.
func Prompt(p Phase) string {
	switch p {
	case PhaseConnected:
		return PromptConnected
	case PhaseDisconnected:
		return PromptDisconnected
	default:
		return PromptNickname
	}
}
