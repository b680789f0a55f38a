package sequencer

// State is a stage of the session sequence. States only move forward; a fatal
// failure jumps straight to Terminated.
type State int

const (
	Initializing State = iota
	ConfiguringEnvironment
	StartingSplash
	StartingCore
	StartingSessionManager
	AwaitingShutdownPeers
	CleaningUp
	Terminated
)

var stateNames = [...]string{
	Initializing:           "Initializing",
	ConfiguringEnvironment: "ConfiguringEnvironment",
	StartingSplash:         "StartingSplash",
	StartingCore:           "StartingCore",
	StartingSessionManager: "StartingSessionManager",
	AwaitingShutdownPeers:  "AwaitingShutdownPeers",
	CleaningUp:             "CleaningUp",
	Terminated:             "Terminated",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "Unknown"
	}
	return stateNames[s]
}
