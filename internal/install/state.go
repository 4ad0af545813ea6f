package install

import "fmt"

// State is a step of the install pipeline.
type State int

const (
	StateIdle State = iota
	StateResolvingPlatform
	StateFetchingManifest
	StateLookingUpChecksum
	StateDownloading
	StateVerifying
	StateExtracting
	StateCleaningUp
	StateDone
	StateFailed
)

var stateNames = []string{
	"idle",
	"resolving platform",
	"fetching manifest",
	"looking up checksum",
	"downloading",
	"verifying",
	"extracting",
	"cleaning up",
	"done",
	"failed",
}

func (s State) String() string {
	if int(s) < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("State(%d)", int(s))
	}
	return stateNames[s]
}

// Terminal reports whether no transition leaves s.
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed
}

// Transition is reported to an Observer on every state change. Detail is a
// short sanitized description of the step (a URL, file name or error).
type Transition struct {
	From   State
	To     State
	Detail string
}

// Observer receives state transitions in order, on the installing goroutine.
type Observer func(Transition)
