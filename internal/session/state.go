package session

// State is the lifecycle state of the active session.
//
//	LoggedOut --SetActiveUser--> ActiveNoKey --SetKey/Unlock--> ActiveUnlocked
//	ActiveUnlocked --SetActiveUser(other)--> ActiveNoKey
//	any --SetActiveUser(nil)--> LoggedOut
type State int

const (
	LoggedOut State = iota
	ActiveNoKey
	ActiveUnlocked
)

func (s State) String() string {
	switch s {
	case LoggedOut:
		return "logged-out"
	case ActiveNoKey:
		return "active-no-key"
	case ActiveUnlocked:
		return "active-unlocked"
	default:
		return "unknown"
	}
}
