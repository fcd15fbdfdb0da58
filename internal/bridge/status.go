package bridge

// Status tokens written to the status sink for the UI.
const (
	StatusUninitialized = "uninitialized"
	StatusJoining       = "joining"
	StatusJoined        = "joined"
	StatusJoinFailed    = "join failed"
	StatusRejoinFailed  = "rejoin failed"
	StatusLinkDead      = "link dead"
)
