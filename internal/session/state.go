package session

import (
	"time"

	pkgerrors "codepad/pkg/errors"
)

// LoginType records which flow authenticated the session. The wire strings
// match the persisted cookie values.
type LoginType string

const (
	LoginTypeNone      LoginType = ""
	LoginTypeCognito   LoginType = "cognito"
	LoginTypeGoogleSSO LoginType = "googleSSO"
)

// State is the client-side authentication state. It is only ever mutated
// through Reduce; IsAuthenticated implies SessionToken and UserID are set.
type State struct {
	IsAuthenticated bool
	SessionToken    string
	UserID          string
	LoginType       LoginType
	SessionID       string // reserved for future use
	Expiration      time.Time
	IsLoading       bool
	LastError       pkgerrors.ErrorCode // 0 when no error is pending
}

// EventType enumerates session state transitions.
type EventType int

const (
	LoginStart EventType = iota
	LoginEnd
	LoginError
	LogoutStart
	LogoutEnd
	LogoutError
	SessionSet
	Loading
	DoneLoading
)

// Info is the payload of a SessionSet event.
type Info struct {
	IsAuthenticated bool
	SessionToken    string
	UserID          string
	LoginType       LoginType
	SessionID       string
	Expiration      time.Time
}

// Event is one state transition request.
type Event struct {
	Type    EventType
	Session *Info               // payload for SessionSet
	Err     pkgerrors.ErrorCode // payload for LoginError/LogoutError
}

// Reduce applies one event to the state and returns the next state. It is a
// pure function; every transition is atomic and never partially applied.
func Reduce(s State, ev Event) State {
	switch ev.Type {
	case LoginStart, LogoutStart:
		s.IsLoading = true
		s.LastError = 0
	case SessionSet:
		if ev.Session != nil {
			s.IsAuthenticated = ev.Session.IsAuthenticated
			s.SessionToken = ev.Session.SessionToken
			s.UserID = ev.Session.UserID
			s.LoginType = ev.Session.LoginType
			s.SessionID = ev.Session.SessionID
			s.Expiration = ev.Session.Expiration
		}
	case LoginEnd, LogoutEnd:
		// Flow outcome marker. Authentication itself is set explicitly
		// through SessionSet, never implied here.
		s.LastError = 0
	case LoginError, LogoutError:
		if ev.Err != 0 {
			s.LastError = ev.Err
		} else {
			s.LastError = pkgerrors.InternalError
		}
	case Loading:
		s.IsLoading = true
	case DoneLoading:
		s.IsLoading = false
	}
	return s
}
