package antfleet

import (
	"errors"
	"net/http"

	"antmonitor/ant"
	"antmonitor/fleet"
)

// classify maps an ant client error onto the fleet taxonomy. Anything that
// is not an HTTP, envelope or decode failure is a transport problem.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var (
		se *ant.StatusError
		re *ant.RetcodeError
		de *ant.DecodeError
	)
	kind := fleet.ErrNetwork
	switch {
	case errors.Is(err, ant.ErrNoSession):
		kind = fleet.ErrNotConnected
	case errors.As(err, &se):
		kind = fleet.ErrServer
		if se.Code == http.StatusUnauthorized || se.Code == http.StatusForbidden {
			kind = fleet.ErrAuth
		}
	case errors.As(err, &re):
		kind = fleet.ErrServer
		if re.Code == ant.RetcodeUnauthorized {
			kind = fleet.ErrAuth
		}
	case errors.As(err, &de):
		kind = fleet.ErrParse
	}
	return &fleet.Error{Kind: kind, Op: op, Err: err}
}
