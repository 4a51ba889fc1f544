package session

// Decision is the route-guard outcome for a protected view.
type Decision int

// Guard decisions.
const (
	// DecisionPending means identity resolution is still in progress and
	// the view should render a neutral placeholder.
	DecisionPending Decision = iota
	// DecisionProceed means the session is valid for the destination.
	DecisionProceed
	// DecisionRedirect means the user must log in first; the originally
	// intended destination is preserved for the post-login redirect.
	DecisionRedirect
)

// Redirect describes where an unauthenticated user is sent and where they
// return to after logging in.
type Redirect struct {
	Target string
	Then   string
}

// LoginRoute is the destination for unauthenticated sessions.
const LoginRoute = "login"

// Guard decides whether the session may access the given destination.
func (g *Gate) Guard(destination string) (Decision, *Redirect) {
	if g.IsLoading() {
		return DecisionPending, nil
	}
	if !g.IsAuthenticated() {
		return DecisionRedirect, &Redirect{Target: LoginRoute, Then: destination}
	}
	return DecisionProceed, nil
}
