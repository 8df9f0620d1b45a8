package auth

import "strings"

// State is a recognized page location in the provider login flow. The flow is
// opaque and multi-step, so login is driven as a state machine over what is
// currently visible rather than as one request/response.
type State int

const (
	// StateUnknown means the visible content matched no known page
	StateUnknown State = iota

	// StateLoginForm is the credentials form, before or after a rejected submit
	StateLoginForm

	// StateEmailVerification is the "verify your email" interstitial
	StateEmailVerification

	// StatePinConfirm is the PIN-confirmation interstitial
	StatePinConfirm

	// StateDashboard is the target: the post-login dashboard or patient list
	StateDashboard
)

func (s State) String() string {
	switch s {
	case StateLoginForm:
		return "login_form"
	case StateEmailVerification:
		return "email_verification"
	case StatePinConfirm:
		return "pin_confirm"
	case StateDashboard:
		return "dashboard"
	default:
		return "unknown"
	}
}

var (
	dashboardMarkers = []string{
		"whiteboard", "patient list", "dashboard", "census", "my patients",
	}
	pinMarkers = []string{
		"enter your pin", "pin code", "confirmation code", "enter the code", "security pin",
	}
	emailMarkers = []string{
		"verify your email", "email verification", "check your email",
		"verification email", "confirm your email",
	}
	loginMarkers = []string{
		"sign in", "log in", "forgot password", "forgot your password",
	}
	credentialErrorMarkers = []string{
		"invalid", "incorrect", "does not match", "try again", "wrong password",
	}
)

// DetectState classifies a page purely by the type of content visible on it.
// Interstitials are checked before the login form because their pages often
// still carry login-ish copy in headers or footers.
func DetectState(pageText string) State {
	text := strings.ToLower(pageText)

	if containsAny(text, dashboardMarkers) {
		return StateDashboard
	}
	if containsAny(text, pinMarkers) {
		return StatePinConfirm
	}
	if containsAny(text, emailMarkers) {
		return StateEmailVerification
	}
	if containsAny(text, loginMarkers) {
		return StateLoginForm
	}
	return StateUnknown
}

// HasCredentialError reports whether a login-form page is showing a visible
// credentials-rejected message
func HasCredentialError(pageText string) bool {
	return containsAny(strings.ToLower(pageText), credentialErrorMarkers)
}

// ActionKind is what a dismiss plan asks the driver to do
type ActionKind int

const (
	// ActionNone means there is nothing to dismiss in this state
	ActionNone ActionKind = iota

	// ActionClickAny means click the first visible affordance matching Labels
	ActionClickAny

	// ActionEnterPin means enter the PIN, then click a confirm affordance
	ActionEnterPin
)

// Action is a plan for passing an interstitial. Every plan has the same
// fallback contract: when its affordances cannot be found, navigate directly
// to the target list view.
type Action struct {
	Kind ActionKind

	// Labels are the dismiss affordances to search for, broadest first.
	// The provider's button copy is not contractually stable.
	Labels []string
}

// PlanDismiss returns how to get past the given interstitial state.
// Pure: feeding it synthetic states in tests needs no browser.
func PlanDismiss(s State) Action {
	switch s {
	case StateEmailVerification:
		return Action{
			Kind: ActionClickAny,
			Labels: []string{
				"skip", "later", "not now", "maybe later", "remind me later",
				"no thanks", "dismiss", "continue",
			},
		}
	case StatePinConfirm:
		return Action{
			Kind:   ActionEnterPin,
			Labels: []string{"confirm", "verify", "submit", "continue", "ok"},
		}
	default:
		return Action{Kind: ActionNone}
	}
}

func containsAny(text string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(text, m) {
			return true
		}
	}
	return false
}
