package dialog

import "strings"

// State is the wizard's position in the intake sequence. Confirmation
// prompts are their own states so a session is fully described by its
// record, with no stored continuations.
type State int

const (
	StateStart State = iota
	StateEmergencyCheck
	StateName
	StateNameConfirm
	StateDateOfBirth
	StateDateOfBirthConfirm
	StateIssue
	StateIssueConfirm
	StateTheftPhoto
	StateTheftCaptionConfirm
	StateAssaultServices
	StateAssaultInjuries
	StateAssaultInjuryPhotos
	StateResolved
)

func (s State) String() string {
	switch s {
	case StateStart:
		return "start"
	case StateEmergencyCheck:
		return "emergency_check"
	case StateName:
		return "name"
	case StateNameConfirm:
		return "name_confirm"
	case StateDateOfBirth:
		return "date_of_birth"
	case StateDateOfBirthConfirm:
		return "date_of_birth_confirm"
	case StateIssue:
		return "issue"
	case StateIssueConfirm:
		return "issue_confirm"
	case StateTheftPhoto:
		return "theft_photo"
	case StateTheftCaptionConfirm:
		return "theft_caption_confirm"
	case StateAssaultServices:
		return "assault_services"
	case StateAssaultInjuries:
		return "assault_injuries"
	case StateAssaultInjuryPhotos:
		return "assault_injury_photos"
	case StateResolved:
		return "resolved"
	default:
		return "unknown"
	}
}

// Classification is the incident category derived from the classifier's
// top intent. It is re-derived on every classification, never patched.
type Classification int

const (
	ClassNone Classification = iota
	ClassTheft
	ClassAssault
	ClassHarassment
	ClassCarCrash
	ClassCriminalDamage
	ClassInformation
)

func (c Classification) String() string {
	switch c {
	case ClassTheft:
		return "theft"
	case ClassAssault:
		return "assault"
	case ClassHarassment:
		return "harassment"
	case ClassCarCrash:
		return "car crash"
	case ClassCriminalDamage:
		return "criminal damage"
	case ClassInformation:
		return "information"
	case ClassNone:
		return "none"
	default:
		return "unknown"
	}
}

// ClassificationFromIntent maps a classifier intent label to a
// Classification. ok is false for labels outside the known set; the
// wizard stays on the issue question in that case.
func ClassificationFromIntent(intent string) (Classification, bool) {
	switch strings.ToLower(strings.TrimSpace(intent)) {
	case "theft":
		return ClassTheft, true
	case "assault":
		return ClassAssault, true
	case "harassment":
		return ClassHarassment, true
	case "carcrash":
		return ClassCarCrash, true
	case "criminaldamage":
		return ClassCriminalDamage, true
	case "information":
		return ClassInformation, true
	case "none":
		return ClassNone, true
	default:
		return ClassNone, false
	}
}
