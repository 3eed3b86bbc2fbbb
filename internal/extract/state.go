package extract

import (
	"strings"

	"github.com/joseph-ayodele/route-settlement/constants"
)

// State is the section the line pass is currently in.
type State int

const (
	StateScanning State = iota
	StateInBonusSection
)

func (s State) String() string {
	switch s {
	case StateScanning:
		return "SCANNING"
	case StateInBonusSection:
		return "IN_BONUS_SECTION"
	default:
		return "UNKNOWN"
	}
}

// Action is what the line pass does with one line.
type Action int

const (
	ActionCaptureName Action = iota // take the driver name from the line
	ActionEnterBonus                // section header, nothing else on the line
	ActionBonusLine                 // inside the bonus section: look for a paid bonus
	ActionEvent                     // delivery status or surcharge detection
)

func (a Action) String() string {
	switch a {
	case ActionCaptureName:
		return "CAPTURE_NAME"
	case ActionEnterBonus:
		return "ENTER_BONUS"
	case ActionBonusLine:
		return "BONUS_LINE"
	case ActionEvent:
		return "EVENT"
	default:
		return "UNKNOWN"
	}
}

// Step returns the action for a folded line and the state for the next line.
// Name capture is checked first and only until a name has been found; the
// bonus header re-enters the section from any state.
func Step(state State, nameFound bool, folded string) (Action, State) {
	if !nameFound && strings.Contains(folded, constants.MarkerDriverName) {
		return ActionCaptureName, state
	}
	if strings.Contains(folded, constants.MarkerBonusSection) {
		return ActionEnterBonus, StateInBonusSection
	}
	if state == StateInBonusSection {
		if strings.TrimSpace(folded) == "" || strings.Contains(folded, constants.MarkerBonusSectionEnd) {
			return ActionBonusLine, StateScanning
		}
		return ActionBonusLine, StateInBonusSection
	}
	return ActionEvent, StateScanning
}
