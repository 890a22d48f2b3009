package transaction

import "fmt"

// Action identifies the kind of outbound command a transaction carries.
type Action int

const (
	ActionUnknown Action = iota
	// ActionGetData reads controller registers.
	ActionGetData
	// ActionSetData writes controller registers.
	ActionSetData
	// ActionWellControl executes a device control action (start, stop, scan, ...).
	ActionWellControl
	// ActionGetCard, ActionGetHistory and ActionDownloadConfig are recognized
	// action families whose payload assembly has not been built yet. The
	// composer rejects them with NotYetSupportedError; they are extension
	// points, not error states.
	ActionGetCard
	ActionGetHistory
	ActionDownloadConfig
)

// Binary op codes embedded in read/write buffers. Well control buffers carry
// the device control code instead.
const (
	opCodeGetData int32 = 1
	opCodeSetData int32 = 2
)

func (a Action) String() string {
	switch a {
	case ActionGetData:
		return "GetData"
	case ActionSetData:
		return "SetData"
	case ActionWellControl:
		return "WellControl"
	case ActionGetCard:
		return "GetCard"
	case ActionGetHistory:
		return "GetHistory"
	case ActionDownloadConfig:
		return "DownloadConfig"
	default:
		return fmt.Sprintf("Action(%d)", int(a))
	}
}

// Task returns the legacy Task column value for the action. The strings are
// a case-sensitive wire contract consumed by the field communication
// service; ok is false for actions that have no task mapping.
func (a Action) Task() (string, bool) {
	switch a {
	case ActionGetData:
		return "GetData", true
	case ActionSetData:
		return "SetData", true
	case ActionWellControl:
		return "WellControl", true
	default:
		return "", false
	}
}

// ParseAction maps a task name back to its Action. Matching is
// case-sensitive, mirroring the column contract.
func ParseAction(s string) (Action, bool) {
	switch s {
	case "GetData":
		return ActionGetData, true
	case "SetData":
		return ActionSetData, true
	case "WellControl":
		return ActionWellControl, true
	case "GetCard":
		return ActionGetCard, true
	case "GetHistory":
		return ActionGetHistory, true
	case "DownloadConfig":
		return ActionDownloadConfig, true
	default:
		return ActionUnknown, false
	}
}
