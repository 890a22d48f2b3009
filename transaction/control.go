package transaction

import "fmt"

// DeviceControlType enumerates the well control actions a remote controller
// accepts. Each value is bound to a fixed numeric code embedded in the
// binary buffer; the codes are a device contract and never change.
type DeviceControlType int16

const (
	ControlStartWell        DeviceControlType = 1
	ControlStopWell         DeviceControlType = 2
	ControlIdleWell         DeviceControlType = 3
	ControlClearAlarms      DeviceControlType = 4
	ControlConstantRunMode  DeviceControlType = 5
	ControlPocMode          DeviceControlType = 6
	ControlPercentTimerMode DeviceControlType = 7
	ControlScan             DeviceControlType = 8
	ControlSetClock         DeviceControlType = 9
)

// Code returns the numeric wire code for the control type.
func (c DeviceControlType) Code() int32 { return int32(c) }

// Valid reports whether c is a known control type.
func (c DeviceControlType) Valid() bool {
	return c >= ControlStartWell && c <= ControlSetClock
}

func (c DeviceControlType) String() string {
	switch c {
	case ControlStartWell:
		return "StartWell"
	case ControlStopWell:
		return "StopWell"
	case ControlIdleWell:
		return "IdleWell"
	case ControlClearAlarms:
		return "ClearAlarms"
	case ControlConstantRunMode:
		return "ConstantRunMode"
	case ControlPocMode:
		return "PocMode"
	case ControlPercentTimerMode:
		return "PercentTimerMode"
	case ControlScan:
		return "Scan"
	case ControlSetClock:
		return "SetClock"
	default:
		return fmt.Sprintf("DeviceControlType(%d)", int16(c))
	}
}

// ParseDeviceControlType maps a control type name to its value.
func ParseDeviceControlType(s string) (DeviceControlType, bool) {
	for c := ControlStartWell; c <= ControlSetClock; c++ {
		if c.String() == s {
			return c, true
		}
	}
	return 0, false
}
