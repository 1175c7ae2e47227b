package machine

import "errors"

var (
	ErrDanglingNode      = errors.New("machine: dangling pose node handle")
	ErrDanglingState     = errors.New("machine: dangling state handle")
	ErrDanglingClip      = errors.New("machine: dangling animation handle")
	ErrCycle             = errors.New("machine: pose graph cycle")
	ErrRecursionLimit    = errors.New("machine: pose graph too deep")
	ErrLeafNode          = errors.New("machine: node has no inputs")
	ErrInvalidCondition  = errors.New("machine: invalid condition")
	ErrTransitionActive  = errors.New("machine: transition already active")
	ErrInvalidTransition = errors.New("machine: invalid transition")
	ErrInvalidDocument   = errors.New("machine: invalid document")
)
