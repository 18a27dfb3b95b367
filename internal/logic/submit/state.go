package submit

// State 单笔交易提交流程的状态。状态只沿箭头前进，不回退：
//
//	Idle -> Building -> Signed -> Broadcast <-> Confirming -> Confirmed
//	                 \__________ 任一环节失败 __________/-> Failed
type State uint8

const (
	StateIdle State = iota
	StateBuilding
	StateSigned
	StateBroadcast
	StateConfirming
	StateConfirmed
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateBuilding:
		return "building"
	case StateSigned:
		return "signed"
	case StateBroadcast:
		return "broadcast"
	case StateConfirming:
		return "confirming"
	case StateConfirmed:
		return "confirmed"
	case StateFailed:
		return "failed"
	default:
		return "invalid"
	}
}

// Terminal 判断是否为终态。
func (s State) Terminal() bool {
	return s == StateConfirmed || s == StateFailed
}
