package proc

type Tstate uint32

const (
	UNUSED Tstate = iota
	USED
	SLEEPING
	RUNNABLE
	RUNNING
	ZOMBIE
)

func (st Tstate) String() string {
	switch st {
	case UNUSED:
		return "unused"
	case USED:
		return "used"
	case SLEEPING:
		return "sleep"
	case RUNNABLE:
		return "runble"
	case RUNNING:
		return "run"
	case ZOMBIE:
		return "zombie"
	default:
		return "???"
	}
}
