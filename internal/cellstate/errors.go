package cellstate

import "github.com/pkg/errors"

// Sentinel errors for the cell-state ledger. All of them are programmer
// errors from the simulator's perspective (see spec.md §7) and should
// terminate the run rather than being retried.
var (
	ErrInvalidConfig     = errors.New("invalid cell-state configuration")
	ErrNoSuchMachine     = errors.New("no such machine")
	ErrOvercommit        = errors.New("machine would be overcommitted")
	ErrNotHolding        = errors.New("scheduler holds no such resources")
	ErrUnderfree         = errors.New("attempted to free more than is held")
	ErrProtocolViolation = errors.New("protocol violation")
)

// underfreeTolerance absorbs floating-point accumulation error when
// comparing held resources against a free request, per spec.md §5/§9.
const underfreeTolerance = 1e-3
