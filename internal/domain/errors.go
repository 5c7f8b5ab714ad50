package domain

import "errors"

// Error taxonomy shared by every planning stage.
// Callers wrap these with operation context and match them with errors.Is.
var (
	// Malformed geography or parcel input. Fatal, never retried.
	ErrValidation = errors.New("validation error")
	// Address lookup miss against the address table.
	ErrUnknownAddress = errors.New("unknown address")
	// Parcel lookup miss against the parcel repository.
	ErrUnknownParcel = errors.New("unknown parcel")
	// No vehicles are available to take delayed parcels.
	ErrEmptyFleet = errors.New("empty fleet")
	// No capacity-fitting or deadline-respecting assignment exists.
	ErrInfeasible = errors.New("infeasible")
	// The same parcel was added to a working list twice.
	ErrDuplicateAssignment = errors.New("duplicate assignment")
)

// Retryable reports whether a run failure can be recovered by growing the
// fleet or driver pool and restarting from the baseline.
func Retryable(err error) bool {
	return errors.Is(err, ErrInfeasible) || errors.Is(err, ErrEmptyFleet)
}
