package ports

// Contract for retrieving travel distance between two delivery addresses.
// Unreachable pairs report +Inf, not an error; unknown addresses are an error.
type DistanceProvider interface {
	// Return the distance in miles between two addresses.
	Distance(origin string, destination string) (float64, error)
}
