package orders

type Status string

const (
	StatusWaiting   Status = "WAITING"
	StatusInService Status = "IN_SERVICE"
	StatusCompleted Status = "COMPLETED"
)

// No cancellation: the only way out of WAITING is a barista picking the order up.
var validNext = map[Status]map[Status]bool{
	StatusWaiting:   {StatusInService: true},
	StatusInService: {StatusCompleted: true},
	StatusCompleted: {},
}

func CanTransition(from, to Status) bool {
	return validNext[from][to]
}
