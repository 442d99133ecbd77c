package booking

// actorRelation is the actor's relation to the order being changed.
type actorRelation string

const (
	relationProvider actorRelation = "provider"
	relationClient   actorRelation = "client"
)

type transitionKey struct {
	Actor  actorRelation
	Target OrderStatus
}

// transitionTable is the full authorization matrix for status changes:
// who may move an order to which status, and from which current statuses.
// Pairs absent from the table are forbidden outright. completed and rejected
// have no inbound transitions.
var transitionTable = map[transitionKey][]OrderStatus{
	{relationProvider, StatusAccepted}:  {StatusPending},
	{relationProvider, StatusCancelled}: {StatusPending},
	{relationClient, StatusCancelled}:   {StatusPending},
}

// allowedFrom reports whether the actor may ever set the target status, and
// if so from which current statuses.
func allowedFrom(actor actorRelation, target OrderStatus) ([]OrderStatus, bool) {
	from, ok := transitionTable[transitionKey{Actor: actor, Target: target}]
	return from, ok
}

// canTransition reports whether the actor may move an order from current to
// target.
func canTransition(actor actorRelation, target, current OrderStatus) bool {
	from, ok := allowedFrom(actor, target)
	if !ok {
		return false
	}
	for _, s := range from {
		if s == current {
			return true
		}
	}
	return false
}
