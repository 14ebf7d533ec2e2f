package frontier

// State is the shared state of one crawl run.
//
// Queue is owned by the walker; nothing touches it once downloading starts.
// ToVisit is filled by the walker and drained by download workers.
// Downloaded records every image URL a worker has claimed.
type State struct {
	Queue      *Queue
	ToVisit    *Set
	Downloaded *Set
}

// NewState returns a State with root as the only queued URL.
func NewState(root string) *State {
	s := &State{
		Queue:      NewQueue(),
		ToVisit:    NewSet(),
		Downloaded: NewSet(),
	}
	s.Queue.Push(root)
	return s
}

// ClaimNextPage removes one page from ToVisit. It never blocks; ok is false
// once the set is empty.
func (s *State) ClaimNextPage() (string, bool) {
	return s.ToVisit.Pop()
}

// TryClaimImage marks imageURL as downloaded and reports whether the caller
// is the one that should fetch and store it.
func (s *State) TryClaimImage(imageURL string) bool {
	return s.Downloaded.TryAdd(imageURL)
}
