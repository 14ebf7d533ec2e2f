package frontier

import "sync"

// Queue holds URLs waiting for link extraction (the parse queue).
// Push appends to the back; PopBack gives LIFO order, PopFront FIFO.
type Queue struct {
	totalQueued int
	elements    []string
	mu          sync.Mutex
}

func NewQueue() *Queue {
	return &Queue{
		elements: make([]string, 0),
	}
}

func (q *Queue) Push(u string) {
	q.mu.Lock()
	q.elements = append(q.elements, u)
	q.totalQueued++
	q.mu.Unlock()
}

// PopFront removes the oldest entry (BFS).
func (q *Queue) PopFront() (string, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.elements) == 0 {
		return "", false
	}
	u := q.elements[0]
	q.elements[0] = ""
	q.elements = q.elements[1:]
	return u, true
}

// PopBack removes the most recently pushed entry (DFS).
func (q *Queue) PopBack() (string, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := len(q.elements)
	if n == 0 {
		return "", false
	}
	u := q.elements[n-1]
	q.elements = q.elements[:n-1]
	return u, true
}

func (q *Queue) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.elements)
}

// TotalQueued counts every Push since the queue was created.
func (q *Queue) TotalQueued() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.totalQueued
}

// Reset drops every pending entry and returns how many were abandoned.
func (q *Queue) Reset() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := len(q.elements)
	q.elements = q.elements[:0]
	return n
}
