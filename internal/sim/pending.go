package sim

// RequestState is the lifecycle of a deferred position query.
type RequestState int

const (
	RequestPending RequestState = iota
	RequestReady
	RequestFailed
)

// PositionRequest is the token handed back for a deferred search. The owner
// polls State each tick; once Ready the result stays readable until the
// token is discarded.
type PositionRequest struct {
	state     RequestState
	result    CoverResult
	cancelled bool
}

func (r *PositionRequest) State() RequestState { return r.state }

func (r *PositionRequest) Result() (CoverResult, bool) {
	if r.state != RequestReady {
		return CoverResult{}, false
	}
	return r.result, true
}

// Cancel marks the token so the queue skips the search. Safe after resolve.
func (r *PositionRequest) Cancel() { r.cancelled = true }

type pendingSearch struct {
	req *PositionRequest
	run func() (CoverResult, bool)
}

// RequestQueue defers expensive position searches and resolves a bounded
// number per tick, first come first served. Agents that queue earlier in a
// tick get answers earlier, which keeps contention ordering stable.
type RequestQueue struct {
	eval    *CoverEvaluator
	pending []pendingSearch
}

func NewRequestQueue(eval *CoverEvaluator) *RequestQueue {
	return &RequestQueue{eval: eval}
}

// Submit queues an arbitrary search closure.
func (q *RequestQueue) Submit(run func() (CoverResult, bool)) *PositionRequest {
	req := &PositionRequest{state: RequestPending}
	q.pending = append(q.pending, pendingSearch{req: req, run: run})
	return req
}

// RequestCover queues a best-cover search around origin against threat.
func (q *RequestQueue) RequestCover(origin, threat Vec2, params SearchParams, maxRadius float64, exclude AgentID) *PositionRequest {
	eval := q.eval
	return q.Submit(func() (CoverResult, bool) {
		return eval.FindBestCover(origin, threat, params, maxRadius, exclude)
	})
}

// Resolve runs up to budget queued searches. Cancelled tokens are dropped
// without consuming budget.
func (q *RequestQueue) Resolve(budget int) {
	resolved := 0
	i := 0
	for i < len(q.pending) && resolved < budget {
		ps := q.pending[i]
		i++
		if ps.req.cancelled {
			continue
		}
		if res, ok := ps.run(); ok {
			ps.req.result = res
			ps.req.state = RequestReady
		} else {
			ps.req.state = RequestFailed
		}
		resolved++
	}
	q.pending = q.pending[:copy(q.pending, q.pending[i:])]
}

// Backlog reports how many searches are still queued.
func (q *RequestQueue) Backlog() int { return len(q.pending) }
