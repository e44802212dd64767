package sim

import "testing"

func TestRequestQueue_ResolvesWithinBudget(t *testing.T) {
	q := NewRequestQueue(nil)
	var reqs []*PositionRequest
	for i := 0; i < 6; i++ {
		reqs = append(reqs, q.Submit(func() (CoverResult, bool) {
			return CoverResult{Score: 1}, true
		}))
	}
	q.Resolve(4)
	for i, r := range reqs {
		want := RequestReady
		if i >= 4 {
			want = RequestPending
		}
		if r.State() != want {
			t.Fatalf("request %d: expected state %v, got %v", i, want, r.State())
		}
	}
	if q.Backlog() != 2 {
		t.Fatalf("expected backlog 2, got %d", q.Backlog())
	}
	q.Resolve(4)
	if q.Backlog() != 0 {
		t.Fatalf("expected empty backlog, got %d", q.Backlog())
	}
}

func TestRequestQueue_FIFOOrder(t *testing.T) {
	q := NewRequestQueue(nil)
	var order []int
	for i := 0; i < 3; i++ {
		i := i
		q.Submit(func() (CoverResult, bool) {
			order = append(order, i)
			return CoverResult{}, true
		})
	}
	q.Resolve(2)
	q.Resolve(2)
	if len(order) != 3 || order[0] != 0 || order[1] != 1 || order[2] != 2 {
		t.Fatalf("expected first-come-first-served resolution, got %v", order)
	}
}

func TestRequestQueue_CancelledSkippedWithoutBudget(t *testing.T) {
	q := NewRequestQueue(nil)
	ran := 0
	mk := func() *PositionRequest {
		return q.Submit(func() (CoverResult, bool) {
			ran++
			return CoverResult{}, true
		})
	}
	a, b, c := mk(), mk(), mk()
	a.Cancel()
	b.Cancel()
	q.Resolve(1)
	// Cancelled tokens fall away for free; the single budget slot lands
	// on the third request.
	if ran != 1 {
		t.Fatalf("expected exactly one search to run, got %d", ran)
	}
	if b.State() == RequestReady {
		t.Fatal("cancelled request should never resolve")
	}
	if c.State() != RequestReady {
		t.Fatal("third request should have resolved")
	}
	if q.Backlog() != 0 {
		t.Fatalf("expected empty backlog, got %d", q.Backlog())
	}
}

func TestRequestQueue_FailedSearch(t *testing.T) {
	q := NewRequestQueue(nil)
	r := q.Submit(func() (CoverResult, bool) { return CoverResult{}, false })
	q.Resolve(1)
	if r.State() != RequestFailed {
		t.Fatalf("expected failed state, got %v", r.State())
	}
	if _, ok := r.Result(); ok {
		t.Fatal("failed request should expose no result")
	}
}

func TestRequestQueue_ReadyResultReadable(t *testing.T) {
	q := NewRequestQueue(nil)
	want := CoverResult{Tile: TileCoord{4, 4}, Score: 55}
	r := q.Submit(func() (CoverResult, bool) { return want, true })
	if _, ok := r.Result(); ok {
		t.Fatal("pending request should expose no result")
	}
	q.Resolve(1)
	res, ok := r.Result()
	if !ok {
		t.Fatal("resolved request should expose its result")
	}
	if res.Tile != want.Tile || res.Score != want.Score {
		t.Fatalf("unexpected result %+v", res)
	}
}
