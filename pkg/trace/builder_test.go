package trace

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

// TestBuilder_NodeIntervals tests that node intervals are contained within
// their parent's interval and within the trace bounds.
func TestBuilder_NodeIntervals(t *testing.T) {
	b := NewBuilder("query")
	b.Start()

	hero := b.RecordFieldStart([]interface{}{"hero"}, "Query", "hero", "Hero")
	time.Sleep(time.Millisecond)
	name := b.RecordFieldStart([]interface{}{"hero", "name"}, "Hero", "name", "String")
	time.Sleep(time.Millisecond)
	name.Finish()
	hero.Finish()

	b.Stop()
	tr := b.Finalize()
	if tr == nil {
		t.Fatal("Finalize() returned nil trace")
	}

	heroNode := tr.Nodes["hero"]
	nameNode := tr.Nodes["hero.name"]
	if heroNode == nil || nameNode == nil {
		t.Fatalf("expected nodes for hero and hero.name, got %v", tr.Nodes)
	}

	if nameNode.StartOffsetNs < heroNode.StartOffsetNs {
		t.Errorf("child start %d before parent start %d", nameNode.StartOffsetNs, heroNode.StartOffsetNs)
	}
	if nameNode.EndOffsetNs > heroNode.EndOffsetNs {
		t.Errorf("child end %d after parent end %d", nameNode.EndOffsetNs, heroNode.EndOffsetNs)
	}
	for key, node := range tr.Nodes {
		if node.StartOffsetNs < 0 || node.EndOffsetNs > tr.DurationNs {
			t.Errorf("node %q interval [%d, %d] outside trace bounds [0, %d]",
				key, node.StartOffsetNs, node.EndOffsetNs, tr.DurationNs)
		}
	}

	if len(heroNode.Children) != 1 || heroNode.Children[0] != "hero.name" {
		t.Errorf("expected hero children [hero.name], got %v", heroNode.Children)
	}
}

// TestBuilder_DuplicatePath tests that re-registering a path returns a
// no-op handle and the first measurement wins.
func TestBuilder_DuplicatePath(t *testing.T) {
	b := NewBuilder("")
	b.Start()

	first := b.RecordFieldStart([]interface{}{"user"}, "Query", "user", "User")
	first.Finish()

	end := b.trace.Nodes["user"].EndOffsetNs

	dup := b.RecordFieldStart([]interface{}{"user"}, "Query", "user", "User")
	if dup.node != nil {
		t.Error("duplicate registration returned a live handle")
	}
	dup.Finish() // must not panic or overwrite

	if got := b.trace.Nodes["user"].EndOffsetNs; got != end {
		t.Errorf("duplicate handle changed end offset: %d != %d", got, end)
	}
}

// TestBuilder_LateFieldEnd tests that a field settling after Stop is still
// recorded without extending the trace's end time.
func TestBuilder_LateFieldEnd(t *testing.T) {
	b := NewBuilder("")
	b.Start()

	h := b.RecordFieldStart([]interface{}{"slow"}, "Query", "slow", "String")
	b.Stop()

	tr := b.trace
	endBefore := tr.EndTime
	durBefore := tr.DurationNs

	time.Sleep(2 * time.Millisecond)
	h.Finish()

	if tr.Nodes["slow"].EndOffsetNs == 0 {
		t.Error("late field end was not recorded")
	}
	if !tr.EndTime.Equal(endBefore) || tr.DurationNs != durBefore {
		t.Error("late field end extended the trace's root end")
	}
}

// TestBuilder_ErrorOrder tests that N attached errors produce N entries in
// occurrence order.
func TestBuilder_ErrorOrder(t *testing.T) {
	b := NewBuilder("")
	b.Start()
	b.RecordFieldStart([]interface{}{"a"}, "Query", "a", "String").Finish()

	b.AttachError([]interface{}{"a"}, "first", nil)
	b.AttachError(nil, "second", map[string]interface{}{"code": "BAD_INPUT"})
	b.AttachError([]interface{}{"missing", "path"}, "third", nil)

	tr := b.Finalize()
	if len(tr.Errors) != 3 {
		t.Fatalf("expected 3 errors, got %d", len(tr.Errors))
	}
	if tr.Errors[0].Message != "first" || tr.Errors[1].Message != "second" || tr.Errors[2].Message != "third" {
		t.Errorf("errors out of order: %v", tr.Errors)
	}
	if tr.Errors[0].Path != "a" {
		t.Errorf("expected error path 'a', got %q", tr.Errors[0].Path)
	}
	// Unknown path falls back to the trace root level.
	if tr.Errors[2].Path != "" {
		t.Errorf("expected root-level error for unknown path, got %q", tr.Errors[2].Path)
	}
	if tr.Errors[1].Extensions["code"] != "BAD_INPUT" {
		t.Errorf("extensions not preserved: %v", tr.Errors[1].Extensions)
	}
}

// TestBuilder_StopIdempotent tests that a second Stop is a no-op.
func TestBuilder_StopIdempotent(t *testing.T) {
	b := NewBuilder("")
	b.Start()
	b.Stop()

	end := b.trace.EndTime
	time.Sleep(time.Millisecond)
	b.Stop()

	if !b.trace.EndTime.Equal(end) {
		t.Error("second Stop() changed the end time")
	}
}

// TestBuilder_FinalizeOnce tests that only the first Finalize returns the
// trace.
func TestBuilder_FinalizeOnce(t *testing.T) {
	b := NewBuilder("")
	b.Start()

	if b.Finalize() == nil {
		t.Fatal("first Finalize() returned nil")
	}
	if b.Finalize() != nil {
		t.Error("second Finalize() returned a trace")
	}
}

// TestBuilder_ConcurrentFields tests concurrent field recording and error
// attachment across parallel branches.
func TestBuilder_ConcurrentFields(t *testing.T) {
	b := NewBuilder("")
	b.Start()

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			path := []interface{}{"items", i, "value"}
			h := b.RecordFieldStart(path, "Item", "value", "String")
			h.Finish()
			if i%10 == 0 {
				b.AttachError(path, fmt.Sprintf("boom %d", i), nil)
			}
		}(i)
	}
	wg.Wait()

	tr := b.Finalize()
	if len(tr.Nodes) != n {
		t.Errorf("expected %d nodes, got %d", n, len(tr.Nodes))
	}
	if len(tr.Errors) != n/10 {
		t.Errorf("expected %d errors, got %d", n/10, len(tr.Errors))
	}
}

// TestJoinPath tests path key construction, including list indices.
func TestJoinPath(t *testing.T) {
	cases := []struct {
		path []interface{}
		want string
	}{
		{nil, ""},
		{[]interface{}{"hero"}, "hero"},
		{[]interface{}{"hero", "friends", 0, "name"}, "hero.friends.0.name"},
		{[]interface{}{"items", 12}, "items.12"},
	}
	for _, tc := range cases {
		if got := JoinPath(tc.path); got != tc.want {
			t.Errorf("JoinPath(%v) = %q, want %q", tc.path, got, tc.want)
		}
	}
}

// TestParentKey tests parent derivation with list indices stripped.
func TestParentKey(t *testing.T) {
	cases := []struct {
		key  string
		want string
	}{
		{"hero", ""},
		{"hero.name", "hero"},
		{"hero.friends.0.name", "hero.friends"},
		{"friends.0", "friends"},
		{"a.0.1.b", "a"},
	}
	for _, tc := range cases {
		if got := parentKey(tc.key); got != tc.want {
			t.Errorf("parentKey(%q) = %q, want %q", tc.key, got, tc.want)
		}
	}
}
