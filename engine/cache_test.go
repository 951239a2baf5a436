package engine

import (
	"strings"
	"testing"
)

func TestRequestKey(t *testing.T) {
	if got := requestKey("7", "4B"); got != "7" {
		t.Fatalf("expected class id to win, got %q", got)
	}
	if got := requestKey("", "4B"); got != "label:4B" {
		t.Fatalf("expected label key, got %q", got)
	}
}

func TestMergeClassesKeepsLocalPlaceholders(t *testing.T) {
	local := Class{ID: NewLocalID(), Name: "1-C"}
	prev := []Class{
		{ID: "1", Name: "stale name"},
		local,
	}
	incoming := []Class{
		{ID: "1", Name: "1-A"},
		{ID: "2", Name: "1-B"},
	}

	merged := mergeClasses(prev, incoming)
	if len(merged) != 3 {
		t.Fatalf("expected 3 classes, got %d", len(merged))
	}
	if merged[0].Name != "1-A" {
		t.Errorf("server name must win, got %q", merged[0].Name)
	}
	if merged[2].ID != local.ID {
		t.Errorf("local placeholder must survive, got %+v", merged[2])
	}
}

func TestMergeAccess(t *testing.T) {
	localKey := NewLocalID()
	prev := map[string]*Access{
		"1":      {ID: "10", ClassID: "1"},
		"2":      {ID: "11", ClassID: "2", DisplayName: "stale"},
		localKey: {ID: NewLocalID(), ClassID: localKey},
	}
	incoming := map[string]*Access{
		"1": nil, // server-side removal
		"2": {ID: "11", ClassID: "2", DisplayName: "fresh"},
		"3": nil,
		// localKey absent: the server doesn't know that class yet
	}

	merged := mergeAccess(prev, incoming)
	if _, ok := merged["1"]; ok {
		t.Error("nil incoming entry must delete the cached access")
	}
	if merged["2"] == nil || merged["2"].DisplayName != "fresh" {
		t.Errorf("incoming access must overwrite: %+v", merged["2"])
	}
	if merged[localKey] == nil {
		t.Error("access for a class the server doesn't know must survive")
	}
}

func TestMergeRequestsLabelEntries(t *testing.T) {
	confirmed := &JoinRequest{ID: "42", ClassLabel: "4B", Status: StatusPending}
	optimistic := &JoinRequest{ID: NewLocalID(), ClassLabel: "5C", Status: StatusPending}
	prev := map[string]*JoinRequest{
		"label:4B": confirmed,
		"label:5C": optimistic,
	}

	// the server stopped reporting the confirmed label request (it was
	// resolved elsewhere) and never knew the optimistic one
	merged := mergeRequests(prev, map[string]*JoinRequest{})
	if _, ok := merged["label:4B"]; ok {
		t.Error("resolved label request must be dropped")
	}
	if merged["label:5C"] == nil {
		t.Error("optimistic label request must survive")
	}
}

func TestMergeMembersReappendsOwnEntry(t *testing.T) {
	self := func(m Member) bool { return m.UserID == 9 }
	prev := map[string][]Member{
		"1": {
			{AccessID: "100", UserID: 9, DisplayName: "Me"},
			{AccessID: "101", UserID: 3, DisplayName: "Gone"},
		},
	}
	incoming := map[string][]Member{
		"1": {{AccessID: "102", UserID: 4, DisplayName: "Other"}},
	}

	merged := mergeMembers(prev, incoming, self)
	if len(merged["1"]) != 2 {
		t.Fatalf("expected other + re-appended self, got %d entries", len(merged["1"]))
	}
	if merged["1"][1].UserID != 9 {
		t.Errorf("own entry must be re-appended, got %+v", merged["1"][1])
	}

	// once the server reports the user itself, nothing is re-appended
	incoming["1"] = append(incoming["1"], Member{AccessID: "100", UserID: 9})
	merged = mergeMembers(prev, incoming, self)
	if len(merged["1"]) != 2 {
		t.Fatalf("self must not be duplicated, got %d entries", len(merged["1"]))
	}
}

func TestSwapIDLeavesNoResidue(t *testing.T) {
	temp := NewLocalID()
	c := newAlbumCache()
	c.Classes = []Class{{ID: temp, Name: "1-A"}}
	c.AccessByClass[temp] = &Access{ID: temp, ClassID: temp}
	c.RequestByClass[temp] = &JoinRequest{ID: "5", ClassID: temp}
	c.PendingByClass[temp] = []JoinRequest{{ID: "6", ClassID: temp}}
	c.MembersByClass[temp] = []Member{{AccessID: temp, ClassID: temp}}

	c.swapID(temp, "77")

	if c.Classes[0].ID != "77" {
		t.Errorf("class id not swapped: %+v", c.Classes[0])
	}
	for _, key := range []string{temp} {
		if _, ok := c.AccessByClass[key]; ok {
			t.Error("access map still keyed by temp id")
		}
		if _, ok := c.MembersByClass[key]; ok {
			t.Error("members map still keyed by temp id")
		}
	}
	if a := c.AccessByClass["77"]; a == nil || a.ID != "77" || a.ClassID != "77" {
		t.Errorf("access fields not rewritten: %+v", a)
	}
	if m := c.MembersByClass["77"][0]; m.AccessID != "77" || m.ClassID != "77" {
		t.Errorf("member fields not rewritten: %+v", m)
	}
	if p := c.PendingByClass["77"][0]; p.ClassID != "77" {
		t.Errorf("pending fields not rewritten: %+v", p)
	}
	if strings.Contains(c.RequestByClass["77"].ClassID, localIDPrefix) {
		t.Error("request class id still local")
	}
}

func TestRemoveClassPurgesEveryBucket(t *testing.T) {
	c := newAlbumCache()
	c.Classes = []Class{{ID: "1"}, {ID: "2"}}
	c.AccessByClass["2"] = &Access{ID: "10", ClassID: "2"}
	c.RequestByClass["2"] = &JoinRequest{ID: "20", ClassID: "2"}
	c.PendingByClass["2"] = []JoinRequest{{ID: "21"}}
	c.MembersByClass["2"] = []Member{{AccessID: "10"}}

	c.removeClass("2")

	if len(c.Classes) != 1 || c.Classes[0].ID != "1" {
		t.Fatalf("class not removed: %+v", c.Classes)
	}
	if len(c.AccessByClass)+len(c.RequestByClass)+len(c.PendingByClass)+len(c.MembersByClass) != 0 {
		t.Error("per-class buckets must be purged with the class")
	}
}

func TestCloneIsDetached(t *testing.T) {
	c := newAlbumCache()
	c.Classes = []Class{{ID: "1", Name: "before"}}
	c.AccessByClass["1"] = &Access{ID: "10", DisplayName: "before"}

	cp := c.clone()
	c.Classes[0].Name = "after"
	c.AccessByClass["1"].DisplayName = "after"

	if cp.Classes[0].Name != "before" {
		t.Error("clone shares the class slice")
	}
	if cp.AccessByClass["1"].DisplayName != "before" {
		t.Error("clone shares access values")
	}
}
