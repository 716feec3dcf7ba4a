package debate

import (
	"reflect"
	"testing"
)

func TestGroupByConversation_StableGrouping(t *testing.T) {
	t.Parallel()

	posts := []Post{
		{ID: "1", ConversationID: "A"},
		{ID: "2", ConversationID: "B"},
		{ID: "3", ConversationID: "A"},
	}

	g := GroupByConversation(posts)
	if g.Len() != 2 {
		t.Fatalf("Len()=%d, want 2", g.Len())
	}
	if got, want := g.IDs(), []string{"A", "B"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("IDs()=%v, want %v", got, want)
	}

	a := g.Posts("A")
	if len(a) != 2 || a[0].ID != "1" || a[1].ID != "3" {
		t.Fatalf("Posts(A)=%v, want posts 1 then 3", a)
	}
	b := g.Posts("B")
	if len(b) != 1 || b[0].ID != "2" {
		t.Fatalf("Posts(B)=%v, want post 2", b)
	}
}

func TestGroupByConversation_FallbackKeys(t *testing.T) {
	t.Parallel()

	posts := []Post{
		{ID: "7"},             // root without conversation id: keys on own id
		{},                    // neither id: sentinel key
		{ConversationID: "7"}, // reply joins the root's group
	}

	g := GroupByConversation(posts)
	if g.Len() != 2 {
		t.Fatalf("Len()=%d, want 2", g.Len())
	}
	if got := g.Posts("7"); len(got) != 2 {
		t.Fatalf("Posts(7) has %d posts, want 2", len(got))
	}
	if got := g.Posts(noConversationID); len(got) != 1 {
		t.Fatalf("Posts(%s) has %d posts, want 1", noConversationID, len(got))
	}
}

// Duplicates are a behavior choice: an aggregator that returns a root post
// again as its own "reply" produces the post twice in the group.
func TestGroupByConversation_KeepsDuplicates(t *testing.T) {
	t.Parallel()

	p := Post{ID: "1", ConversationID: "1"}
	g := GroupByConversation([]Post{p, p})
	if got := g.Posts("1"); len(got) != 2 {
		t.Fatalf("Posts(1) has %d posts, want 2", len(got))
	}
}

func TestConversationGroups_PostsReturnsCopy(t *testing.T) {
	t.Parallel()

	g := GroupByConversation([]Post{{ID: "1", ConversationID: "A"}})
	got := g.Posts("A")
	got[0].ID = "mutated"

	if again := g.Posts("A"); again[0].ID != "1" {
		t.Fatalf("group mutated through returned slice: %v", again)
	}
}
