package debate

// ConversationGroups maps conversation ids to their posts. Group order follows
// first appearance in the input, and posts keep their input order within a
// group until the materializer sorts them by timestamp.
type ConversationGroups struct {
	order  []string
	groups map[string][]Post
}

// GroupByConversation assembles a flat post list (thread roots and replies in
// arrival order) into conversation groups. The key is each post's conversation
// id, falling back to its own id, falling back to a sentinel when both are
// absent. No deduplication happens: a post appearing twice in the input
// appears twice in its group.
func GroupByConversation(posts []Post) ConversationGroups {
	g := ConversationGroups{groups: make(map[string][]Post)}
	for _, p := range posts {
		key := p.conversationKey()
		if _, ok := g.groups[key]; !ok {
			g.order = append(g.order, key)
		}
		g.groups[key] = append(g.groups[key], p)
	}
	return g
}

// Len reports the number of conversations.
func (g ConversationGroups) Len() int {
	return len(g.order)
}

// IDs returns the conversation ids in first-seen order.
func (g ConversationGroups) IDs() []string {
	return append([]string(nil), g.order...)
}

// Posts returns a copy of the posts grouped under conversationID, in input
// order. The copy keeps callers from mutating the group in place.
func (g ConversationGroups) Posts(conversationID string) []Post {
	return append([]Post(nil), g.groups[conversationID]...)
}
