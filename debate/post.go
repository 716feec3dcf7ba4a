package debate

// Post is a single post as returned by the aggregator. Instances are built by
// decoding the aggregator's JSON response and are not mutated afterwards.
type Post struct {
	ID             string `json:"id"`
	ConversationID string `json:"conversation_id,omitempty"`
	Author         string `json:"author,omitempty"`
	Text           string `json:"text,omitempty"`
	CreatedAt      string `json:"created_at,omitempty"`
	LikeCount      int    `json:"like_count,omitempty"`
}

// noConversationID keys posts that carry neither a conversation id nor an id.
const noConversationID = "NO_CONVERSATION_ID"

// conversationKey is the grouping key for thread assembly: the conversation id,
// falling back to the post's own id for thread roots.
func (p Post) conversationKey() string {
	if p.ConversationID != "" {
		return p.ConversationID
	}
	if p.ID != "" {
		return p.ID
	}
	return noConversationID
}

// legacyPost is the older aggregator response shape (the `data` envelope with
// username/date/likes field names). It only exists to be mapped onto Post.
type legacyPost struct {
	ID             string `json:"id"`
	ConversationID string `json:"conversation_id"`
	Username       string `json:"username"`
	Text           string `json:"text"`
	Date           string `json:"date"`
	Likes          int    `json:"likes"`
}

func (p legacyPost) canonical() Post {
	return Post{
		ID:             p.ID,
		ConversationID: p.ConversationID,
		Author:         p.Username,
		Text:           p.Text,
		CreatedAt:      p.Date,
		LikeCount:      p.Likes,
	}
}

// ReplyLikesThreshold computes the minimum like count a reply must have to be
// considered popular: half the parent's likes, rounded down, never below 1.
func ReplyLikesThreshold(parentLikes int) int {
	if parentLikes < 2 {
		return 1
	}
	return parentLikes / 2
}
