package wire

// Message is one chat message as stored and as sent to clients.
// Author is the literal username at the time of posting, not a
// reference into the user collection.
type Message struct {
	Content string `json:"content" bson:"content"`
	Author  string `json:"author" bson:"author"`
}

// ServerAuthor is the author stamped on system messages.
const ServerAuthor = "SERVER"

// ChannelCreated is the system message opening every channel.
const ChannelCreated = "channel created..."
