package telegram

// Incoming webhook payload types — the subset of the Bot API Update
// object this bot reads.

// Update is one webhook delivery.
type Update struct {
	UpdateID int64    `json:"update_id"`
	Message  *Message `json:"message"`
}

// Message is an incoming chat message.
type Message struct {
	MessageID int64     `json:"message_id"`
	Chat      Chat      `json:"chat"`
	Text      string    `json:"text"`
	Location  *Location `json:"location"`
}

// Chat identifies the conversation; Chat.ID is the stable subscriber id.
type Chat struct {
	ID int64 `json:"id"`
}

// Location is a shared geographic coordinate.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}
