package hmr

// MessageType is the top-level tag of an update message.
type MessageType string

const (
	TypeConnected  MessageType = "connected"
	TypeFullReload MessageType = "full-reload"
	TypeUpdate     MessageType = "update"
)

// UpdateJS is the only update kind: re-import a module.
const UpdateJS = "js-update"

// Update is the payload of an update message.
type Update struct {
	Type      string `json:"type"`
	Path      string `json:"path"`
	Timestamp int64  `json:"timestamp"`
}

// Message is sent from the server to browsers over the channel.
type Message struct {
	Type   MessageType `json:"type"`
	Update *Update     `json:"update,omitempty"`
}

// Connected is sent once when a connection opens.
func Connected() Message {
	return Message{Type: TypeConnected}
}

// FullReload tells browsers to reload the page.
func FullReload() Message {
	return Message{Type: TypeFullReload}
}

// JSUpdate tells browsers to re-import path, cache-busted by timestamp.
func JSUpdate(path string, timestamp int64) Message {
	return Message{Type: TypeUpdate, Update: &Update{Type: UpdateJS, Path: path, Timestamp: timestamp}}
}
