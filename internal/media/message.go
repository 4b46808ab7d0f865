package media

// MessageType identifies the kind of a bus message.
type MessageType int

// Message kinds the broadcast pipeline reacts to. Everything else arrives as MessageOther.
const (
	MessageOther MessageType = iota
	MessageEOS
	MessageError
	MessageLevel
)

func (t MessageType) String() string {
	switch t {
	case MessageEOS:
		return "eos"
	case MessageError:
		return "error"
	case MessageLevel:
		return "level"
	default:
		return "other"
	}
}

// Message is one asynchronous notification posted by the graph.
type Message struct {
	Type MessageType
	// Source is the name of the element that posted the message.
	Source string
	// RMS holds one value per channel in dB for MessageLevel.
	RMS []float64
	// Err and Debug describe a MessageError.
	Err   error
	Debug string
}

// Bus delivers graph messages in posting order.
type Bus interface {
	// Pop blocks until a message is available. It returns false once the bus is closed.
	Pop() (Message, bool)
	// Close unblocks pending and future Pop calls.
	Close()
}
