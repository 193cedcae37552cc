package feed

// The broker accepts at most 100 instruments per subscribe message, and we
// pause briefly between batches to avoid overloading the feed on (re)connect.
const (
	BatchSize = 100

	// SubscribeMode requests full tick payloads (price, depth top, volume).
	SubscribeMode = "FULL"
)

// Subscription is one instrument entry of an outbound subscribe message.
type Subscription struct {
	SecurityID string `json:"securityId"`
	Mode       string `json:"mode"`
}

// SubscribeRequest is the outbound wire message for one batch.
type SubscribeRequest struct {
	Action string         `json:"action"`
	Data   []Subscription `json:"data"`
}

// Batches partitions the universe into subscribe requests of at most size
// instruments, preserving universe order. Batch count is ceil(len/size).
func Batches(universe []string, size int) []SubscribeRequest {
	if size <= 0 {
		size = BatchSize
	}

	var out []SubscribeRequest
	for i := 0; i < len(universe); i += size {
		end := i + size
		if end > len(universe) {
			end = len(universe)
		}

		data := make([]Subscription, 0, end-i)
		for _, symbol := range universe[i:end] {
			data = append(data, Subscription{SecurityID: symbol, Mode: SubscribeMode})
		}
		out = append(out, SubscribeRequest{Action: "subscribe", Data: data})
	}
	return out
}
