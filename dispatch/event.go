// Package dispatch turns change events from the update feed into downstream
// publishes. The dispatcher validates the event, decodes its envelope,
// checks the target asset and fans the update out to every publisher whose
// responsibility applies to the well's class.
package dispatch

// ChangeEvent is one store update notification as it arrives on the feed.
// Payload carries the serialized column-value envelope verbatim.
type ChangeEvent struct {
	Action           string `json:"Action"`
	PayloadType      string `json:"PayloadType"`
	Payload          string `json:"Payload"`
	ResponseMetadata string `json:"ResponseMetadata,omitempty"`
	CorrelationID    string `json:"CorrelationId"`
}
