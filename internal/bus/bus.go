// Package bus is the typed message boundary between the reconciliation
// controller and its presentation surface: a one-way state broadcast channel
// from core to presentation and a one-way command channel back, both
// addressed by a closed set of topic/event names.
package bus

// Topic names state pushed from the controller to the presentation surface.
type Topic string

const (
	TopicRows              Topic = "rows"
	TopicLoading           Topic = "loading"
	TopicEnrichmentLoading Topic = "enrichment-loading"
	TopicError             Topic = "error"
	TopicDebugLogs         Topic = "debug-logs"
	TopicColumnVisibility  Topic = "column-visibility"
	TopicCoverSize         Topic = "cover-size"
)

// EventName names commands pushed from the presentation surface to the
// controller.
type EventName string

const (
	EventRefresh              EventName = "refresh"
	EventLoadEnrichedEpisodes EventName = "load-enriched-episodes"
	EventOpenTitle            EventName = "open-title"
	EventSetColumnVisibility  EventName = "set-column-visibility"
	EventSetCoverSize         EventName = "set-cover-size"
)

// State is one state broadcast. Payload is topic-specific.
type State struct {
	Topic   Topic
	Payload any
}

// Event is one presentation-side command. Payload fields are validated
// defensively by the controller; malformed events are no-ops.
type Event struct {
	Name    EventName
	Payload map[string]any
}

// Bus carries both directions. Channels are buffered so neither side blocks
// the other under normal operation.
type Bus struct {
	states chan State
	events chan Event
}

// New constructs a Bus with the given per-direction buffer size.
func New(buffer int) *Bus {
	if buffer <= 0 {
		buffer = 256
	}
	return &Bus{
		states: make(chan State, buffer),
		events: make(chan Event, buffer),
	}
}

// PublishState pushes a state update toward the presentation surface.
func (b *Bus) PublishState(topic Topic, payload any) {
	b.states <- State{Topic: topic, Payload: payload}
}

// States returns the presentation-side receive channel.
func (b *Bus) States() <-chan State {
	return b.states
}

// SendEvent pushes a command toward the controller.
func (b *Bus) SendEvent(ev Event) {
	b.events <- ev
}

// Events returns the controller-side receive channel.
func (b *Bus) Events() <-chan Event {
	return b.events
}

// Close closes the state channel, signalling the presentation surface that
// no further updates will arrive.
func (b *Bus) Close() {
	close(b.states)
}
