package events

import (
	"certregistry/model"
	"certregistry/registry"
)

// Fanout publishes every event to each sink, in order.
type Fanout []registry.Publisher

func (f Fanout) Publish(event model.Event) {
	for _, sink := range f {
		if sink != nil {
			sink.Publish(event)
		}
	}
}
