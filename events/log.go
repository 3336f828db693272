package events

import (
	"certregistry/model"
)

// LogPublisher writes each notification to the process log.
type LogPublisher struct{}

func (LogPublisher) Publish(event model.Event) {
	env, body, ok := encode("LogPublisher", event)
	if !ok {
		return
	}
	logger.Infof("event %s [%s]: %s", env.Name, env.ID, body)
}
