package bus

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPublishSync_OrderAndData(t *testing.T) {
	b := NewEventBus()

	var got []string
	b.Subscribe(EventTypeMarkersBuilt, func(e Event) {
		got = append(got, "first:"+e.Data["source"].(string))
	})
	b.Subscribe(EventTypeMarkersBuilt, func(e Event) {
		got = append(got, "second")
	})
	b.Subscribe(EventTypeTrackSynthesized, func(e Event) {
		got = append(got, "wrong type")
	})

	b.PublishSync(Event{Type: EventTypeMarkersBuilt, Data: map[string]any{"source": "test"}})

	assert.Equal(t, []string{"first:test", "second"}, got)
}

func TestSubscribeMultiple(t *testing.T) {
	b := NewEventBus()

	var got []EventType
	b.SubscribeMultiple([]EventType{EventTypeTrackImported, EventTypeTrackExported}, func(e Event) {
		got = append(got, e.Type)
	})

	b.PublishSync(Event{Type: EventTypeTrackImported})
	b.PublishSync(Event{Type: EventTypeBlockStarted})
	b.PublishSync(Event{Type: EventTypeTrackExported})

	assert.Equal(t, []EventType{EventTypeTrackImported, EventTypeTrackExported}, got)
}

func TestClear(t *testing.T) {
	b := NewEventBus()
	called := false
	b.Subscribe(EventTypeBlockStarted, func(Event) { called = true })
	b.Clear()

	b.PublishSync(Event{Type: EventTypeBlockStarted})
	assert.False(t, called)
}
