package ecs

import (
	"github.com/phanxgames/nodegl"

	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/features/events"
	"github.com/yohamta/donburi/filter"
)

// LifecycleEventType is the Donburi event type for nodegl lifecycle events.
var LifecycleEventType = events.NewEventType[nodegl.LifecycleEvent]()

// ResourceData describes a node whose resources are initialized.
type ResourceData struct {
	NodeID uint32
	Class  nodegl.ClassID
	Name   string
}

// Resource is the component carried by the entity of every initialized node.
var Resource = donburi.NewComponentType[ResourceData]()

var resourceQuery = donburi.NewQuery(filter.Contains(Resource))

type donburiStore struct {
	world    donburi.World
	entities map[uint32]donburi.Entity
}

// NewDonburiStore creates an EventStore backed by a Donburi world.
// Lifecycle events are published to LifecycleEventType and can be consumed
// with events.Subscribe and ProcessEvents. Initialized nodes are mirrored as
// entities carrying the Resource component.
func NewDonburiStore(world donburi.World) nodegl.EventStore {
	return &donburiStore{world: world, entities: make(map[uint32]donburi.Entity)}
}

func (s *donburiStore) EmitEvent(event nodegl.LifecycleEvent) {
	switch event.Type {
	case nodegl.EventInit:
		if _, ok := s.entities[event.NodeID]; !ok {
			e := s.world.Create(Resource)
			Resource.SetValue(s.world.Entry(e), ResourceData{
				NodeID: event.NodeID,
				Class:  event.Class,
				Name:   event.Name,
			})
			s.entities[event.NodeID] = e
		}
	case nodegl.EventUninit:
		if e, ok := s.entities[event.NodeID]; ok {
			s.world.Remove(e)
			delete(s.entities, event.NodeID)
		}
	}
	LifecycleEventType.Publish(s.world, event)
}

// LiveResources returns the number of nodes whose resources are
// initialized in world.
func LiveResources(world donburi.World) int {
	return resourceQuery.Count(world)
}

// EachResource calls fn for every initialized node mirrored in world.
func EachResource(world donburi.World, fn func(ResourceData)) {
	resourceQuery.Each(world, func(entry *donburi.Entry) {
		fn(*Resource.Get(entry))
	})
}
