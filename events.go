package nodegl

// EventStore is the interface for optional lifecycle observers such as the
// ECS bridge in nodegl/ecs. When set on a Context, resource initialization
// and teardown of every node are forwarded to it.
type EventStore interface {
	EmitEvent(event LifecycleEvent)
}

// EventType identifies a lifecycle transition.
type EventType uint8

const (
	EventAttach EventType = iota // node attached to a context
	EventInit                    // resource initialization succeeded
	EventInitFailed              // resource initialization returned an error
	EventUninit                  // resources released
	EventDetach                  // node detached from its context
)

var eventTypeNames = [...]string{"attach", "init", "init-failed", "uninit", "detach"}

func (e EventType) String() string {
	if int(e) < len(eventTypeNames) {
		return eventTypeNames[e]
	}
	return "unknown"
}

// LifecycleEvent carries one lifecycle transition.
type LifecycleEvent struct {
	Type   EventType
	Class  ClassID
	NodeID uint32
	Name   string
	Err    error
}

func (c *Context) emit(typ EventType, n *Node, err error) {
	if c == nil || c.events == nil {
		return
	}
	c.events.EmitEvent(LifecycleEvent{Type: typ, Class: n.class.id, NodeID: n.id, Name: n.name, Err: err})
}
