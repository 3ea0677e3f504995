// Package ecs provides ECS adapters for nodegl's lifecycle events.
//
// The primary adapter is [NewDonburiStore], which forwards node lifecycle
// events (attach, init, uninit, detach) into a [Donburi] world as typed
// events and keeps one entity per node holding GPU resources. Subscribe to
// [LifecycleEventType] in your ECS systems to receive the events, or query
// [Resource] to inspect what is currently allocated.
//
// Usage:
//
//	store := ecs.NewDonburiStore(world)
//	cfg := nodegl.DefaultConfig()
//	cfg.Events = store
//	ctx := nodegl.NewContext(&cfg)
//
// [Donburi]: https://github.com/yohamta/donburi
package ecs
