// Package bridge is the Notification Bridge between the background daemon
// and foreground clients.
//
// It is a small gRPC service, syncbox.bridge.Bridge, with two methods:
//
//	RunSyncNow(Struct) returns (Empty)          foreground -> daemon
//	Subscribe(Empty)   returns (stream Struct)  daemon -> foreground
//
// Messages are protobuf Structs of the form {"type": "...", "count": n}, so
// the service needs no generated code: ServiceDesc is declared by hand and
// the default proto codec carries the well-known types.
//
// Delivery is best-effort. With no subscriber connected a SYNC_DONE is
// simply dropped, and a slow subscriber loses messages instead of stalling
// the engine.
package bridge
