/*
Package ipc implements the kernel message bus.

Every message sent through the Hub is recorded in a bounded history and then
delivered synchronously to the handlers subscribed to its destination, in
registration order. Handlers run outside the hub lock, so a handler may send
further messages. A message with no subscribers is still recorded.

Example Usage:

	hub := ipc.NewHub(50, logger)
	hub.Subscribe("driver_camera", func(msg types.IPCMessage) {
		// handle IRQ
	})
	hub.Send("hardware_camera", "driver_camera", "IRQ_IMAGE_CAPTURED", payload)
*/
package ipc
