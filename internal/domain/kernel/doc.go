// Package kernel implements the Aurora microkernel control plane: the
// lifecycle gate, the thread registry and the IPC stub.
//
// A Manager starts Uninitialized. Init opens the gate and Shutdown closes it
// again, clearing every thread record. While the gate is closed every
// registry, status, messaging and demo call fails with CodeNotInitialized
// and changes nothing. ActiveThreadCount, Initialized and VersionString are
// usable in any state.
//
// Thread ids come from a strict monotonic counter starting at 1. Destroying
// a thread, or shutting the kernel down, never makes an id available again.
//
// Send and Receive are deliberately unpaired: Send only observes a message
// (log line, metric, event) and Receive always synthesizes the same
// demonstration reply. No queue exists between them.
//
// Example Usage:
//
//	k := kernel.NewManager(logger).WithMetrics(metrics)
//	if err := k.Init(); err != nil {
//		return err
//	}
//	id, _ := k.CreateThread("worker")
//	status, _ := k.Status()
//	fmt.Println(status.ActiveThreads, kernel.CodeOf(k.DestroyThread(id)))
package kernel
