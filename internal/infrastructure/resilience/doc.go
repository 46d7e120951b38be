/*
Package resilience guards remote kernel clients with a circuit breaker.

The HTTP and gRPC kernel clients run every call through a Breaker. Only
transport failures count against it: a call that comes back with a kernel
result code (NotInitialized, InvalidParam, ...) reached the kernel and is
classified as a success through Settings.IsSuccessful.

	b := resilience.New("kernel-grpc", resilience.Settings{
		Timeout: 10 * time.Second,
		ReadyToTrip: func(c resilience.Counts) bool {
			return c.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			var kerr *kernel.Error
			return err == nil || errors.As(err, &kerr)
		},
	})

	st, err := resilience.Call(b, func() (kernel.Status, error) {
		return client.Status(ctx)
	})

While open the breaker fails fast with ErrCircuitOpen. After Timeout it lets
MaxRequests probes through (half-open); that many consecutive successes
close it again and any failure reopens it. Results that arrive after the
state has moved on are ignored.
*/
package resilience
