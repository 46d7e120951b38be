package kernel

import (
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	core "github.com/GriffinCanCode/AuroraOS/backend/internal/domain/kernel"
)

// GRPCCode maps a kernel result code to a gRPC status code.
func GRPCCode(code core.Code) codes.Code {
	switch code {
	case core.CodeOK:
		return codes.OK
	case core.CodeInvalidParam:
		return codes.InvalidArgument
	case core.CodeNotInitialized:
		return codes.FailedPrecondition
	case core.CodeAlreadyInitialized:
		return codes.AlreadyExists
	case core.CodeOutOfMemory:
		return codes.ResourceExhausted
	default:
		return codes.Unknown
	}
}

// KernelCode maps a gRPC status code back to a kernel result code. ok is
// false for codes the kernel never produces, which are transport failures.
func KernelCode(c codes.Code) (code core.Code, ok bool) {
	switch c {
	case codes.OK:
		return core.CodeOK, true
	case codes.InvalidArgument:
		return core.CodeInvalidParam, true
	case codes.FailedPrecondition:
		return core.CodeNotInitialized, true
	case codes.AlreadyExists:
		return core.CodeAlreadyInitialized, true
	case codes.ResourceExhausted:
		return core.CodeOutOfMemory, true
	case codes.Unknown:
		return core.CodeUnknown, true
	default:
		return core.CodeUnknown, false
	}
}

// toStatus converts a kernel error into a gRPC status error. The status
// message carries the error detail.
func toStatus(err error) error {
	if err == nil {
		return nil
	}
	detail := err.Error()
	var kerr *core.Error
	if errors.As(err, &kerr) {
		detail = kerr.Detail
	}
	return status.Error(GRPCCode(core.CodeOf(err)), detail)
}

// fromStatus rebuilds a kernel error from a gRPC error. Transport failures
// are returned unchanged.
func fromStatus(op string, err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	code, ok := KernelCode(st.Code())
	if !ok {
		return err
	}
	return &core.Error{Code: code, Op: op, Detail: st.Message()}
}
