// Package aio provides the asynchronous operation type shared by every
// stream, dialer and listener in streamcore.
//
// An Op is owned by the caller. It is prepared (buffers, timeout,
// callback), reset, and then handed to exactly one Send, Recv, Dial or
// Accept call. The backend that receives it completes it exactly once,
// with either a result or an error, after which the caller owns it again
// and may reuse it.
//
// Backends track their in-flight operations with a Group. Closing a Group
// fails every pending operation promptly, and Group.Wait is the quiesce
// barrier: once it returns, no further completion will be delivered for
// operations submitted through that Group.
//
// Example usage:
//
//	op := aio.NewOp(nil)
//	op.SetBuffers([]byte("hello"))
//	streamcore.Send(s, op)
//	op.Wait()
//	if err := op.Err(); err != nil {
//	    log.Fatal(err)
//	}
package aio
