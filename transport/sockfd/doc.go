// Package sockfd implements the socket stream backend, which wraps
// connected stream sockets handed over by file descriptor.
//
// There is nothing to dial: NewDialer always fails with
// options.ErrNotSupported. A listener is created for socket:// and, once
// listening, takes connected descriptors through the write-only
// socket:fd option. Each descriptor becomes one accepted stream. The
// listener owns descriptors it accepts; at most limits.SocketFDQueue may
// wait for an Accept, beyond which the option fails with aio.ErrBusy.
//
// The backend is available on POSIX systems and can be left out with the
// streamcore_nosockfd build tag.
package sockfd
