package main

import (
	"errors"
	"io"

	"github.com/opd-ai/streamcore"
	"github.com/opd-ai/streamcore/aio"
	"github.com/sirupsen/logrus"
)

const chunkSize = 32 * 1024

// pipe copies in to s and s to out. It returns once the peer finishes
// sending; input ending first only stops the outbound half.
func pipe(s streamcore.Stream, in io.Reader, out io.Writer) error {
	sendErr := make(chan error, 1)
	go func() {
		err := copyToStream(s, in)
		if err != nil {
			streamcore.Close(s)
		}
		sendErr <- err
	}()

	err := copyFromStream(out, s)
	streamcore.Close(s)
	if err != nil {
		return err
	}
	select {
	case err = <-sendErr:
		if errors.Is(err, streamcore.ErrClosed) {
			return nil
		}
		return err
	default:
		return nil
	}
}

func copyToStream(s streamcore.Stream, in io.Reader) error {
	buf := make([]byte, chunkSize)
	op := aio.NewOp(nil)
	for {
		n, rerr := in.Read(buf)
		data := buf[:n]
		for len(data) > 0 {
			op.SetBuffers(data)
			streamcore.Send(s, op)
			op.Wait()
			if err := op.Err(); err != nil {
				return err
			}
			data = data[op.Count():]
		}
		if rerr == io.EOF {
			logrus.WithFields(logrus.Fields{
				"function": "copyToStream",
			}).Debug("Input finished")
			return nil
		}
		if rerr != nil {
			return rerr
		}
	}
}

func copyFromStream(out io.Writer, s streamcore.Stream) error {
	buf := make([]byte, chunkSize)
	op := aio.NewOp(nil)
	for {
		op.SetBuffers(buf)
		streamcore.Recv(s, op)
		op.Wait()
		if err := op.Err(); err != nil {
			if errors.Is(err, streamcore.ErrConnShut) || errors.Is(err, streamcore.ErrClosed) {
				return nil
			}
			return err
		}
		if _, err := out.Write(buf[:op.Count()]); err != nil {
			return err
		}
	}
}
