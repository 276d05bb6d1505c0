package netstream

import (
	"context"
	"net/url"

	"github.com/opd-ai/streamcore/aio"
	"github.com/opd-ai/streamcore/metrics"
	"github.com/opd-ai/streamcore/options"
	"github.com/sirupsen/logrus"
)

// DialFunc establishes one connection and wraps it as a stream. It must
// return promptly once ctx is done.
type DialFunc func(ctx context.Context) (*Conn, error)

// DialerConfig holds the backend hooks of a Dialer.
type DialerConfig struct {
	Scheme  string
	URL     *url.URL
	Dial    DialFunc
	Options []options.Option
}

// Dialer runs asynchronous dials through a backend DialFunc.
type Dialer struct {
	scheme string
	url    string
	dial   DialFunc
	opts   *options.Table

	group  aio.Group
	ctx    context.Context
	cancel context.CancelFunc

	log *logrus.Entry
}

// NewDialer creates a Dialer. The url option is always published.
func NewDialer(cfg DialerConfig) *Dialer {
	ctx, cancel := context.WithCancel(context.Background())
	d := &Dialer{
		scheme: cfg.Scheme,
		url:    cfg.URL.String(),
		dial:   cfg.Dial,
		ctx:    ctx,
		cancel: cancel,
	}
	base := []options.Option{options.Const(options.URL, options.TypeString, d.url)}
	d.opts = options.NewTable(append(base, cfg.Options...)...)
	d.log = logrus.WithFields(logrus.Fields{
		"scheme": cfg.Scheme,
		"url":    d.url,
	})
	return d
}

// Dial starts a connection attempt. On success the op's output is the
// new *Conn.
func (d *Dialer) Dial(op *aio.Op) {
	ctx, cancel := context.WithCancel(d.ctx)
	if !d.group.Begin(op, cancel) {
		cancel()
		return
	}
	go d.run(ctx, cancel, op)
}

func (d *Dialer) run(ctx context.Context, cancel context.CancelFunc, op *aio.Op) {
	defer cancel()
	if deadline, ok := op.Deadline(); ok {
		var stop context.CancelFunc
		ctx, stop = context.WithDeadline(ctx, deadline)
		defer stop()
	}

	d.log.WithField("function", "Dialer.Dial").Debug("Dialing")
	c, err := d.dial(ctx)
	if err == nil && d.group.Closed() {
		c.Free()
		err = aio.ErrClosed
	}
	if err != nil {
		if d.group.Closed() {
			err = aio.ErrClosed
		} else {
			err = MapError("dial", d.url, err)
		}
		d.log.WithFields(logrus.Fields{
			"function": "Dialer.Dial",
			"error":    err.Error(),
		}).Debug("Dial failed")
		metrics.DialDone(d.scheme, err)
		d.group.End(op, 0, err)
		return
	}

	metrics.DialDone(d.scheme, nil)
	d.group.EndOutput(op, 0, c, nil)
}

// Close cancels pending dials; they complete with aio.ErrClosed.
func (d *Dialer) Close() {
	if d.group.Close() {
		d.cancel()
		d.log.WithField("function", "Dialer.Close").Debug("Dialer closed")
	}
}

// Stop closes the dialer and waits for pending dials to complete.
func (d *Dialer) Stop() {
	d.Close()
	d.group.Wait()
}

// Free stops and releases the dialer.
func (d *Dialer) Free() {
	d.Stop()
	d.log.WithField("function", "Dialer.Free").Debug("Dialer freed")
}

// Get reads an option.
func (d *Dialer) Get(name string, t options.Type) (any, error) {
	return d.opts.Get(name, t)
}

// Set writes an option.
func (d *Dialer) Set(name string, v any, t options.Type) error {
	return d.opts.Set(name, v, t)
}
