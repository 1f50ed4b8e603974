// internal/link/iec104/client.go
package iec104

import (
	"context"
	"net"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/juju/errors"
	"github.com/sirupsen/logrus"
	"github.com/thinkgos/go-iecp5/asdu"
	"github.com/thinkgos/go-iecp5/cs104"

	"github.com/tamzrod/iec104-driver/internal/command"
	"github.com/tamzrod/iec104-driver/internal/link"
)

// Client implements link.Link on top of a go-iecp5 cs104 master.
// The library owns the TCP connection, APCI acknowledgement and reconnects.
// This adapter only maps lifecycle calls and command descriptors.
type Client struct {
	cfg  Config
	log  logrus.FieldLogger
	sink link.ObjectSink
	cli  *cs104.Client
	host string

	connected chan struct{}
	connOnce  sync.Once
	started   bool

	// receiving gates inbound dispatch and STARTDT re-assertion on reconnect.
	receiving atomic.Bool
}

// Config is minimal transport config.
type Config struct {
	Endpoint          string
	ConnectTimeout    time.Duration
	ReconnectInterval time.Duration
	AutoReconnect     bool
}

// New builds a client. No network I/O happens here.
func New(cfg Config, sink link.ObjectSink, log logrus.FieldLogger) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, errors.NotValidf("iec104 client: endpoint empty")
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 10 * time.Second
	}

	host, err := dialHost(cfg.Endpoint)
	if err != nil {
		return nil, errors.Annotatef(err, "iec104 client: endpoint %s", cfg.Endpoint)
	}

	opt := cs104.NewOption()
	if err := opt.AddRemoteServer(cfg.Endpoint); err != nil {
		return nil, errors.Annotatef(err, "iec104 client: endpoint %s", cfg.Endpoint)
	}
	opt.SetAutoReconnect(cfg.AutoReconnect)
	if cfg.ReconnectInterval > 0 {
		opt.SetReconnectInterval(cfg.ReconnectInterval)
	}

	c := &Client{
		cfg:       cfg,
		log:       log.WithField("link", "iec104"),
		sink:      sink,
		host:      host,
		connected: make(chan struct{}),
	}

	c.cli = cs104.NewClient(&handler{c: c}, opt)
	c.cli.LogMode(true)
	c.cli.SetLogProvider(logProvider{log: c.log})
	c.cli.SetOnConnectHandler(c.onConnect)
	c.cli.SetConnectionLostHandler(c.onConnectionLost)

	return c, nil
}

// ---- library callbacks (library goroutines) ----

func (c *Client) onConnect(cli *cs104.Client) {
	c.connOnce.Do(func() { close(c.connected) })
	c.log.Info("transport up")

	// Reception survives a library-level reconnect.
	if c.receiving.Load() {
		cli.SendStartDt()
	}
}

func (c *Client) onConnectionLost(*cs104.Client) {
	c.log.Warn("transport lost")
}

// ---- link.Link ----

// TransportUp implements link.TransportWatcher.
func (c *Client) TransportUp() bool { return c.cli.IsConnected() }

// Connect starts the library and waits for the first established transport.
//
// Without auto-reconnect the library makes exactly one attempt and only
// logs its failure, so the endpoint is dialed here first and a refused
// or unresolvable endpoint surfaces as that dial error.
func (c *Client) Connect(ctx context.Context) error {
	if !c.started {
		if !c.cfg.AutoReconnect {
			if err := c.reachable(ctx); err != nil {
				return err
			}
		}
		if err := c.cli.Start(); err != nil {
			return errors.Annotate(err, "iec104 start")
		}
		c.started = true
	}

	timer := time.NewTimer(c.cfg.ConnectTimeout)
	defer timer.Stop()

	select {
	case <-c.connected:
		return nil
	case <-timer.C:
		return errors.Timeoutf("iec104 connect %s after %s", c.cfg.Endpoint, c.cfg.ConnectTimeout)
	case <-ctx.Done():
		return errors.Trace(ctx.Err())
	}
}

func (c *Client) reachable(ctx context.Context) error {
	d := net.Dialer{Timeout: c.cfg.ConnectTimeout}
	conn, err := d.DialContext(ctx, "tcp", c.host)
	if err != nil {
		return errors.Annotatef(err, "dial %s", c.host)
	}
	_ = conn.Close()
	return nil
}

func (c *Client) StartReceiving(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return errors.Trace(err)
	}
	if !c.cli.IsConnected() {
		return errors.Trace(link.ErrNotConnected)
	}
	c.receiving.Store(true)
	c.cli.SendStartDt()
	return nil
}

func (c *Client) StopReceiving(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return errors.Trace(err)
	}
	c.receiving.Store(false)
	if c.cli.IsConnected() {
		c.cli.SendStopDt()
	}
	return nil
}

func (c *Client) SendSingle(ctx context.Context, ca, ioa uint16, v bool, q command.Qualifiers) error {
	if err := ctx.Err(); err != nil {
		return errors.Trace(err)
	}
	typeID := asdu.C_SC_NA_1
	if q.TimeTag {
		typeID = asdu.C_SC_TA_1
	}
	err := asdu.SingleCmd(c.cli, typeID, activation(), asdu.CommonAddr(ca), asdu.SingleCommandInfo{
		Ioa:   asdu.InfoObjAddr(ioa),
		Value: v,
		Qoc:   qoc(q),
		Time:  time.Now(),
	})
	return mapSendErr(err)
}

func (c *Client) SendDouble(ctx context.Context, ca, ioa uint16, v command.DoubleValue, q command.Qualifiers) error {
	if err := ctx.Err(); err != nil {
		return errors.Trace(err)
	}
	typeID := asdu.C_DC_NA_1
	if q.TimeTag {
		typeID = asdu.C_DC_TA_1
	}
	err := asdu.DoubleCmd(c.cli, typeID, activation(), asdu.CommonAddr(ca), asdu.DoubleCommandInfo{
		Ioa:   asdu.InfoObjAddr(ioa),
		Value: asdu.DoubleCommand(v),
		Qoc:   qoc(q),
		Time:  time.Now(),
	})
	return mapSendErr(err)
}

func (c *Client) SendStep(ctx context.Context, ca, ioa uint16, v command.StepValue, q command.Qualifiers) error {
	if err := ctx.Err(); err != nil {
		return errors.Trace(err)
	}
	typeID := asdu.C_RC_NA_1
	if q.TimeTag {
		typeID = asdu.C_RC_TA_1
	}
	err := asdu.StepCmd(c.cli, typeID, activation(), asdu.CommonAddr(ca), asdu.StepCommandInfo{
		Ioa:   asdu.InfoObjAddr(ioa),
		Value: asdu.StepCommand(v),
		Qoc:   qoc(q),
		Time:  time.Now(),
	})
	return mapSendErr(err)
}

func (c *Client) SendBitstring(ctx context.Context, ca, ioa uint16, v uint32, q command.Qualifiers) error {
	if err := ctx.Err(); err != nil {
		return errors.Trace(err)
	}
	typeID := asdu.C_BO_NA_1
	if q.TimeTag {
		typeID = asdu.C_BO_TA_1
	}
	err := asdu.BitsString32Cmd(c.cli, typeID, activation(), asdu.CommonAddr(ca), asdu.BitsString32CommandInfo{
		Ioa:   asdu.InfoObjAddr(ioa),
		Value: v,
		Time:  time.Now(),
	})
	return mapSendErr(err)
}

// Close stops the library, including its reconnect loop.
func (c *Client) Close() error {
	c.receiving.Store(false)
	return errors.Trace(c.cli.Close())
}

// ---- helpers ----

func activation() asdu.CauseOfTransmission {
	return asdu.CauseOfTransmission{Cause: asdu.Activation}
}

func qoc(q command.Qualifiers) asdu.QualifierOfCommand {
	return asdu.QualifierOfCommand{
		Qual:     asdu.QOCQual(q.Duration),
		InSelect: q.Select,
	}
}

// dialHost resolves the endpoint to host:port the same way the library
// does: a bare ":port" means localhost and a missing scheme means tcp.
func dialHost(endpoint string) (string, error) {
	if strings.HasPrefix(endpoint, ":") {
		endpoint = "127.0.0.1" + endpoint
	}
	if !strings.Contains(endpoint, "://") {
		endpoint = "tcp://" + endpoint
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", errors.Trace(err)
	}
	if u.Host == "" {
		return "", errors.NotValidf("endpoint %q without host", endpoint)
	}
	return u.Host, nil
}

// mapSendErr turns the library's closed-connection error into the
// NoWriteChannel taxonomy; everything else is passed through as transient.
func mapSendErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Cause(err) == cs104.ErrUseClosedConnection {
		return errors.Annotate(link.ErrNoWriteChannel, err.Error())
	}
	return errors.Trace(err)
}
