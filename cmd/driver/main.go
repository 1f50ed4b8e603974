// cmd/driver/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/juju/errors"
	"github.com/sirupsen/logrus"

	"github.com/tamzrod/iec104-driver/internal/command"
	"github.com/tamzrod/iec104-driver/internal/config"
	"github.com/tamzrod/iec104-driver/internal/driver"
	"github.com/tamzrod/iec104-driver/internal/link"
	"github.com/tamzrod/iec104-driver/internal/link/iec104"
	"github.com/tamzrod/iec104-driver/internal/logging"
	"github.com/tamzrod/iec104-driver/internal/service"
	"github.com/tamzrod/iec104-driver/internal/shutdown"
	"github.com/tamzrod/iec104-driver/internal/sink"
	"github.com/tamzrod/iec104-driver/internal/sink/mqtt"
	"github.com/tamzrod/iec104-driver/internal/writer"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: driver <config.yaml>")
		os.Exit(2)
	}
	os.Exit(run(os.Args[1]))
}

func run(cfgPath string) int {
	// --------------------
	// Load + validate config
	// --------------------

	cfg, err := config.Load(cfgPath)
	if err != nil {
		logrus.Errorf("config load failed: %v", err)
		return 1
	}

	if err := config.Validate(cfg); err != nil {
		logrus.Errorf("config validation failed: %v", err)
		return 1
	}
	config.Normalize(cfg)
	dc := cfg.Driver

	log, closeLog, err := logging.New(dc.Log)
	if err != nil {
		logrus.Errorf("logger setup failed: %v", err)
		return 1
	}
	defer closeLog.Close()

	batch, err := command.Build(dc.Commands)
	if err != nil {
		log.Errorf("command batch: %v", err)
		return 1
	}

	// --------------------
	// Receive path: log + optional mqtt
	// --------------------

	sinks := sink.Fanout{sink.NewLog(log)}
	if dc.MQTT != nil {
		pub, err := mqtt.New(*dc.MQTT, log)
		if err != nil {
			log.Errorf("mqtt publisher: %v", err)
			return 1
		}
		defer pub.Close()
		sinks = append(sinks, pub)
	}

	// --------------------
	// Link + session
	// --------------------

	ms := func(v int) time.Duration { return time.Duration(v) * time.Millisecond }

	client, err := iec104.New(iec104.Config{
		Endpoint:          dc.Link.Endpoint,
		ConnectTimeout:    ms(dc.Link.ConnectTimeoutMs),
		ReconnectInterval: ms(dc.Link.ReconnectIntervalMs),
		AutoReconnect:     *dc.Link.AutoReconnect,
	}, sinks, log)
	if err != nil {
		log.Errorf("iec104 client: %v", err)
		return 1
	}

	session := link.NewSession(client, dc.Link.Endpoint, log)
	defer func() {
		if err := session.Close(); err != nil {
			log.WithError(err).Warn("link close")
		}
	}()

	// Status writer (optional)
	statusWriter, closeStatus, err := writer.Build(dc.Status)
	if err != nil {
		// status memory is an observer; the driver runs without it
		log.WithError(err).Warn("status mirror disabled")
		statusWriter = nil
	}
	defer closeStatus()

	// --------------------
	// Shutdown + service integration
	// --------------------

	token := shutdown.New()
	token.Watch()
	defer token.Close()

	notifier := service.NewNotifier(log)

	d, err := driver.New(driver.Options{
		Session: session,
		Batch:   batch,
		Timers:  driver.TimersFromConfig(dc.Timers),
		Token:   token,
		Status:  statusWriter,
		Notify:  notifier,
		Log:     log,
	})
	if err != nil {
		log.Errorf("driver: %v", err)
		return 1
	}

	log.WithFields(logrus.Fields{
		"endpoint": dc.Link.Endpoint,
		"commands": len(batch),
	}).Info("iec104 driver starting")

	notifier.Ready()
	err = d.Run(context.Background())
	notifier.Stopping()

	if err != nil {
		log.Errorf("driver stopped: %v", err)
		log.Debug(errors.ErrorStack(err))
		return 1
	}

	log.Info("driver stopped")
	return 0
}
