// internal/sink/sink.go
package sink

import (
	"github.com/sirupsen/logrus"

	"github.com/tamzrod/iec104-driver/internal/link"
)

// Log writes one debug record per received object.
type Log struct {
	log logrus.FieldLogger
}

func NewLog(log logrus.FieldLogger) *Log {
	return &Log{log: log.WithField("sink", "log")}
}

func (l *Log) HandleObject(o link.Object) {
	l.log.WithFields(logrus.Fields{
		"type":  o.TypeName,
		"cause": o.Cause,
		"ca":    o.CommonAddr,
		"count": o.Count,
		"seq":   o.Sequence,
	}).Debug("object received")
}

// Fanout forwards every object to each sink in order. Nil entries are skipped.
// Each sink must itself be non-blocking.
type Fanout []link.ObjectSink

func (f Fanout) HandleObject(o link.Object) {
	for _, s := range f {
		if s == nil {
			continue
		}
		s.HandleObject(o)
	}
}
