package telemetry

import (
	"context"
	"encoding/json"
	"sync/atomic"

	"github.com/golang/glog"
	"github.com/golang/protobuf/proto"

	fx "github.com/robotalks/robocar/pkg/framework"
	"github.com/robotalks/robocar/pkg/vc"
)

// DefaultQueueSize is the number of events buffered for publishing.
const DefaultQueueSize = 64

// Topic suffixes under <prefix><id>/.
const (
	TopicStatus = "status"
	TopicMeta   = "meta"
)

// Publisher publishes controller events to MQTT.
type Publisher struct {
	Queue *Queue
	Meta  Meta

	metaJSON []byte
	eventCh  chan vc.Event
	dropped  uint64
}

// NewPublisher creates a Publisher. The retained meta topic is cleared
// by the broker when the connection is lost.
func NewPublisher(brokerURL string, meta Meta) (*Publisher, error) {
	metaJSON, err := json.Marshal(&meta)
	if err != nil {
		return nil, err
	}
	opts, topicPrefix, err := ClientOptionsFromURL(brokerURL)
	if err != nil {
		return nil, err
	}
	opts.SetBinaryWill(topicPrefix+meta.ID+"/"+TopicMeta, nil, 1, true)
	if opts.ClientID == "" {
		opts.SetClientID("robocar:" + meta.ID)
	}
	p := &Publisher{
		Queue:    NewQueue(opts, topicPrefix),
		Meta:     meta,
		metaJSON: metaJSON,
		eventCh:  make(chan vc.Event, DefaultQueueSize),
	}
	p.Queue.OnConnect = func(q *Queue) {
		q.PubWith(p.topic(TopicMeta), p.metaJSON, 1, true)
	}
	return p, nil
}

// Observe implements vc.Observer. It never blocks.
func (p *Publisher) Observe(ev vc.Event) {
	select {
	case p.eventCh <- ev:
	default:
		if n := atomic.AddUint64(&p.dropped, 1); glog.V(2) {
			glog.Infof("telemetry queue full, %d events dropped", n)
		}
	}
}

// Dropped returns the number of events dropped so far.
func (p *Publisher) Dropped() uint64 {
	return atomic.LoadUint64(&p.dropped)
}

// Name implements Named.
func (p *Publisher) Name() string {
	return "mqtt-publisher"
}

// AddToLoop implements LoopAdder.
func (p *Publisher) AddToLoop(l *fx.Loop) {
	l.AddRunnable(p)
}

// Run implements Runnable.
func (p *Publisher) Run(ctx context.Context) error {
	p.Queue.Connect()
	for {
		select {
		case <-ctx.Done():
			p.Queue.PubWith(p.topic(TopicMeta), nil, 1, true).Wait()
			p.Queue.Close()
			return ctx.Err()
		case ev := <-p.eventCh:
			payload, err := proto.Marshal(NewStatusEvent(p.Meta.ID, ev))
			if err != nil {
				glog.Errorf("encode event: %v", err)
				continue
			}
			p.Queue.Pub(p.topic(TopicStatus), payload)
		}
	}
}

func (p *Publisher) topic(suffix string) string {
	return p.Meta.ID + "/" + suffix
}

// Monitor subscribes to events of all controllers under a prefix.
type Monitor struct {
	Queue *Queue
}

// NewMonitor creates a Monitor.
func NewMonitor(brokerURL string) (*Monitor, error) {
	opts, topicPrefix, err := ClientOptionsFromURL(brokerURL)
	if err != nil {
		return nil, err
	}
	return &Monitor{Queue: NewQueue(opts, topicPrefix)}, nil
}

// Watch connects and calls the handlers for each meta and status
// message until ctx is done. A nil meta means the controller left.
func (m *Monitor) Watch(ctx context.Context, onMeta func(id string, meta *Meta), onStatus func(*StatusEvent)) error {
	m.Queue.Sub("+/"+TopicMeta, func(topic string, payload []byte) {
		id := topic[:len(topic)-len(TopicMeta)-1]
		if len(payload) == 0 {
			onMeta(id, nil)
			return
		}
		var meta Meta
		if err := json.Unmarshal(payload, &meta); err != nil {
			glog.Warningf("invalid meta of %s: %v", id, err)
			return
		}
		onMeta(id, &meta)
	})
	m.Queue.Sub("+/"+TopicStatus, func(topic string, payload []byte) {
		var ev StatusEvent
		if err := proto.Unmarshal(payload, &ev); err != nil {
			glog.Warningf("invalid status on %s: %v", topic, err)
			return
		}
		onStatus(&ev)
	})
	token := m.Queue.Connect()
	token.Wait()
	if err := token.Error(); err != nil {
		return err
	}
	<-ctx.Done()
	m.Queue.Close()
	return ctx.Err()
}
