package nats

import (
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/smazurov/statusled/internal/events"
	"github.com/smazurov/statusled/internal/led"
)

// LEDController is the part of the LED manager the bridge drives.
type LEDController interface {
	TurnOn(name string) error
	TurnOff(name string) error
	Toggle(name string) error
	SetPattern(name, pattern string) error
	Get(name string) (*led.Driver, error)
}

// Bridge connects NATS subjects to the event bus and the LED manager.
//
//	statusled.status.<source>   -> StatusChangedEvent
//	statusled.control.<led>     -> manager command, ControlReply on request
//	LEDStateChangedEvent        -> statusled.leds.<led>.state
type Bridge struct {
	url      string
	eventBus *events.Bus
	leds     LEDController
	logger   *slog.Logger

	mu          sync.Mutex
	conn        *nats.Conn
	subs        []*nats.Subscription
	unsubscribe func()
	done        chan struct{}
	wg          sync.WaitGroup
}

// NewBridge creates a bridge. leds may be nil, in which case control
// subjects are not subscribed.
func NewBridge(url string, eventBus *events.Bus, leds LEDController, logger *slog.Logger) *Bridge {
	if logger == nil {
		logger = slog.Default()
	}

	return &Bridge{
		url:      url,
		eventBus: eventBus,
		leds:     leds,
		logger:   logger.With("component", "nats-bridge"),
	}
}

// Start connects to NATS and subscribes to the status and control subjects.
func (b *Bridge) Start() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.conn != nil {
		return errors.New("nats bridge already started")
	}

	conn, err := nats.Connect(b.url,
		nats.Name("statusled-bridge"),
		nats.ReconnectWait(2*time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				b.logger.Warn("NATS bridge disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			b.logger.Info("NATS bridge reconnected")
		}),
	)
	if err != nil {
		return err
	}

	b.conn = conn
	b.logger.Info("NATS bridge connected", "url", b.url)

	statusSub, err := conn.Subscribe(SubjectStatusPrefix+".*", b.handleStatus)
	if err != nil {
		b.cleanup()
		return err
	}
	b.subs = append(b.subs, statusSub)

	if b.leds != nil {
		controlSub, subErr := conn.Subscribe(SubjectControlPrefix+".*", b.handleControl)
		if subErr != nil {
			b.cleanup()
			return subErr
		}
		b.subs = append(b.subs, controlSub)
	}

	// Flush so the subscriptions are registered before Start returns.
	if err := conn.Flush(); err != nil {
		b.cleanup()
		return err
	}

	if b.eventBus != nil {
		eventCh := make(chan any, 64)
		b.unsubscribe = events.SubscribeToChannel[events.LEDStateChangedEvent](b.eventBus, eventCh)
		b.done = make(chan struct{})
		b.wg.Add(1)
		go b.forwardStates(conn, eventCh, b.done)
	}

	b.logger.Info("NATS bridge subscribed", "status", SubjectStatusPrefix+".*", "control", b.leds != nil)
	return nil
}

// handleStatus turns a status report into a StatusChangedEvent.
func (b *Bridge) handleStatus(msg *nats.Msg) {
	m, err := UnmarshalStatus(msg.Data)
	if err != nil {
		b.logger.Warn("Failed to unmarshal status", "error", err, "subject", msg.Subject)
		return
	}
	if m.Source == "" {
		m.Source = lastToken(msg.Subject)
	}
	if m.Timestamp == "" {
		m.Timestamp = time.Now().Format(time.RFC3339)
	}

	if b.eventBus == nil {
		return
	}
	b.eventBus.Publish(events.StatusChangedEvent{
		Source:    m.Source,
		Status:    m.Status,
		Timestamp: m.Timestamp,
	})
	b.logger.Debug("Published status event", "source", m.Source, "status", m.Status)
}

// handleControl runs a command on the LED named by the subject.
func (b *Bridge) handleControl(msg *nats.Msg) {
	name := lastToken(msg.Subject)

	reply := b.execute(name, msg.Data)
	if msg.Reply == "" {
		return
	}

	data, err := reply.Marshal()
	if err != nil {
		b.logger.Warn("Failed to marshal control reply", "error", err)
		return
	}
	if err := msg.Respond(data); err != nil {
		b.logger.Warn("Failed to send control reply", "led", name, "error", err)
	}
}

func (b *Bridge) execute(name string, data []byte) ControlReply {
	ctrl, err := UnmarshalControl(data)
	if err != nil {
		b.logger.Warn("Failed to unmarshal control message", "led", name, "error", err)
		return ControlReply{Code: "INVALID_REQUEST", Error: err.Error()}
	}

	b.logger.Info("Received control command", "led", name, "action", ctrl.Action, "pattern", ctrl.Pattern)

	switch strings.ToLower(ctrl.Action) {
	case ControlOn:
		err = b.leds.TurnOn(name)
	case ControlOff:
		err = b.leds.TurnOff(name)
	case ControlToggle:
		err = b.leds.Toggle(name)
	case ControlPattern:
		err = b.leds.SetPattern(name, ctrl.Pattern)
	default:
		return ControlReply{Code: "INVALID_REQUEST", Error: "unknown action " + ctrl.Action}
	}
	if err != nil {
		return errorReply(err)
	}

	d, err := b.leds.Get(name)
	if err != nil {
		return errorReply(err)
	}
	state := stateMessage(d.Status(), strings.ToLower(ctrl.Action))
	return ControlReply{OK: true, LED: &state}
}

func errorReply(err error) ControlReply {
	reply := ControlReply{Error: err.Error()}
	var ledErr *led.Error
	if errors.As(err, &ledErr) {
		reply.Code = ledErr.Code
		reply.Error = ledErr.Message
	}
	return reply
}

func stateMessage(s led.Status, action string) LEDStateMessage {
	return LEDStateMessage{
		LED:       s.Name,
		State:     s.State.String(),
		Pattern:   s.Pattern,
		Action:    action,
		Timestamp: time.Now().Format(time.RFC3339),
	}
}

// forwardStates republishes LED changes from the event bus on NATS.
func (b *Bridge) forwardStates(conn *nats.Conn, eventCh <-chan any, done <-chan struct{}) {
	defer b.wg.Done()

	for {
		select {
		case <-done:
			return
		case ev := <-eventCh:
			e, ok := ev.(events.LEDStateChangedEvent)
			if !ok {
				continue
			}
			data, err := LEDStateMessage{
				LED:       e.LED,
				State:     e.State,
				Pattern:   e.Pattern,
				Action:    e.Action,
				Timestamp: e.Timestamp,
			}.Marshal()
			if err != nil {
				b.logger.Warn("Failed to marshal LED state", "error", err)
				continue
			}
			if err := conn.Publish(SubjectLEDState(e.LED), data); err != nil {
				b.logger.Warn("Failed to publish LED state", "led", e.LED, "error", err)
			}
		}
	}
}

// cleanup unsubscribes and closes the connection. Caller holds mu.
func (b *Bridge) cleanup() {
	if b.unsubscribe != nil {
		b.unsubscribe()
		b.unsubscribe = nil
	}
	if b.done != nil {
		close(b.done)
		b.done = nil
	}
	b.wg.Wait()

	for _, sub := range b.subs {
		_ = sub.Unsubscribe()
	}
	b.subs = nil

	if b.conn != nil {
		b.conn.Close()
		b.conn = nil
	}
}

// Stop closes the bridge connection.
func (b *Bridge) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.cleanup()
	b.logger.Info("NATS bridge stopped")
}

// IsConnected reports whether the bridge is connected to NATS.
func (b *Bridge) IsConnected() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.conn != nil && b.conn.IsConnected()
}
