package codec

import (
	"github.com/pkg/errors"

	"github.com/amqpbridge-io/amqpbridge/bridge/amqpvalue"
	"github.com/amqpbridge-io/amqpbridge/bridge/message"
)

var errInjected = errors.New("injected failure")

// faults fails the at-th call (1-based) of the operation op. Operation names
// are prefixed by layer: none for the value layer, "props." for the
// properties container, "amqp." for the received message, "msg." for the
// application message, and "map." for its property map.
type faults struct {
	op    string
	at    int
	calls map[string]int
}

func newFaults(op string, at int) *faults {
	if at == 0 {
		at = 1
	}
	return &faults{op: op, at: at, calls: make(map[string]int)}
}

func noFaults() *faults {
	return newFaults("", 0)
}

func (f *faults) check(op string) error {
	f.calls[op]++
	if op == f.op && f.calls[op] == f.at {
		return errors.Wrap(errInjected, op)
	}
	return nil
}

// fakeValues wraps the go-amqp layer, injecting failures and tracking every
// value and properties container handed to the codec that must be released.
type fakeValues struct {
	amqpvalue.Values
	faults    *faults
	live      map[amqpvalue.Value]string
	liveProps int
}

func newFakeValues(f *faults) *fakeValues {
	return &fakeValues{
		Values: amqpvalue.NewLayer(),
		faults: f,
		live:   make(map[amqpvalue.Value]string),
	}
}

func (v *fakeValues) track(op string, val amqpvalue.Value, err error) (amqpvalue.Value, error) {
	if err != nil {
		return nil, err
	}
	v.live[val] = op
	return val, nil
}

func (v *fakeValues) NewString(s string) (amqpvalue.Value, error) {
	if err := v.faults.check("NewString"); err != nil {
		return nil, err
	}
	val, err := v.Values.NewString(s)
	return v.track("NewString", val, err)
}

func (v *fakeValues) NewMap() (amqpvalue.Value, error) {
	if err := v.faults.check("NewMap"); err != nil {
		return nil, err
	}
	val, err := v.Values.NewMap()
	return v.track("NewMap", val, err)
}

func (v *fakeValues) SetMapValue(m, key, value amqpvalue.Value) error {
	if err := v.faults.check("SetMapValue"); err != nil {
		return err
	}
	return v.Values.SetMapValue(m, key, value)
}

func (v *fakeValues) MapPairCount(m amqpvalue.Value) (int, error) {
	if err := v.faults.check("MapPairCount"); err != nil {
		return 0, err
	}
	return v.Values.MapPairCount(m)
}

func (v *fakeValues) MapPair(m amqpvalue.Value, i int) (amqpvalue.Value, amqpvalue.Value, error) {
	if err := v.faults.check("MapPair"); err != nil {
		return nil, nil, err
	}
	key, value, err := v.Values.MapPair(m, i)
	if err != nil {
		return nil, nil, err
	}
	v.live[key] = "MapPair key"
	v.live[value] = "MapPair value"
	return key, value, nil
}

func (v *fakeValues) GetString(val amqpvalue.Value) (string, error) {
	if err := v.faults.check("GetString"); err != nil {
		return "", err
	}
	return v.Values.GetString(val)
}

func (v *fakeValues) NewProperties() (amqpvalue.Properties, error) {
	if err := v.faults.check("NewProperties"); err != nil {
		return nil, err
	}
	p, err := v.Values.NewProperties()
	if err != nil {
		return nil, err
	}
	v.liveProps++
	return &fakeProperties{Properties: p, owner: v}, nil
}

func (v *fakeValues) NewPropertiesSection(p amqpvalue.Properties) (amqpvalue.Value, error) {
	if err := v.faults.check("NewPropertiesSection"); err != nil {
		return nil, err
	}
	if fp, ok := p.(*fakeProperties); ok {
		p = fp.Properties
	}
	val, err := v.Values.NewPropertiesSection(p)
	return v.track("NewPropertiesSection", val, err)
}

func (v *fakeValues) NewApplicationPropertiesSection(m amqpvalue.Value) (amqpvalue.Value, error) {
	if err := v.faults.check("NewApplicationPropertiesSection"); err != nil {
		return nil, err
	}
	val, err := v.Values.NewApplicationPropertiesSection(m)
	return v.track("NewApplicationPropertiesSection", val, err)
}

func (v *fakeValues) NewData(b []byte) (amqpvalue.Value, error) {
	if err := v.faults.check("NewData"); err != nil {
		return nil, err
	}
	val, err := v.Values.NewData(b)
	return v.track("NewData", val, err)
}

func (v *fakeValues) DescribedValue(val amqpvalue.Value) (amqpvalue.Value, error) {
	if err := v.faults.check("DescribedValue"); err != nil {
		return nil, err
	}
	return v.Values.DescribedValue(val)
}

func (v *fakeValues) EncodedSize(val amqpvalue.Value) (int, error) {
	if err := v.faults.check("EncodedSize"); err != nil {
		return 0, err
	}
	return v.Values.EncodedSize(val)
}

func (v *fakeValues) Encode(val amqpvalue.Value, emit amqpvalue.EmitFunc) error {
	if err := v.faults.check("Encode"); err != nil {
		return err
	}
	return v.Values.Encode(val, emit)
}

func (v *fakeValues) Release(val amqpvalue.Value) {
	delete(v.live, val)
	v.Values.Release(val)
}

// leaks lists what is still held by the codec.
func (v *fakeValues) leaks() []string {
	var out []string
	for _, op := range v.live {
		out = append(out, op)
	}
	for i := 0; i < v.liveProps; i++ {
		out = append(out, "properties container")
	}
	return out
}

type fakeProperties struct {
	amqpvalue.Properties
	owner *fakeValues
}

func (p *fakeProperties) SetMessageID(v amqpvalue.Value) error {
	if err := p.owner.faults.check("props.SetMessageID"); err != nil {
		return err
	}
	return p.Properties.SetMessageID(v)
}

func (p *fakeProperties) SetCorrelationID(v amqpvalue.Value) error {
	if err := p.owner.faults.check("props.SetCorrelationID"); err != nil {
		return err
	}
	return p.Properties.SetCorrelationID(v)
}

func (p *fakeProperties) SetContentType(s string) error {
	if err := p.owner.faults.check("props.SetContentType"); err != nil {
		return err
	}
	return p.Properties.SetContentType(s)
}

func (p *fakeProperties) SetContentEncoding(s string) error {
	if err := p.owner.faults.check("props.SetContentEncoding"); err != nil {
		return err
	}
	return p.Properties.SetContentEncoding(s)
}

func (p *fakeProperties) MessageID() (amqpvalue.Value, error) {
	if err := p.owner.faults.check("props.MessageID"); err != nil {
		return nil, err
	}
	return p.Properties.MessageID()
}

func (p *fakeProperties) CorrelationID() (amqpvalue.Value, error) {
	if err := p.owner.faults.check("props.CorrelationID"); err != nil {
		return nil, err
	}
	return p.Properties.CorrelationID()
}

func (p *fakeProperties) Release() {
	p.owner.liveProps--
	p.Properties.Release()
}

// fakeReceived wraps a received message with failure injection. Containers
// and values it returns are tracked by owner.
type fakeReceived struct {
	amqpvalue.Message
	owner *fakeValues
}

func (r *fakeReceived) BodyType() (amqpvalue.BodyType, error) {
	if err := r.owner.faults.check("amqp.BodyType"); err != nil {
		return amqpvalue.BodyTypeNone, err
	}
	return r.Message.BodyType()
}

func (r *fakeReceived) BodyData(i int) ([]byte, error) {
	if err := r.owner.faults.check("amqp.BodyData"); err != nil {
		return nil, err
	}
	return r.Message.BodyData(i)
}

func (r *fakeReceived) Properties() (amqpvalue.Properties, error) {
	if err := r.owner.faults.check("amqp.Properties"); err != nil {
		return nil, err
	}
	p, err := r.Message.Properties()
	if err != nil {
		return nil, err
	}
	r.owner.liveProps++
	return &fakeProperties{Properties: p, owner: r.owner}, nil
}

func (r *fakeReceived) ApplicationProperties() (amqpvalue.Value, error) {
	if err := r.owner.faults.check("amqp.ApplicationProperties"); err != nil {
		return nil, err
	}
	val, err := r.Message.ApplicationProperties()
	if err != nil || val == nil {
		return val, err
	}
	return r.owner.track("ApplicationProperties", val, nil)
}

// fakeMessages is a MessageFactory that counts created and destroyed
// messages.
type fakeMessages struct {
	faults    *faults
	created   int
	destroyed int
}

func (m *fakeMessages) New(body []byte) (Message, error) {
	if err := m.faults.check("msg.New"); err != nil {
		return nil, err
	}
	msg, err := message.NewFromByteArray(body)
	if err != nil {
		return nil, err
	}
	m.created++
	return &fakeMessage{Message: msg, faults: m.faults, owner: m}, nil
}

func (m *fakeMessages) leaked() int {
	return m.created - m.destroyed
}

type fakeMessage struct {
	*message.Message
	faults      *faults
	owner       *fakeMessages
	unknownBody bool
}

func wrapMessage(msg *message.Message, f *faults) *fakeMessage {
	return &fakeMessage{Message: msg, faults: f}
}

func (m *fakeMessage) ContentType() message.ContentType {
	if m.unknownBody {
		return message.ContentTypeUnknown
	}
	return m.Message.ContentType()
}

func (m *fakeMessage) ByteArray() ([]byte, error) {
	if err := m.faults.check("msg.ByteArray"); err != nil {
		return nil, err
	}
	return m.Message.ByteArray()
}

func (m *fakeMessage) Text() (string, error) {
	if err := m.faults.check("msg.Text"); err != nil {
		return "", err
	}
	return m.Message.Text()
}

func (m *fakeMessage) SetSystemProperty(p message.SystemProperty, value string) error {
	if err := m.faults.check("msg.SetSystemProperty"); err != nil {
		return err
	}
	return m.Message.SetSystemProperty(p, value)
}

func (m *fakeMessage) Properties() message.Properties {
	if err := m.faults.check("msg.Properties"); err != nil {
		return nil
	}
	return &fakeMap{Properties: m.Message.Properties(), faults: m.faults}
}

func (m *fakeMessage) Destroy() {
	if m.owner != nil {
		m.owner.destroyed++
	}
	m.Message.Destroy()
}

type fakeMap struct {
	message.Properties
	faults *faults
}

func (m *fakeMap) Internals() ([]string, []string, error) {
	if err := m.faults.check("map.Internals"); err != nil {
		return nil, nil, err
	}
	return m.Properties.Internals()
}

func (m *fakeMap) AddOrUpdate(key, value string) error {
	if err := m.faults.check("map.AddOrUpdate"); err != nil {
		return err
	}
	return m.Properties.AddOrUpdate(key, value)
}

// countingAlloc counts buffer allocations.
type countingAlloc struct {
	calls int
	fail  bool
}

func (a *countingAlloc) Allocate(n int) ([]byte, error) {
	a.calls++
	if a.fail {
		return nil, errInjected
	}
	return make([]byte, n), nil
}
