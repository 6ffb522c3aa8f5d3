package amqpvalue

import (
	"fmt"

	"github.com/Azure/go-amqp"
	"github.com/pkg/errors"
)

// value is the Layer's Value. Only the fields matching typ are populated.
type value struct {
	typ      Type
	raw      any
	pairs    *pairs
	props    *amqp.MessageProperties
	data     []byte
	encoded  []byte
	borrowed bool
	released bool
}

func (v *value) Type() Type {
	return v.typ
}

// Layer implements Values on top of github.com/Azure/go-amqp. Sections are
// serialized by go-amqp's message marshaler; the bytes produced while
// computing the encoded size are kept and emitted by Encode so that size and
// output always agree.
type Layer struct{}

// NewLayer returns a go-amqp backed value layer.
func NewLayer() *Layer {
	return &Layer{}
}

// NewString creates a string value.
func (l *Layer) NewString(s string) (Value, error) {
	return &value{typ: TypeString, raw: s}, nil
}

// NewMap creates an empty map value.
func (l *Layer) NewMap() (Value, error) {
	return &value{typ: TypeMap, pairs: newPairs(0)}, nil
}

// SetMapValue inserts or replaces key in the map m. The key must be a string;
// the value must be a scalar.
func (l *Layer) SetMapValue(m, key, val Value) error {
	mv, err := live(m, TypeMap)
	if err != nil {
		return err
	}
	kv, err := live(key, TypeString)
	if err != nil {
		return errors.Wrap(err, "map key")
	}
	vv, err := scalar(val)
	if err != nil {
		return errors.Wrap(err, "map value")
	}
	mv.pairs.set(kv.raw.(string), vv.raw)
	return nil
}

// MapPairCount returns the number of pairs in m.
func (l *Layer) MapPairCount(m Value) (int, error) {
	mv, err := live(m, TypeMap)
	if err != nil {
		return 0, err
	}
	return mv.pairs.len(), nil
}

// MapPair returns copies of the i-th key and value of m.
func (l *Layer) MapPair(m Value, i int) (Value, Value, error) {
	mv, err := live(m, TypeMap)
	if err != nil {
		return nil, nil, err
	}
	if i < 0 || i >= mv.pairs.len() {
		return nil, nil, fmt.Errorf("map index %d out of range [0, %d)", i, mv.pairs.len())
	}
	k, v := mv.pairs.at(i)
	return &value{typ: TypeString, raw: k}, &value{typ: typeOf(v), raw: v}, nil
}

// GetString extracts the string held by v.
func (l *Layer) GetString(v Value) (string, error) {
	sv, err := live(v, TypeString)
	if err != nil {
		return "", err
	}
	return sv.raw.(string), nil
}

// NewProperties creates an empty header properties container.
func (l *Layer) NewProperties() (Properties, error) {
	return &properties{p: new(amqp.MessageProperties)}, nil
}

// NewPropertiesSection snapshots the container into a properties section.
func (l *Layer) NewPropertiesSection(p Properties) (Value, error) {
	pp, ok := p.(*properties)
	if !ok {
		return nil, fmt.Errorf("unsupported properties container %T", p)
	}
	if pp.released {
		return nil, ErrReleased
	}
	if pp.p == nil {
		return nil, ErrNoProperties
	}
	snapshot := *pp.p
	return &value{typ: TypeProperties, props: &snapshot}, nil
}

// NewApplicationPropertiesSection snapshots the map m into an
// application-properties section.
func (l *Layer) NewApplicationPropertiesSection(m Value) (Value, error) {
	mv, err := live(m, TypeMap)
	if err != nil {
		return nil, err
	}
	return &value{typ: TypeApplicationProperties, pairs: mv.pairs.clone()}, nil
}

// NewData wraps b, without copying, as a data section.
func (l *Layer) NewData(b []byte) (Value, error) {
	return &value{typ: TypeData, data: b}, nil
}

// DescribedValue returns the value described by an application-properties or
// data section.
func (l *Layer) DescribedValue(v Value) (Value, error) {
	sv, err := live(v, TypeUnknown)
	if err != nil {
		return nil, err
	}
	switch sv.typ {
	case TypeApplicationProperties:
		return &value{typ: TypeMap, pairs: sv.pairs, borrowed: true}, nil
	case TypeData:
		return &value{typ: TypeBinary, raw: sv.data, borrowed: true}, nil
	default:
		return nil, fmt.Errorf("%s is not a described value", sv.typ)
	}
}

// EncodedSize returns the number of bytes Encode will emit for the section v.
func (l *Layer) EncodedSize(v Value) (int, error) {
	b, err := sectionBytes(v)
	if err != nil {
		return 0, err
	}
	return len(b), nil
}

// Encode serializes the section v through emit.
func (l *Layer) Encode(v Value, emit EmitFunc) error {
	b, err := sectionBytes(v)
	if err != nil {
		return err
	}
	return emit(b)
}

// Release marks v as released. Values returned by DescribedValue belong to
// their section and are left untouched.
func (l *Layer) Release(v Value) {
	vv, ok := v.(*value)
	if !ok || vv == nil || vv.borrowed {
		return
	}
	vv.released = true
	vv.raw = nil
	vv.pairs = nil
	vv.props = nil
	vv.data = nil
	vv.encoded = nil
}

func sectionBytes(v Value) ([]byte, error) {
	sv, err := live(v, TypeUnknown)
	if err != nil {
		return nil, err
	}
	if sv.encoded != nil {
		return sv.encoded, nil
	}
	msg := new(amqp.Message)
	switch sv.typ {
	case TypeProperties:
		msg.Properties = sv.props
	case TypeApplicationProperties:
		msg.ApplicationProperties = sv.pairs.toMap()
	case TypeData:
		msg.Data = [][]byte{sv.data}
	default:
		return nil, fmt.Errorf("%s is not an encodable section", sv.typ)
	}
	b, err := msg.MarshalBinary()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to marshal %s section", sv.typ)
	}
	sv.encoded = b
	return b, nil
}

// live asserts v is an unreleased Layer value of type want. TypeUnknown
// accepts any type.
func live(v Value, want Type) (*value, error) {
	vv, ok := v.(*value)
	if !ok || vv == nil {
		return nil, fmt.Errorf("unsupported value %T", v)
	}
	if vv.released {
		return nil, ErrReleased
	}
	if want != TypeUnknown && vv.typ != want {
		return nil, fmt.Errorf("value is %s, not %s", vv.typ, want)
	}
	return vv, nil
}

func scalar(v Value) (*value, error) {
	vv, err := live(v, TypeUnknown)
	if err != nil {
		return nil, err
	}
	switch vv.typ {
	case TypeNull, TypeString, TypeULong, TypeBinary, TypeOther:
		return vv, nil
	default:
		return nil, fmt.Errorf("%s is not a scalar", vv.typ)
	}
}

func typeOf(raw any) Type {
	switch raw.(type) {
	case nil:
		return TypeNull
	case string:
		return TypeString
	case uint64:
		return TypeULong
	case []byte:
		return TypeBinary
	default:
		return TypeOther
	}
}
