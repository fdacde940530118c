package serial

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"

	"github.com/lk2023060901/danmu-serial/pkg/handler"
	"github.com/lk2023060901/danmu-serial/pkg/handler/compressor"
	"github.com/lk2023060901/danmu-serial/pkg/handler/serializer"
	"github.com/lk2023060901/danmu-serial/pkg/log"
	"github.com/lk2023060901/danmu-serial/pkg/metrics"
	"github.com/lk2023060901/danmu-serial/pkg/util/merr"
)

type point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (p *point) ClassTags() []string { return []string{"point", "shape"} }

// envelope 的处理器会对内部值发起一次嵌套序列化。
type envelope struct {
	Inner any
}

func envelopeHandler() Handler {
	names := []string{"point"}
	handlers := []Handler{handler.FromSerializer(serializer.JSONSerializer{}, func() any { return &point{} })}
	return handler.Funcs{
		SerializeFunc: func(v any) ([]byte, error) {
			return Serialize(v.(*envelope).Inner, names, handlers)
		},
		UnserializeFunc: func(data []byte) (any, error) {
			inner, err := Deserialize(data, names, handlers)
			if err != nil {
				return nil, err
			}
			return &envelope{Inner: inner}, nil
		},
	}
}

type SerialSuite struct {
	suite.Suite
	names    []string
	handlers []Handler
}

func (s *SerialSuite) SetupTest() {
	s.names = []string{"point", "blob", "*serial.envelope"}
	s.handlers = []Handler{
		handler.FromSerializer(serializer.JSONSerializer{}, func() any { return &point{} }),
		handler.Raw("blob"),
		envelopeHandler(),
	}
}

func (s *SerialSuite) TestRoundTrip() {
	value := []any{
		&point{X: 1, Y: 2},
		"text",
		[]any{&handler.Blob{Class: "blob", Data: []byte("abcd")}, int32(3)},
		nil,
	}
	for _, format := range []Format{Binary, XDR} {
		data, err := Serialize(value, s.names, s.handlers, WithFormat(format))
		s.Require().NoError(err)
		got, err := Deserialize(data, s.names, s.handlers)
		s.Require().NoError(err)
		s.Equal(value, got)
	}
}

func (s *SerialSuite) TestReentrantHandler() {
	value := &envelope{Inner: []any{&point{X: 5, Y: 6}, "inner"}}
	data, err := Serialize(value, s.names, s.handlers)
	s.Require().NoError(err)

	got, err := Deserialize(data, s.names, s.handlers)
	s.Require().NoError(err)
	s.Equal(value, got)
}

func (s *SerialSuite) TestDeclineEqualsNoHandlers() {
	value := []any{struct{ A int }{1}, "x"}
	withHandlers, err := Serialize(value, s.names, s.handlers)
	s.Require().NoError(err)
	without, err := Serialize(value, nil, nil)
	s.Require().NoError(err)
	s.Equal(without, withHandlers)

	got, err := Deserialize(withHandlers, nil, nil)
	s.Require().NoError(err)
	s.Equal([]any{nil, "x"}, got)
}

func (s *SerialSuite) TestStrict() {
	_, err := Serialize(struct{}{}, s.names, s.handlers, WithStrict(true))
	s.ErrorIs(err, merr.ErrUnsupportedValue)
}

func (s *SerialSuite) TestConfigurationErrors() {
	_, err := Serialize(nil, []string{"a", "b"}, []Handler{handler.Raw("a")})
	s.ErrorIs(err, merr.ErrLengthMismatch)
	s.ErrorIs(err, merr.ErrConfiguration)

	_, err = Deserialize(nil, []string{"a", "a"}, []Handler{handler.Raw("a"), handler.Raw("a")})
	s.ErrorIs(err, merr.ErrDuplicateClassName)
	s.ErrorIs(err, merr.ErrConfiguration)
}

func (s *SerialSuite) TestBufferLimit() {
	big := &handler.Blob{Class: "blob", Data: bytes.Repeat([]byte{1}, 1024)}
	_, err := Serialize(big, s.names, s.handlers, WithInitialSize(64), WithBufferLimit(512))
	s.ErrorIs(err, merr.ErrCapacityExceeded)

	data, err := Serialize(big, s.names, s.handlers, WithInitialSize(64), WithBufferLimit(4096))
	s.Require().NoError(err)
	s.Greater(len(data), 1024)
}

func (s *SerialSuite) TestTrailingBytes() {
	data, err := Serialize("x", nil, nil)
	s.Require().NoError(err)
	_, err = Deserialize(append(data, 0), nil, nil)
	s.ErrorIs(err, merr.ErrMalformedRecord)
}

func (s *SerialSuite) TestUnknownTagDegrades() {
	data, err := Serialize(&point{X: 1}, s.names, s.handlers)
	s.Require().NoError(err)
	got, err := Deserialize(data, []string{"blob"}, []Handler{handler.Raw("blob")})
	s.Require().NoError(err)
	s.Equal(handler.Unreconstructible{Class: "point", Size: uint64(len(`{"x":1,"y":0}`))}, got)
}

func (s *SerialSuite) TestFallback() {
	data, err := Serialize([]any{&point{X: 1}, &handler.Blob{Class: "blob", Data: []byte("zz")}}, s.names, s.handlers)
	s.Require().NoError(err)

	var classes []string
	got, err := Deserialize(data, nil, nil, WithFallback(func(class string, payload []byte) (any, error) {
		classes = append(classes, class)
		return len(payload), nil
	}))
	s.Require().NoError(err)
	s.Equal([]string{"point", "blob"}, classes)
	s.Equal([]any{13, 2}, got)
}

func (s *SerialSuite) TestCompressedHandler() {
	names := []string{"blob"}
	handlers := []Handler{handler.Compressed(handler.Raw("blob"), compressor.NewLZ4Compressor())}
	value := &handler.Blob{Class: "blob", Data: bytes.Repeat([]byte("repeat "), 2048)}

	data, err := Serialize(value, names, handlers)
	s.Require().NoError(err)
	s.Less(len(data), len(value.Data))

	got, err := Deserialize(data, names, handlers)
	s.Require().NoError(err)
	s.Equal(value, got)
}

func (s *SerialSuite) TestSerializeAll() {
	values := make([]any, 32)
	for i := range values {
		values[i] = &point{X: i, Y: -i}
	}
	out, err := SerializeAll(values, s.names, s.handlers, WithWorkers(4))
	s.Require().NoError(err)
	s.Require().Len(out, len(values))
	for i, data := range out {
		got, err := Deserialize(data, s.names, s.handlers)
		s.Require().NoError(err)
		s.Equal(values[i], got)
	}

	out, err = SerializeAll(nil, s.names, s.handlers)
	s.NoError(err)
	s.Empty(out)

	_, err = SerializeAll([]any{struct{}{}}, s.names, s.handlers, WithStrict(true))
	s.ErrorIs(err, merr.ErrUnsupportedValue)
}

type badTags struct{}

func (badTags) ClassTags() []string { panic("bad class tags") }

func (s *SerialSuite) TestSerializeAllPanickingValue() {
	values := []any{&point{X: 1}, badTags{}, &point{X: 2}}
	out, err := SerializeAll(values, s.names, s.handlers, WithWorkers(2), WithLogger(log.NewTestLogger(s.T())))
	s.Require().NoError(err)
	s.Require().Len(out, 3)

	got, err := Deserialize(out[1], s.names, s.handlers)
	s.NoError(err)
	s.Nil(got)
	got, err = Deserialize(out[2], s.names, s.handlers)
	s.NoError(err)
	s.Equal(&point{X: 2}, got)

	_, err = SerializeAll(values, s.names, s.handlers, WithStrict(true), WithLogger(log.NewTestLogger(s.T())))
	s.ErrorIs(err, merr.ErrUnsupportedValue)
}

func (s *SerialSuite) TestDeadbeefBlob() {
	names := []string{"blob"}
	handlers := []Handler{handler.Raw("blob")}
	content := []byte{0xDE, 0xAD, 0xBE, 0xEF}

	data, err := Serialize(&handler.Blob{Class: "blob", Data: content}, names, handlers)
	s.Require().NoError(err)
	s.Contains(string(data), "00000000000000000004blob\x00\xde\xad\xbe\xef")

	got, err := Deserialize(data, names, handlers)
	s.Require().NoError(err)
	s.Equal(&handler.Blob{Class: "blob", Data: content}, got)
}

func (s *SerialSuite) TestLoggerAndMetrics() {
	r := prometheus.NewRegistry()
	logger := log.NewTestLogger(s.T()).With(zap.String("test", s.T().Name()))

	before := testutil.ToFloat64(metrics.HookRecords.WithLabelValues(metrics.DirectionWrite))
	c, err := New(s.names, s.handlers, WithLogger(logger), WithMetrics(r))
	s.Require().NoError(err)
	_, err = c.Marshal([]any{&point{}, &point{}})
	s.Require().NoError(err)
	s.Equal(before+2, testutil.ToFloat64(metrics.HookRecords.WithLabelValues(metrics.DirectionWrite)))
}

func TestSerial(t *testing.T) {
	suite.Run(t, new(SerialSuite))
}

func TestConfigOptions(t *testing.T) {
	opts, err := Config{Format: "xdr", InitialBufferSize: 128, Workers: 2}.Options()
	require.NoError(t, err)
	c, err := New(nil, nil, opts...)
	require.NoError(t, err)
	assert.Equal(t, XDR, c.opt.format)
	assert.Equal(t, 128, c.opt.initialSize)
	assert.Equal(t, 2, c.workers())

	data, err := c.Marshal("x")
	require.NoError(t, err)
	assert.Equal(t, byte('X'), data[0])

	_, err = Config{Format: "ascii"}.Options()
	assert.ErrorIs(t, err, merr.ErrParameterInvalid)
	_, err = Config{BufferLimit: -1}.Options()
	assert.ErrorIs(t, err, merr.ErrParameterInvalid)
}

func ExampleSerialize() {
	names := []string{"blob"}
	handlers := []Handler{handler.Raw("blob")}

	data, _ := Serialize(&handler.Blob{Class: "blob", Data: []byte("abcd")}, names, handlers)
	v, _ := Deserialize(data, names, handlers)
	fmt.Printf("%s\n", v.(*handler.Blob).Data)
	// Output: abcd
}
