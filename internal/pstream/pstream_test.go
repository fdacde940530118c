package pstream

import (
	"math"
	"testing"

	"github.com/blang/semver/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/lk2023060901/danmu-serial/pkg/buffer/growable"
	"github.com/lk2023060901/danmu-serial/pkg/util/merr"
)

type opaque struct{ n int }

func encode(t *testing.T, format Format, v any, opts ...OutOption) []byte {
	t.Helper()
	buf := growable.New(0)
	out, err := NewOutStream(buf, format, opts...)
	require.NoError(t, err)
	require.NoError(t, out.WriteHeader())
	require.NoError(t, out.WriteItem(v))
	return buf.Detach()
}

func decode(t *testing.T, data []byte, opts ...InOption) any {
	t.Helper()
	in := NewInStream(data, opts...)
	_, err := in.ReadHeader()
	require.NoError(t, err)
	v, err := in.ReadItem()
	require.NoError(t, err)
	assert.Equal(t, 0, in.Remaining())
	return v
}

type StreamSuite struct {
	suite.Suite
}

func (s *StreamSuite) TestNativeRoundTrip() {
	values := []any{
		nil,
		true,
		int32(-7),
		math.Pi,
		"hello",
		"",
		[]bool{true, false},
		[]int32{1, 2, 3},
		[]float64{0.5, -1},
		[]string{"a", "bc"},
		[]byte{0, 1, 2},
		[]any{int32(1), "x", []any{nil, false}},
	}
	for _, format := range []Format{Binary, XDR} {
		for _, v := range values {
			got := decode(s.T(), encode(s.T(), format, v))
			s.Equal(v, got, "%s %#v", format, v)
		}
	}
}

func (s *StreamSuite) TestHeader() {
	data := encode(s.T(), XDR, nil)
	s.Equal([]byte("X\n"), data[:2])
	s.Equal([]byte{0, 0, 0, FormatVersion}, data[2:6])

	in := NewInStream(data)
	h, err := in.ReadHeader()
	s.Require().NoError(err)
	s.Equal(XDR, h.Format)
	s.True(h.WriterVersion.EQ(Version))
	s.Equal(NativeEncoding, h.NativeEncoding)

	data = encode(s.T(), Binary, nil)
	s.Equal([]byte("B\n"), data[:2])
	s.Equal([]byte{FormatVersion, 0, 0, 0}, data[2:6])
}

func (s *StreamSuite) TestNewerReaderRequired() {
	data := encode(s.T(), Binary, nil)
	// 改写最低读取端版本。
	Binary.ByteOrder().PutUint32(data[10:14], uint32(PackVersion(semver.MustParse("9.0.0"))))
	_, err := NewInStream(data).ReadHeader()
	s.ErrorIs(err, merr.ErrVersionMismatch)
}

func (s *StreamSuite) TestBadHeader() {
	_, err := NewInStream([]byte("A\n")).ReadHeader()
	s.ErrorIs(err, merr.ErrMalformedRecord)
	_, err = NewInStream([]byte("B")).ReadHeader()
	s.ErrorIs(err, merr.ErrUnderrun)
}

func (s *StreamSuite) TestDeclineWritesNull() {
	declined := encode(s.T(), Binary, opaque{1}, WithOutHook(func(any) ([]string, error) { return nil, nil }))
	null := encode(s.T(), Binary, nil)
	s.Equal(null, declined)
	s.Equal(null, encode(s.T(), Binary, opaque{1}))
}

func (s *StreamSuite) TestStrict() {
	out, err := NewOutStream(growable.New(0), Binary, WithStrict(true))
	s.Require().NoError(err)
	s.ErrorIs(out.WriteItem(opaque{1}), merr.ErrUnsupportedValue)
	s.ErrorIs(out.WriteItem(42), merr.ErrUnsupportedValue)
}

func (s *StreamSuite) TestPersistNames() {
	var seen any
	data := encode(s.T(), Binary, []any{opaque{3}, "tail"}, WithOutHook(func(v any) ([]string, error) {
		seen = v
		return []string{"n1", "n2"}, nil
	}))
	s.Equal(opaque{3}, seen)

	var names []string
	got := decode(s.T(), data, WithInHook(func(n []string) (any, error) {
		names = n
		return "restored", nil
	}))
	s.Equal([]string{"n1", "n2"}, names)
	s.Equal([]any{"restored", "tail"}, got)
}

func (s *StreamSuite) TestPersistWithoutHook() {
	data := encode(s.T(), Binary, opaque{}, WithOutHook(func(any) ([]string, error) { return []string{""}, nil }))
	in := NewInStream(data)
	_, err := in.ReadHeader()
	s.Require().NoError(err)
	_, err = in.ReadItem()
	s.ErrorIs(err, merr.ErrMalformedRecord)
}

func (s *StreamSuite) TestTruncated() {
	data := encode(s.T(), Binary, []string{"abcdef"})
	for cut := len(data) - 1; cut >= 23; cut-- {
		in := NewInStream(data[:cut])
		_, err := in.ReadHeader()
		s.Require().NoError(err)
		_, err = in.ReadItem()
		s.ErrorIs(err, merr.ErrUnderrun, "cut=%d", cut)
	}
}

func (s *StreamSuite) TestUnknownType() {
	buf := growable.New(0)
	out, err := NewOutStream(buf, Binary)
	s.Require().NoError(err)
	s.Require().NoError(out.OutInteger(99))
	_, err = NewInStream(buf.Bytes()).ReadItem()
	s.ErrorIs(err, merr.ErrMalformedRecord)
}

func TestStream(t *testing.T) {
	suite.Run(t, new(StreamSuite))
}

func TestPackVersion(t *testing.T) {
	v := semver.MustParse("1.2.3")
	assert.Equal(t, int32(0x010203), PackVersion(v))
	assert.True(t, UnpackVersion(PackVersion(v)).EQ(v))
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("xdr")
	require.NoError(t, err)
	assert.Equal(t, XDR, f)
	f, err = ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, Binary, f)
	_, err = ParseFormat("ascii")
	assert.ErrorIs(t, err, merr.ErrParameterInvalid)

	_, err = NewOutStream(growable.New(0), Format('A'))
	assert.ErrorIs(t, err, merr.ErrParameterInvalid)
	_, err = NewOutStream(nil, Binary)
	assert.ErrorIs(t, err, merr.ErrParameterInvalid)
}
