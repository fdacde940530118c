package serializer

import (
	"fmt"
	"reflect"

	"github.com/fxamacker/cbor/v2"
)

// CBORSerializer 使用 CBOR（RFC 8949）核心确定性编码：map key 有序、整数取最短编码，
// 相同数据总是产生相同字节。
type CBORSerializer struct {
	enc cbor.EncMode
	dec cbor.DecMode
}

// 编译期断言：确保 CBORSerializer 实现了 Serializer 接口。
var _ Serializer = (*CBORSerializer)(nil)

// NewCBORSerializer 创建一个 CBORSerializer。
func NewCBORSerializer() (*CBORSerializer, error) {
	enc, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		return nil, fmt.Errorf("serializer: cbor encoder init failed: %w", err)
	}
	// 解码到 any 时使用 map[string]any，而不是 CBOR 默认的 map[any]any。
	dec, err := cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}.DecMode()
	if err != nil {
		return nil, fmt.Errorf("serializer: cbor decoder init failed: %w", err)
	}
	return &CBORSerializer{enc: enc, dec: dec}, nil
}

func (s *CBORSerializer) Marshal(v any) ([]byte, error) {
	return s.enc.Marshal(v)
}

func (s *CBORSerializer) Unmarshal(data []byte, v any) error {
	return s.dec.Unmarshal(data, v)
}

func (*CBORSerializer) Name() string {
	return "cbor"
}
