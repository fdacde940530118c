// Package handler 定义了序列化钩子所调用的用户处理器，以及常用的适配器。
package handler

import (
	"encoding"
	"fmt"
	"reflect"

	"github.com/cockroachdb/errors"
	"github.com/samber/lo"

	"github.com/lk2023060901/danmu-serial/pkg/handler/compressor"
	"github.com/lk2023060901/danmu-serial/pkg/handler/serializer"
	"github.com/lk2023060901/danmu-serial/pkg/util/merr"
)

// Handler 负责某一类不透明值与字节负载之间的互相转换。
//
// Serialize 返回的切片在钩子写完之前不得被修改；
// Unserialize 收到的切片归处理器所有，可以直接保留。
type Handler interface {
	Serialize(v any) ([]byte, error)
	Unserialize(data []byte) (any, error)
}

// Funcs 把一对函数适配为 Handler。
type Funcs struct {
	SerializeFunc   func(v any) ([]byte, error)
	UnserializeFunc func(data []byte) (any, error)
}

var _ Handler = Funcs{}

func (f Funcs) Serialize(v any) ([]byte, error) {
	if f.SerializeFunc == nil {
		return nil, merr.WrapErrParameterInvalidMsg("serialize func is nil")
	}
	return f.SerializeFunc(v)
}

func (f Funcs) Unserialize(data []byte) (any, error) {
	if f.UnserializeFunc == nil {
		return nil, merr.WrapErrParameterInvalidMsg("unserialize func is nil")
	}
	return f.UnserializeFunc(data)
}

// Classed 由能自行声明类标签的值实现，最具体的标签排在最前面。
type Classed interface {
	ClassTags() []string
}

// ClassTags 返回 v 的类标签列表。
//
// 实现了 Classed 的值直接使用其声明；否则按 Go 动态类型推导：
// 类型名，指针类型再追加元素类型名，最后是 Kind 名。nil 没有类标签。
func ClassTags(v any) []string {
	if v == nil {
		return nil
	}
	if c, ok := v.(Classed); ok {
		return c.ClassTags()
	}
	t := reflect.TypeOf(v)
	tags := []string{t.String()}
	if t.Kind() == reflect.Pointer {
		tags = append(tags, t.Elem().String())
		t = t.Elem()
	}
	tags = append(tags, t.Kind().String())
	return lo.Uniq(tags)
}

// Blob 是带类名的原始字节，既可作为 Raw 处理器的输入，也是其解码结果。
type Blob struct {
	Class string
	Data  []byte
}

// ClassTags 实现 Classed，依次为 Class 与 "blob"。
func (b *Blob) ClassTags() []string {
	return lo.Uniq(lo.Compact([]string{b.Class, "blob"}))
}

// Raw 返回一个不做任何编码的处理器。
// 可接受 *Blob、Blob、[]byte 以及 encoding.BinaryMarshaler，解码结果为 *Blob。
func Raw(class string) Handler {
	return Funcs{
		SerializeFunc: func(v any) ([]byte, error) {
			switch x := v.(type) {
			case *Blob:
				return x.Data, nil
			case Blob:
				return x.Data, nil
			case []byte:
				return x, nil
			case encoding.BinaryMarshaler:
				return x.MarshalBinary()
			default:
				return nil, errors.Newf("raw handler: unsupported value of type %T", v)
			}
		},
		UnserializeFunc: func(data []byte) (any, error) {
			return &Blob{Class: class, Data: data}, nil
		},
	}
}

// FromSerializer 用 serializer.Serializer 构造处理器。
// newFn 为解码目标的构造函数，需返回指针；为 nil 时解码到 map[string]any。
func FromSerializer(s serializer.Serializer, newFn func() any) Handler {
	return Funcs{
		SerializeFunc: s.Marshal,
		UnserializeFunc: func(data []byte) (any, error) {
			var target any
			if newFn != nil {
				target = newFn()
			} else {
				target = &map[string]any{}
			}
			if err := s.Unmarshal(data, target); err != nil {
				return nil, errors.Wrapf(err, "%s unmarshal", s.Name())
			}
			if newFn == nil {
				return *(target.(*map[string]any)), nil
			}
			return target, nil
		},
	}
}

// Compressed 在 h 的负载外层套上压缩。
func Compressed(h Handler, c compressor.Compressor) Handler {
	return Funcs{
		SerializeFunc: func(v any) ([]byte, error) {
			plain, err := h.Serialize(v)
			if err != nil {
				return nil, err
			}
			return c.Compress(nil, plain)
		},
		UnserializeFunc: func(data []byte) (any, error) {
			plain, err := c.Decompress(nil, data)
			if err != nil {
				return nil, errors.Wrap(err, "decompress payload")
			}
			return h.Unserialize(plain)
		},
	}
}

// Unreconstructible 是读到未注册类标签时返回的占位值，负载已被丢弃。
type Unreconstructible struct {
	Class string
	Size  uint64
}

func (u Unreconstructible) String() string {
	return fmt.Sprintf("<unreconstructible %s, %d bytes>", u.Class, u.Size)
}
