// Package registry 实现了类名到处理器的注册表，以及按类标签顺序匹配处理器的解析逻辑。
package registry

import (
	"github.com/samber/lo"

	"github.com/lk2023060901/danmu-serial/pkg/util/merr"
)

type slot[H any] struct {
	name    string
	handler H
	used    bool
}

// Registry 将类名映射到处理器。
//
// 约定：
//   - 前 Capacity 个条目进入定长散列区（开放寻址 + 线性探测，越界回绕），名称必须两两不同；
//   - 超出 Capacity 的条目保存在溢出区，查找时按顺序线性扫描，不做重名检查。
//
// Registry 构造后只读，归属于单次序列化/反序列化调用。
type Registry[H any] struct {
	slots    [Capacity]slot[H]
	hashed   int
	overflow []slot[H]
}

// New 由两个等长的有序序列（类名、处理器）构造注册表。
//
// 长度不一致时返回 ErrLengthMismatch，散列区内出现重名时返回 ErrDuplicateClassName，
// 二者都属于 ErrConfiguration。
func New[H any](names []string, handlers []H) (*Registry[H], error) {
	if len(names) != len(handlers) {
		return nil, merr.WrapErrLengthMismatch(len(names), len(handlers))
	}

	r := &Registry[H]{}
	r.hashed = min(len(names), Capacity)
	for i := 0; i < r.hashed; i++ {
		if err := r.insert(names[i], handlers[i]); err != nil {
			return nil, err
		}
	}

	if len(names) > Capacity {
		r.overflow = lo.Map(names[Capacity:], func(name string, i int) slot[H] {
			return slot[H]{name: name, handler: handlers[Capacity+i], used: true}
		})
	}
	return r, nil
}

func (r *Registry[H]) insert(name string, handler H) error {
	start := slotOf(name)
	for probe := 0; probe < Capacity; probe++ {
		s := &r.slots[(start+probe)&slotMask]
		if !s.used {
			s.name, s.handler, s.used = name, handler, true
			return nil
		}
		if s.name == name {
			return merr.WrapErrDuplicateClassName(name)
		}
	}
	// 散列区最多写入 Capacity 个条目，不会走到这里。
	return merr.WrapErrParameterInvalidMsg("registry: hashed region is full")
}

// Lookup 查找 name 对应的处理器。
//
// 先探测散列区；遇到空槽或整表探测完仍未命中时，再线性扫描溢出区。
func (r *Registry[H]) Lookup(name string) (H, bool) {
	var zero H
	if r == nil {
		return zero, false
	}

	start := slotOf(name)
	for probe := 0; probe < Capacity; probe++ {
		s := &r.slots[(start+probe)&slotMask]
		if !s.used {
			break
		}
		if s.name == name {
			return s.handler, true
		}
	}

	if s, ok := lo.Find(r.overflow, func(s slot[H]) bool { return s.name == name }); ok {
		return s.handler, true
	}
	return zero, false
}

// Len 返回注册的条目总数（散列区 + 溢出区）。
func (r *Registry[H]) Len() int {
	if r == nil {
		return 0
	}
	return r.hashed + len(r.overflow)
}

// Overflowed 返回未进入散列区、只能线性查找的条目数。
func (r *Registry[H]) Overflowed() int {
	if r == nil {
		return 0
	}
	return len(r.overflow)
}
