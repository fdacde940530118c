package registry

// Resolve 按 tags 的顺序（从最具体到最一般）返回第一个已注册的处理器及命中的类标签。
// 没有任何标签命中时 ok 为 false，表示该值应交由宿主序列化器自行处理。
func Resolve[H any](tags []string, r *Registry[H]) (handler H, matched string, ok bool) {
	for _, tag := range tags {
		if h, found := r.Lookup(tag); found {
			return h, tag, true
		}
	}
	return handler, "", false
}
