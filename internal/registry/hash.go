package registry

// Capacity 为注册表散列区的固定槽位数，必须是 2 的幂。
const Capacity = 32

const slotMask = Capacity - 1

// hashName 使用 DJB2（h = h*33 + c）计算类名的散列值，结果与字节顺序相关。
func hashName(name string) uint32 {
	h := uint32(5381)
	for i := 0; i < len(name); i++ {
		h = h*33 + uint32(name[i])
	}
	return h
}

func slotOf(name string) int {
	return int(hashName(name) & slotMask)
}
