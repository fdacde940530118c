package log

import "go.uber.org/zap"

// 日志中统一使用的字段名。
const (
	FieldNameModule    = "module"
	FieldNameComponent = "component"
	FieldNameClass     = "class"
)

func FieldModule(module string) zap.Field {
	return zap.String(FieldNameModule, module)
}

func FieldComponent(component string) zap.Field {
	return zap.String(FieldNameComponent, component)
}

// FieldClass 为钩子记录的类标签。
func FieldClass(class string) zap.Field {
	return zap.String(FieldNameClass, class)
}
