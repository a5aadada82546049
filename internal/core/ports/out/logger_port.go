package out

// LogFields - структурированные поля события, пишутся рядом с именем события.
type LogFields map[string]interface{}

// LoggerPort пишет события с точечными именами ("reservation.create.done").
// Уровень фильтрации задается адаптером.
type LoggerPort interface {
	Debug(event string, fields LogFields)
	Info(event string, fields LogFields)
	Warn(event string, fields LogFields)
	Error(event string, fields LogFields)

	// WithFields добавляет поля ко всем последующим событиям
	WithFields(fields LogFields) LoggerPort
	// WithModule помечает события именем компонента
	WithModule(module string) LoggerPort
}
