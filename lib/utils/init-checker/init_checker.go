package initchecker

import (
	"fmt"
	"reflect"
)

// CheckInit принимает пары "имя", зависимость и паникует на первой
// неинициализированной. Интерфейс с nil указателем внутри тоже считается пустым.
func CheckInit(pairs ...any) {
	if len(pairs)%2 != 0 {
		panic("CheckInit: нечетное число аргументов")
	}
	for i := 0; i < len(pairs); i += 2 {
		name, ok := pairs[i].(string)
		if !ok {
			panic("CheckInit: первый элемент пары должен быть строкой")
		}
		if isNil(pairs[i+1]) {
			panic(fmt.Sprintf("зависимость %s не инициализирована", name))
		}
	}
}

func isNil(value any) bool {
	if value == nil {
		return true
	}
	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return v.IsNil()
	}
	return false
}
