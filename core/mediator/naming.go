package mediator

import (
	"reflect"
	"runtime"
	"strings"
)

// MessageName returns the implicit message name for payloads of type T: the fully
// qualified type name ("import/path.Name"), prefixed with "*" per pointer level.
// Unnamed types use their Go syntax, e.g. "[]string".
func MessageName[T any]() string {
	return qualifiedName(reflect.TypeFor[T]())
}

func qualifiedName(t reflect.Type) string {
	var prefix strings.Builder
	for t.Kind() == reflect.Pointer && t.Name() == "" {
		prefix.WriteByte('*')
		t = t.Elem()
	}
	if t.Name() != "" && t.PkgPath() != "" {
		return prefix.String() + t.PkgPath() + "." + t.Name()
	}
	return prefix.String() + t.String()
}

func typeName(t reflect.Type) string {
	if t == nil {
		return "<no payload>"
	}
	return qualifiedName(t)
}

// funcName returns the runtime name of fn, used to label subscribers in errors and logs.
func funcName(fn any) string {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func || v.IsNil() {
		return ""
	}
	if f := runtime.FuncForPC(v.Pointer()); f != nil {
		return f.Name()
	}
	return ""
}
