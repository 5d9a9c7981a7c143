package validate

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ConfigErrorMessage 輸出格式化的 validator error（欄位以 mapstructure key 表示/型別/規則）
func ConfigErrorMessage(obj interface{}, err error) string {
	errs, ok := err.(validator.ValidationErrors)
	if !ok {
		return fmt.Sprintf("Validation error: %s", err.Error())
	}
	var b strings.Builder
	b.WriteString("Validation error:\n")
	for _, fe := range errs {
		key := mapstructureKey(obj, fe.StructNamespace())
		rule := fe.Tag()
		if fe.Param() != "" {
			rule += "=" + fe.Param()
		}
		b.WriteString(fmt.Sprintf(" - Field \"%s\" (type: %s, value: %v) failed the '%s' validation\n",
			key, fe.Kind(), fe.Value(), rule))
	}
	return b.String()
}

// "Configuration.Inspector.KeepRecords" → "INSPECTOR.KEEP_RECORDS"
func mapstructureKey(obj interface{}, namespace string) string {
	parts := strings.Split(namespace, ".")
	if len(parts) > 0 {
		// 第一段為根 struct 名稱
		parts = parts[1:]
	}
	t := reflect.TypeOf(obj)
	keys := make([]string, 0, len(parts))
	for _, name := range parts {
		for t != nil && t.Kind() == reflect.Ptr {
			t = t.Elem()
		}
		if t == nil || t.Kind() != reflect.Struct {
			keys = append(keys, name)
			continue
		}
		f, ok := t.FieldByName(name)
		if !ok {
			keys = append(keys, name)
			t = nil
			continue
		}
		keys = append(keys, fieldKey(f))
		t = f.Type
	}
	return strings.Join(keys, ".")
}

func fieldKey(f reflect.StructField) string {
	tag := f.Tag.Get("mapstructure")
	if tag == "" || tag == "-" {
		return f.Name
	}
	return strings.Split(tag, ",")[0]
}
