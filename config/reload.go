package config

import "reflect"

// RestartRequired 列出 prev 與 next 之間無法熱套用的區段；LOG.LEVEL 可即時生效，不列入
func RestartRequired(prev, next *Configuration) []string {
	if prev == nil || next == nil {
		return nil
	}
	a := prev.Log
	b := next.Log
	a.Level, b.Level = "", ""

	var sections []string
	check := func(name string, x, y any) {
		if !reflect.DeepEqual(x, y) {
			sections = append(sections, name)
		}
	}
	check("APP", prev.App, next.App)
	check("LOG", a, b)
	check("INSPECTOR", prev.Inspector, next.Inspector)
	check("TELEMETRY", prev.Telemetry, next.Telemetry)
	check("FLUENTD", prev.Fluentd, next.Fluentd)
	return sections
}
