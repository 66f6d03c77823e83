package confloader

import (
	"reflect"
	"strings"
)

// envKeyIndex walks the koanf tags of target and indexes every leaf path
// by its environment form (dots and case folded to underscores and upper
// case).
func envKeyIndex(target any) map[string]string {
	index := make(map[string]string)

	t := reflect.TypeOf(target)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return index
	}

	collectKeys(t, "", index)
	return index
}

func collectKeys(t reflect.Type, prefix string, index map[string]string) {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}

		name, _, _ := strings.Cut(f.Tag.Get("koanf"), ",")
		if name == "" || name == "-" {
			continue
		}

		path := name
		if prefix != "" {
			path = prefix + "." + name
		}

		ft := f.Type
		for ft.Kind() == reflect.Pointer {
			ft = ft.Elem()
		}

		envName := strings.ToUpper(strings.ReplaceAll(path, ".", "_"))

		switch ft.Kind() {
		case reflect.Struct:
			collectKeys(ft, path, index)
		case reflect.Map:
			// Map fields take their entry name from the remainder of the
			// variable; a trailing underscore marks the prefix form.
			index[envName+"_"] = path
		default:
			// time.Duration and other scalar leaves.
			index[envName] = path
		}
	}
}

// resolveEnvKey maps an environment variable name (prefix removed) to a
// koanf path using index. ok is false when no field matches.
func resolveEnvKey(index map[string]string, name string) (key string, ok bool) {
	name = strings.ToUpper(name)
	if key, ok := index[name]; ok {
		return key, true
	}

	for envPrefix, path := range index {
		if !strings.HasSuffix(envPrefix, "_") {
			continue
		}
		if rest, found := strings.CutPrefix(name, envPrefix); found && rest != "" {
			return path + "." + strings.ToLower(rest), true
		}
	}
	return "", false
}
