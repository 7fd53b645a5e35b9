// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

func TestContainerEngine_Validate(t *testing.T) {
	t.Parallel()

	for _, ce := range []ContainerEngine{ContainerEngineDocker, ContainerEnginePodman} {
		if err := ce.Validate(); err != nil {
			t.Errorf("%s.Validate() = %v", ce, err)
		}
	}
	err := ContainerEngine("lxc").Validate()
	if !errors.Is(err, ErrInvalidContainerEngine) {
		t.Fatalf("Validate() = %v, want ErrInvalidContainerEngine", err)
	}
	var ceErr *InvalidContainerEngineError
	if !errors.As(err, &ceErr) || ceErr.Value != "lxc" {
		t.Errorf("Validate() = %#v", err)
	}
}

func TestRootfsSource_Validate(t *testing.T) {
	t.Parallel()

	if err := RootfsSourceRegistry.Validate(); err != nil {
		t.Errorf("registry: %v", err)
	}
	if err := RootfsSource("").Validate(); !errors.Is(err, ErrInvalidRootfsSource) {
		t.Errorf("empty: %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("DefaultConfig().Validate() = %v", err)
	}

	cfg := DefaultConfig()
	cfg.ContainerEngine = "lxc"
	cfg.WSLVersion = 3
	cfg.DataDir = "  "
	cfg.User.Shells = []string{"/bin/sh", "zsh"}

	err := cfg.Validate()
	if !errors.Is(err, ErrInvalidConfig) || !errors.Is(err, ErrInvalidContainerEngine) || !errors.Is(err, ErrInvalidWSLVersion) {
		t.Fatalf("Validate() = %v", err)
	}
	var cfgErr *InvalidConfigError
	if !errors.As(err, &cfgErr) || len(cfgErr.FieldErrors) != 4 {
		t.Fatalf("Validate() field errors = %v, want 4", err)
	}
	if !strings.Contains(err.Error(), `user.shells[1]: "zsh"`) {
		t.Errorf("Validate() = %q", err)
	}
}

func TestDefaultConfig_Independent(t *testing.T) {
	t.Parallel()

	a := DefaultConfig()
	a.User.Groups[0] = "changed"
	if DefaultConfig().User.Groups[0] != "wheel" {
		t.Error("DefaultConfig() shares slices between calls")
	}
}

// TestSchemaMatchesStructs keeps config_schema.cue and the json tags in step.
func TestSchemaMatchesStructs(t *testing.T) {
	t.Parallel()

	schema := cuecontext.New().CompileString(configSchema)
	if schema.Err() != nil {
		t.Fatalf("compile schema: %v", schema.Err())
	}

	tests := []struct {
		def string
		typ reflect.Type
	}{
		{"#Config", reflect.TypeFor[Config]()},
		{"#UserConfig", reflect.TypeFor[UserConfig]()},
		{"#UIConfig", reflect.TypeFor[UIConfig]()},
		{"#RegistryConfig", reflect.TypeFor[RegistryConfig]()},
	}
	for _, tt := range tests {
		t.Run(tt.def, func(t *testing.T) {
			t.Parallel()
			cueFields := schemaFields(t, schema.LookupPath(cue.ParsePath(tt.def)))
			goFields := jsonTags(tt.typ)
			for name := range cueFields {
				if !goFields[name] {
					t.Errorf("CUE field %q has no Go json tag", name)
				}
			}
			for name := range goFields {
				if !cueFields[name] {
					t.Errorf("Go json tag %q is missing from the schema", name)
				}
			}
		})
	}
}

func schemaFields(t *testing.T, def cue.Value) map[string]bool {
	t.Helper()
	if def.Err() != nil {
		t.Fatalf("lookup definition: %v", def.Err())
	}
	iter, err := def.Fields(cue.Optional(true))
	if err != nil {
		t.Fatalf("iterate fields: %v", err)
	}
	fields := make(map[string]bool)
	for iter.Next() {
		fields[strings.TrimSuffix(iter.Selector().String(), "?")] = true
	}
	return fields
}

func jsonTags(typ reflect.Type) map[string]bool {
	fields := make(map[string]bool)
	for i := range typ.NumField() {
		name, _, _ := strings.Cut(typ.Field(i).Tag.Get("json"), ",")
		if name != "" && name != "-" {
			fields[name] = true
		}
	}
	return fields
}
