package device

import (
	"strings"

	"github.com/rs/zerolog/log"
)

// Spec is a parsed `key=value,key=value` peripheral description.
type Spec map[string]string

const (
	SpecFieldName    = "name"
	SpecFieldAddress = "addr"
)

func NewSpec(s string) Spec {
	spec := Spec{}
	entries := strings.Split(s, ",")

	for _, entry := range entries {
		parts := strings.SplitN(entry, "=", 2)

		if len(parts) != 2 {
			log.Warn().Str("Entry", entry).Msg("Skipping invalid peripheral spec entry")
			continue
		}

		spec[strings.TrimSpace(parts[0])] = strings.TrimSpace(parts[1])
	}

	return spec
}

func (s Spec) Name() string {
	return s[SpecFieldName]
}

func (s Spec) Addr() string {
	return s[SpecFieldAddress]
}
