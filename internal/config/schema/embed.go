package schema

import _ "embed"

//go:embed everest-mod-cli-config.schema.json
var ConfigSchema []byte
