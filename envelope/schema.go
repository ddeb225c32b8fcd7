package envelope

import (
	"fmt"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

const registrationSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["type", "device_id", "did_document"],
  "additionalProperties": false,
  "properties": {
    "type": {"const": "register_device"},
    "device_id": {"type": "string", "pattern": "^did:[a-z0-9]+:[0-9a-f]{32}$"},
    "did_document": {"type": "string", "minLength": 2}
  }
}`

const submissionSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["type", "device_id", "encrypted_payload"],
  "additionalProperties": false,
  "properties": {
    "type": {"const": "submit_sensor_data"},
    "device_id": {"type": "string", "pattern": "^did:[a-z0-9]+:[0-9a-f]{32}$"},
    "encrypted_payload": {"type": "string", "pattern": "^[A-Za-z0-9_-]+\\.[A-Za-z0-9_-]*\\.[A-Za-z0-9_-]+$"}
  }
}`

var schemas = map[MessageType]func() (*gojsonschema.Schema, error){
	TypeRegisterDevice:   compileOnce(registrationSchema),
	TypeSubmitSensorData: compileOnce(submissionSchema),
}

func compileOnce(src string) func() (*gojsonschema.Schema, error) {
	return sync.OnceValues(func() (*gojsonschema.Schema, error) {
		return gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
	})
}

// Validate checks the envelope against the schema for its type.
func (e *Envelope) Validate() error {
	compile, ok := schemas[e.Type]
	if !ok {
		return fmt.Errorf("unknown envelope type %q", e.Type)
	}
	schema, err := compile()
	if err != nil {
		return fmt.Errorf("failed to load schema: %w", err)
	}

	data, err := e.Marshal()
	if err != nil {
		return fmt.Errorf("failed to marshal envelope: %w", err)
	}
	result, err := schema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("failed to validate schema: %w", err)
	}
	if !result.Valid() {
		return fmt.Errorf("envelope validation failed: %v", result.Errors())
	}
	return nil
}
