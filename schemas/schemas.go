// Package schemas holds the embedded JSON Schemas used to validate script
// files before they are decoded.
package schemas

// ScriptSchemaJSON is the JSON Schema for script YAML files.
const ScriptSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "title": "parley script",
  "type": "object",
  "required": ["name", "steps"],
  "additionalProperties": false,
  "properties": {
    "name": {
      "type": "string",
      "minLength": 1
    },
    "description": {
      "type": "string"
    },
    "config": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "step_timeout_ms": {
          "type": "integer",
          "minimum": 0
        },
        "session_timeout_ms": {
          "type": "integer",
          "minimum": 0
        }
      }
    },
    "steps": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["kind", "text"],
        "additionalProperties": false,
        "properties": {
          "kind": {
            "enum": ["expect", "send"]
          },
          "text": {
            "type": "string",
            "minLength": 1
          },
          "timeout_ms": {
            "type": "integer",
            "minimum": 0
          },
          "options": {
            "type": "object"
          }
        }
      }
    }
  }
}`
