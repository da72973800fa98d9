package registry

import (
	"fmt"
	"strings"

	"github.com/uplix/flow/pkg/models"
	"github.com/xeipuuv/gojsonschema"
)

// mediaRefSchema is shared by every field that stores a media reference.
var mediaRefSchema = map[string]any{
	"type":     "object",
	"required": []string{"url"},
	"properties": map[string]any{
		"url":  map[string]any{"type": "string", "minLength": 1},
		"type": map[string]any{"type": "string"},
	},
}

// nodeDataSchemas are the per-kind JSON schemas node data payloads are
// validated against before execution and on mutation.
var nodeDataSchemas = map[models.NodeKind]map[string]any{
	models.NodeKindText: {
		"type": "object",
		"properties": map[string]any{
			"text": map[string]any{"type": "string"},
		},
	},
	models.NodeKindImage: {
		"type": "object",
		"properties": map[string]any{
			"content":   mediaRefSchema,
			"generated": mediaRefSchema,
			"model": map[string]any{
				"type": "string",
				"enum": []string{"", "gpt-image-1", "dall-e-2", "dall-e-3"},
			},
			"size":         map[string]any{"type": "string"},
			"quality":      map[string]any{"type": "string"},
			"instructions": map[string]any{"type": "string"},
		},
	},
	models.NodeKindVideo: {
		"type": "object",
		"properties": map[string]any{
			"content":      mediaRefSchema,
			"generated":    mediaRefSchema,
			"model":        map[string]any{"type": "string"},
			"size":         map[string]any{"type": "string"},
			"seconds":      map[string]any{"type": "integer", "minimum": 0},
			"instructions": map[string]any{"type": "string"},
		},
	},
	models.NodeKindAudio: {
		"type": "object",
		"properties": map[string]any{
			"content":      mediaRefSchema,
			"generated":    mediaRefSchema,
			"model":        map[string]any{"type": "string"},
			"voice":        map[string]any{"type": "string"},
			"instructions": map[string]any{"type": "string"},
		},
	},
	models.NodeKindMerge: {
		"type": "object",
		"properties": map[string]any{
			"merged": mediaRefSchema,
			"transition": map[string]any{
				"type": "string",
				"enum": []string{"", "fade", "dissolve", "wipeleft", "wiperight", "slideup", "slidedown", "none"},
			},
		},
	},
}

// NodeDataSchema returns the JSON schema for a node kind's data payload.
func NodeDataSchema(kind models.NodeKind) (map[string]any, bool) {
	schema, ok := nodeDataSchemas[kind]

	return schema, ok
}

// ValidateNodeData checks a node data record against the schema of its kind.
func ValidateNodeData(kind models.NodeKind, data models.NodeData) error {
	schema, ok := nodeDataSchemas[kind]
	if !ok {
		return fmt.Errorf("no schema for node kind '%s'", kind)
	}

	if data == nil {
		return nil
	}

	result, err := gojsonschema.Validate(gojsonschema.NewGoLoader(schema), gojsonschema.NewGoLoader(data))
	if err != nil {
		return err
	}

	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, resultError := range result.Errors() {
			details = append(details, resultError.String())
		}

		return fmt.Errorf("invalid %s node data: %s", kind, strings.Join(details, "; "))
	}

	return nil
}
