// Package docs registers the OpenAPI document served under /swagger.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/optimize": {
            "post": {
                "description": "Re-encodes every uploaded file into each requested format. Outputs are paired with the index of their file.",
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["Optimize"],
                "summary": "Optimize images",
                "parameters": [
                    {"type": "file", "description": "Images, one record each", "name": "files", "in": "formData", "required": true},
                    {"type": "string", "description": "Comma separated target formats", "name": "formats", "in": "formData"},
                    {"type": "string", "description": "Binary field name", "name": "binary_field", "in": "formData"},
                    {"type": "boolean", "description": "Keep going after a failing file", "name": "continue_on_fail", "in": "formData"},
                    {"type": "integer", "description": "Number of output channels", "name": "channel_count", "in": "formData"},
                    {"type": "boolean", "description": "Route each format to its own channel", "name": "route_by_format", "in": "formData"},
                    {"type": "boolean", "description": "Queue the batch for the worker", "name": "async", "in": "formData"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.OptimizeResponse"}},
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/dto.JobAcceptedResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        },
        "/formats": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Optimize"],
                "summary": "List supported output formats",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/dto.FormatDTO"}}}
                }
            }
        },
        "/jobs/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Optimize"],
                "summary": "Get async job result",
                "parameters": [{"type": "string", "description": "Job ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.JobStatusResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        },
        "/runs": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Runs"],
                "summary": "List recent runs",
                "parameters": [{"type": "integer", "description": "Maximum number of runs", "name": "limit", "in": "query"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/dto.RunDTO"}}}
                }
            }
        },
        "/runs/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Runs"],
                "summary": "Get a persisted run",
                "parameters": [{"type": "string", "description": "Run ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.RunDTO"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        },
        "/binary/{id}": {
            "get": {
                "produces": ["application/octet-stream"],
                "tags": ["Binary"],
                "summary": "Download a stored binary",
                "parameters": [{"type": "string", "description": "Storage key", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "file"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "dto.BinaryDTO": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "fileName": {"type": "string"},
                "fileExtension": {"type": "string"},
                "mimeType": {"type": "string"},
                "fileSize": {"type": "integer"},
                "url": {"type": "string"}
            }
        },
        "dto.OutputRecordDTO": {
            "type": "object",
            "properties": {
                "pairedItem": {"type": "integer"},
                "json": {"type": "object", "additionalProperties": true},
                "binary": {"type": "object", "additionalProperties": {"$ref": "#/definitions/dto.BinaryDTO"}}
            }
        },
        "dto.OptimizeResponse": {
            "type": "object",
            "properties": {
                "runId": {"type": "string"},
                "status": {"type": "string"},
                "failedCount": {"type": "integer"},
                "channels": {"type": "array", "items": {"type": "array", "items": {"$ref": "#/definitions/dto.OutputRecordDTO"}}}
            }
        },
        "dto.JobAcceptedResponse": {
            "type": "object",
            "properties": {
                "jobId": {"type": "string"},
                "status": {"type": "string"},
                "records": {"type": "integer"}
            }
        },
        "dto.JobStatusResponse": {
            "type": "object",
            "properties": {
                "jobId": {"type": "string"},
                "runId": {"type": "string"},
                "status": {"type": "string"},
                "failedCount": {"type": "integer"},
                "error": {"type": "string"},
                "itemIndex": {"type": "integer"},
                "channels": {"type": "array", "items": {"type": "array", "items": {"$ref": "#/definitions/dto.OutputRecordDTO"}}}
            }
        },
        "dto.RunOutputDTO": {
            "type": "object",
            "properties": {
                "pairedItem": {"type": "integer"},
                "channel": {"type": "integer"},
                "format": {"type": "string"},
                "fileName": {"type": "string"},
                "mimeType": {"type": "string"},
                "url": {"type": "string"},
                "width": {"type": "integer"},
                "height": {"type": "integer"},
                "size": {"type": "integer"},
                "error": {"type": "string"}
            }
        },
        "dto.RunDTO": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "status": {"type": "string"},
                "formats": {"type": "string"},
                "itemCount": {"type": "integer"},
                "failedCount": {"type": "integer"},
                "error": {"type": "string"},
                "outputs": {"type": "array", "items": {"$ref": "#/definitions/dto.RunOutputDTO"}},
                "createdAt": {"type": "string"}
            }
        },
        "dto.FormatDTO": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "mimeType": {"type": "string"},
                "extension": {"type": "string"},
                "options": {"type": "object", "additionalProperties": true}
            }
        },
        "dto.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string"},
                "message": {"type": "string"},
                "detail": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Image Optimizer API",
	Description:      "Batch image re-encoding into png, jpeg, webp and avif.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
