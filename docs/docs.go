// Package docs holds the OpenAPI description served under /swagger/.
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
        "/convert": {
            "post": {
                "description": "Convert the request body, one JSON object per line, into a fully quoted CSV document",
                "consumes": [
                    "text/plain"
                ],
                "produces": [
                    "text/csv"
                ],
                "tags": [
                    "conversions"
                ],
                "summary": "Convert JSON lines to CSV",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Comma-separated field list, in column order",
                        "name": "fields",
                        "in": "query",
                        "required": true
                    },
                    {
                        "type": "boolean",
                        "description": "Skip malformed lines instead of failing",
                        "name": "lenient",
                        "in": "query"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "CSV document",
                        "schema": {
                            "type": "string"
                        }
                    },
                    "400": {
                        "description": "Missing field list",
                        "schema": {
                            "$ref": "#/definitions/handler.ErrorResponse"
                        }
                    },
                    "413": {
                        "description": "Body too large",
                        "schema": {
                            "$ref": "#/definitions/handler.ErrorResponse"
                        }
                    },
                    "422": {
                        "description": "Malformed input line",
                        "schema": {
                            "$ref": "#/definitions/handler.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/jobs": {
            "get": {
                "description": "List the conversion jobs from the active configuration",
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "jobs"
                ],
                "summary": "List configured jobs",
                "responses": {
                    "200": {
                        "description": "Configured jobs",
                        "schema": {
                            "type": "array",
                            "items": {
                                "$ref": "#/definitions/model.Job"
                            }
                        }
                    }
                }
            }
        },
        "/runs": {
            "get": {
                "description": "List recent runs from the history database, newest first",
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "runs"
                ],
                "summary": "List runs",
                "parameters": [
                    {
                        "type": "integer",
                        "default": 20,
                        "description": "Maximum number of runs",
                        "name": "limit",
                        "in": "query"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "Runs",
                        "schema": {
                            "type": "array",
                            "items": {
                                "$ref": "#/definitions/model.RunResult"
                            }
                        }
                    },
                    "503": {
                        "description": "History disabled",
                        "schema": {
                            "$ref": "#/definitions/handler.ErrorResponse"
                        }
                    }
                }
            },
            "post": {
                "description": "Run the configured jobs, or the named subset, one after another. The run stops at the first failing job.",
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "runs"
                ],
                "summary": "Run configured jobs",
                "parameters": [
                    {
                        "description": "Jobs to run",
                        "name": "run",
                        "in": "body",
                        "schema": {
                            "$ref": "#/definitions/handler.RunRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "Run completed",
                        "schema": {
                            "$ref": "#/definitions/handler.RunResponse"
                        }
                    },
                    "400": {
                        "description": "Invalid request payload",
                        "schema": {
                            "$ref": "#/definitions/handler.ErrorResponse"
                        }
                    },
                    "404": {
                        "description": "Unknown job",
                        "schema": {
                            "$ref": "#/definitions/handler.ErrorResponse"
                        }
                    },
                    "422": {
                        "description": "Malformed input line",
                        "schema": {
                            "$ref": "#/definitions/handler.RunResponse"
                        }
                    },
                    "500": {
                        "description": "Run failed",
                        "schema": {
                            "$ref": "#/definitions/handler.RunResponse"
                        }
                    }
                }
            }
        },
        "/runs/{id}": {
            "get": {
                "description": "Retrieve a run and the outcome of each of its jobs",
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "runs"
                ],
                "summary": "Get run",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Run ID",
                        "name": "id",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "Run details",
                        "schema": {
                            "$ref": "#/definitions/model.RunResult"
                        }
                    },
                    "404": {
                        "description": "Run not found",
                        "schema": {
                            "$ref": "#/definitions/handler.ErrorResponse"
                        }
                    },
                    "503": {
                        "description": "History disabled",
                        "schema": {
                            "$ref": "#/definitions/handler.ErrorResponse"
                        }
                    }
                }
            }
        }
    },
    "definitions": {
        "handler.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {
                    "type": "string"
                },
                "hints": {
                    "type": "array",
                    "items": {
                        "type": "string"
                    }
                }
            }
        },
        "handler.RunRequest": {
            "type": "object",
            "properties": {
                "jobs": {
                    "type": "array",
                    "items": {
                        "type": "string"
                    }
                }
            }
        },
        "handler.RunResponse": {
            "type": "object",
            "properties": {
                "error": {
                    "type": "string"
                },
                "run": {
                    "$ref": "#/definitions/model.RunResult"
                }
            }
        },
        "model.Job": {
            "type": "object",
            "properties": {
                "dest": {
                    "type": "string"
                },
                "fields": {
                    "type": "array",
                    "items": {
                        "type": "string"
                    }
                },
                "name": {
                    "type": "string"
                },
                "source": {
                    "type": "string"
                }
            }
        },
        "model.JobResult": {
            "type": "object",
            "properties": {
                "dest": {
                    "type": "string"
                },
                "duration": {
                    "type": "integer"
                },
                "end_time": {
                    "type": "string"
                },
                "error": {
                    "type": "string"
                },
                "job": {
                    "type": "string"
                },
                "lines_read": {
                    "type": "integer"
                },
                "rows_written": {
                    "type": "integer"
                },
                "skipped": {
                    "type": "integer"
                },
                "source": {
                    "type": "string"
                },
                "start_time": {
                    "type": "string"
                },
                "status": {
                    "type": "string"
                }
            }
        },
        "model.RunResult": {
            "type": "object",
            "properties": {
                "end_time": {
                    "type": "string"
                },
                "error": {
                    "type": "string"
                },
                "id": {
                    "type": "string"
                },
                "jobs": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/model.JobResult"
                    }
                },
                "start_time": {
                    "type": "string"
                },
                "status": {
                    "type": "string"
                }
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "go-data-prep API",
	Description:      "Convert JSON lines into fully quoted CSV and inspect run history.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
