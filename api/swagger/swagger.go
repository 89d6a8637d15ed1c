package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Veteran Benchmarks API",
        "description": "Computes Veteran homelessness benchmark metrics from HMIS enrollment extracts",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Uploads", "description": "Enrollment extract snapshots"},
        {"name": "Metrics", "description": "Benchmark metric computation"},
        {"name": "Exports", "description": "Direct CSV, XLSX and PDF downloads"},
        {"name": "Reports", "description": "Asynchronous report packets"},
        {"name": "Observability", "description": "Health and instrumentation"}
    ],
    "parameters": {
        "uploadId": {"name": "id", "in": "path", "required": true, "type": "string"},
        "metricId": {"name": "metricId", "in": "path", "required": true, "type": "string", "description": "Vets_Served, PH_Placements, A1-A4, B1-B3, C1, C2, D1 or D2"},
        "programCoC": {"name": "program_coc", "in": "query", "type": "string"},
        "localCoC": {"name": "local_coc", "in": "query", "type": "string"},
        "format": {"name": "format", "in": "query", "type": "string", "enum": ["csv", "xlsx", "pdf"], "default": "csv"}
    },
    "paths": {
        "/uploads": {
            "post": {
                "tags": ["Uploads"],
                "summary": "Upload an enrollment extract",
                "consumes": ["multipart/form-data"],
                "parameters": [
                    {"name": "file", "in": "formData", "required": true, "type": "file"}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Unsupported or missing file", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "413": {"description": "File too large", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Missing required column or no records", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/uploads/import": {
            "post": {
                "tags": ["Uploads"],
                "summary": "Import enrollments from the HMIS warehouse",
                "parameters": [
                    {"name": "payload", "in": "body", "schema": {"$ref": "#/definitions/HMISImportRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Import disabled", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "503": {"description": "Warehouse unavailable", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/uploads/{id}": {
            "get": {
                "tags": ["Uploads"],
                "summary": "Get upload metadata",
                "parameters": [{"$ref": "#/parameters/uploadId"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found or expired", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Uploads"],
                "summary": "Delete an upload and its cached results",
                "parameters": [{"$ref": "#/parameters/uploadId"}],
                "responses": {
                    "204": {"description": "Deleted"},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/uploads/{id}/metrics": {
            "get": {
                "tags": ["Metrics"],
                "summary": "Compute benchmark metrics for an upload",
                "parameters": [
                    {"$ref": "#/parameters/uploadId"},
                    {"$ref": "#/parameters/programCoC"},
                    {"$ref": "#/parameters/localCoC"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Upload not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/uploads/{id}/metrics/{metricId}/rows": {
            "get": {
                "tags": ["Metrics"],
                "summary": "Page through the rows behind a metric",
                "parameters": [
                    {"$ref": "#/parameters/uploadId"},
                    {"$ref": "#/parameters/metricId"},
                    {"$ref": "#/parameters/programCoC"},
                    {"$ref": "#/parameters/localCoC"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer", "maximum": 1000}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Unknown metric or upload", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/uploads/{id}/metrics/{metricId}/export": {
            "get": {
                "tags": ["Exports"],
                "summary": "Download the rows behind a metric",
                "produces": ["text/csv", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "application/pdf"],
                "parameters": [
                    {"$ref": "#/parameters/uploadId"},
                    {"$ref": "#/parameters/metricId"},
                    {"$ref": "#/parameters/format"},
                    {"$ref": "#/parameters/programCoC"},
                    {"$ref": "#/parameters/localCoC"}
                ],
                "responses": {
                    "200": {"description": "File", "schema": {"type": "file"}}
                }
            }
        },
        "/uploads/{id}/summary/export": {
            "get": {
                "tags": ["Exports"],
                "summary": "Download the metrics summary table",
                "produces": ["text/csv", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "application/pdf"],
                "parameters": [
                    {"$ref": "#/parameters/uploadId"},
                    {"$ref": "#/parameters/format"},
                    {"$ref": "#/parameters/programCoC"},
                    {"$ref": "#/parameters/localCoC"}
                ],
                "responses": {
                    "200": {"description": "File", "schema": {"type": "file"}}
                }
            }
        },
        "/uploads/{id}/reports": {
            "post": {
                "tags": ["Reports"],
                "summary": "Queue a benchmark report",
                "parameters": [
                    {"$ref": "#/parameters/uploadId"},
                    {"name": "payload", "in": "body", "schema": {"$ref": "#/definitions/ReportRequest"}}
                ],
                "responses": {
                    "202": {"description": "Queued", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid request", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/metrics": {
            "post": {
                "tags": ["Metrics"],
                "summary": "Compute metrics for a file without storing it",
                "consumes": ["multipart/form-data"],
                "parameters": [
                    {"name": "file", "in": "formData", "required": true, "type": "file"},
                    {"$ref": "#/parameters/programCoC"},
                    {"$ref": "#/parameters/localCoC"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/metrics/system": {
            "get": {
                "tags": ["Observability"],
                "summary": "Process instrumentation snapshot",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/reports/{id}": {
            "get": {
                "tags": ["Reports"],
                "summary": "Get report job status",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/export/{token}": {
            "get": {
                "tags": ["Reports"],
                "summary": "Download a generated report",
                "parameters": [{"name": "token", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "File", "schema": {"type": "file"}},
                    "404": {"description": "Invalid token", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "410": {"description": "Link expired", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "HMISImportRequest": {
            "type": "object",
            "properties": {
                "program_coc": {"type": "string"},
                "local_coc": {"type": "string"},
                "active_since": {"type": "string", "format": "date"},
                "limit": {"type": "integer"}
            }
        },
        "ReportRequest": {
            "type": "object",
            "properties": {
                "type": {"type": "string", "enum": ["benchmark_packet", "summary"]},
                "format": {"type": "string", "enum": ["xlsx", "pdf", "csv"]},
                "program_coc": {"type": "string"},
                "local_coc": {"type": "string"}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"$ref": "#/definitions/Pagination"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
