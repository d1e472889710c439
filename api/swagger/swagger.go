package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Timetable API",
        "description": "Automatic timetable generation for academic programs",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Timetables", "description": "Timetable generation, validation and export"}
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/ready": {
            "get": {
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "Ready"}
                }
            }
        },
        "/api/v1/timetables/generate": {
            "post": {
                "tags": ["Timetables"],
                "summary": "Generate a weekly timetable for a cohort",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/GenerateTimetableRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/timetables/generate/async": {
            "post": {
                "tags": ["Timetables"],
                "summary": "Queue a timetable generation run",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/GenerateTimetableRequest"}}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/timetables/jobs/{id}": {
            "get": {
                "tags": ["Timetables"],
                "summary": "Poll an asynchronous generation job",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not Found"}
                }
            }
        },
        "/api/v1/timetables/validate": {
            "post": {
                "tags": ["Timetables"],
                "summary": "Validate an edited schedule for double-bookings",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ValidateScheduleRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/timetables": {
            "get": {
                "tags": ["Timetables"],
                "summary": "List stored timetable versions for a cohort",
                "parameters": [
                    {"name": "programId", "in": "query", "required": true, "type": "string"},
                    {"name": "semester", "in": "query", "required": true, "type": "integer"},
                    {"name": "batch", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/timetables/versions/{id}": {
            "get": {
                "tags": ["Timetables"],
                "summary": "Get a stored timetable with its slots",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not Found"}
                }
            },
            "delete": {
                "tags": ["Timetables"],
                "summary": "Delete a draft timetable version",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "409": {"description": "Only draft timetables can be deleted"}
                }
            }
        },
        "/api/v1/timetables/versions/{id}/export": {
            "post": {
                "tags": ["Timetables"],
                "summary": "Render a stored timetable to CSV or PDF",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/system/metrics": {
            "get": {
                "tags": ["System"],
                "summary": "Aggregated runtime counters",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/timetables/export/{token}": {
            "get": {
                "tags": ["Timetables"],
                "summary": "Download a rendered timetable via signed token",
                "parameters": [
                    {"name": "token", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "File"},
                    "403": {"description": "Invalid or expired token"}
                }
            }
        }
    },
    "definitions": {
        "Course": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "code": {"type": "string"},
                "name": {"type": "string"},
                "type": {"type": "string", "enum": ["theory", "practical", "project"]},
                "credits": {"type": "integer"},
                "theoryHours": {"type": "integer"},
                "practicalHours": {"type": "integer"}
            },
            "required": ["id", "code", "name", "type"]
        },
        "Faculty": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "firstName": {"type": "string"},
                "lastName": {"type": "string"},
                "expertise": {"type": "array", "items": {"type": "string"}},
                "maxWorkload": {"type": "integer"}
            },
            "required": ["id"]
        },
        "Room": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "roomNumber": {"type": "string"},
                "type": {"type": "string"},
                "capacity": {"type": "integer"}
            },
            "required": ["id", "type"]
        },
        "GenerationConstraints": {
            "type": "object",
            "properties": {
                "minimizeFacultyConflicts": {"type": "boolean"},
                "optimizeRoomUtilization": {"type": "boolean"},
                "balanceWorkloadDistribution": {"type": "boolean"},
                "considerStudentPreferences": {"type": "boolean"}
            }
        },
        "GenerateTimetableRequest": {
            "type": "object",
            "properties": {
                "programId": {"type": "string"},
                "semester": {"type": "integer"},
                "batch": {"type": "string"},
                "academicYear": {"type": "string"},
                "courses": {"type": "array", "items": {"$ref": "#/definitions/Course"}},
                "faculty": {"type": "array", "items": {"$ref": "#/definitions/Faculty"}},
                "rooms": {"type": "array", "items": {"$ref": "#/definitions/Room"}},
                "constraints": {"$ref": "#/definitions/GenerationConstraints"}
            },
            "required": ["programId", "semester", "batch", "academicYear"]
        },
        "ScheduleSlotInput": {
            "type": "object",
            "properties": {
                "courseId": {"type": "string"},
                "facultyId": {"type": "string"},
                "roomId": {"type": "string"},
                "dayOfWeek": {"type": "string"},
                "startTime": {"type": "string"},
                "endTime": {"type": "string"}
            },
            "required": ["facultyId", "roomId", "dayOfWeek", "startTime", "endTime"]
        },
        "ValidateScheduleRequest": {
            "type": "object",
            "properties": {
                "slots": {"type": "array", "items": {"$ref": "#/definitions/ScheduleSlotInput"}}
            },
            "required": ["slots"]
        },
        "TimetableConflict": {
            "type": "object",
            "properties": {
                "type": {"type": "string"},
                "description": {"type": "string"},
                "severity": {"type": "string", "enum": ["low", "medium", "high"]},
                "suggestions": {"type": "array", "items": {"type": "string"}}
            }
        },
        "TimetableMetrics": {
            "type": "object",
            "properties": {
                "facultyUtilization": {"type": "number"},
                "roomUtilization": {"type": "number"},
                "conflictCount": {"type": "integer"},
                "workloadBalance": {"type": "number"}
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
