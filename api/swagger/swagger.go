package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Academy Retake API",
        "description": "Exam retake assignment lifecycle service",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Authentication", "description": "Login and session management"},
        {"name": "Retakes", "description": "Retake assignment lifecycle"},
        {"name": "StatusLabels", "description": "Management status catalog"},
        {"name": "Calendar", "description": "Date-bucketed retake view"},
        {"name": "Exports", "description": "CSV and PDF downloads"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate user",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/auth/refresh": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Refresh access token",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RefreshTokenRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/auth/logout": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Logout current session",
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/auth/change-password": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Change password",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ChangePasswordRequest"}}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/auth/me": {
            "get": {
                "tags": ["Authentication"],
                "summary": "Get current user",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/retakes": {
            "get": {
                "tags": ["Retakes"],
                "summary": "List retake assignments",
                "parameters": [
                    {"name": "from", "in": "query", "type": "string"},
                    {"name": "to", "in": "query", "type": "string"},
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "courseId", "in": "query", "type": "string"},
                    {"name": "examId", "in": "query", "type": "string"},
                    {"name": "studentId", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "pageSize", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/retakes/assign": {
            "post": {
                "tags": ["Retakes"],
                "summary": "Assign retakes to students for an exam",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AssignRetakesRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Already assigned"}
                }
            }
        },
        "/retakes/activity": {
            "get": {
                "tags": ["Retakes"],
                "summary": "Recent retake activity across the academy",
                "parameters": [
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/retakes/{id}": {
            "get": {
                "tags": ["Retakes"],
                "summary": "Get one retake assignment",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found"}
                }
            },
            "delete": {
                "tags": ["Retakes"],
                "summary": "Delete a retake assignment and its history",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/retakes/{id}/history": {
            "get": {
                "tags": ["Retakes"],
                "summary": "Get the history trail, newest first",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/retakes/{id}/postpone": {
            "post": {
                "tags": ["Retakes"],
                "summary": "Postpone a retake to a new date",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/PostponeRetakeRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/retakes/{id}/absent": {
            "post": {
                "tags": ["Retakes"],
                "summary": "Mark a student absent for a retake",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/retakes/{id}/complete": {
            "post": {
                "tags": ["Retakes"],
                "summary": "Complete a retake",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/retakes/{id}/undo": {
            "post": {
                "tags": ["Retakes"],
                "summary": "Undo the most recent history entry",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UndoRetakeRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Entry is stale or not undoable"}
                }
            }
        },
        "/retakes/{id}/date": {
            "patch": {
                "tags": ["Retakes"],
                "summary": "Correct the scheduled date without counting a postpone",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/EditDateRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/retakes/{id}/status": {
            "patch": {
                "tags": ["Retakes"],
                "summary": "Set the lifecycle status directly",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ChangeStatusRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/retakes/{id}/management-status": {
            "patch": {
                "tags": ["Retakes"],
                "summary": "Set the management status label",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ChangeManagementStatusRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/status-labels": {
            "get": {
                "tags": ["StatusLabels"],
                "summary": "List the academy's status labels",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["StatusLabels"],
                "summary": "Create a status label",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateStatusLabelRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/status-labels/{id}": {
            "patch": {
                "tags": ["StatusLabels"],
                "summary": "Update a status label",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateStatusLabelRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["StatusLabels"],
                "summary": "Delete a status label",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/calendar/retakes": {
            "get": {
                "tags": ["Calendar"],
                "summary": "Retakes grouped by scheduled date",
                "parameters": [
                    {"name": "from", "in": "query", "required": true, "type": "string"},
                    {"name": "to", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/exports/retakes": {
            "get": {
                "tags": ["Exports"],
                "summary": "Download the filtered retake list as CSV or PDF",
                "parameters": [
                    {"name": "format", "in": "query", "required": true, "type": "string"},
                    {"name": "from", "in": "query", "type": "string"},
                    {"name": "to", "in": "query", "type": "string"},
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "courseId", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "File download"}
                }
            }
        }
    },
    "definitions": {
        "RetakeAssignment": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "examId": {"type": "string"},
                "studentId": {"type": "string"},
                "status": {"type": "string", "enum": ["PENDING", "COMPLETED", "ABSENT"]},
                "managementStatus": {"type": "string"},
                "scheduledDate": {"type": "string"},
                "postponeCount": {"type": "integer"},
                "absentCount": {"type": "integer"},
                "note": {"type": "string"},
                "createdAt": {"type": "string"},
                "updatedAt": {"type": "string"}
            }
        },
        "RetakeHistoryEntry": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "seq": {"type": "integer"},
                "retakeAssignmentId": {"type": "string"},
                "actionType": {"type": "string"},
                "previousDate": {"type": "string"},
                "newDate": {"type": "string"},
                "previousStatus": {"type": "string"},
                "newStatus": {"type": "string"},
                "previousManagementStatus": {"type": "string"},
                "newManagementStatus": {"type": "string"},
                "note": {"type": "string"},
                "performedBy": {"type": "string"},
                "createdAt": {"type": "string"}
            }
        },
        "StatusLabel": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "displayOrder": {"type": "integer"},
                "color": {"type": "string"},
                "createdAt": {"type": "string"},
                "updatedAt": {"type": "string"}
            }
        },
        "AssignRetakesRequest": {
            "type": "object",
            "properties": {
                "examId": {"type": "string"},
                "studentIds": {"type": "array", "items": {"type": "string"}},
                "scheduledDate": {"type": "string"}
            },
            "required": ["examId", "studentIds", "scheduledDate"]
        },
        "PostponeRetakeRequest": {
            "type": "object",
            "properties": {
                "newDate": {"type": "string"},
                "note": {"type": "string"}
            },
            "required": ["newDate"]
        },
        "EditDateRequest": {
            "type": "object",
            "properties": {
                "newDate": {"type": "string"}
            },
            "required": ["newDate"]
        },
        "ChangeStatusRequest": {
            "type": "object",
            "properties": {
                "status": {"type": "string", "enum": ["PENDING", "COMPLETED", "ABSENT"]},
                "note": {"type": "string"}
            },
            "required": ["status"]
        },
        "ChangeManagementStatusRequest": {
            "type": "object",
            "properties": {
                "managementStatus": {"type": "string"}
            },
            "required": ["managementStatus"]
        },
        "UndoRetakeRequest": {
            "type": "object",
            "properties": {
                "historyEntryId": {"type": "string"}
            },
            "required": ["historyEntryId"]
        },
        "CreateStatusLabelRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "displayOrder": {"type": "integer"},
                "color": {"type": "string"}
            },
            "required": ["name"]
        },
        "UpdateStatusLabelRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "displayOrder": {"type": "integer"},
                "color": {"type": "string"}
            }
        },
        "LoginRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            },
            "required": ["email", "password"]
        },
        "RefreshTokenRequest": {
            "type": "object",
            "properties": {
                "refresh_token": {"type": "string"}
            },
            "required": ["refresh_token"]
        },
        "ChangePasswordRequest": {
            "type": "object",
            "properties": {
                "old_password": {"type": "string"},
                "new_password": {"type": "string"}
            },
            "required": ["old_password", "new_password"]
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
