package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "SMA Booking API",
        "description": "Interactive slot booking and scheduling sessions for school activities",
        "version": "0.1.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Booking", "description": "Interactive scheduling sessions"}
    ],
    "paths": {
        "/booking/courses": {
            "get": {
                "tags": ["Booking"],
                "summary": "List active courses available for scheduling",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/booking/sessions": {
            "post": {
                "tags": ["Booking"],
                "summary": "Start an interactive scheduling session",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateSessionRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/booking/sessions/{id}": {
            "get": {
                "tags": ["Booking"],
                "summary": "Get the current session state",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Booking"],
                "summary": "Discard a session without persisting",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/booking/sessions/{id}/slots": {
            "get": {
                "tags": ["Booking"],
                "summary": "List slots through the session's view rules",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "onlyAvailable", "in": "query", "type": "boolean"},
                    {"name": "weekStart", "in": "query", "type": "string"},
                    {"name": "day", "in": "query", "type": "string"},
                    {"name": "minQuota", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/booking/sessions/{id}/bookings": {
            "post": {
                "tags": ["Booking"],
                "summary": "Book a slot for one or more students",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/BookRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Insufficient quota, session limit, or duplicate booking"}
                }
            }
        },
        "/booking/sessions/{id}/students/{studentId}/bookings/{slotId}": {
            "delete": {
                "tags": ["Booking"],
                "summary": "Remove a student's booking and release its quota",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "studentId", "in": "path", "required": true, "type": "string"},
                    {"name": "slotId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/booking/sessions/{id}/students/{studentId}/bookings": {
            "get": {
                "tags": ["Booking"],
                "summary": "List one participant's bookings in session order",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "studentId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/booking/sessions/{id}/bookings/move": {
            "post": {
                "tags": ["Booking"],
                "summary": "Reschedule a booking between slots",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/MoveBookingRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Destination rejected; source booking restored"}
                }
            }
        },
        "/booking/sessions/{id}/active-student": {
            "put": {
                "tags": ["Booking"],
                "summary": "Switch the session's active student",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SelectStudentRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/booking/sessions/{id}/view": {
            "put": {
                "tags": ["Booking"],
                "summary": "Move the session's calendar window",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ViewWindowRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/booking/sessions/{id}/bulk-selection": {
            "post": {
                "tags": ["Booking"],
                "summary": "Toggle a student in the bulk-select set",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/BulkToggleRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/booking/sessions/{id}/selection": {
            "post": {
                "tags": ["Booking"],
                "summary": "Start (or abandon, on re-click) a time selection on a slot",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/BeginSelectionRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Booking"],
                "summary": "Record a candidate start time on the pending selection",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ChooseTimeRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Booking"],
                "summary": "Drop the pending selection with no booking effect",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/booking/sessions/{id}/placement": {
            "post": {
                "tags": ["Booking"],
                "summary": "Book the selected slot on a day lane",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ConfirmPlacementRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Placement outside the slot's own day column"}
                }
            }
        },
        "/booking/sessions/{id}/completion": {
            "get": {
                "tags": ["Booking"],
                "summary": "Report every participant's progress toward the course target",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/booking/sessions/{id}/confirm": {
            "post": {
                "tags": ["Booking"],
                "summary": "Persist the session's schedule asynchronously",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "TimeSlot": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "course_id": {"type": "string"},
                "date": {"type": "string"},
                "start_time": {"type": "string"},
                "end_time": {"type": "string"},
                "total_quota": {"type": "integer"},
                "remaining_quota": {"type": "integer"},
                "eligible_teachers": {
                    "type": "array",
                    "items": {"$ref": "#/definitions/SlotTeacher"}
                }
            }
        },
        "SlotTeacher": {
            "type": "object",
            "properties": {
                "teacher_id": {"type": "string"},
                "is_primary": {"type": "boolean"}
            }
        },
        "Booking": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "student_id": {"type": "string"},
                "slot_id": {"type": "string"},
                "teacher_id": {"type": "string"},
                "session_number": {"type": "integer"},
                "booked_at": {"type": "string"}
            }
        },
        "StudentBookingResult": {
            "type": "object",
            "properties": {
                "student_id": {"type": "string"},
                "outcome": {"type": "string", "enum": ["BOOKED", "ALREADY_BOOKED", "SESSION_LIMIT_REACHED"]},
                "booking": {"$ref": "#/definitions/Booking"}
            }
        },
        "CreateSessionRequest": {
            "type": "object",
            "properties": {
                "courseId": {"type": "string"},
                "studentIds": {"type": "array", "items": {"type": "string"}},
                "generate": {"$ref": "#/definitions/GenerateSlotsSpec"}
            },
            "required": ["courseId", "studentIds"]
        },
        "GenerateSlotsSpec": {
            "type": "object",
            "properties": {
                "weekStart": {"type": "string"},
                "weeks": {"type": "integer"},
                "days": {"type": "array", "items": {"type": "integer"}},
                "startHour": {"type": "integer"},
                "hoursPerDay": {"type": "integer"},
                "teacherIds": {"type": "array", "items": {"type": "string"}}
            },
            "required": ["weekStart", "weeks", "days", "startHour", "hoursPerDay"]
        },
        "BookRequest": {
            "type": "object",
            "properties": {
                "slotId": {"type": "string"},
                "teacherId": {"type": "string"},
                "studentIds": {"type": "array", "items": {"type": "string"}}
            },
            "required": ["slotId", "teacherId", "studentIds"]
        },
        "MoveBookingRequest": {
            "type": "object",
            "properties": {
                "studentId": {"type": "string"},
                "fromSlotId": {"type": "string"},
                "toSlotId": {"type": "string"},
                "teacherId": {"type": "string"}
            },
            "required": ["studentId", "fromSlotId", "toSlotId", "teacherId"]
        },
        "SelectStudentRequest": {
            "type": "object",
            "properties": {
                "studentId": {"type": "string"}
            },
            "required": ["studentId"]
        },
        "ViewWindowRequest": {
            "type": "object",
            "properties": {
                "weekStart": {"type": "string"},
                "day": {"type": "string"}
            }
        },
        "BulkToggleRequest": {
            "type": "object",
            "properties": {
                "studentId": {"type": "string"}
            },
            "required": ["studentId"]
        },
        "BeginSelectionRequest": {
            "type": "object",
            "properties": {
                "slotId": {"type": "string"}
            },
            "required": ["slotId"]
        },
        "ChooseTimeRequest": {
            "type": "object",
            "properties": {
                "slotId": {"type": "string"},
                "time": {"type": "string"}
            },
            "required": ["slotId", "time"]
        },
        "ConfirmPlacementRequest": {
            "type": "object",
            "properties": {
                "slotId": {"type": "string"},
                "dayLane": {"type": "string"}
            },
            "required": ["slotId", "dayLane"]
        },
        "StudentCompletion": {
            "type": "object",
            "properties": {
                "student_id": {"type": "string"},
                "student_name": {"type": "string"},
                "session_count": {"type": "integer"},
                "required": {"type": "integer"},
                "complete": {"type": "boolean"}
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
