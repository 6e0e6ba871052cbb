package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Music School API",
        "description": "Class catalog, enrollment and payment backend for a summer music school",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Auth", "description": "Token issuance"},
        {"name": "Users", "description": "Registration, roles and administration"},
        {"name": "Classes", "description": "Class catalog and approval workflow"},
        {"name": "Enrollments", "description": "Class selection lifecycle"},
        {"name": "Payments", "description": "Payment intents, confirmation and history"}
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
                    "200": {"description": "Ready"},
                    "503": {"description": "Database unreachable"}
                }
            }
        },
        "/jwt": {
            "post": {
                "tags": ["Auth"],
                "summary": "Issue an access token for an email identity",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/TokenRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid payload"}
                }
            }
        },
        "/users": {
            "post": {
                "tags": ["Users"],
                "summary": "Register a user identity, idempotent on email",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RegisterUserRequest"}}
                ],
                "responses": {
                    "200": {"description": "Already registered"},
                    "201": {"description": "Created"}
                }
            },
            "get": {
                "tags": ["Users"],
                "summary": "List users (admin)",
                "parameters": [
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "role", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/users/{id}": {
            "delete": {
                "tags": ["Users"],
                "summary": "Delete a user (admin)",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "Deleted"},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/users/admin/{email}": {
            "get": {
                "tags": ["Users"],
                "summary": "Probe admin membership for the caller's own email",
                "parameters": [
                    {"name": "email", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/users/instructor/{email}": {
            "get": {
                "tags": ["Users"],
                "summary": "Probe instructor membership for the caller's own email",
                "parameters": [
                    {"name": "email", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/users/student/{email}": {
            "get": {
                "tags": ["Users"],
                "summary": "Probe student membership for the caller's own email",
                "parameters": [
                    {"name": "email", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/users/admin/{id}": {
            "patch": {
                "tags": ["Users"],
                "summary": "Grant the admin role to a user (admin)",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/users/instructor/{id}": {
            "patch": {
                "tags": ["Users"],
                "summary": "Grant the instructor role to a user (admin)",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/all-approved-classes": {
            "get": {
                "tags": ["Classes"],
                "summary": "List approved classes",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/all-classes": {
            "get": {
                "tags": ["Classes"],
                "summary": "List every class regardless of approval state (admin)",
                "parameters": [
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/all-classes/{id}": {
            "delete": {
                "tags": ["Classes"],
                "summary": "Remove a class from the catalog (admin)",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "Deleted"},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/add-a-class": {
            "post": {
                "tags": ["Classes"],
                "summary": "Submit a new class for approval (instructor)",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AddClassRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created"},
                    "400": {"description": "Invalid payload"}
                }
            }
        },
        "/my-classes": {
            "get": {
                "tags": ["Classes"],
                "summary": "List classes taught by the calling instructor",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/approval-action/{id}": {
            "patch": {
                "tags": ["Classes"],
                "summary": "Approve or deny a submitted class (admin)",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "action", "in": "query", "required": true, "type": "string", "enum": ["approved", "denied"]},
                    {"name": "payload", "in": "body", "schema": {"$ref": "#/definitions/ApprovalRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/instructors": {
            "get": {
                "tags": ["Classes"],
                "summary": "List instructors with their approved classes",
                "parameters": [
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/all-instructors": {
            "get": {
                "tags": ["Classes"],
                "summary": "List every instructor",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/selected-classes": {
            "get": {
                "tags": ["Enrollments"],
                "summary": "List the caller's pending class selections",
                "parameters": [
                    {"name": "email", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "403": {"description": "Email does not match the token identity"}
                }
            }
        },
        "/selected-classes/{id}": {
            "post": {
                "tags": ["Enrollments"],
                "summary": "Select a class, idempotent per (class, student)",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Already selected"},
                    "201": {"description": "Created"},
                    "404": {"description": "Class not found"}
                }
            },
            "delete": {
                "tags": ["Enrollments"],
                "summary": "Drop a pending selection owned by the caller",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "Deleted"},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/create-payment-intent": {
            "post": {
                "tags": ["Payments"],
                "summary": "Create a payment intent and return its client secret",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateIntentRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "Invalid amount"},
                    "502": {"description": "Gateway failure"}
                }
            }
        },
        "/payment-transaction/{id}": {
            "post": {
                "tags": ["Payments"],
                "summary": "Record a confirmed payment and enroll the selection",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ConfirmPaymentRequest"}}
                ],
                "responses": {
                    "200": {"description": "Already enrolled"},
                    "201": {"description": "Enrolled"},
                    "409": {"description": "Class is full"}
                }
            }
        },
        "/payment-history": {
            "get": {
                "tags": ["Payments"],
                "summary": "List the caller's payments, newest first",
                "parameters": [
                    {"name": "email", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "403": {"description": "Email does not match the token identity"}
                }
            }
        },
        "/payment-history/export": {
            "get": {
                "tags": ["Payments"],
                "summary": "Download the caller's payment history as CSV",
                "produces": ["text/csv"],
                "responses": {
                    "200": {"description": "CSV attachment"}
                }
            }
        },
        "/payment-receipt/{id}": {
            "get": {
                "tags": ["Payments"],
                "summary": "Download a PDF receipt for one of the caller's payments",
                "produces": ["application/pdf"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "PDF attachment"},
                    "404": {"description": "Not found or not the caller's payment"}
                }
            }
        },
        "/enrolled-classes": {
            "get": {
                "tags": ["Enrollments"],
                "summary": "List the caller's enrolled classes",
                "parameters": [
                    {"name": "email", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "403": {"description": "Email does not match the token identity"}
                }
            }
        }
    },
    "definitions": {
        "TokenRequest": {
            "type": "object",
            "required": ["email"],
            "properties": {
                "email": {"type": "string"}
            }
        },
        "RegisterUserRequest": {
            "type": "object",
            "required": ["email", "name"],
            "properties": {
                "email": {"type": "string"},
                "name": {"type": "string"},
                "photo_url": {"type": "string"}
            }
        },
        "AddClassRequest": {
            "type": "object",
            "required": ["name", "price_cents", "available_seats"],
            "properties": {
                "name": {"type": "string"},
                "image": {"type": "string"},
                "price_cents": {"type": "integer"},
                "available_seats": {"type": "integer"}
            }
        },
        "ApprovalRequest": {
            "type": "object",
            "properties": {
                "feedback": {"type": "string"}
            }
        },
        "CreateIntentRequest": {
            "type": "object",
            "required": ["price"],
            "properties": {
                "price": {"type": "integer"}
            }
        },
        "ConfirmPaymentRequest": {
            "type": "object",
            "required": ["transaction_id"],
            "properties": {
                "transaction_id": {"type": "string"}
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
