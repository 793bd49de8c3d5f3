package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Nova Academy Marketing API",
        "description": "Retention and upsell marketing automation",
        "version": "0.1.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Automation", "description": "Single-event automation triggers"},
        {"name": "Campaigns", "description": "Bulk upsell and re-enrollment campaigns"},
        {"name": "Actions", "description": "Marketing action ledger"},
        {"name": "Stats", "description": "Retention statistics"}
    ],
    "paths": {
        "/automation/trigger": {
            "post": {
                "tags": ["Automation"],
                "summary": "Trigger a marketing automation event",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/TriggerEventRequest"}}
                ],
                "responses": {
                    "200": {"description": "Event processed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Unknown event or invalid payload"},
                    "500": {"description": "Automation failure"}
                }
            }
        },
        "/campaigns/upsell": {
            "post": {
                "tags": ["Campaigns"],
                "summary": "Run a bulk upsell campaign",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CampaignRequest"}}
                ],
                "responses": {
                    "200": {"description": "Campaign result", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid selection"},
                    "412": {"description": "No eligible students"}
                }
            }
        },
        "/campaigns/re-enrollment": {
            "post": {
                "tags": ["Campaigns"],
                "summary": "Run a re-enrollment campaign",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CampaignRequest"}}
                ],
                "responses": {
                    "200": {"description": "Campaign result", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid selection"},
                    "412": {"description": "No eligible students"}
                }
            }
        },
        "/actions": {
            "get": {
                "tags": ["Actions"],
                "summary": "List marketing actions",
                "parameters": [
                    {"name": "actionType", "in": "query", "type": "string"},
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "studentId", "in": "query", "type": "string"},
                    {"name": "groupId", "in": "query", "type": "string"},
                    {"name": "batchId", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "pageSize", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "Paginated actions", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/actions/{id}": {
            "get": {
                "tags": ["Actions"],
                "summary": "Get one marketing action",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Action", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/actions/{id}/status": {
            "patch": {
                "tags": ["Actions"],
                "summary": "Move an action through its status lifecycle",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Updated action"},
                    "409": {"description": "Illegal status transition"}
                }
            }
        },
        "/actions/{id}/results": {
            "patch": {
                "tags": ["Actions"],
                "summary": "Record follow-up results on an action",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Updated action"}
                }
            }
        },
        "/actions/export": {
            "get": {
                "tags": ["Actions"],
                "summary": "Export filtered actions as a PDF report",
                "produces": ["application/pdf"],
                "responses": {
                    "200": {"description": "PDF document"}
                }
            }
        },
        "/stats/groups/{groupId}/retention": {
            "get": {
                "tags": ["Stats"],
                "summary": "Retention overview for a group",
                "parameters": [
                    {"name": "groupId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Retention view", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "No evaluations for group"}
                }
            }
        }
    },
    "definitions": {
        "TriggerEventRequest": {
            "type": "object",
            "required": ["eventType"],
            "properties": {
                "eventType": {"type": "string"},
                "data": {"type": "object"}
            }
        },
        "CampaignRequest": {
            "type": "object",
            "required": ["courseId"],
            "properties": {
                "groupIds": {"type": "array", "items": {"type": "string"}},
                "studentIds": {"type": "array", "items": {"type": "string"}},
                "courseId": {"type": "string"},
                "discountPercentage": {"type": "integer"},
                "deadlineDays": {"type": "integer"},
                "includeSupport": {"type": "boolean"}
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
