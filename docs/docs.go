// Package docs registers the OpenAPI description served under /swagger.
// Keep it in sync with the @-annotations on the handlers (swag init -g cmd/main.go).
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "paths": {
        "/tournaments": {
            "get": {
                "tags": ["tournaments"], "summary": "List tournaments", "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "name": "owner", "in": "query"},
                    {"type": "string", "name": "phase", "in": "query"},
                    {"type": "integer", "name": "limit", "in": "query"},
                    {"type": "integer", "name": "offset", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["tournaments"], "summary": "Create a tournament",
                "consumes": ["application/json"], "produces": ["application/json"],
                "parameters": [{"name": "input", "in": "body", "required": true, "schema": {"$ref": "#/definitions/services.CreateTournamentInput"}}],
                "responses": {"201": {"description": "Created"}, "422": {"description": "Unprocessable Entity"}}
            }
        },
        "/tournaments/{tournamentID}": {
            "get": {
                "tags": ["tournaments"], "summary": "Get a tournament with its standings and bracket",
                "parameters": [{"type": "string", "name": "tournamentID", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["tournaments"], "summary": "Delete a tournament",
                "parameters": [{"type": "string", "name": "tournamentID", "in": "path", "required": true}],
                "responses": {"204": {"description": "No Content"}}
            }
        },
        "/tournaments/{tournamentID}/raw": {
            "get": {
                "tags": ["tournaments"], "summary": "Get the serialized form of a tournament",
                "parameters": [{"type": "string", "name": "tournamentID", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/tournaments/{tournamentID}/advance": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["tournaments"], "summary": "Advance a tournament to its next phase",
                "parameters": [{"type": "string", "name": "tournamentID", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "409": {"description": "Conflict"}, "503": {"description": "Applied but not persisted"}}
            }
        },
        "/tournaments/{tournamentID}/scores": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["matches"], "summary": "Set the score of a competitor in its current match",
                "parameters": [
                    {"type": "string", "name": "tournamentID", "in": "path", "required": true},
                    {"name": "input", "in": "body", "required": true, "schema": {"type": "object", "properties": {"competitor": {"type": "string"}, "score": {"type": "integer"}}}}
                ],
                "responses": {"204": {"description": "No Content"}}
            }
        },
        "/tournaments/{tournamentID}/matches/start": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["matches"], "summary": "Start the current match of a competitor",
                "parameters": [
                    {"type": "string", "name": "tournamentID", "in": "path", "required": true},
                    {"name": "input", "in": "body", "required": true, "schema": {"type": "object", "properties": {"competitor": {"type": "string"}}}}
                ],
                "responses": {"204": {"description": "No Content"}}
            }
        },
        "/tournaments/{tournamentID}/matches/finish": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["matches"], "summary": "Finish the current match of a competitor",
                "parameters": [
                    {"type": "string", "name": "tournamentID", "in": "path", "required": true},
                    {"name": "input", "in": "body", "required": true, "schema": {"type": "object", "properties": {"competitor": {"type": "string"}}}}
                ],
                "responses": {"204": {"description": "No Content"}}
            }
        },
        "/tournaments/{tournamentID}/seeds/swap": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["tournaments"], "summary": "Swap the starting positions of two competitors",
                "parameters": [
                    {"type": "string", "name": "tournamentID", "in": "path", "required": true},
                    {"name": "input", "in": "body", "required": true, "schema": {"type": "object", "properties": {"competitor1": {"type": "string"}, "competitor2": {"type": "string"}}}}
                ],
                "responses": {"204": {"description": "No Content"}}
            }
        },
        "/tournaments/{tournamentID}/competitors": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["competitors"], "summary": "Add a competitor to a planned tournament",
                "parameters": [
                    {"type": "string", "name": "tournamentID", "in": "path", "required": true},
                    {"name": "input", "in": "body", "required": true, "schema": {"$ref": "#/definitions/services.CompetitorInput"}}
                ],
                "responses": {"201": {"description": "Created"}}
            }
        },
        "/tournaments/{tournamentID}/owner": {
            "put": {
                "security": [{"BearerAuth": []}],
                "tags": ["users"], "summary": "Transfer ownership of a tournament",
                "parameters": [
                    {"type": "string", "name": "tournamentID", "in": "path", "required": true},
                    {"name": "input", "in": "body", "required": true, "schema": {"type": "object", "properties": {"ownerId": {"type": "string"}}}}
                ],
                "responses": {"204": {"description": "No Content"}}
            }
        },
        "/tournaments/{tournamentID}/users": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["users"], "summary": "Add a user to a tournament",
                "parameters": [
                    {"type": "string", "name": "tournamentID", "in": "path", "required": true},
                    {"name": "input", "in": "body", "required": true, "schema": {"$ref": "#/definitions/services.UserInput"}}
                ],
                "responses": {"201": {"description": "Created"}}
            }
        },
        "/tournaments/{tournamentID}/users/{userID}": {
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["users"], "summary": "Remove a user from a tournament",
                "parameters": [
                    {"type": "string", "name": "tournamentID", "in": "path", "required": true},
                    {"type": "string", "name": "userID", "in": "path", "required": true}
                ],
                "responses": {"204": {"description": "No Content"}}
            }
        },
        "/tournaments/{tournamentID}/users/{userID}/role": {
            "put": {
                "security": [{"BearerAuth": []}],
                "tags": ["users"], "summary": "Set the moderator and streamer flags of a user",
                "parameters": [
                    {"type": "string", "name": "tournamentID", "in": "path", "required": true},
                    {"type": "string", "name": "userID", "in": "path", "required": true},
                    {"name": "input", "in": "body", "required": true, "schema": {"type": "object", "properties": {"isModerator": {"type": "boolean"}, "isStreamer": {"type": "boolean"}}}}
                ],
                "responses": {"204": {"description": "No Content"}}
            }
        },
        "/tournaments/{tournamentID}/logo": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["tournaments"], "summary": "Upload the tournament logo",
                "consumes": ["multipart/form-data"],
                "parameters": [
                    {"type": "string", "name": "tournamentID", "in": "path", "required": true},
                    {"type": "file", "name": "logo", "in": "formData", "required": true}
                ],
                "responses": {"200": {"description": "OK"}, "503": {"description": "Storage disabled"}}
            }
        },
        "/ws/tournaments/{tournamentID}": {
            "get": {
                "tags": ["live"], "summary": "Live tournament updates",
                "parameters": [{"type": "string", "name": "tournamentID", "in": "path", "required": true}],
                "responses": {"101": {"description": "Switching Protocols"}, "404": {"description": "Not Found"}, "409": {"description": "Live tracking disabled"}}
            }
        }
    },
    "definitions": {
        "services.CompetitorInput": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "type": {"type": "string", "enum": ["individual", "team"]},
                "members": {"type": "array", "items": {"type": "string"}}
            }
        },
        "services.UserInput": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "image": {"type": "string"},
                "isStreamer": {"type": "boolean"},
                "isModerator": {"type": "boolean"},
                "hidden": {"type": "boolean"}
            }
        },
        "services.CreateTournamentInput": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "description": {"type": "string"},
                "time": {"type": "string", "format": "date-time"},
                "qualificationTime": {"type": "string", "format": "date-time"},
                "liveTracking": {"type": "boolean"},
                "competitors": {"type": "array", "items": {"$ref": "#/definitions/services.CompetitorInput"}},
                "layout": {
                    "type": "object",
                    "properties": {
                        "numCompetitors": {"type": "integer"},
                        "hasGroupPhase": {"type": "boolean"},
                        "numGroups": {"type": "integer"},
                        "winnersPerGroup": {"type": "integer"},
                        "hasQualificationPhase": {"type": "boolean"},
                        "competitorsAfterQualification": {"type": "integer"}
                    }
                },
                "startingMatchups": {"type": "array", "items": {"type": "array", "items": {"type": "string"}}}
            }
        }
    }
}`

var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Tournament Engine API",
	Description:      "Runs tournaments through qualification, group and knockout phases.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
