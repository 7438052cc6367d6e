// Package docs registra la spec swagger del servicio (servida por
// http-swagger en /swagger).
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
    "paths": {
        "/history/{kind}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["history"],
                "summary": "Historial agrupado por parent",
                "description": "Página de grupos (un parent con su historial completo), ordenados por recencia del último evento de cada grupo.",
                "parameters": [
                    {"type": "string", "enum": ["health-check-result", "treatment-plan"], "name": "kind", "in": "path", "required": true},
                    {"type": "integer", "name": "page", "in": "query"},
                    {"type": "integer", "name": "page_size", "in": "query"},
                    {"type": "string", "name": "actions", "in": "query"},
                    {"type": "string", "name": "performer", "in": "query"},
                    {"type": "string", "name": "code", "in": "query"},
                    {"type": "string", "name": "status_from", "in": "query"},
                    {"type": "string", "name": "status_to", "in": "query"},
                    {"type": "string", "name": "from", "in": "query"},
                    {"type": "string", "name": "to", "in": "query"},
                    {"type": "string", "enum": ["action_date", "parent_code"], "name": "sort", "in": "query"},
                    {"type": "string", "enum": ["asc", "desc"], "name": "order", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "kind desconocido / filtros inválidos"},
                    "502": {"description": "backing store no disponible"}
                }
            }
        },
        "/history/{kind}/export": {
            "get": {
                "produces": ["text/csv", "application/json"],
                "tags": ["history"],
                "summary": "Exportar historial de auditoría",
                "description": "Una fila por evento con el código del parent repetido. Scope current_page reusa la página hidratada; all_matching materializa todo lo que matchea la query.",
                "parameters": [
                    {"type": "string", "enum": ["health-check-result", "treatment-plan"], "name": "kind", "in": "path", "required": true},
                    {"type": "string", "enum": ["current_page", "all_matching"], "name": "scope", "in": "query"},
                    {"type": "string", "enum": ["csv", "json"], "name": "format", "in": "query"},
                    {"type": "string", "name": "columns", "in": "query"},
                    {"type": "integer", "name": "page", "in": "query"},
                    {"type": "integer", "name": "page_size", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "archivo adjunto"},
                    "400": {"description": "guard de scope / parámetros inválidos"},
                    "502": {"description": "backing store no disponible"}
                }
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "FMCS Grouped Audit History API",
	Description:      "Historial de auditoría agrupado por parent (health-check results y treatment plans) con export configurable.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
