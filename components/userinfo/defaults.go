package userinfo

// DefaultSearchID is the saved search the user info widget listens to.
const DefaultSearchID = "user_info_search"

// DefaultQuery is the search dispatched when no query is configured.
const DefaultQuery = "| inputlookup user_info.csv | table company_address company_name company_phone user_email user_fullname user_image user_name user_phone user_role"

// WidgetDefinition describes a widget and the schema of its configuration.
type WidgetDefinition struct {
	Code        string
	Name        string
	Description string
	Category    string
	Schema      map[string]any
}

var defaultWidgetDefinition = WidgetDefinition{
	Code:        DefaultWidgetID,
	Name:        "User Info",
	Description: "Renders one card per row of the user info saved search.",
	Category:    "search",
	Schema:      configSchema(),
}

// DefaultWidgetDefinition returns a copy of the built-in definition.
func DefaultWidgetDefinition() WidgetDefinition {
	def := defaultWidgetDefinition
	def.Schema = configSchema()
	return def
}

func localizedSchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": map[string]any{"type": "string"},
	}
}

func configSchema() map[string]any {
	return map[string]any{
		"type":     "object",
		"required": []string{"version", "search_id", "container_id"},
		"properties": map[string]any{
			"version": map[string]any{
				"type": "string",
				"enum": []string{ConfigVersion},
			},
			"search_id": map[string]any{
				"type":      "string",
				"minLength": 1,
			},
			"container_id": map[string]any{
				"type":    "string",
				"pattern": "^[A-Za-z][A-Za-z0-9_-]*$",
			},
			"query": map[string]any{
				"type": "string",
			},
			"locale": map[string]any{
				"type": "string",
			},
			"messages": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"loading":           map[string]any{"type": "string"},
					"empty":             map[string]any{"type": "string"},
					"loading_localized": localizedSchema(),
					"empty_localized":   localizedSchema(),
				},
				"additionalProperties": false,
			},
			"splunk": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"base_url": map[string]any{
						"type":    "string",
						"pattern": "^https?://",
					},
					"token":         map[string]any{"type": "string"},
					"username":      map[string]any{"type": "string"},
					"password":      map[string]any{"type": "string"},
					"app":           map[string]any{"type": "string"},
					"owner":         map[string]any{"type": "string"},
					"poll_interval": map[string]any{"type": "string", "pattern": "^[0-9]+(ms|s|m)$"},
				},
				"additionalProperties": false,
			},
		},
		"additionalProperties": false,
	}
}
