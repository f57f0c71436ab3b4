package extract

// Schema is the subset of the OpenAPI schema object understood by
// structured-output endpoints.
type Schema struct {
	Type        string             `json:"type"`
	Description string             `json:"description,omitempty"`
	Nullable    bool               `json:"nullable,omitempty"`
	Items       *Schema            `json:"items,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty"`
	Required    []string           `json:"required,omitempty"`
}

// Schema type names.
const (
	TypeObject = "OBJECT"
	TypeArray  = "ARRAY"
	TypeString = "STRING"
)

// ResponseSchema describes the ConcertExtraction JSON shape.
func ResponseSchema() *Schema {
	str := func(desc string) *Schema {
		return &Schema{Type: TypeString, Description: desc}
	}

	concert := &Schema{
		Type: TypeObject,
		Properties: map[string]*Schema{
			"venue":    str("Venue name"),
			"location": str("City or address of the venue"),
			"date":     str("Concert date as printed"),
			"event_name": {
				Type:        TypeString,
				Description: "Festival or event name, null when not part of a named event",
				Nullable:    true,
			},
		},
		Required: []string{"venue", "location", "date", "event_name"},
	}

	band := &Schema{
		Type: TypeObject,
		Properties: map[string]*Schema{
			"band_name": str("Band or performer name"),
			"concerts":  {Type: TypeArray, Items: concert},
		},
		Required: []string{"band_name", "concerts"},
	}

	return &Schema{
		Type: TypeObject,
		Properties: map[string]*Schema{
			"bands": {Type: TypeArray, Items: band},
		},
		Required: []string{"bands"},
	}
}
