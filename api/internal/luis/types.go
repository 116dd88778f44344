package luis

// Wire types for the LUIS v2.0 prediction endpoint.

const (
	EntityStolenObject = "StolenObject"
	EntityWeapon       = "Weapon"
)

type Intent struct {
	Intent string  `json:"intent"`
	Score  float64 `json:"score"`
}

type Entity struct {
	Entity     string  `json:"entity"`
	Type       string  `json:"type"`
	StartIndex int     `json:"startIndex"`
	EndIndex   int     `json:"endIndex"`
	Score      float64 `json:"score"`
}

type Result struct {
	Query            string   `json:"query"`
	TopScoringIntent Intent   `json:"topScoringIntent"`
	Intents          []Intent `json:"intents"`
	Entities         []Entity `json:"entities"`
}

// FirstEntity returns the first extracted entity of the given type, or nil.
func (r Result) FirstEntity(typ string) *Entity {
	for i := range r.Entities {
		if r.Entities[i].Type == typ {
			return &r.Entities[i]
		}
	}
	return nil
}
