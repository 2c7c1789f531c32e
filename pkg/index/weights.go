package index

// Traversal weight per relationship type. Higher weight means the edge is
// followed earlier during expansion. The values come from the extraction
// ontology the data directories were produced with.
var relationshipWeights = map[string]float64{
	"CONCERNE":       1.0, // directly concerns the topic
	"HAS_SOURCE":     0.9, // entity -> chunk provenance
	"SOURCED_BY":     0.9, // chunk -> entity reverse provenance
	"CONTRIBUE_A":    0.8,
	"EXPRIME":        0.7,
	"PROPOSE":        0.6,
	"FAIT_PARTIE_DE": 0.5, // structural containment
	"APPARTIENT_A":   0.3,
	"RELATED_TO":     0.1, // generic fallback
}

const defaultRelationshipWeight = 0.1

// Expansion priority per entity type. Structurally central types are
// expanded before incidental ones. The bonus added to a path is the
// priority normalized to the 0-1 range.
var entityTypePriorities = map[string]float64{
	"COMMUNE":      10,
	"CONCEPT":      8,
	"THEME":        7,
	"CHUNK":        6,
	"ACTOR":        5,
	"ORGANIZATION": 5,
	"PERSON":       3,
	"LOCATION":     2,
	"UNKNOWN":      1,
}

const defaultEntityTypePriority = 1

// RelationshipWeight returns the traversal weight for a relationship type.
func RelationshipWeight(relType string) float64 {
	if w, ok := relationshipWeights[relType]; ok {
		return w
	}
	return defaultRelationshipWeight
}

func entityTypeBonus(entityType string) float64 {
	prio, ok := entityTypePriorities[entityType]
	if !ok {
		prio = defaultEntityTypePriority
	}
	return prio / 10.0
}
