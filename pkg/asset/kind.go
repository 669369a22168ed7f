package asset

// Kind classifies a managed unit of level content.
type Kind uint8

const (
	// KindGenericManaged covers records the engine tracks but has no
	// special handling for (mission groups, level metadata, unknown
	// classes). It is the zero value on purpose.
	KindGenericManaged Kind = iota
	// KindShape is a geometry payload file (.dae or .cdae).
	KindShape
	// KindMaterial is a record in a materials container file.
	KindMaterial
	// KindTexture is an image file referenced by a material map property.
	// Texture nodes are path-identified: the name is the canonical path.
	KindTexture
	// KindForestItemData is a managed vegetation item definition.
	KindForestItemData
	// KindForestBrush is a named grouping of placeable forest elements.
	KindForestBrush
	// KindForestBrushElement is one entry of a brush, referencing an item
	// data record.
	KindForestBrushElement
	// KindDecal is a managed decal definition.
	KindDecal
	// KindTerrainMaterial is a terrain layer material.
	KindTerrainMaterial
	// KindRoad is a decal road placed in a mission file.
	KindRoad
)

var kindNames = [...]string{
	KindGenericManaged:     "generic",
	KindShape:              "shape",
	KindMaterial:           "material",
	KindTexture:            "texture",
	KindForestItemData:     "forestItemData",
	KindForestBrush:        "forestBrush",
	KindForestBrushElement: "forestBrushElement",
	KindDecal:              "decal",
	KindTerrainMaterial:    "terrainMaterial",
	KindRoad:               "road",
}

// String returns the stable lowercase name of the kind, used in exports,
// diagnostics, and the HTTP API.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// ParseKind maps a kind name back to its Kind. It is the inverse of
// [Kind.String] and is used when importing exported graphs.
func ParseKind(s string) (Kind, bool) {
	for k, name := range kindNames {
		if name == s {
			return Kind(k), true
		}
	}
	return KindGenericManaged, false
}

// Kinds lists every kind in declaration order.
func Kinds() []Kind {
	out := make([]Kind, len(kindNames))
	for i := range kindNames {
		out[i] = Kind(i)
	}
	return out
}
