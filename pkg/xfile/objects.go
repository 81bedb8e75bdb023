package xfile

// objectKind identifies the data object productions the parser understands.
type objectKind int

const (
	kindUnknown objectKind = iota
	kindTemplate
	kindFrame
	kindTransformMatrix
	kindMesh
	kindMeshNormals
	kindMeshTextureCoords
	kindMeshVertexColors
	kindMeshMaterialList
	kindVertexDuplicationIndices
	kindSkinMeshHeader
	kindSkinWeights
	kindMaterial
	kindTextureFilename
	kindNormalmapFilename
	kindAnimTicksPerSecond
	kindAnimationSet
	kindAnimation
	kindAnimationKey
	kindAnimationOptions
)

var objectKinds = map[string]objectKind{
	"template":                 kindTemplate,
	"Frame":                    kindFrame,
	"FrameTransformMatrix":     kindTransformMatrix,
	"Mesh":                     kindMesh,
	"MeshNormals":              kindMeshNormals,
	"MeshTextureCoords":        kindMeshTextureCoords,
	"MeshVertexColors":         kindMeshVertexColors,
	"MeshMaterialList":         kindMeshMaterialList,
	"VertexDuplicationIndices": kindVertexDuplicationIndices,
	"XSkinMeshHeader":          kindSkinMeshHeader,
	"SkinWeights":              kindSkinWeights,
	"Material":                 kindMaterial,
	"TextureFilename":          kindTextureFilename,
	"TextureFileName":          kindTextureFilename,
	"NormalmapFilename":        kindNormalmapFilename,
	"NormalmapFileName":        kindNormalmapFilename,
	"AnimTicksPerSecond":       kindAnimTicksPerSecond,
	"AnimationSet":             kindAnimationSet,
	"Animation":                kindAnimation,
	"AnimationKey":             kindAnimationKey,
	"AnimationOptions":         kindAnimationOptions,
}

// lookupObjectKind maps an object type name to its kind. Matching is case
// sensitive apart from the filename spellings exporters disagree on.
func lookupObjectKind(name string) objectKind {
	return objectKinds[name]
}

func (k objectKind) String() string {
	switch k {
	case kindTemplate:
		return "template"
	case kindFrame:
		return "Frame"
	case kindTransformMatrix:
		return "FrameTransformMatrix"
	case kindMesh:
		return "Mesh"
	case kindMeshNormals:
		return "MeshNormals"
	case kindMeshTextureCoords:
		return "MeshTextureCoords"
	case kindMeshVertexColors:
		return "MeshVertexColors"
	case kindMeshMaterialList:
		return "MeshMaterialList"
	case kindVertexDuplicationIndices:
		return "VertexDuplicationIndices"
	case kindSkinMeshHeader:
		return "XSkinMeshHeader"
	case kindSkinWeights:
		return "SkinWeights"
	case kindMaterial:
		return "Material"
	case kindTextureFilename:
		return "TextureFilename"
	case kindNormalmapFilename:
		return "NormalmapFilename"
	case kindAnimTicksPerSecond:
		return "AnimTicksPerSecond"
	case kindAnimationSet:
		return "AnimationSet"
	case kindAnimation:
		return "Animation"
	case kindAnimationKey:
		return "AnimationKey"
	case kindAnimationOptions:
		return "AnimationOptions"
	default:
		return "unknown"
	}
}
