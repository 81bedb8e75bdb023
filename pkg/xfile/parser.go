package xfile

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/xofkit/pkg/math"
)

// parser walks the object grammar over a single token stream and hands
// frames, meshes and animations to the builder.
type parser struct {
	lex *Lexer
	cur Cursor
	b   *builder
	log *zap.Logger

	unnamedMaterials int
}

func newParser(lex *Lexer, cur Cursor, b *builder, log *zap.Logger) *parser {
	return &parser{lex: lex, cur: cur, b: b, log: log}
}

// track stamps the innermost object onto a FormatError on its way out.
func track(kind objectKind, err *error) {
	var fe *FormatError
	if *err != nil && errors.As(*err, &fe) && fe.Object == "" {
		fe.Object = kind.String()
	}
}

func (p *parser) next() (Token, error) {
	return p.lex.NextToken(&p.cur)
}

func (p *parser) errorf(class ErrorClass, sentinel error, format string, args ...any) error {
	return p.lex.errorf(&p.cur, class, sentinel, format, args...)
}

// nextChild reads the next token inside an object. EOF is an error here.
func (p *parser) nextChild(kind objectKind) (Token, error) {
	tok, err := p.next()
	if err != nil {
		return tok, err
	}
	if tok.EOF() {
		return tok, p.errorf(ClassGrammar, ErrUnexpectedEOF, "inside %s", kind)
	}
	return tok, nil
}

func (p *parser) readInt() (uint32, error) {
	return p.lex.ReadInt(&p.cur)
}

func (p *parser) readFloat() (float32, error) {
	return p.lex.ReadFloat(&p.cur)
}

// capHint bounds a preallocation by the bytes left, so a corrupt count
// cannot allocate more than the file could possibly hold.
func (p *parser) capHint(n uint32) int {
	return min(int(n), p.lex.remaining(&p.cur))
}

func kindOf(tok Token) objectKind {
	if tok.Kind != TokenName {
		return kindUnknown
	}
	return lookupObjectKind(tok.Text)
}

// parseFile reads top-level objects until the end of the stream.
func (p *parser) parseFile() error {
	for {
		tok, err := p.next()
		if err != nil {
			return err
		}

		switch {
		case tok.EOF():
			return nil
		case tok.Kind == TokenCloseBrace || tok.Kind == TokenSeparator:
			p.log.Debug("ignoring stray token at top level",
				zap.String("token", tok.Text), zap.Int("offset", tok.Offset))
			continue
		case tok.Kind == TokenOpenBrace:
			err = p.skipBlock()
		default:
			switch kindOf(tok) {
			case kindTemplate:
				err = p.template()
			case kindFrame:
				err = p.frame(nil)
			case kindMesh:
				var mesh *Mesh
				if mesh, err = p.mesh(); err == nil {
					p.b.meshes = append(p.b.meshes, mesh)
				}
			case kindMaterial:
				var mat Material
				if mat, err = p.material(); err == nil {
					p.b.materials = append(p.b.materials, mat)
				}
			case kindAnimTicksPerSecond:
				err = p.animTicksPerSecond()
			case kindAnimationSet:
				err = p.animationSet()
			default:
				err = p.unknownObject(tok)
			}
		}
		if err != nil {
			return err
		}
	}
}

// readHead reads an optional object name followed by '{'.
func (p *parser) readHead(kind objectKind) (string, error) {
	tok, err := p.nextChild(kind)
	if err != nil {
		return "", err
	}
	if tok.Kind == TokenOpenBrace {
		return "", nil
	}
	if tok.Kind != TokenName && tok.Kind != TokenString {
		return "", p.errorf(ClassGrammar, ErrUnexpectedToken, "expected %s name or '{', got %s", kind, tok)
	}

	brace, err := p.nextChild(kind)
	if err != nil {
		return "", err
	}
	if brace.Kind != TokenOpenBrace {
		return "", p.errorf(ClassGrammar, ErrUnexpectedToken, "expected '{' after %s %q, got %s", kind, tok.Text, brace)
	}
	return tok.Text, nil
}

// readReference reads the body of a "{ Name }" data reference whose opening
// brace was already consumed.
func (p *parser) readReference(kind objectKind) (string, error) {
	tok, err := p.nextChild(kind)
	if err != nil {
		return "", err
	}
	if tok.Kind != TokenName && tok.Kind != TokenString {
		return "", p.errorf(ClassGrammar, ErrUnexpectedToken, "expected reference name, got %s", tok)
	}
	if err := p.lex.CheckForClosingBrace(&p.cur); err != nil {
		return "", err
	}
	return tok.Text, nil
}

func (p *parser) unknownObject(tok Token) error {
	p.log.Warn("skipping unknown data object",
		zap.String("object", tok.Text), zap.Int("offset", tok.Offset))
	return p.skipObject()
}

// skipObject consumes tokens through the next '{' and its matching '}'.
func (p *parser) skipObject() error {
	for {
		tok, err := p.next()
		if err != nil {
			return err
		}
		if tok.EOF() {
			return p.errorf(ClassGrammar, ErrUnexpectedEOF, "while skipping unknown object")
		}
		if tok.Kind == TokenOpenBrace {
			return p.skipBlock()
		}
	}
}

// skipBlock consumes tokens up to the '}' closing an already opened block.
func (p *parser) skipBlock() error {
	for depth := 1; depth > 0; {
		tok, err := p.next()
		if err != nil {
			return err
		}
		switch tok.Kind {
		case TokenEOF:
			return p.errorf(ClassGrammar, ErrUnexpectedEOF, "while skipping unknown object")
		case TokenOpenBrace:
			depth++
		case TokenCloseBrace:
			depth--
		}
	}
	return nil
}

func (p *parser) template() (err error) {
	defer track(kindTemplate, &err)

	name, err := p.readHead(kindTemplate)
	if err != nil {
		return err
	}
	guid, err := p.nextChild(kindTemplate)
	if err != nil {
		return err
	}
	p.log.Debug("skipping template", zap.String("name", name), zap.String("guid", guid.Text))
	if guid.Kind == TokenCloseBrace {
		return nil
	}

	for {
		tok, err := p.nextChild(kindTemplate)
		if err != nil {
			return err
		}
		if tok.Kind == TokenCloseBrace {
			return nil
		}
	}
}

func (p *parser) frame(parent *Node) (err error) {
	defer track(kindFrame, &err)

	name, err := p.readHead(kindFrame)
	if err != nil {
		return err
	}
	node := p.b.addFrame(name, parent)

	for {
		tok, err := p.nextChild(kindFrame)
		if err != nil {
			return err
		}

		switch {
		case tok.Kind == TokenCloseBrace:
			return nil
		case tok.Kind == TokenSeparator:
			continue
		case tok.Kind == TokenOpenBrace:
			err = p.skipBlock()
		default:
			switch kindOf(tok) {
			case kindFrame:
				err = p.frame(node)
			case kindTransformMatrix:
				node.Transform, err = p.transformMatrix()
			case kindMesh:
				var mesh *Mesh
				if mesh, err = p.mesh(); err == nil {
					node.Meshes = append(node.Meshes, mesh)
				}
			default:
				err = p.unknownObject(tok)
			}
		}
		if err != nil {
			return err
		}
	}
}

func (p *parser) transformMatrix() (m math.Mat4, err error) {
	defer track(kindTransformMatrix, &err)

	if _, err = p.readHead(kindTransformMatrix); err != nil {
		return m, err
	}
	if m, err = p.lex.ReadMatrix(&p.cur); err != nil {
		return m, err
	}
	if err = p.lex.CheckForSemicolon(&p.cur); err != nil {
		return m, err
	}
	return m, p.lex.CheckForClosingBrace(&p.cur)
}

// readFaces reads count polygons, each a length followed by its indices.
func (p *parser) readFaces(count uint32) ([]Face, error) {
	faces := make([]Face, 0, p.capHint(count))
	for range count {
		n, err := p.readInt()
		if err != nil {
			return nil, err
		}
		if n < 3 {
			return nil, p.errorf(ClassConsistency, ErrBadFace, "face %d has %d indices", len(faces), n)
		}
		face := make(Face, 0, p.capHint(n))
		for range n {
			idx, err := p.readInt()
			if err != nil {
				return nil, err
			}
			face = append(face, idx)
		}
		p.lex.TestForSeparator(&p.cur)
		faces = append(faces, face)
	}
	return faces, nil
}

func (p *parser) mesh() (mesh *Mesh, err error) {
	defer track(kindMesh, &err)

	name, err := p.readHead(kindMesh)
	if err != nil {
		return nil, err
	}
	mesh = &Mesh{Name: name}

	numVertices, err := p.readInt()
	if err != nil {
		return nil, err
	}
	mesh.Positions = make([]math.Vec3, 0, p.capHint(numVertices))
	for range numVertices {
		v, err := p.lex.ReadVector3(&p.cur)
		if err != nil {
			return nil, err
		}
		mesh.Positions = append(mesh.Positions, v)
	}

	numFaces, err := p.readInt()
	if err != nil {
		return nil, err
	}
	if mesh.PosFaces, err = p.readFaces(numFaces); err != nil {
		return nil, err
	}
	if numFaces == 0 {
		// An empty face array is written "0;;".
		p.lex.TestForSeparator(&p.cur)
	}

	for {
		tok, err := p.nextChild(kindMesh)
		if err != nil {
			return nil, err
		}

		switch {
		case tok.Kind == TokenCloseBrace:
			return mesh, nil
		case tok.Kind == TokenSeparator:
			continue
		case tok.Kind == TokenOpenBrace:
			err = p.skipBlock()
		default:
			switch kindOf(tok) {
			case kindMeshNormals:
				err = p.meshNormals(mesh)
			case kindMeshTextureCoords:
				err = p.meshTextureCoords(mesh)
			case kindMeshVertexColors:
				err = p.meshVertexColors(mesh)
			case kindMeshMaterialList:
				err = p.meshMaterialList(mesh)
			case kindVertexDuplicationIndices:
				err = p.skipObject()
			case kindSkinMeshHeader:
				err = p.skinMeshHeader(mesh)
			case kindSkinWeights:
				err = p.skinWeights(mesh)
			default:
				err = p.unknownObject(tok)
			}
		}
		if err != nil {
			return nil, err
		}
	}
}

func (p *parser) meshNormals(mesh *Mesh) (err error) {
	defer track(kindMeshNormals, &err)

	if _, err = p.readHead(kindMeshNormals); err != nil {
		return err
	}
	numNormals, err := p.readInt()
	if err != nil {
		return err
	}
	mesh.Normals = make([]math.Vec3, 0, p.capHint(numNormals))
	for range numNormals {
		v, err := p.lex.ReadVector3(&p.cur)
		if err != nil {
			return err
		}
		mesh.Normals = append(mesh.Normals, v)
	}

	numFaces, err := p.readInt()
	if err != nil {
		return err
	}
	if int(numFaces) != len(mesh.PosFaces) {
		return p.errorf(ClassConsistency, ErrCountMismatch,
			"%d normal faces for %d position faces", numFaces, len(mesh.PosFaces))
	}
	if mesh.NormalFaces, err = p.readFaces(numFaces); err != nil {
		return err
	}
	return p.lex.CheckForClosingBrace(&p.cur)
}

func (p *parser) meshTextureCoords(mesh *Mesh) (err error) {
	defer track(kindMeshTextureCoords, &err)

	if _, err = p.readHead(kindMeshTextureCoords); err != nil {
		return err
	}
	if mesh.NumTextures+1 > MaxTexCoordSets {
		return p.errorf(ClassConsistency, ErrTooManyChannels,
			"more than %d texture coordinate sets", MaxTexCoordSets)
	}
	numCoords, err := p.readInt()
	if err != nil {
		return err
	}
	if int(numCoords) != len(mesh.Positions) {
		return p.errorf(ClassConsistency, ErrCountMismatch,
			"%d texture coordinates for %d vertices", numCoords, len(mesh.Positions))
	}

	coords := make([]math.Vec2, 0, numCoords)
	for range numCoords {
		uv, err := p.lex.ReadVector2(&p.cur)
		if err != nil {
			return err
		}
		coords = append(coords, uv)
	}
	mesh.TexCoords[mesh.NumTextures] = coords
	mesh.NumTextures++
	return p.lex.CheckForClosingBrace(&p.cur)
}

func (p *parser) meshVertexColors(mesh *Mesh) (err error) {
	defer track(kindMeshVertexColors, &err)

	if _, err = p.readHead(kindMeshVertexColors); err != nil {
		return err
	}
	if mesh.NumColorSets+1 > MaxColorSets {
		return p.errorf(ClassConsistency, ErrTooManyChannels,
			"more than %d vertex color sets", MaxColorSets)
	}
	numColors, err := p.readInt()
	if err != nil {
		return err
	}
	if int(numColors) != len(mesh.Positions) {
		return p.errorf(ClassConsistency, ErrCountMismatch,
			"%d vertex colors for %d vertices", numColors, len(mesh.Positions))
	}

	colors := make([]math.Color4, len(mesh.Positions))
	for i := range colors {
		colors[i] = math.Color4{A: 1}
	}
	for range numColors {
		idx, err := p.readInt()
		if err != nil {
			return err
		}
		if int(idx) >= len(colors) {
			return p.errorf(ClassConsistency, ErrIndexOutOfRange,
				"vertex color index %d for %d vertices", idx, len(colors))
		}
		if colors[idx], err = p.lex.ReadColor4(&p.cur); err != nil {
			return err
		}
		// Some exporters end each entry with a third separator.
		p.lex.TestForSeparator(&p.cur)
	}
	mesh.Colors[mesh.NumColorSets] = colors
	mesh.NumColorSets++
	return p.lex.CheckForClosingBrace(&p.cur)
}

func (p *parser) meshMaterialList(mesh *Mesh) (err error) {
	defer track(kindMeshMaterialList, &err)

	if _, err = p.readHead(kindMeshMaterialList); err != nil {
		return err
	}
	numMaterials, err := p.readInt()
	if err != nil {
		return err
	}
	numIndices, err := p.readInt()
	if err != nil {
		return err
	}
	numFaces := len(mesh.PosFaces)
	if int(numIndices) != numFaces && numIndices != 1 {
		return p.errorf(ClassConsistency, ErrCountMismatch,
			"%d material indices for %d faces", numIndices, numFaces)
	}

	indices := make([]uint32, 0, p.capHint(numIndices))
	for range numIndices {
		idx, err := p.readInt()
		if err != nil {
			return err
		}
		indices = append(indices, idx)
	}
	switch {
	case numFaces == 0:
		mesh.FaceMaterials = []uint32{}
	case len(indices) != numFaces:
		mesh.FaceMaterials = make([]uint32, numFaces)
		for i := range mesh.FaceMaterials {
			mesh.FaceMaterials[i] = indices[0]
		}
	default:
		mesh.FaceMaterials = indices
	}
	// Older exporters close the index list with a second semicolon.
	p.lex.SkipOptionalSemicolon(&p.cur)

	for {
		tok, err := p.nextChild(kindMeshMaterialList)
		if err != nil {
			return err
		}

		switch {
		case tok.Kind == TokenCloseBrace:
			if int(numMaterials) != len(mesh.Materials) {
				p.log.Debug("material list count differs from materials read",
					zap.Uint32("declared", numMaterials), zap.Int("read", len(mesh.Materials)))
			}
			return nil
		case tok.Kind == TokenSeparator:
			continue
		case tok.Kind == TokenOpenBrace:
			name, err := p.readReference(kindMeshMaterialList)
			if err != nil {
				return err
			}
			mesh.Materials = append(mesh.Materials, Material{Name: name, IsReference: true, SceneIndex: -1})
		case kindOf(tok) == kindMaterial:
			mat, err := p.material()
			if err != nil {
				return err
			}
			mesh.Materials = append(mesh.Materials, mat)
		default:
			if err := p.unknownObject(tok); err != nil {
				return err
			}
		}
	}
}

func (p *parser) material() (mat Material, err error) {
	defer track(kindMaterial, &err)

	name, err := p.readHead(kindMaterial)
	if err != nil {
		return mat, err
	}
	if name == "" {
		name = fmt.Sprintf("material%d", p.unnamedMaterials)
		p.unnamedMaterials++
	}
	mat = Material{Name: name, SceneIndex: -1}

	if mat.Diffuse, err = p.lex.ReadColor4(&p.cur); err != nil {
		return mat, err
	}
	if mat.SpecularExponent, err = p.readFloat(); err != nil {
		return mat, err
	}
	if mat.Specular, err = p.lex.ReadColor3(&p.cur); err != nil {
		return mat, err
	}
	if mat.Emissive, err = p.lex.ReadColor3(&p.cur); err != nil {
		return mat, err
	}

	for {
		tok, err := p.nextChild(kindMaterial)
		if err != nil {
			return mat, err
		}

		switch {
		case tok.Kind == TokenCloseBrace:
			return mat, nil
		case tok.Kind == TokenSeparator:
			continue
		case tok.Kind == TokenOpenBrace:
			err = p.skipBlock()
		default:
			switch kind := kindOf(tok); kind {
			case kindTextureFilename, kindNormalmapFilename:
				var tex string
				if tex, err = p.textureFilename(kind); err == nil {
					mat.Textures = append(mat.Textures, TexEntry{Name: tex, IsNormalMap: kind == kindNormalmapFilename})
				}
			default:
				err = p.unknownObject(tok)
			}
		}
		if err != nil {
			return mat, err
		}
	}
}

func (p *parser) textureFilename(kind objectKind) (name string, err error) {
	defer track(kind, &err)

	if _, err = p.readHead(kind); err != nil {
		return "", err
	}
	if name, err = p.lex.ReadString(&p.cur); err != nil {
		return "", err
	}
	if err = p.lex.CheckForClosingBrace(&p.cur); err != nil {
		return "", err
	}

	name = strings.ReplaceAll(name, `\\`, `\`)
	if name == "" {
		p.log.Warn("empty texture file name", zap.Int("offset", p.cur.Pos))
	}
	return name, nil
}

func (p *parser) skinMeshHeader(mesh *Mesh) (err error) {
	defer track(kindSkinMeshHeader, &err)

	if _, err = p.readHead(kindSkinMeshHeader); err != nil {
		return err
	}
	h := &SkinHeader{}
	if h.MaxWeightsPerVertex, err = p.readInt(); err != nil {
		return err
	}
	if h.MaxWeightsPerFace, err = p.readInt(); err != nil {
		return err
	}
	if h.NumBones, err = p.readInt(); err != nil {
		return err
	}
	mesh.SkinHeader = h
	return p.lex.CheckForClosingBrace(&p.cur)
}

func (p *parser) skinWeights(mesh *Mesh) (err error) {
	defer track(kindSkinWeights, &err)

	if _, err = p.readHead(kindSkinWeights); err != nil {
		return err
	}
	bone := Bone{}
	if bone.Name, err = p.lex.ReadString(&p.cur); err != nil {
		return err
	}

	numWeights, err := p.readInt()
	if err != nil {
		return err
	}
	bone.Weights = make([]BoneWeight, 0, p.capHint(numWeights))
	for range numWeights {
		v, err := p.readInt()
		if err != nil {
			return err
		}
		bone.Weights = append(bone.Weights, BoneWeight{Vertex: v})
	}
	for i := range bone.Weights {
		if bone.Weights[i].Weight, err = p.readFloat(); err != nil {
			return err
		}
	}

	if bone.Offset, err = p.lex.ReadMatrix(&p.cur); err != nil {
		return err
	}
	if err = p.lex.CheckForSemicolon(&p.cur); err != nil {
		return err
	}
	if err = p.lex.CheckForClosingBrace(&p.cur); err != nil {
		return err
	}
	mesh.Bones = append(mesh.Bones, bone)
	return nil
}

func (p *parser) animTicksPerSecond() (err error) {
	defer track(kindAnimTicksPerSecond, &err)

	if _, err = p.readHead(kindAnimTicksPerSecond); err != nil {
		return err
	}
	if p.b.ticksPerSecond, err = p.readInt(); err != nil {
		return err
	}
	return p.lex.CheckForClosingBrace(&p.cur)
}

func (p *parser) animationSet() (err error) {
	defer track(kindAnimationSet, &err)

	name, err := p.readHead(kindAnimationSet)
	if err != nil {
		return err
	}
	anim := &Animation{Name: name}

	for {
		tok, err := p.nextChild(kindAnimationSet)
		if err != nil {
			return err
		}

		switch {
		case tok.Kind == TokenCloseBrace:
			p.b.animations = append(p.b.animations, anim)
			return nil
		case tok.Kind == TokenSeparator:
			continue
		case tok.Kind == TokenOpenBrace:
			err = p.skipBlock()
		case kindOf(tok) == kindAnimation:
			err = p.animation(anim)
		default:
			err = p.unknownObject(tok)
		}
		if err != nil {
			return err
		}
	}
}

func (p *parser) animation(anim *Animation) (err error) {
	defer track(kindAnimation, &err)

	if _, err = p.readHead(kindAnimation); err != nil {
		return err
	}
	bone := &AnimBone{}
	anim.Bones = append(anim.Bones, bone)

	for {
		tok, err := p.nextChild(kindAnimation)
		if err != nil {
			return err
		}

		switch {
		case tok.Kind == TokenCloseBrace:
			return nil
		case tok.Kind == TokenSeparator:
			continue
		case tok.Kind == TokenOpenBrace:
			bone.Name, err = p.readReference(kindAnimation)
		default:
			switch kindOf(tok) {
			case kindAnimationKey:
				err = p.animationKey(bone)
			case kindAnimationOptions:
				err = p.skipObject()
			default:
				err = p.unknownObject(tok)
			}
		}
		if err != nil {
			return err
		}
	}
}

// Animation key types.
const (
	keyRotation  = 0
	keyScale     = 1
	keyPosition  = 2
	keyMatrix    = 3
	keyMatrixAlt = 4
)

func keyValueCount(keyType uint32) (uint32, bool) {
	switch keyType {
	case keyRotation:
		return 4, true
	case keyScale, keyPosition:
		return 3, true
	case keyMatrix, keyMatrixAlt:
		return 16, true
	}
	return 0, false
}

func (p *parser) animationKey(bone *AnimBone) (err error) {
	defer track(kindAnimationKey, &err)

	if _, err = p.readHead(kindAnimationKey); err != nil {
		return err
	}
	keyType, err := p.readInt()
	if err != nil {
		return err
	}
	numKeys, err := p.readInt()
	if err != nil {
		return err
	}

	for i := range numKeys {
		tick, err := p.readInt()
		if err != nil {
			return err
		}
		time := float64(tick)

		want, ok := keyValueCount(keyType)
		if !ok {
			return p.errorf(ClassConsistency, ErrBadKeyType, "key type %d", keyType)
		}
		n, err := p.readInt()
		if err != nil {
			return err
		}
		if n != want {
			return p.errorf(ClassConsistency, ErrCountMismatch,
				"key %d has %d values, type %d wants %d", i, n, keyType, want)
		}

		switch keyType {
		case keyRotation:
			var q math.Quat
			for _, f := range []*float32{&q.W, &q.X, &q.Y, &q.Z} {
				if *f, err = p.readFloat(); err != nil {
					return err
				}
			}
			if err := p.lex.CheckForSemicolon(&p.cur); err != nil {
				return err
			}
			bone.RotKeys = append(bone.RotKeys, QuatKey{Time: time, Value: q})
		case keyScale, keyPosition:
			v, err := p.lex.ReadVector3(&p.cur)
			if err != nil {
				return err
			}
			if keyType == keyScale {
				bone.ScaleKeys = append(bone.ScaleKeys, VectorKey{Time: time, Value: v})
			} else {
				bone.PosKeys = append(bone.PosKeys, VectorKey{Time: time, Value: v})
			}
		default:
			m, err := p.lex.ReadMatrix(&p.cur)
			if err != nil {
				return err
			}
			if err := p.lex.CheckForSemicolon(&p.cur); err != nil {
				return err
			}
			bone.MatrixKeys = append(bone.MatrixKeys, MatrixKey{Time: time, Value: m})
		}

		if err := p.lex.CheckForSeparator(&p.cur); err != nil {
			return err
		}
	}
	return p.lex.CheckForClosingBrace(&p.cur)
}
