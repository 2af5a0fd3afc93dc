package schema

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/chameleon-db/chameleondb/chameleon/pkg/engine"
)

// Parser turns merged .cham source into an engine.Schema. It replaces the
// CGo hop to a Rust core that engine.LoadSchemaFromString previously made:
// parsing now happens in this module, in Go.
//
// Grammar (line-oriented, same regexp-driven style SimpleMerger already
// uses for its duplicate-entity check):
//
//	entity Name {
//	    field: type [modifier ...],
//	    field: [Type] @relation(name: "X", fk: "column", required: true),
//	}
//
// Scalar types: uuid, string, int, decimal, bool, timestamp, each
// optionally suffixed `[]` for a scalar-list field. A type that names
// another entity (bare or bracketed `[Entity]`) declares a relation
// field instead of a column; `@relation(...)` disambiguates which side
// carries the physical foreign key.

var (
	entityHeaderRe = regexp.MustCompile(`(?m)^\s*entity\s+([A-Za-z_]\w*)\s*\{`)
	fieldLineRe    = regexp.MustCompile(`^([A-Za-z_]\w*)\s*:\s*(.+?),?$`)
	relationAttrRe = regexp.MustCompile(`@relation\(([^)]*)\)`)
)

var scalarTypes = map[string]engine.FieldType{
	"uuid":      engine.FieldTypeUUID,
	"string":    engine.FieldTypeString,
	"int":       engine.FieldTypeInt,
	"decimal":   engine.FieldTypeDecimal,
	"bool":      engine.FieldTypeBool,
	"timestamp": engine.FieldTypeTimestamp,
}

// rawRelationField is a relation field before its opposite/table shape
// has been resolved against the rest of the schema.
type rawRelationField struct {
	modelName string
	name      string
	related   string
	isList    bool
	required  bool
	relName   string
	fk        string // non-empty when this side carries the inline FK
}

// Parse parses merged .cham source into a bound engine.Schema.
func Parse(src string) (*engine.Schema, error) {
	blocks, err := splitEntities(src)
	if err != nil {
		return nil, err
	}

	schema := &engine.Schema{
		Models:    map[string]*engine.Model{},
		Relations: map[string]*engine.Relation{},
	}

	var rawRelations []rawRelationField

	for _, b := range blocks {
		model := &engine.Model{
			Name:   b.name,
			Fields: map[string]*engine.Field{},
		}

		for _, line := range b.fieldLines {
			m := fieldLineRe.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			fieldName, rest := m[1], strings.TrimSpace(m[2])

			if rf, ok, err := parseRelationField(b.name, fieldName, rest); err != nil {
				return nil, err
			} else if ok {
				rawRelations = append(rawRelations, rf)
				continue
			}

			field, err := parseScalarField(fieldName, rest)
			if err != nil {
				return nil, fmt.Errorf("entity %s: %w", b.name, err)
			}
			model.Fields[fieldName] = field
			model.FieldOrder = append(model.FieldOrder, fieldName)
		}

		if model.IDField() == nil {
			return nil, fmt.Errorf("entity %s has no primary key field", b.name)
		}

		schema.Models[b.name] = model
	}

	if err := bindRelations(schema, rawRelations); err != nil {
		return nil, err
	}

	schema.Bind()
	return schema, nil
}

type entityBlock struct {
	name       string
	fieldLines []string
}

// splitEntities locates every `entity Name { ... }` block and splits its
// body into one string per field declaration (already comma-terminated
// in well-formed input, but we tolerate a missing trailing comma on the
// last field).
func splitEntities(src string) ([]entityBlock, error) {
	var blocks []entityBlock

	headers := entityHeaderRe.FindAllStringSubmatchIndex(src, -1)
	for _, h := range headers {
		name := src[h[2]:h[3]]
		bodyStart := h[1] // just past the opening '{'
		depth := 1
		i := bodyStart
		for ; i < len(src) && depth > 0; i++ {
			switch src[i] {
			case '{':
				depth++
			case '}':
				depth--
			}
		}
		if depth != 0 {
			return nil, fmt.Errorf("entity %s: unterminated block", name)
		}
		body := src[bodyStart : i-1]

		var lines []string
		for _, raw := range strings.Split(body, "\n") {
			line := stripComment(raw)
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			lines = append(lines, line)
		}
		blocks = append(blocks, entityBlock{name: name, fieldLines: lines})
	}

	if len(blocks) == 0 {
		return nil, fmt.Errorf("no entities found in schema")
	}
	return blocks, nil
}

func stripComment(line string) string {
	if i := strings.Index(line, "//"); i >= 0 {
		return line[:i]
	}
	return line
}

// parseScalarField parses `type [modifier ...]` into a Field.
func parseScalarField(name, rest string) (*engine.Field, error) {
	tokens := strings.Fields(rest)
	if len(tokens) == 0 {
		return nil, fmt.Errorf("field %s: missing type", name)
	}

	typeTok := tokens[0]
	isList := false
	if strings.HasSuffix(typeTok, "[]") {
		isList = true
		typeTok = strings.TrimSuffix(typeTok, "[]")
	}

	ft, ok := scalarTypes[strings.ToLower(typeTok)]
	if !ok {
		return nil, fmt.Errorf("field %s: unknown scalar type %q", name, typeTok)
	}

	field := &engine.Field{Name: name, Type: ft, IsList: isList}
	for i := 1; i < len(tokens); i++ {
		switch strings.ToLower(strings.TrimSuffix(tokens[i], ",")) {
		case "primary":
			field.PrimaryKey = true
		case "unique":
			field.Unique = true
		case "optional", "nullable":
			field.Nullable = true
		case "default":
			if i+1 < len(tokens) {
				val := interface{}(strings.TrimSuffix(tokens[i+1], ","))
				field.Default = &val
				i++
			}
		}
	}
	return field, nil
}

// parseRelationField recognizes a relation field (bare entity name or
// `[Entity]`, with an optional @relation(...) attribute) and returns
// false, nil when `rest` names a scalar type instead.
func parseRelationField(modelName, fieldName, rest string) (rawRelationField, bool, error) {
	attr := ""
	if m := relationAttrRe.FindStringSubmatchIndex(rest); m != nil {
		attr = rest[m[2]:m[3]]
		rest = strings.TrimSpace(rest[:m[0]])
	}
	rest = strings.TrimSuffix(strings.TrimSpace(rest), ",")

	isList := false
	typeTok := rest
	if strings.HasPrefix(rest, "[") && strings.HasSuffix(rest, "]") {
		isList = true
		typeTok = strings.TrimSpace(rest[1 : len(rest)-1])
	}

	if toks := strings.Fields(typeTok); len(toks) > 0 {
		if _, isScalar := scalarTypes[strings.ToLower(strings.TrimSuffix(toks[0], "[]"))]; isScalar {
			return rawRelationField{}, false, nil
		}
	}
	if typeTok == "" {
		return rawRelationField{}, false, nil
	}

	rf := rawRelationField{
		modelName: modelName,
		name:      fieldName,
		related:   typeTok,
		isList:    isList,
	}

	relName := fieldName + "On" + modelName
	for _, kv := range strings.Split(attr, ",") {
		kv = strings.TrimSpace(kv)
		if kv == "" {
			continue
		}
		parts := strings.SplitN(kv, ":", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		val := strings.Trim(strings.TrimSpace(parts[1]), `"`)
		switch key {
		case "name":
			relName = val
		case "fk":
			rf.fk = val
		case "required":
			rf.required, _ = strconv.ParseBool(val)
		}
	}
	rf.relName = relName

	return rf, true, nil
}

// bindRelations pairs up raw relation fields by relation name, builds
// the physical Relation (join table or inlined FK) each pair shares,
// and attaches RelationField values to their owning Model.
func bindRelations(schema *engine.Schema, raws []rawRelationField) error {
	byName := map[string][]rawRelationField{}
	var order []string
	for _, rf := range raws {
		if _, seen := byName[rf.relName]; !seen {
			order = append(order, rf.relName)
		}
		byName[rf.relName] = append(byName[rf.relName], rf)
	}
	sort.Strings(order)

	for _, relName := range order {
		pair := byName[relName]
		if len(pair) != 2 {
			return fmt.Errorf("relation %q: expected 2 sides, found %d", relName, len(pair))
		}
		a, b := pair[0], pair[1]

		// Canonical A/B ordering: alphabetical by model name, same rule
		// the Statement Builder expects for join-table column ordering.
		if a.modelName > b.modelName {
			a, b = b, a
		}

		rel := &engine.Relation{
			Name:       relName,
			ModelAName: a.modelName,
			ModelBName: b.modelName,
		}

		switch {
		case a.fk != "":
			rel.Inline = engine.Inlined
			rel.InlineModel = a.modelName
			rel.InlineColumn = a.fk
			rel.InlineUnique = !a.isList && !b.isList
		case b.fk != "":
			rel.Inline = engine.Inlined
			rel.InlineModel = b.modelName
			rel.InlineColumn = b.fk
			rel.InlineUnique = !a.isList && !b.isList
		default:
			rel.Inline = engine.NotInlined
			rel.TableName = "_" + relName
			rel.ColumnA = "A"
			rel.ColumnB = "B"
		}
		schema.Relations[relName] = rel

		for _, side := range []rawRelationField{a, b} {
			other := b
			if side == a {
				other = b
			} else {
				other = a
			}
			model := schema.Models[side.modelName]
			if model == nil {
				return fmt.Errorf("relation %q: unknown entity %s", relName, side.modelName)
			}
			if _, ok := schema.Models[side.related]; !ok {
				return fmt.Errorf("relation %q: unknown entity %s", relName, side.related)
			}
			if model.Relations == nil {
				model.Relations = map[string]*engine.RelationField{}
			}
			model.Relations[side.name] = &engine.RelationField{
				Name:             side.name,
				ModelName:        side.modelName,
				RelatedModelName: side.related,
				OppositeName:     other.name,
				IsList:           side.isList,
				IsRequired:       side.required,
				RelationName:     relName,
			}
			model.RelationOrder = append(model.RelationOrder, side.name)
		}
	}

	return nil
}
