package shader

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// wgslVertexFormatMap maps WGSL vertex input types to their vertex format.
var wgslVertexFormatMap = map[string]VertexFormat{
	"f32":       VertexFormatFloat32,
	"vec2f":     VertexFormatFloat32x2,
	"vec2<f32>": VertexFormatFloat32x2,
	"vec3f":     VertexFormatFloat32x3,
	"vec3<f32>": VertexFormatFloat32x3,
	"vec4f":     VertexFormatFloat32x4,
	"vec4<f32>": VertexFormatFloat32x4,
	"u32":       VertexFormatUint32,
}

// wgslTypeLayout holds the byte size and alignment of a WGSL host-shareable type.
type wgslTypeLayout struct {
	size  uint64
	align uint64
}

var wgslScalarLayouts = map[string]wgslTypeLayout{
	"f32":         {4, 4},
	"u32":         {4, 4},
	"i32":         {4, 4},
	"vec2f":       {8, 8},
	"vec2<f32>":   {8, 8},
	"vec2<u32>":   {8, 8},
	"vec3f":       {12, 16},
	"vec3<f32>":   {12, 16},
	"vec3<u32>":   {12, 16},
	"vec4f":       {16, 16},
	"vec4<f32>":   {16, 16},
	"vec4<u32>":   {16, 16},
	"mat4x4f":     {64, 16},
	"mat4x4<f32>": {64, 16},
}

var (
	lineCommentRegex  = regexp.MustCompile(`//[^\n]*`)
	blockCommentRegex = regexp.MustCompile(`(?s)/\*.*?\*/`)
	includeRegex      = regexp.MustCompile(`(?m)^[ \t]*#include[ \t]+([\w.]+)[ \t]*$`)

	structBlockRegex = regexp.MustCompile(`struct\s+(\w+)\s*\{([^}]*)\}`)
	locationRegex    = regexp.MustCompile(`@location\((\d+)\)`)
	builtinRegex     = regexp.MustCompile(`@builtin\(\w+\)`)
	fieldRegex       = regexp.MustCompile(`(?:@\w+\([^)]*\)\s*)*(\w+)\s*:\s*(.+)`)

	vertexEntryRegex   = regexp.MustCompile(`(?s)@vertex\b.*?\bfn\s+(\w+)`)
	fragmentEntryRegex = regexp.MustCompile(`(?s)@fragment\b.*?\bfn\s+(\w+)`)

	// bindGroupDeclRegex captures group, binding, optional address space, variable name, and type
	// from declarations like: @group(0) @binding(0) var<uniform> frame: PointUniform;
	bindGroupDeclRegex = regexp.MustCompile(`@group\((\d+)\)\s*@binding\((\d+)\)\s*var(?:<([^>]*)>)?\s+(\w+)\s*:\s*([^;]+?)\s*;`)

	runtimeArrayRegex = regexp.MustCompile(`^array<\s*(\w+)\s*>$`)
)

// parsedField represents a single field extracted from a WGSL struct.
type parsedField struct {
	name      string
	typeName  string
	location  int
	isBuiltin bool
}

// parsedStruct represents a WGSL struct block.
type parsedStruct struct {
	name   string
	fields []parsedField
}

func stripComments(source string) string {
	return lineCommentRegex.ReplaceAllString(blockCommentRegex.ReplaceAllString(source, ""), "")
}

// expandIncludes replaces each "#include name" line with the registered source.
// Included sources are not expanded again.
func expandIncludes(source string, includes map[string]string) (string, error) {
	var missing []string
	out := includeRegex.ReplaceAllStringFunc(source, func(line string) string {
		name := includeRegex.FindStringSubmatch(line)[1]
		src, ok := includes[name]
		if !ok {
			missing = append(missing, name)
			return line
		}
		return strings.TrimRight(src, "\n")
	})
	if len(missing) > 0 {
		return "", fmt.Errorf("unknown include %s", strings.Join(missing, ", "))
	}
	return out, nil
}

func parseEntryPoint(source string, shaderType ShaderType) string {
	var re *regexp.Regexp
	switch shaderType {
	case ShaderTypeVertex:
		re = vertexEntryRegex
	case ShaderTypeFragment:
		re = fragmentEntryRegex
	default:
		return ""
	}
	if match := re.FindStringSubmatch(source); match != nil {
		return match[1]
	}
	return ""
}

func parseStructBlocks(source string) []parsedStruct {
	matches := structBlockRegex.FindAllStringSubmatch(source, -1)
	structs := make([]parsedStruct, 0, len(matches))
	for _, match := range matches {
		structs = append(structs, parsedStruct{name: match[1], fields: parseStructFields(match[2])})
	}
	return structs
}

func parseStructFields(body string) []parsedField {
	var fields []parsedField
	for _, line := range splitTopLevel(body) {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		field := parsedField{location: -1, isBuiltin: builtinRegex.MatchString(line)}
		if m := locationRegex.FindStringSubmatch(line); m != nil {
			field.location, _ = strconv.Atoi(m[1])
		}
		fm := fieldRegex.FindStringSubmatch(line)
		if fm == nil {
			continue
		}
		field.name = fm[1]
		field.typeName = strings.Join(strings.Fields(fm[2]), "")
		fields = append(fields, field)
	}
	return fields
}

// splitTopLevel splits a struct body on commas outside angle brackets.
func splitTopLevel(body string) []string {
	var parts []string
	depth, start := 0, 0
	for i, r := range body {
		switch r {
		case '<':
			depth++
		case '>':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, body[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, body[start:])
}

// parseVertexLayouts builds one vertex buffer layout per pure vertex input struct: one whose
// fields all carry @location and none carry @builtin.
func parseVertexLayouts(source string) ([]VertexBufferLayout, error) {
	var layouts []VertexBufferLayout
	for _, ps := range parseStructBlocks(source) {
		if len(ps.fields) == 0 {
			continue
		}
		pure := true
		for _, f := range ps.fields {
			if f.isBuiltin || f.location < 0 {
				pure = false
				break
			}
		}
		if !pure {
			continue
		}

		var layout VertexBufferLayout
		for _, f := range ps.fields {
			format, ok := wgslVertexFormatMap[f.typeName]
			if !ok {
				return nil, fmt.Errorf("struct %s: unsupported vertex type %s", ps.name, f.typeName)
			}
			layout.Attributes = append(layout.Attributes, VertexAttribute{
				Format:         format,
				Offset:         layout.ArrayStride,
				ShaderLocation: uint32(f.location),
			})
			layout.ArrayStride += format.Size()
		}
		layouts = append(layouts, layout)
	}
	return layouts, nil
}

// computeStructLayouts resolves the size and alignment of every struct whose fields are
// host-shareable, following the WGSL layout rules. Structs may reference earlier structs.
func computeStructLayouts(structs []parsedStruct) map[string]wgslTypeLayout {
	layouts := make(map[string]wgslTypeLayout)
	// Resolve repeatedly so declaration order does not matter.
	for pass := 0; pass < len(structs); pass++ {
		progress := false
		for _, ps := range structs {
			if _, done := layouts[ps.name]; done {
				continue
			}
			var offset, align uint64 = 0, 1
			ok := true
			for _, f := range ps.fields {
				fl, known := resolveTypeLayout(f.typeName, layouts)
				if !known {
					ok = false
					break
				}
				offset = roundUp(offset, fl.align) + fl.size
				align = max(align, fl.align)
			}
			if ok {
				layouts[ps.name] = wgslTypeLayout{size: roundUp(offset, align), align: align}
				progress = true
			}
		}
		if !progress {
			break
		}
	}
	return layouts
}

func resolveTypeLayout(typeName string, structs map[string]wgslTypeLayout) (wgslTypeLayout, bool) {
	if l, ok := wgslScalarLayouts[typeName]; ok {
		return l, true
	}
	l, ok := structs[typeName]
	return l, ok
}

func roundUp(v, align uint64) uint64 {
	return (v + align - 1) / align * align
}

// parseBindGroupLayouts extracts every @group(N) @binding(M) declaration, grouped by N and
// sorted by M. Buffer entries get MinBindingSize from the bound type: the struct size, or the
// element stride for a runtime-sized array.
func parseBindGroupLayouts(source string, visibility ShaderStage) (map[int]BindGroupLayoutDescriptor, map[int]map[int]string, error) {
	structLayouts := computeStructLayouts(parseStructBlocks(source))
	groups := make(map[int][]BindGroupLayoutEntry)
	varNames := make(map[int]map[int]string)

	for _, match := range bindGroupDeclRegex.FindAllStringSubmatch(source, -1) {
		group, _ := strconv.Atoi(match[1])
		binding, _ := strconv.Atoi(match[2])
		addressSpace := strings.ReplaceAll(match[3], " ", "")
		varName := match[4]
		typeName := strings.Join(strings.Fields(match[5]), "")

		entry := BindGroupLayoutEntry{Binding: uint32(binding), Visibility: visibility}
		switch {
		case addressSpace == "uniform":
			entry.Type = BindingTypeUniform
		case addressSpace == "storage" || addressSpace == "storage,read":
			entry.Type = BindingTypeReadOnlyStorage
		case addressSpace == "" && typeName == "texture_2d<f32>":
			entry.Type = BindingTypeUnfilterableTexture
		default:
			return nil, nil, fmt.Errorf("binding %s (@group(%d) @binding(%d)): unsupported resource var<%s> %s",
				varName, group, binding, match[3], typeName)
		}

		if entry.Type.IsBuffer() {
			elem := typeName
			if m := runtimeArrayRegex.FindStringSubmatch(typeName); m != nil {
				elem = m[1]
			}
			l, ok := resolveTypeLayout(elem, structLayouts)
			if !ok {
				return nil, nil, fmt.Errorf("binding %s: cannot resolve layout of %s", varName, typeName)
			}
			entry.MinBindingSize = roundUp(l.size, l.align)
		}

		groups[group] = append(groups[group], entry)
		if varNames[group] == nil {
			varNames[group] = make(map[int]string)
		}
		varNames[group][binding] = varName
	}

	result := make(map[int]BindGroupLayoutDescriptor, len(groups))
	for g, entries := range groups {
		sort.Slice(entries, func(i, j int) bool { return entries[i].Binding < entries[j].Binding })
		result[g] = BindGroupLayoutDescriptor{Entries: entries}
	}
	return result, varNames, nil
}

// MergeBindGroupLayouts merges the layouts of two stages into one set for a pipeline layout.
// Entries with the same binding have their visibility ORed; entries unique to one stage are kept.
//
// Parameters:
//   - a: layouts from one stage
//   - b: layouts from the other stage
//
// Returns:
//   - map[int]BindGroupLayoutDescriptor: the merged descriptors keyed by group index
func MergeBindGroupLayouts(a, b map[int]BindGroupLayoutDescriptor) map[int]BindGroupLayoutDescriptor {
	merged := make(map[int]BindGroupLayoutDescriptor, max(len(a), len(b)))
	for _, src := range []map[int]BindGroupLayoutDescriptor{a, b} {
		for g, desc := range src {
			cur := merged[g]
			if cur.Label == "" {
				cur.Label = desc.Label
			}
			for _, e := range desc.Entries {
				found := false
				for i := range cur.Entries {
					if cur.Entries[i].Binding == e.Binding {
						cur.Entries[i].Visibility |= e.Visibility
						found = true
						break
					}
				}
				if !found {
					cur.Entries = append(cur.Entries, e)
				}
			}
			sort.Slice(cur.Entries, func(i, j int) bool { return cur.Entries[i].Binding < cur.Entries[j].Binding })
			merged[g] = cur
		}
	}
	return merged
}
