// Package fields models the field layout attached to a content entry.
//
// Field kinds that can carry rich-text markup advertise it through the
// RichTextProvider capability interface instead of being discovered by
// runtime type inspection. The matrix kind nests further fields per block
// instance and forwards the capability to them.
package fields

// Values holds an entry's field content keyed by field handle.
type Values map[string]any

// Field is one field attached to a layout.
type Field interface {
	Handle() string
}

// RichTextProvider is the capability satisfied by field kinds whose stored
// value contains rich-text markup. A single field may yield several markup
// segments (one per nested block instance).
type RichTextProvider interface {
	Field
	RichTextContents(values Values) []string
}

// PlainTextField stores an unformatted string value.
type PlainTextField struct {
	FieldHandle string
}

// Handle returns the field handle.
func (f PlainTextField) Handle() string {
	return f.FieldHandle
}

// RichTextField stores formatted markup that may embed inline asset
// references.
type RichTextField struct {
	FieldHandle string
}

// Handle returns the field handle.
func (f RichTextField) Handle() string {
	return f.FieldHandle
}

// RichTextContents returns the raw markup stored under the field handle.
func (f RichTextField) RichTextContents(values Values) []string {
	raw, ok := values[f.FieldHandle].(string)
	if !ok || raw == "" {
		return nil
	}
	return []string{raw}
}

// AssetsField stores a list of attached asset element identifiers.
type AssetsField struct {
	FieldHandle string
}

// Handle returns the field handle.
func (f AssetsField) Handle() string {
	return f.FieldHandle
}

// AssetIDs returns the attached asset identifiers, if any.
func (f AssetsField) AssetIDs(values Values) []int64 {
	ids, ok := values[f.FieldHandle].([]int64)
	if !ok {
		return nil
	}
	return ids
}

// Block is one block instance stored inside a matrix field value.
type Block struct {
	TypeHandle string
	Values     Values
}

// MatrixField stores an ordered list of typed block instances, each carrying
// its own nested field values.
type MatrixField struct {
	FieldHandle string
	BlockFields map[string][]Field
}

// Handle returns the field handle.
func (f MatrixField) Handle() string {
	return f.FieldHandle
}

// Blocks returns the block instances stored under the field handle.
func (f MatrixField) Blocks(values Values) []Block {
	blocks, ok := values[f.FieldHandle].([]Block)
	if !ok {
		return nil
	}
	return blocks
}

// RichTextContents inspects every block instance independently and collects
// markup from nested rich-text-capable fields.
func (f MatrixField) RichTextContents(values Values) []string {
	var contents []string
	for _, block := range f.Blocks(values) {
		for _, nested := range f.BlockFields[block.TypeHandle] {
			provider, ok := nested.(RichTextProvider)
			if !ok {
				continue
			}
			contents = append(contents, provider.RichTextContents(block.Values)...)
		}
	}
	return contents
}

// Layout is the ordered set of fields attached to an entry.
type Layout struct {
	Fields []Field
}

// RichTextProviders returns the layout's fields that can carry rich-text
// markup, in layout order.
func (l *Layout) RichTextProviders() []RichTextProvider {
	if l == nil {
		return nil
	}
	var providers []RichTextProvider
	for _, field := range l.Fields {
		if provider, ok := field.(RichTextProvider); ok {
			providers = append(providers, provider)
		}
	}
	return providers
}
