// Package richtext scans rich-text field markup for embedded asset
// references.
//
// Reference grammar:
//
//	{asset:<assetId>@<siteId>:url||<transform-or-url>}
//
// Both id groups are decimal digits. The trailing segment after "url||" is a
// URL/transform token and carries no information this subsystem needs.
package richtext

import (
	"regexp"
	"strconv"
)

// Reference is one embedded asset reference found in rich-text markup.
type Reference struct {
	AssetID int64
	SiteID  int64
}

// referencePattern matches one inline asset reference. The trailing segment
// cannot contain '}' so matches never span two references.
var referencePattern = regexp.MustCompile(`\{asset:(\d+)@(\d+):url\|\|([^}]+)\}`)

// ExtractReferences returns every asset reference embedded in the given
// markup, left to right. Markup that almost matches the grammar simply yields
// nothing; there is no malformed-input error.
func ExtractReferences(markup string) []Reference {
	if markup == "" {
		return nil
	}

	matches := referencePattern.FindAllStringSubmatch(markup, -1)
	if len(matches) == 0 {
		return nil
	}

	references := make([]Reference, 0, len(matches))
	for _, match := range matches {
		assetID, err := strconv.ParseInt(match[1], 10, 64)
		if err != nil {
			continue
		}
		siteID, err := strconv.ParseInt(match[2], 10, 64)
		if err != nil {
			continue
		}
		references = append(references, Reference{AssetID: assetID, SiteID: siteID})
	}

	return references
}
