package media

import "strings"

// ResourceKind is the provider-level category of an asset.
type ResourceKind string

const (
	KindRaw   ResourceKind = "raw"
	KindAuto  ResourceKind = "auto"
	KindImage ResourceKind = "image"
	KindVideo ResourceKind = "video"
)

// ParseResourceKind coerces raw into a known kind. Anything unrecognized becomes auto.
func ParseResourceKind(raw string) ResourceKind {
	switch k := ResourceKind(strings.TrimSpace(raw)); k {
	case KindRaw, KindAuto, KindImage, KindVideo:
		return k
	default:
		return KindAuto
	}
}
