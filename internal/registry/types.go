package registry

// Latest is the version sentinel meaning "newest published version".
const Latest = "latest"

// Document is the registry's metadata record for one package.
type Document struct {
	Name     string                 `json:"name"`
	DistTags map[string]string      `json:"dist-tags"`
	Versions map[string]VersionMeta `json:"versions"`
}

// VersionMeta is the per-version entry of a Document.
type VersionMeta struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Main    string `json:"main,omitempty"`
	Dist    Dist   `json:"dist"`
}

// Dist locates and authenticates a version's tarball.
type Dist struct {
	Tarball   string `json:"tarball"`
	Shasum    string `json:"shasum,omitempty"`
	Integrity string `json:"integrity,omitempty"`
}

// VersionList returns the document's version strings in unspecified order.
func (d *Document) VersionList() []string {
	if d == nil || len(d.Versions) == 0 {
		return []string{}
	}
	out := make([]string, 0, len(d.Versions))
	for v := range d.Versions {
		out = append(out, v)
	}
	return out
}
