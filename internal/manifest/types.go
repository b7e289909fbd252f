package manifest

// FileName is the manifest file every package root carries.
const FileName = "package.json"

// PackageManifest holds the package.json fields hcli reads. Only main is
// validated; name, version and description are kept when they are strings
// and everything else in the file is ignored.
type PackageManifest struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Description string `json:"description,omitempty"`
	Main        string `json:"main,omitempty"`
}

// HasEntry reports whether the manifest declares a main entry.
func (m *PackageManifest) HasEntry() bool {
	return m != nil && m.Main != ""
}
