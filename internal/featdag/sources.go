package featdag

// Data sources the user can switch on per dataset. Each gates the upstream
// integration that feeds a slice of the catalog.
const (
	SourceGit           = "git"
	SourceBuildLogs     = "build_logs"
	SourceGitHubAPI     = "github_api"
	SourceCodeQuality   = "code_quality"
	SourceVulnerability = "vulnerability"
)

// AllSources lists every toggleable data source in display order.
var AllSources = []string{
	SourceGit,
	SourceBuildLogs,
	SourceGitHubAPI,
	SourceCodeQuality,
	SourceVulnerability,
}

// featureSourceOwner maps a feature's declared source to the data source
// that must be enabled for it. Declared sources absent from this table and
// from alwaysOnFeatureSources never survive filtering.
var featureSourceOwner = map[string]string{
	"git":           SourceGit,
	"build_log":     SourceBuildLogs,
	"github":        SourceGitHubAPI,
	"quality":       SourceCodeQuality,
	"vulnerability": SourceVulnerability,
}

// alwaysOnFeatureSources bypass the enabled-source gate entirely.
var alwaysOnFeatureSources = map[string]struct{}{
	"metadata": {},
	"computed": {},
}

// resourcesBySource maps a data source to the resource node ids it makes
// available.
var resourcesBySource = map[string][]string{
	SourceGit:           {"git_repo", "git_history"},
	SourceBuildLogs:     {"build_log_archive"},
	SourceGitHubAPI:     {"github_api"},
	SourceCodeQuality:   {"quality_report"},
	SourceVulnerability: {"vuln_report"},
}

// baseResources are available regardless of enabled sources; the uploaded
// dataset rows themselves always exist.
var baseResources = []string{"dataset_rows"}

// SourceSet is the set of enabled data sources.
type SourceSet map[string]struct{}

// NewSourceSet builds a set from the given source names.
func NewSourceSet(sources ...string) SourceSet {
	s := make(SourceSet, len(sources))
	for _, v := range sources {
		s[v] = struct{}{}
	}
	return s
}

// Has reports membership.
func (s SourceSet) Has(source string) bool {
	_, ok := s[source]
	return ok
}

// Slice returns the members in AllSources order, ignoring unknown entries.
func (s SourceSet) Slice() []string {
	out := make([]string, 0, len(s))
	for _, src := range AllSources {
		if s.Has(src) {
			out = append(out, src)
		}
	}
	return out
}

// impliedResources is the resource-id set available under the enabled
// sources, base resources included.
func impliedResources(enabled SourceSet) map[string]struct{} {
	out := make(map[string]struct{})
	for _, r := range baseResources {
		out[r] = struct{}{}
	}
	for src := range enabled {
		for _, r := range resourcesBySource[src] {
			out[r] = struct{}{}
		}
	}
	return out
}

// featureEnabled reports whether a declared feature source is visible under
// the enabled data sources.
func featureEnabled(declared string, enabled SourceSet) bool {
	if _, ok := alwaysOnFeatureSources[declared]; ok {
		return true
	}
	owner, ok := featureSourceOwner[declared]
	if !ok {
		return false
	}
	return enabled.Has(owner)
}
