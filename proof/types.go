package proof

import "time"

// Kind names the proof kinds understood by this implementation. Proofs of
// other kinds are retained and passed through by the store but are not
// interpreted by the WoT or verification engines (spec.md §3).
type Kind string

const (
	KindTrust         Kind = "trust"
	KindPackageReview Kind = "package review"
	KindCodeReview    Kind = "code review"
)

// ActiveSchemaVersion is the integer schema version written by this
// implementation. spec.md §3 fixes it at -1 for the currently active
// schema.
const ActiveSchemaVersion = -1

// IdentityRecord identifies a proof's author, or one of the subjects of a
// trust proof: a key type tag, the Id itself, and an optional self-reported
// proof-repository URL.
type IdentityRecord struct {
	IdType string `yaml:"id-type"`
	Id     string `yaml:"id"`
	URL    string `yaml:"url,omitempty"`
}

// Advisory describes a fix present in this version for issues that
// affected some window of earlier versions (spec.md §3, GLOSSARY).
type Advisory struct {
	Ids      []string      `yaml:"ids"`
	Range    AdvisoryRange `yaml:"range"`
	Severity Level         `yaml:"severity"`
}

// Issue declares a known, as yet unfixed, problem in this version
// (spec.md §3, GLOSSARY).
type Issue struct {
	Id       string `yaml:"id"`
	Severity Level  `yaml:"severity"`
}

// Alternative names a competing package the reviewer considers comparable.
type Alternative struct {
	Source string `yaml:"source"`
	Name   string `yaml:"name"`
}

// Flags carries whole-package-scoped (not version-scoped) assertions.
type Flags struct {
	Unmaintained bool `yaml:"unmaintained,omitempty"`
}

// Review carries the reviewer's thoroughness/understanding/rating
// assessment, common to package and code reviews.
type Review struct {
	Thoroughness  Level  `yaml:"thoroughness"`
	Understanding Level  `yaml:"understanding"`
	Rating        Rating `yaml:"rating"`
}

// PackageId identifies the exact package version a package or code review
// is about, bound to the recursive digest of its content.
type PackageId struct {
	Source   string `yaml:"source"`
	Name     string `yaml:"name"`
	Version  string `yaml:"version"`
	Digest   string `yaml:"digest"`
	Revision string `yaml:"revision,omitempty"`
}

// FileEntry is one per-file entry in a code review proof.
type FileEntry struct {
	Path   string `yaml:"path"`
	Digest string `yaml:"digest"`
}

// Body is the decoded form of a proof's signed content: the common header
// fields plus whichever kind-specific fields apply, plus any unrecognized
// top-level fields preserved verbatim for forward compatibility
// (spec.md §9, "Schema evolution / unknown fields").
//
// Exactly one of Ids (trust) or Package (review kinds) is populated,
// selected by Kind.
type Body struct {
	Version int            `yaml:"version"`
	Kind    Kind           `yaml:"kind"`
	Date    time.Time      `yaml:"date"`
	From    IdentityRecord `yaml:"from"`

	// Trust proof fields.
	Ids      []IdentityRecord `yaml:"ids,omitempty"`
	Trust    *TrustLevel      `yaml:"trust,omitempty"`
	Override []IdentityRecord `yaml:"override,omitempty"`

	// Review proof fields (package review and code review).
	Package      *PackageId    `yaml:"package,omitempty"`
	Review       *Review       `yaml:"review,omitempty"`
	Advisories   []Advisory    `yaml:"advisories,omitempty"`
	Issues       []Issue       `yaml:"issues,omitempty"`
	Alternatives []Alternative `yaml:"alternatives,omitempty"`
	Flags        *Flags        `yaml:"flags,omitempty"`
	Files        []FileEntry   `yaml:"files,omitempty"`

	Comment string `yaml:"comment,omitempty"`

	// Extra preserves any field this implementation does not know about,
	// so that proofs from a future schema version remain signature-valid
	// after a decode/encode round trip.
	Extra map[string]interface{} `yaml:",inline"`
}

// CoversOnlyFiles reports whether this is a code review proof scoped to a
// specific file list rather than the whole package (spec.md §3: "Code
// review proof... Treated by the verification engine as a review that
// covers only the listed files").
func (b *Body) CoversOnlyFiles() bool {
	return b.Kind == KindCodeReview && len(b.Files) > 0
}
