// Package schema describes how thesis records are laid out in storage. A
// Layout maps each canonical field onto a column of a concrete table
// convention so that queries and row decoding stay independent of which
// convention a deployment uses.
package schema

// Field is the canonical name of a thesis or profile attribute.
type Field string

// Canonical thesis fields.
const (
	FieldID               Field = "id"
	FieldTitle            Field = "title"
	FieldAbstract         Field = "abstract"
	FieldKeywords         Field = "keywords"
	FieldDepartment       Field = "department"
	FieldProgram          Field = "program"
	FieldAuthorFirstName  Field = "author_first_name"
	FieldAuthorMiddleName Field = "author_middle_name"
	FieldAuthorLastName   Field = "author_last_name"
	FieldAdvisors         Field = "advisors"
	FieldDegreeAwarded    Field = "degree_awarded"
	FieldCreatedAt        Field = "created_at"
	FieldCoverImage       Field = "cover_image"
	FieldRecommendations  Field = "recommendations"
	FieldLanguage         Field = "language"
)

// Canonical profile fields, available on layouts with a profile join.
const (
	FieldProfileID            Field = "profile_id"
	FieldProfileName          Field = "profile_name"
	FieldProfileEmail         Field = "profile_email"
	FieldProfileAffiliation   Field = "profile_affiliation"
	FieldProfileDepartment    Field = "profile_department"
	FieldProfileDegreeProgram Field = "profile_degree_program"
	FieldProfileBio           Field = "profile_bio"
	FieldProfileImageURL      Field = "profile_image_url"
)

// canonicalFields is the set of every field a layout may map.
var canonicalFields = map[Field]bool{
	FieldID:                   true,
	FieldTitle:                true,
	FieldAbstract:             true,
	FieldKeywords:             true,
	FieldDepartment:           true,
	FieldProgram:              true,
	FieldAuthorFirstName:      true,
	FieldAuthorMiddleName:     true,
	FieldAuthorLastName:       true,
	FieldAdvisors:             true,
	FieldDegreeAwarded:        true,
	FieldCreatedAt:            true,
	FieldCoverImage:           true,
	FieldRecommendations:      true,
	FieldLanguage:             true,
	FieldProfileID:            true,
	FieldProfileName:          true,
	FieldProfileEmail:         true,
	FieldProfileAffiliation:   true,
	FieldProfileDepartment:    true,
	FieldProfileDegreeProgram: true,
	FieldProfileBio:           true,
	FieldProfileImageURL:      true,
}

// ColumnType is the storage type of a mapped column.
type ColumnType string

// Supported column types.
const (
	ColumnUUID      ColumnType = "uuid"
	ColumnText      ColumnType = "text"
	ColumnTextArray ColumnType = "text_array"
	ColumnDate      ColumnType = "date"
	ColumnTimestamp ColumnType = "timestamp"
	ColumnInt       ColumnType = "int"
)

var validColumnTypes = map[ColumnType]bool{
	ColumnUUID:      true,
	ColumnText:      true,
	ColumnTextArray: true,
	ColumnDate:      true,
	ColumnTimestamp: true,
	ColumnInt:       true,
}

// Source names the table a column lives on.
type Source string

// Column sources. An empty source means SourceThesis.
const (
	SourceThesis  Source = "thesis"
	SourceProfile Source = "profile"
)

// Layout is a parsed YAML storage layout.
type Layout struct {
	// Name identifies the layout, e.g. "thesis_tbl" or "tblthesis".
	Name string `yaml:"name"`

	// Table is the thesis table name.
	Table string `yaml:"table"`

	// SearchVector is the precomputed tsvector column. Empty disables the
	// full-text strategy for this layout.
	SearchVector string `yaml:"search_vector"`

	// Columns maps canonical fields onto columns.
	Columns []Column `yaml:"columns"`

	// Profile describes the author profile join, if any.
	Profile *ProfileJoin `yaml:"profile,omitempty"`

	// SchemaHash is the SHA256 hex digest of the raw YAML bytes.
	SchemaHash string `yaml:"-"`
}

// Column maps one canonical field onto a stored column.
type Column struct {
	Field  Field      `yaml:"field"`
	Name   string     `yaml:"name"`
	Type   ColumnType `yaml:"type"`
	Source Source     `yaml:"source,omitempty"`
}

// ProfileJoin describes how thesis rows join their author profile.
type ProfileJoin struct {
	// Table is the profile table name.
	Table string `yaml:"table"`

	// ForeignKey is the column on the thesis table referencing the profile.
	ForeignKey string `yaml:"foreign_key"`

	// Key is the referenced column on the profile table.
	Key string `yaml:"key"`
}
