package models

import "time"

// UploadSource identifies where a snapshot's rows came from.
type UploadSource string

const (
	UploadSourceFile UploadSource = "file"
	UploadSourceHMIS UploadSource = "hmis"
)

// Upload describes a stored enrollment snapshot.
type Upload struct {
	ID                string       `json:"id"`
	Filename          string       `json:"filename"`
	Source            UploadSource `json:"source"`
	RowCount          int          `json:"row_count"`
	Columns           []string     `json:"columns"`
	ProgramCoCOptions []string     `json:"program_coc_options"`
	LocalCoCOptions   []string     `json:"local_coc_options"`
	MissingColumns    []string     `json:"missing_columns,omitempty"`
	CreatedAt         time.Time    `json:"created_at"`
	ExpiresAt         time.Time    `json:"expires_at"`
}

// UploadSnapshot is the cached raw table plus its metadata. Rows are kept
// as text so the snapshot can be re-normalized on every computation.
type UploadSnapshot struct {
	Upload  Upload     `json:"upload"`
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// CoCFilter narrows a computation to one program and/or local CoC.
type CoCFilter struct {
	ProgramCoC string `json:"program_coc,omitempty"`
	LocalCoC   string `json:"local_coc,omitempty"`
}

// IsEmpty reports whether no CoC narrowing applies.
func (f CoCFilter) IsEmpty() bool {
	return f.ProgramCoC == "" && f.LocalCoC == ""
}
